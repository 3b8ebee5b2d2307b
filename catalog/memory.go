package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/inframex/pos/internal/errors"
)

// MemoryCatalog implements Catalog with in-memory storage. The catalog is
// shared across till sessions, so every access goes through the mutex; the
// conditional decrement is atomic under it.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products []*Product
	nextID   int64
}

func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	m := &MemoryCatalog{products: make([]*Product, 0, len(products)), nextID: 1}
	for _, p := range products {
		stored := p
		if stored.ID == 0 {
			stored.ID = m.nextID
		}
		if stored.ID >= m.nextID {
			m.nextID = stored.ID + 1
		}
		m.products = append(m.products, &stored)
	}
	return m
}

func (m *MemoryCatalog) find(id int64) *Product {
	for _, p := range m.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *MemoryCatalog) FindById(c context.Context, id int64) (Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.find(id)
	if p == nil || !p.IsActive {
		return Product{}, false, nil
	}
	return *p, true, nil
}

func (m *MemoryCatalog) FindByBarcode(c context.Context, barcode string) (Product, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.Barcode == barcode && p.IsActive {
			return *p, true, nil
		}
	}
	return Product{}, false, nil
}

func (m *MemoryCatalog) Search(c context.Context, query SearchQuery) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(query.Search)
	result := []Product{}
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) &&
			!strings.Contains(p.Barcode, query.Search) {
			continue
		}
		if query.Category != "" && p.Category != query.Category {
			continue
		}
		result = append(result, *p)
	}
	return result, nil
}

func (m *MemoryCatalog) FindLowStock(c context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []Product{}
	for _, p := range m.products {
		if p.IsActive && p.Stock <= p.MinStock {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *MemoryCatalog) Insert(c context.Context, param Product) (Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.products {
		if p.SKU == param.SKU {
			return Product{}, errors.ErrProductExists
		}
	}
	param.ID = m.nextID
	m.nextID++
	stored := param
	m.products = append(m.products, &stored)
	return stored, nil
}

func (m *MemoryCatalog) Update(
	c context.Context,
	id int64,
	patch ProductPatch,
) (Product, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(id)
	if p == nil {
		return Product{}, false, nil
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.Unit != nil {
		p.Unit = *patch.Unit
	}
	if patch.Barcode != nil {
		p.Barcode = *patch.Barcode
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	return *p, true, nil
}

// Remove soft deletes: the row is kept but the product disappears from every
// lookup, so open carts holding it see it as gone on their next touch.
func (m *MemoryCatalog) Remove(c context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(id)
	if p == nil {
		return false, nil
	}
	p.IsActive = false
	return true, nil
}

func (m *MemoryCatalog) DecrementStock(c context.Context, id int64, amount int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(id)
	if p == nil || !p.IsActive {
		return errors.ErrProductNotFound
	}
	if p.Stock < amount {
		return errors.ErrInsufficientStock
	}
	p.Stock -= amount
	return nil
}

func (m *MemoryCatalog) RestoreStock(c context.Context, id int64, amount int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.find(id)
	if p == nil {
		return errors.ErrProductNotFound
	}
	p.Stock += amount
	return nil
}
