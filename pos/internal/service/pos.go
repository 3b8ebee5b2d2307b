package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/inframex/pos/cart"
	"github.com/inframex/pos/catalog"
	"github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/pos/internal/otel"
	"github.com/inframex/pos/pos/pkg/request"
	"github.com/inframex/pos/pos/pkg/response"
)

// session is one open till: its cart, its checkout gate and the last
// committed receipt.
type session struct {
	cart        *cart.Cart
	checkout    *cart.Checkout
	lastReceipt *cart.Receipt
}

// PosService adapts HTTP requests onto the transaction engine. Each cart id
// names one till session; a session is driven by a single actor, only the
// session map itself is guarded.
type PosService struct {
	catalog  catalog.Catalog
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

func NewPosService(cat catalog.Catalog) *PosService {
	return &PosService{catalog: cat, sessions: map[uuid.UUID]*session{}}
}

func (s *PosService) session(id uuid.UUID) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *PosService) OpenCart(c context.Context) response.Cart {
	c, span := otel.Tracer.Start(c, "PosService OpenCart")
	defer span.End()

	id := uuid.New()
	s.mu.Lock()
	s.sessions[id] = &session{
		cart:     cart.New(s.catalog),
		checkout: cart.NewCheckout(),
	}
	s.mu.Unlock()

	zerolog.Ctx(c).Info().
		Str(log.KeyTag, "PosService OpenCart").
		Str(log.KeyCartID, id.String()).
		Msg("opened cart")
	return response.NewCart(id, nil, false)
}

func (s *PosService) FindCart(c context.Context, cartID uuid.UUID) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "PosService FindCart")
	defer span.End()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		return response.Cart{}, err
	}
	return response.NewCart(cartID, sess.cart.Lines(), false), nil
}

func (s *PosService) AddItem(
	c context.Context,
	cartID uuid.UUID,
	param request.AddItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "PosService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosService AddItem").
		Str(log.KeyCartID, cartID.String()).
		Int64(log.KeyProductID, param.ProductID).
		Logger()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	_, clamped, err := sess.cart.AddItem(c, param.ProductID)
	if err != nil {
		err = fmt.Errorf("failed adding item to cart with error=%w", err)
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Bool(log.KeyClamped, clamped).Msg("added item to cart")

	return response.NewCart(cartID, sess.cart.Lines(), clamped), nil
}

func (s *PosService) SetQuantity(
	c context.Context,
	cartID uuid.UUID,
	productID int64,
	param request.SetQuantity,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "PosService SetQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosService SetQuantity").
		Str(log.KeyCartID, cartID.String()).
		Int64(log.KeyProductID, productID).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger.Info().Msg("setting cart line quantity")
	c = logger.WithContext(c)
	_, clamped, err := sess.cart.SetQuantity(c, productID, param.Quantity)
	if err != nil {
		err = fmt.Errorf("failed setting cart line quantity with error=%w", err)
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Bool(log.KeyClamped, clamped).Msg("set cart line quantity")

	return response.NewCart(cartID, sess.cart.Lines(), clamped), nil
}

func (s *PosService) RemoveItem(
	c context.Context,
	cartID uuid.UUID,
	productID int64,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "PosService RemoveItem")
	defer span.End()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		return response.Cart{}, err
	}

	sess.cart.RemoveItem(productID)
	zerolog.Ctx(c).Info().
		Str(log.KeyTag, "PosService RemoveItem").
		Str(log.KeyCartID, cartID.String()).
		Int64(log.KeyProductID, productID).
		Msg("removed item from cart")
	return response.NewCart(cartID, sess.cart.Lines(), false), nil
}

func (s *PosService) ClearCart(c context.Context, cartID uuid.UUID) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "PosService ClearCart")
	defer span.End()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		return response.Cart{}, err
	}

	sess.cart.Clear()
	zerolog.Ctx(c).Info().
		Str(log.KeyTag, "PosService ClearCart").
		Str(log.KeyCartID, cartID.String()).
		Msg("cleared cart")
	return response.NewCart(cartID, nil, false), nil
}

func (s *PosService) Checkout(c context.Context, cartID uuid.UUID) (response.Receipt, error) {
	c, span := otel.Tracer.Start(c, "PosService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosService Checkout").
		Str(log.KeyCartID, cartID.String()).
		Logger()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Receipt{}, err
	}

	logger.Info().Msg("committing cart")
	c = logger.WithContext(c)
	receipt, err := sess.checkout.Commit(c, sess.cart, s.catalog)
	if err != nil {
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg("failed committing cart")
		return response.Receipt{}, err
	}
	sess.lastReceipt = &receipt
	logger.Info().
		Str(log.KeyReceiptID, receipt.ID.String()).
		Str(log.KeyTotal, receipt.Total.String()).
		Msg("committed cart")

	return response.NewReceipt(cartID, receipt), nil
}

func (s *PosService) LastReceipt(c context.Context, cartID uuid.UUID) (response.Receipt, error) {
	c, span := otel.Tracer.Start(c, "PosService LastReceipt")
	defer span.End()

	sess, ok := s.session(cartID)
	if !ok {
		err := errors.ErrCartNotFound
		errors.HandleError(err, span)
		return response.Receipt{}, err
	}
	if sess.lastReceipt == nil {
		err := errors.ErrReceiptNotFound
		errors.HandleError(err, span)
		return response.Receipt{}, err
	}
	return response.NewReceipt(cartID, *sess.lastReceipt), nil
}

func (s *PosService) SearchProducts(
	c context.Context,
	query catalog.SearchQuery,
) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService SearchProducts")
	defer span.End()

	products, err := s.catalog.Search(c, query)
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		errors.HandleError(err, span)
		return nil, err
	}
	return response.NewProducts(products), nil
}

func (s *PosService) FindProductById(c context.Context, id int64) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService FindProductById")
	defer span.End()

	product, found, err := s.catalog.FindById(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding product by id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return response.Product{}, err
	}
	if !found {
		return response.Product{}, errors.ErrProductNotFound
	}
	return response.NewProduct(product), nil
}

func (s *PosService) FindProductByBarcode(
	c context.Context,
	barcode string,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService FindProductByBarcode")
	defer span.End()

	product, found, err := s.catalog.FindByBarcode(c, barcode)
	if err != nil {
		err = fmt.Errorf("failed finding product by barcode=%s with error=%w", barcode, err)
		errors.HandleError(err, span)
		return response.Product{}, err
	}
	if !found {
		return response.Product{}, errors.ErrProductNotFound
	}
	return response.NewProduct(product), nil
}

func (s *PosService) LowStockProducts(c context.Context) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService LowStockProducts")
	defer span.End()

	products, err := s.catalog.FindLowStock(c)
	if err != nil {
		err = fmt.Errorf("failed finding low stock products with error=%w", err)
		errors.HandleError(err, span)
		return nil, err
	}
	return response.NewProducts(products), nil
}

func (s *PosService) InsertProduct(
	c context.Context,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PosService InsertProduct").
		Str("sku", param.SKU).
		Logger()

	logger.Info().Msg("inserting product")
	product, err := s.catalog.Insert(c, catalog.Product{
		SKU:         param.SKU,
		Name:        param.Name,
		Description: param.Description,
		Price:       param.Price,
		Cost:        param.Cost,
		Stock:       param.Stock,
		MinStock:    param.MinStock,
		Unit:        param.Unit,
		Barcode:     param.Barcode,
		Category:    param.Category,
		IsActive:    true,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Int64(log.KeyProductID, product.ID).Msg("inserted product")
	return response.NewProduct(product), nil
}

func (s *PosService) UpdateProduct(
	c context.Context,
	id int64,
	param request.UpdateProduct,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "PosService UpdateProduct")
	defer span.End()

	product, found, err := s.catalog.Update(c, id, catalog.ProductPatch{
		SKU:         param.SKU,
		Name:        param.Name,
		Description: param.Description,
		Price:       param.Price,
		Cost:        param.Cost,
		Stock:       param.Stock,
		MinStock:    param.MinStock,
		Unit:        param.Unit,
		Barcode:     param.Barcode,
		Category:    param.Category,
		IsActive:    param.IsActive,
	})
	if err != nil {
		err = fmt.Errorf("failed updating product id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return response.Product{}, err
	}
	if !found {
		return response.Product{}, errors.ErrProductNotFound
	}
	return response.NewProduct(product), nil
}

func (s *PosService) RemoveProduct(c context.Context, id int64) error {
	c, span := otel.Tracer.Start(c, "PosService RemoveProduct")
	defer span.End()

	removed, err := s.catalog.Remove(c, id)
	if err != nil {
		err = fmt.Errorf("failed removing product id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return err
	}
	if !removed {
		return errors.ErrProductNotFound
	}
	return nil
}
