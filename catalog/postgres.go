package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/internal/otel"
)

// PostgresCatalog implements Catalog on a pgx pool. The conditional stock
// decrement relies on a single guarded UPDATE, so concurrent commits against
// the same product cannot both pass the stock limit.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

const productColumns = `id, sku, name, description, price, cost, stock, min_stock, unit, barcode, category, is_active`

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var price, cost pgtype.Numeric
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&price,
		&cost,
		&p.Stock,
		&p.MinStock,
		&p.Unit,
		&p.Barcode,
		&p.Category,
		&p.IsActive,
	)
	if err != nil {
		return Product{}, err
	}
	p.Price = decimal.NewFromBigInt(price.Int, price.Exp)
	p.Cost = decimal.NewFromBigInt(cost.Int, cost.Exp)
	return p, nil
}

func (pc *PostgresCatalog) FindById(c context.Context, id int64) (Product, bool, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog FindById")
	defer span.End()

	row := pc.pool.QueryRow(
		c,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND is_active`,
		id,
	)
	p, err := scanProduct(row)
	if err == pgx.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding product by id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return Product{}, false, err
	}
	return p, true, nil
}

func (pc *PostgresCatalog) FindByBarcode(c context.Context, barcode string) (Product, bool, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog FindByBarcode")
	defer span.End()

	row := pc.pool.QueryRow(
		c,
		`SELECT `+productColumns+` FROM products WHERE barcode = $1 AND is_active`,
		barcode,
	)
	p, err := scanProduct(row)
	if err == pgx.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding product by barcode=%s with error=%w", barcode, err)
		errors.HandleError(err, span)
		return Product{}, false, err
	}
	return p, true, nil
}

func (pc *PostgresCatalog) Search(c context.Context, query SearchQuery) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog Search")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PostgresCatalog Search").
		Str(log.KeySearch, query.Search).
		Str(log.KeyCategory, query.Category).
		Logger()

	rows, err := pc.pool.Query(
		c,
		`SELECT `+productColumns+` FROM products
		 WHERE is_active
		   AND ($1 = '' OR lower(name) LIKE '%' || lower($1) || '%'
		     OR lower(sku) LIKE '%' || lower($1) || '%'
		     OR barcode LIKE '%' || $1 || '%')
		   AND ($2 = '' OR category = $2)
		 ORDER BY id`,
		query.Search,
		query.Category,
	)
	if err != nil {
		err = fmt.Errorf("failed searching products with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			err = fmt.Errorf("failed scanning product with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (pc *PostgresCatalog) FindLowStock(c context.Context) ([]Product, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog FindLowStock")
	defer span.End()

	rows, err := pc.pool.Query(
		c,
		`SELECT `+productColumns+` FROM products WHERE is_active AND stock <= min_stock ORDER BY id`,
	)
	if err != nil {
		err = fmt.Errorf("failed finding low stock products with error=%w", err)
		errors.HandleError(err, span)
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			err = fmt.Errorf("failed scanning product with error=%w", err)
			errors.HandleError(err, span)
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (pc *PostgresCatalog) Insert(c context.Context, param Product) (Product, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog Insert")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PostgresCatalog Insert").
		Str("sku", param.SKU).
		Logger()

	logger.Info().Msg("checking product is not exist")
	var exists bool
	err := pc.pool.QueryRow(
		c,
		`SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`,
		param.SKU,
	).Scan(&exists)
	if err != nil {
		err = fmt.Errorf("failed checking product existence with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	if exists {
		err = errors.ErrProductExists
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return Product{}, err
	}
	logger.Info().Msg("product is not exist")

	logger.Info().Msg("inserting product")
	row := pc.pool.QueryRow(
		c,
		`INSERT INTO products (sku, name, description, price, cost, stock, min_stock, unit, barcode, category, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+productColumns,
		param.SKU,
		param.Name,
		param.Description,
		numeric(param.Price),
		numeric(param.Cost),
		param.Stock,
		param.MinStock,
		param.Unit,
		param.Barcode,
		param.Category,
		param.IsActive,
	)
	p, err := scanProduct(row)
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Product{}, err
	}
	logger.Info().Msg("inserted product")
	return p, nil
}

func (pc *PostgresCatalog) Update(
	c context.Context,
	id int64,
	patch ProductPatch,
) (Product, bool, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog Update")
	defer span.End()

	sets := []string{}
	args := []interface{}{id}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.SKU != nil {
		add("sku", *patch.SKU)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", numeric(*patch.Price))
	}
	if patch.Cost != nil {
		add("cost", numeric(*patch.Cost))
	}
	if patch.Stock != nil {
		add("stock", *patch.Stock)
	}
	if patch.MinStock != nil {
		add("min_stock", *patch.MinStock)
	}
	if patch.Unit != nil {
		add("unit", *patch.Unit)
	}
	if patch.Barcode != nil {
		add("barcode", *patch.Barcode)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if len(sets) == 0 {
		row := pc.pool.QueryRow(c, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
		p, err := scanProduct(row)
		if err == pgx.ErrNoRows {
			return Product{}, false, nil
		}
		if err != nil {
			errors.HandleError(err, span)
			return Product{}, false, err
		}
		return p, true, nil
	}

	row := pc.pool.QueryRow(
		c,
		`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+productColumns,
		args...,
	)
	p, err := scanProduct(row)
	if err == pgx.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed updating product id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return Product{}, false, err
	}
	return p, true, nil
}

func (pc *PostgresCatalog) Remove(c context.Context, id int64) (bool, error) {
	c, span := otel.Tracer.Start(c, "PostgresCatalog Remove")
	defer span.End()

	tag, err := pc.pool.Exec(c, `UPDATE products SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		err = fmt.Errorf("failed removing product id=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (pc *PostgresCatalog) DecrementStock(c context.Context, id int64, amount int32) error {
	c, span := otel.Tracer.Start(c, "PostgresCatalog DecrementStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "PostgresCatalog DecrementStock").
		Int64(log.KeyProductID, id).
		Int32(log.KeyQuantity, amount).
		Logger()

	logger.Info().Msg("decrementing product stock")
	tag, err := pc.pool.Exec(
		c,
		`UPDATE products SET stock = stock - $2 WHERE id = $1 AND is_active AND stock >= $2`,
		id,
		amount,
	)
	if err != nil {
		err = fmt.Errorf("failed decrementing stock for productId=%d with error=%w", id, err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		_, found, err := pc.FindById(c, id)
		if err != nil {
			return err
		}
		if !found {
			err = errors.ErrProductNotFound
		} else {
			err = errors.ErrInsufficientStock
		}
		errors.HandleError(err, span)
		logger.Info().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("decremented product stock")
	return nil
}

func (pc *PostgresCatalog) RestoreStock(c context.Context, id int64, amount int32) error {
	c, span := otel.Tracer.Start(c, "PostgresCatalog RestoreStock")
	defer span.End()

	tag, err := pc.pool.Exec(
		c,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`,
		id,
		amount,
	)
	if err != nil {
		err = fmt.Errorf("failed restoring stock for productId=%d with error=%w", id, err)
		errors.HandleError(err, span)
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrProductNotFound
	}
	return nil
}
