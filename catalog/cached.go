package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/inframex/pos/internal/errors"
	"github.com/inframex/pos/internal/log"
	"github.com/inframex/pos/internal/otel"
)

const keyProducts = "products:%d"

// CachedCatalog decorates a Catalog with a redis cache on the id lookup, the
// hottest read on the till. Every stock or product mutation invalidates the
// cached entry; a failed invalidation fails the mutation so the cache never
// serves stock the catalog no longer has.
type CachedCatalog struct {
	inner Catalog
	cache *redis.Client
}

func NewCachedCatalog(inner Catalog, cache *redis.Client) *CachedCatalog {
	return &CachedCatalog{inner: inner, cache: cache}
}

func (cc *CachedCatalog) FindById(c context.Context, id int64) (Product, bool, error) {
	c, span := otel.Tracer.Start(c, "CachedCatalog FindById")
	defer span.End()

	cacheKey := fmt.Sprintf(keyProducts, id)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CachedCatalog FindById").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	jsonCache, err := cc.cache.JSONGet(c, cacheKey).Result()
	if err == nil && jsonCache != "" {
		product := Product{}
		err = json.Unmarshal([]byte(jsonCache), &product)
		if err == nil {
			logger.Trace().Msg("found product in cache")
			return product, true, nil
		}
		err = fmt.Errorf("failed unmarshaling cached product with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}

	logger.Trace().Msg("finding product in catalog")
	product, found, err := cc.inner.FindById(c, id)
	if err != nil || !found {
		return Product{}, found, err
	}

	err = cc.cache.JSONSet(c, cacheKey, "$", product).Err()
	if err != nil {
		err = fmt.Errorf("failed inserting product to cache with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
	}
	return product, true, nil
}

func (cc *CachedCatalog) FindByBarcode(c context.Context, barcode string) (Product, bool, error) {
	return cc.inner.FindByBarcode(c, barcode)
}

func (cc *CachedCatalog) Search(c context.Context, query SearchQuery) ([]Product, error) {
	return cc.inner.Search(c, query)
}

func (cc *CachedCatalog) FindLowStock(c context.Context) ([]Product, error) {
	return cc.inner.FindLowStock(c)
}

func (cc *CachedCatalog) Insert(c context.Context, param Product) (Product, error) {
	return cc.inner.Insert(c, param)
}

func (cc *CachedCatalog) Update(
	c context.Context,
	id int64,
	patch ProductPatch,
) (Product, bool, error) {
	product, found, err := cc.inner.Update(c, id, patch)
	if err != nil || !found {
		return product, found, err
	}
	return product, true, cc.invalidate(c, id)
}

func (cc *CachedCatalog) Remove(c context.Context, id int64) (bool, error) {
	removed, err := cc.inner.Remove(c, id)
	if err != nil || !removed {
		return removed, err
	}
	return true, cc.invalidate(c, id)
}

func (cc *CachedCatalog) DecrementStock(c context.Context, id int64, amount int32) error {
	err := cc.inner.DecrementStock(c, id, amount)
	if err != nil {
		return err
	}
	return cc.invalidate(c, id)
}

func (cc *CachedCatalog) RestoreStock(c context.Context, id int64, amount int32) error {
	err := cc.inner.RestoreStock(c, id, amount)
	if err != nil {
		return err
	}
	return cc.invalidate(c, id)
}

func (cc *CachedCatalog) invalidate(c context.Context, id int64) error {
	c, span := otel.Tracer.Start(c, "CachedCatalog invalidate")
	defer span.End()

	cacheKey := fmt.Sprintf(keyProducts, id)
	err := cc.cache.Del(c, cacheKey).Err()
	if err != nil {
		err = fmt.Errorf("failed deleting product from cache with error=%w", err)
		errors.HandleError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyCacheKey, cacheKey).Msg(err.Error())
		return err
	}
	return nil
}
