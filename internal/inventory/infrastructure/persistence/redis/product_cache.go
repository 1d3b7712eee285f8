// Package redis 提供商品读路径的旁路缓存装饰器。
// 预留/回补等写路径始终直达数据库，缓存只服务目录查询。
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/ordermanagement/pkg/cache"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
)

const productCacheTTL = 5 * time.Minute

// cacheClient 是 *cache.RedisCache 满足的最小缓存接口
type cacheClient interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CachedProductRepository 在 domain.ProductRepository 之上叠加 Redis 读缓存
type CachedProductRepository struct {
	inner domain.ProductRepository
	cache cacheClient
}

// NewCachedProductRepository 创建带缓存的商品仓储
func NewCachedProductRepository(inner domain.ProductRepository, c cacheClient) domain.ProductRepository {
	return &CachedProductRepository{inner: inner, cache: c}
}

var _ cacheClient = (*cache.RedisCache)(nil)

// inTx 判断调用是否处于事务上下文。
// 事务内读取既不命中也不回填缓存：事务可见的未提交行
// 一旦回填，回滚后 Redis 会在 TTL 内持续返回从未提交过的数量。
func inTx(ctx context.Context) bool {
	return contextx.GetTx(ctx) != nil
}

func productKey(id uint) string {
	return fmt.Sprintf("product:id:%d", id)
}

func productCodeKey(code string) string {
	return fmt.Sprintf("product:code:%s", code)
}

// GetByID 读缓存优先，未命中回源并回填；事务内直达数据库
func (r *CachedProductRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	if inTx(ctx) {
		return r.inner.GetByID(ctx, id)
	}

	var cached domain.Product
	err := r.cache.Get(ctx, productKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logging.Warn(ctx, "product cache read failed", "id", id, "error", err)
	}

	product, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, productKey(id), product, productCacheTTL); err != nil {
		logging.Warn(ctx, "product cache write failed", "id", id, "error", err)
	}
	return product, nil
}

// GetByCode 读缓存优先，未命中回源并回填；事务内直达数据库
func (r *CachedProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	if inTx(ctx) {
		return r.inner.GetByCode(ctx, code)
	}

	var cached domain.Product
	err := r.cache.Get(ctx, productCodeKey(code), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logging.Warn(ctx, "product cache read failed", "code", code, "error", err)
	}

	product, err := r.inner.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, productCodeKey(code), product, productCacheTTL); err != nil {
		logging.Warn(ctx, "product cache write failed", "code", code, "error", err)
	}
	return product, nil
}

// Create 直写数据库
func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.inner.Create(ctx, product)
}

// Update 直写数据库并失效缓存
func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.inner.Update(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ID, product.Code)
	return nil
}

// List 列表不走缓存
func (r *CachedProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, int64, error) {
	return r.inner.List(ctx, limit, offset)
}

// ListLowStock 低库存查询不走缓存
func (r *CachedProductRepository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	return r.inner.ListLowStock(ctx)
}

// Delete 直写数据库并失效缓存
func (r *CachedProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id, "")
	return nil
}

// DecrementStock 写路径直达数据库，随后失效缓存
func (r *CachedProductRepository) DecrementStock(ctx context.Context, productID uint, quantity int) error {
	if err := r.inner.DecrementStock(ctx, productID, quantity); err != nil {
		return err
	}
	r.invalidate(ctx, productID, "")
	return nil
}

// IncrementStock 写路径直达数据库，随后失效缓存
func (r *CachedProductRepository) IncrementStock(ctx context.Context, productID uint, quantity int) error {
	if err := r.inner.IncrementStock(ctx, productID, quantity); err != nil {
		return err
	}
	r.invalidate(ctx, productID, "")
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id uint, code string) {
	keys := []string{productKey(id)}
	if code != "" {
		keys = append(keys, productCodeKey(code))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logging.Warn(ctx, "product cache invalidation failed", "id", id, "error", err)
	}
}
