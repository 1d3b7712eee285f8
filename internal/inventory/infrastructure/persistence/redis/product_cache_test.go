package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/ordermanagement/pkg/cache"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/gorm"
)

// fakeCache 内存缓存，记录各操作次数
type fakeCache struct {
	data    map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	c.gets++
	data, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.sets++
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = data
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.deletes++
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// countingRepo 内存商品仓储，记录回源次数
type countingRepo struct {
	products map[uint]*domain.Product
	dbReads  int
}

func newCountingRepo() *countingRepo {
	return &countingRepo{products: make(map[uint]*domain.Product)}
}

func (r *countingRepo) Create(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *countingRepo) Update(_ context.Context, product *domain.Product) error {
	r.products[product.ID] = product
	return nil
}

func (r *countingRepo) GetByID(_ context.Context, id uint) (*domain.Product, error) {
	r.dbReads++
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *countingRepo) GetByCode(_ context.Context, code string) (*domain.Product, error) {
	r.dbReads++
	for _, p := range r.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *countingRepo) List(_ context.Context, _, _ int) ([]*domain.Product, int64, error) {
	return nil, 0, nil
}

func (r *countingRepo) ListLowStock(_ context.Context) ([]*domain.Product, error) {
	return nil, nil
}

func (r *countingRepo) Delete(_ context.Context, id uint) error {
	delete(r.products, id)
	return nil
}

func (r *countingRepo) DecrementStock(_ context.Context, productID uint, quantity int) error {
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.OnHand -= quantity
	return nil
}

func (r *countingRepo) IncrementStock(_ context.Context, productID uint, quantity int) error {
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.OnHand += quantity
	return nil
}

func seedProduct(repo *countingRepo, id uint, onHand int) *domain.Product {
	p := &domain.Product{
		Code:      "P-1",
		Name:      "widget",
		UnitPrice: decimal.NewFromInt(4),
		OnHand:    onHand,
		MinStock:  1,
	}
	p.ID = id
	repo.products[id] = p
	return p
}

func txContext() context.Context {
	return contextx.WithTx(context.Background(), &gorm.DB{})
}

func TestGetByIDBackfillsAndServesFromCache(t *testing.T) {
	repo := newCountingRepo()
	c := newFakeCache()
	cached := NewCachedProductRepository(repo, c)
	seedProduct(repo, 1, 10)

	p, err := cached.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.OnHand)
	assert.Equal(t, 1, repo.dbReads)
	assert.Equal(t, 1, c.sets)

	p, err = cached.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.OnHand)
	assert.Equal(t, 1, repo.dbReads, "second read must be served from cache")
}

func TestTransactionalReadBypassesCache(t *testing.T) {
	repo := newCountingRepo()
	c := newFakeCache()
	cached := NewCachedProductRepository(repo, c)
	seedProduct(repo, 1, 10)

	// 缓存里放一个过期值，事务内读取不得命中它
	stale := seedProduct(newCountingRepo(), 1, 99)
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	c.data[productKey(1)] = data

	p, err := cached.GetByID(txContext(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10, p.OnHand)

	assert.Equal(t, 0, c.gets, "transactional read must not consult the cache")
	assert.Equal(t, 0, c.sets, "transactional read must not backfill the cache")
	assert.Equal(t, 1, repo.dbReads)
}

func TestTransactionalReadDoesNotLeakUncommittedStock(t *testing.T) {
	repo := newCountingRepo()
	c := newFakeCache()
	cached := NewCachedProductRepository(repo, c)
	seedProduct(repo, 1, 10)

	ctx := txContext()
	require.NoError(t, cached.DecrementStock(ctx, 1, 3))

	// 扣减后事务内的回读看到未提交的数量，但不得写入缓存
	p, err := cached.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 7, p.OnHand)
	assert.Equal(t, 0, c.sets)
	assert.Empty(t, c.data[productKey(1)])
}

func TestGetByCodeBypassesCacheInTransaction(t *testing.T) {
	repo := newCountingRepo()
	c := newFakeCache()
	cached := NewCachedProductRepository(repo, c)
	seedProduct(repo, 1, 10)

	p, err := cached.GetByCode(txContext(), "P-1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.OnHand)
	assert.Equal(t, 0, c.gets)
	assert.Equal(t, 0, c.sets)
}

func TestStockWritesInvalidateCache(t *testing.T) {
	repo := newCountingRepo()
	c := newFakeCache()
	cached := NewCachedProductRepository(repo, c)
	seedProduct(repo, 1, 10)

	_, err := cached.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, c.data, productKey(1))

	require.NoError(t, cached.DecrementStock(context.Background(), 1, 2))
	assert.NotContains(t, c.data, productKey(1))

	p, err := cached.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, p.OnHand)
}
