package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
)

type fakeProductRepo struct {
	products map[uint]*domain.Product
	nextID   uint
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uint]*domain.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *domain.Product) error {
	for _, p := range r.products {
		if p.Code == product.Code {
			return domain.ErrDuplicateCode
		}
	}
	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *domain.Product) error {
	if _, ok := r.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.products[product.ID] = product
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetByCode(_ context.Context, code string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int) ([]*domain.Product, int64, error) {
	var out []*domain.Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListLowStock(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		if p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) DecrementStock(_ context.Context, productID uint, quantity int) error {
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.OnHand < quantity {
		return &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: p.OnHand}
	}
	p.OnHand -= quantity
	return nil
}

func (r *fakeProductRepo) IncrementStock(_ context.Context, productID uint, quantity int) error {
	p, ok := r.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.OnHand += quantity
	return nil
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.events = append(p.events, eventType)
	return nil
}

func seed(t *testing.T, repo *fakeProductRepo, code string, onHand, minStock int) uint {
	t.Helper()
	p := &domain.Product{Code: code, Name: code, UnitPrice: decimal.NewFromInt(1), OnHand: onHand, MinStock: minStock}
	require.NoError(t, repo.Create(context.Background(), p))
	return p.ID
}

func TestReservePublishesEvents(t *testing.T) {
	repo := newFakeProductRepo()
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub, 0)
	id := seed(t, repo, "P-1", 10, 2)

	require.NoError(t, svc.Reserve(context.Background(), id, 3))

	assert.Contains(t, pub.events, "inventory.stock_reserved")
	assert.NotContains(t, pub.events, "inventory.low_stock")
}

func TestReserveEmitsLowStockWarning(t *testing.T) {
	repo := newFakeProductRepo()
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub, 0)
	id := seed(t, repo, "P-1", 5, 3)

	require.NoError(t, svc.Reserve(context.Background(), id, 3))

	assert.Contains(t, pub.events, "inventory.low_stock")
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewInventoryService(repo, nil, nil, 0)
	id := seed(t, repo, "P-1", 5, 1)

	assert.Error(t, svc.Reserve(context.Background(), id, 0))
	assert.Error(t, svc.Reserve(context.Background(), id, -2))
}

func TestReleasePublishesEvent(t *testing.T) {
	repo := newFakeProductRepo()
	pub := &recordingPublisher{}
	svc := NewInventoryService(repo, nil, pub, 0)
	id := seed(t, repo, "P-1", 5, 1)

	require.NoError(t, svc.Release(context.Background(), id, 2))

	assert.Contains(t, pub.events, "inventory.stock_released")
	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 7, p.OnHand)
}

func TestUpdateProductDoesNotTouchStock(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewInventoryService(repo, nil, nil, 0)
	id := seed(t, repo, "P-1", 5, 1)

	require.NoError(t, svc.UpdateProduct(context.Background(), UpdateProductCommand{
		ID:        id,
		Name:      "renamed",
		UnitPrice: decimal.NewFromInt(9),
	}))

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", p.Name)
	assert.Equal(t, 5, p.OnHand)
}

func TestCreateProductDefaultsMinStock(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewInventoryService(repo, nil, nil, 0)

	id, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Code:      "P-1",
		Name:      "widget",
		UnitPrice: decimal.NewFromInt(2),
		OnHand:    100,
	})
	require.NoError(t, err)

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 10, p.MinStock)
}

func TestCreateProductUsesConfiguredMinStock(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewInventoryService(repo, nil, nil, 25)

	id, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Code:      "P-1",
		Name:      "widget",
		UnitPrice: decimal.NewFromInt(2),
		OnHand:    100,
	})
	require.NoError(t, err)

	p, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 25, p.MinStock)

	// 显式给定的阈值优先于默认值
	id2, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Code:      "P-2",
		Name:      "gadget",
		UnitPrice: decimal.NewFromInt(2),
		OnHand:    100,
		MinStock:  3,
	})
	require.NoError(t, err)

	p2, err := repo.GetByID(context.Background(), id2)
	require.NoError(t, err)
	assert.Equal(t, 3, p2.MinStock)
}
