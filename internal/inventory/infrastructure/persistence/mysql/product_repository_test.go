package mysql

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	"github.com/wyfcoding/pkg/contextx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepo(t *testing.T) (*gorm.DB, domain.ProductRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Product{}))
	return db, NewProductRepository(db)
}

func seedProduct(t *testing.T, repo domain.ProductRepository, code string, onHand, minStock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Code:      code,
		Name:      code,
		UnitPrice: decimal.NewFromInt(10),
		OnHand:    onHand,
		MinStock:  minStock,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestCreateDuplicateCode(t *testing.T) {
	_, repo := setupRepo(t)
	seedProduct(t, repo, "P-001", 5, 1)

	err := repo.Create(context.Background(), &domain.Product{
		Code:      "P-001",
		Name:      "again",
		UnitPrice: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestDecrementStock(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, "P-001", 5, 1)

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 3))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OnHand)

	// 刚好扣到零是允许的
	require.NoError(t, repo.DecrementStock(ctx, product.ID, 2))
	got, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.OnHand)
}

func TestDecrementStockInsufficient(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, "P-001", 2, 1)

	err := repo.DecrementStock(ctx, product.ID, 3)
	require.Error(t, err)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, product.ID, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 1, stockErr.Shortfall())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	// 拒绝的扣减不得改变库存
	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OnHand)
}

func TestDecrementStockUnknownProduct(t *testing.T) {
	_, repo := setupRepo(t)

	err := repo.DecrementStock(context.Background(), 42, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDecrementJoinsCallerTransaction(t *testing.T) {
	db, repo := setupRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, "P-001", 5, 1)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		if err := repo.DecrementStock(txCtx, product.ID, 3); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// 事务回滚后扣减撤销
	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.OnHand)
}

func TestIncrementStock(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()
	product := seedProduct(t, repo, "P-001", 2, 1)

	require.NoError(t, repo.IncrementStock(ctx, product.ID, 4))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.OnHand)

	assert.ErrorIs(t, repo.IncrementStock(ctx, 42, 1), domain.ErrProductNotFound)
}

func TestListLowStock(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()

	seedProduct(t, repo, "LOW-1", 2, 5)
	seedProduct(t, repo, "LOW-2", 5, 5)
	seedProduct(t, repo, "OK-1", 50, 5)

	low, err := repo.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "LOW-1", low[0].Code)
	assert.Equal(t, "LOW-2", low[1].Code)
}

func TestGetByCode(t *testing.T) {
	_, repo := setupRepo(t)
	ctx := context.Background()
	seedProduct(t, repo, "P-001", 5, 1)

	got, err := repo.GetByCode(ctx, "P-001")
	require.NoError(t, err)
	assert.Equal(t, "P-001", got.Code)

	_, err = repo.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
