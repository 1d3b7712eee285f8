package mysql

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dealerapp "github.com/wyfcoding/ordermanagement/internal/dealer/application"
	dealerdomain "github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	dealermysql "github.com/wyfcoding/ordermanagement/internal/dealer/infrastructure/persistence/mysql"
	invapp "github.com/wyfcoding/ordermanagement/internal/inventory/application"
	invdomain "github.com/wyfcoding/ordermanagement/internal/inventory/domain"
	invmysql "github.com/wyfcoding/ordermanagement/internal/inventory/infrastructure/persistence/mysql"
	orderapp "github.com/wyfcoding/ordermanagement/internal/order/application"
	"github.com/wyfcoding/ordermanagement/internal/order/domain"
	"github.com/wyfcoding/ordermanagement/internal/order/infrastructure/messaging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 内存库绑定单连接，避免连接池拿到不同的库
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&invdomain.Product{},
		&dealerdomain.Dealer{},
		&domain.Order{},
		&domain.OrderItem{},
		&messaging.OutboxMessage{},
	))
	return db
}

type testEnv struct {
	db       *gorm.DB
	orders   domain.OrderRepository
	products invdomain.ProductRepository
	commands *orderapp.OrderCommandService
	queries  *orderapp.OrderQueryService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupDB(t)
	productRepo := invmysql.NewProductRepository(db)
	orderRepo := NewOrderRepository(db)
	dealerRepo := dealermysql.NewDealerRepository(db)

	inventory := invapp.NewInventoryService(productRepo, nil, nil, 0)
	dealers := dealerapp.NewDealerService(dealerRepo)
	events := messaging.NewOutboxEventPublisher(db)

	commands := orderapp.NewOrderCommandService(orderRepo, inventory, dealers, events, nil, true)
	queries := orderapp.NewOrderQueryService(orderRepo)

	return &testEnv{
		db:       db,
		orders:   orderRepo,
		products: productRepo,
		commands: commands,
		queries:  queries,
	}
}

func (e *testEnv) seedDealer(t *testing.T, code string) uint {
	t.Helper()
	dealer := &dealerdomain.Dealer{Code: code, FirmName: code + " Trading Co."}
	require.NoError(t, e.db.Create(dealer).Error)
	return dealer.ID
}

func (e *testEnv) seedProduct(t *testing.T, code string, onHand int, unitPrice string) uint {
	t.Helper()
	price, err := decimal.NewFromString(unitPrice)
	require.NoError(t, err)
	product := &invdomain.Product{Code: code, Name: code, UnitPrice: price, OnHand: onHand, MinStock: 1}
	require.NoError(t, e.db.Create(product).Error)
	return product.ID
}

func (e *testEnv) onHand(t *testing.T, productID uint) int {
	t.Helper()
	product, err := e.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.OnHand
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestPlaceOrderCommitsAllRows(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	dealerID := e.seedDealer(t, "D001")
	pa := e.seedProduct(t, "P-A", 10, "4.00")
	pb := e.seedProduct(t, "P-B", 6, "3.00")

	order, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID: dealerID,
		Items: []orderapp.OrderItemRequest{
			{ProductID: pa, Quantity: 2, UnitPrice: decimal.NewFromInt(4)},
			{ProductID: pb, Quantity: 5, UnitPrice: decimal.NewFromInt(3)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, e.onHand(t, pa))
	assert.Equal(t, 1, e.onHand(t, pb))
	assert.EqualValues(t, 1, count(t, e.db, &domain.Order{}))
	assert.EqualValues(t, 2, count(t, e.db, &domain.OrderItem{}))
	assert.EqualValues(t, 1, count(t, e.db, &messaging.OutboxMessage{}))

	loaded, err := e.queries.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "23", loaded.TotalAmount)
	assert.Len(t, loaded.Items, 2)
}

func TestPlaceOrderRollsBackAllRows(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	dealerID := e.seedDealer(t, "D001")
	pa := e.seedProduct(t, "P-A", 10, "4.00")
	pb := e.seedProduct(t, "P-B", 3, "3.00")

	_, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID: dealerID,
		Items: []orderapp.OrderItemRequest{
			{ProductID: pa, Quantity: 2, UnitPrice: decimal.NewFromInt(4)},
			{ProductID: pb, Quantity: 5, UnitPrice: decimal.NewFromInt(3)},
		},
	})
	require.Error(t, err)

	var stockErr *invdomain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, pb, stockErr.ProductID)
	assert.Equal(t, 2, stockErr.Shortfall())

	// 先行扣减的商品 A 一并回滚
	assert.Equal(t, 10, e.onHand(t, pa))
	assert.Equal(t, 3, e.onHand(t, pb))
	assert.EqualValues(t, 0, count(t, e.db, &domain.Order{}))
	assert.EqualValues(t, 0, count(t, e.db, &domain.OrderItem{}))
	assert.EqualValues(t, 0, count(t, e.db, &messaging.OutboxMessage{}))
}

func TestPlaceOrderUnknownDealerRollsBack(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	pa := e.seedProduct(t, "P-A", 10, "4.00")

	_, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID: 999,
		Items:    []orderapp.OrderItemRequest{{ProductID: pa, Quantity: 1, UnitPrice: decimal.NewFromInt(4)}},
	})
	assert.ErrorIs(t, err, domain.ErrDealerNotFound)
	assert.Equal(t, 10, e.onHand(t, pa))
	assert.EqualValues(t, 0, count(t, e.db, &domain.Order{}))
}

func TestGetByCodePreloadsItems(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	dealerID := e.seedDealer(t, "D001")
	pa := e.seedProduct(t, "P-A", 10, "4.00")

	order, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID:  dealerID,
		OrderCode: "SO20260831-1",
		Items:     []orderapp.OrderItemRequest{{ProductID: pa, Quantity: 3, UnitPrice: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	loaded, err := e.orders.GetByCode(ctx, "SO20260831-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, loaded.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, pa, loaded.Items[0].ProductID)
	assert.Equal(t, 3, loaded.Items[0].Quantity)
}

func TestGetOrderNotFound(t *testing.T) {
	e := setupEnv(t)

	_, err := e.orders.Get(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	err = e.orders.UpdateStatus(context.Background(), 42, domain.OrderStatusPending, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateStatusGuardsObservedStatus(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	dealerID := e.seedDealer(t, "D001")
	pa := e.seedProduct(t, "P-A", 10, "4.00")

	order, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID: dealerID,
		Items:    []orderapp.OrderItemRequest{{ProductID: pa, Quantity: 1, UnitPrice: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)

	require.NoError(t, e.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusProcessing))

	// 基于已过期观察的更新不能覆盖当前状态
	err = e.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	loaded, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, loaded.Status)
}

func TestCancelReleasesStockThroughDB(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	dealerID := e.seedDealer(t, "D001")
	pa := e.seedProduct(t, "P-A", 10, "4.00")

	order, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
		DealerID: dealerID,
		Items:    []orderapp.OrderItemRequest{{ProductID: pa, Quantity: 4, UnitPrice: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, e.onHand(t, pa))

	require.NoError(t, e.commands.CancelOrder(ctx, orderapp.CancelOrderCommand{OrderID: order.ID}))

	assert.Equal(t, 10, e.onHand(t, pa))
	loaded, err := e.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, loaded.Status)
}

func TestListByDealerAndStatus(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	d1 := e.seedDealer(t, "D001")
	d2 := e.seedDealer(t, "D002")
	pa := e.seedProduct(t, "P-A", 100, "1.00")

	for _, dealerID := range []uint{d1, d1, d2} {
		_, err := e.commands.PlaceOrder(ctx, orderapp.PlaceOrderCommand{
			DealerID: dealerID,
			Items:    []orderapp.OrderItemRequest{{ProductID: pa, Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
	}

	orders, total, err := e.orders.ListByDealer(ctx, d1, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)

	pending, total, err := e.orders.ListByStatus(ctx, domain.OrderStatusPending, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, pending, 3)
}
