package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ordermanagement/internal/dealer/domain"
	dealermysql "github.com/wyfcoding/ordermanagement/internal/dealer/infrastructure/persistence/mysql"
	orderdomain "github.com/wyfcoding/ordermanagement/internal/order/domain"
	paydomain "github.com/wyfcoding/ordermanagement/internal/payment/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupLedger(t *testing.T) (*gorm.DB, *LedgerQueryService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Dealer{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&paydomain.Payment{},
	))

	dealerRepo := dealermysql.NewDealerRepository(db)
	source := dealermysql.NewLedgerSource(db)
	return db, NewLedgerQueryService(dealerRepo, source, source)
}

func seedDealer(t *testing.T, db *gorm.DB, code string) uint {
	t.Helper()
	dealer := &domain.Dealer{Code: code, FirmName: code + " Trading Co."}
	require.NoError(t, db.Create(dealer).Error)
	return dealer.ID
}

func seedOrder(t *testing.T, db *gorm.DB, dealerID uint, code, total string) {
	t.Helper()
	require.NoError(t, db.Create(&orderdomain.Order{
		OrderCode:   code,
		DealerID:    dealerID,
		Status:      orderdomain.OrderStatusPending,
		TotalAmount: decimal.RequireFromString(total),
	}).Error)
}

func seedPayment(t *testing.T, db *gorm.DB, dealerID uint, no, amount string) {
	t.Helper()
	require.NoError(t, db.Create(&paydomain.Payment{
		PaymentNo: no,
		DealerID:  dealerID,
		Amount:    decimal.RequireFromString(amount),
		Method:    paydomain.MethodBankTransfer,
		PaidAt:    time.Now(),
	}).Error)
}

func TestGetBalance(t *testing.T) {
	db, svc := setupLedger(t)
	ctx := context.Background()

	dealerID := seedDealer(t, db, "D001")
	seedOrder(t, db, dealerID, "SO-1", "100.00")
	seedOrder(t, db, dealerID, "SO-2", "150.00")
	seedPayment(t, db, dealerID, "PAY-1", "100.00")

	balance, err := svc.GetBalance(ctx, dealerID)
	require.NoError(t, err)

	assert.Equal(t, dealerID, balance.DealerID)
	assert.True(t, balance.TotalOrdered.Equal(decimal.RequireFromString("250")), "ordered was %s", balance.TotalOrdered)
	assert.True(t, balance.TotalPaid.Equal(decimal.RequireFromString("100")), "paid was %s", balance.TotalPaid)
	assert.True(t, balance.Outstanding.Equal(decimal.RequireFromString("150")), "outstanding was %s", balance.Outstanding)
}

func TestGetBalanceIgnoresOtherDealers(t *testing.T) {
	db, svc := setupLedger(t)
	ctx := context.Background()

	d1 := seedDealer(t, db, "D001")
	d2 := seedDealer(t, db, "D002")
	seedOrder(t, db, d1, "SO-1", "100.00")
	seedOrder(t, db, d2, "SO-2", "999.00")
	seedPayment(t, db, d2, "PAY-9", "500.00")

	balance, err := svc.GetBalance(ctx, d1)
	require.NoError(t, err)
	assert.True(t, balance.Outstanding.Equal(decimal.RequireFromString("100")))
}

func TestGetBalanceUnknownDealer(t *testing.T) {
	_, svc := setupLedger(t)

	_, err := svc.GetBalance(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrDealerNotFound)
}

func TestGetBalanceNoActivity(t *testing.T) {
	db, svc := setupLedger(t)

	dealerID := seedDealer(t, db, "D001")
	balance, err := svc.GetBalance(context.Background(), dealerID)
	require.NoError(t, err)

	assert.True(t, balance.TotalOrdered.IsZero())
	assert.True(t, balance.TotalPaid.IsZero())
	assert.True(t, balance.Outstanding.IsZero())
}

func TestGetBalanceIsReadOnly(t *testing.T) {
	db, svc := setupLedger(t)
	ctx := context.Background()

	dealerID := seedDealer(t, db, "D001")
	seedOrder(t, db, dealerID, "SO-1", "75.00")

	first, err := svc.GetBalance(ctx, dealerID)
	require.NoError(t, err)
	second, err := svc.GetBalance(ctx, dealerID)
	require.NoError(t, err)

	assert.True(t, first.Outstanding.Equal(second.Outstanding))
}
