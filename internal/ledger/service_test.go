package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/catalog"
	"troop-cookies/internal/database"
	"troop-cookies/internal/ledger"
	ledgerdb "troop-cookies/internal/ledger/db"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishMoneyReceived(ctx context.Context, event models.MoneyReceivedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishInventoryMoved(ctx context.Context, event models.InventoryMovedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupService(t *testing.T, events ledger.EventPublisher) *ledger.Service {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateSchema(ctx, db))

	cat := &catalog.DB{Bun: db}
	require.NoError(t, cat.ReplaceSeason(ctx, 2025, []models.CookieVariant{
		{Code: "TM", DisplayName: "Thin Mints", PricePerBox: dec("6"), DefaultBoothQty: 12, AvgSellPct: dec("0.4"), IsActive: true},
		{Code: "SAM", DisplayName: "Samoas", PricePerBox: dec("6"), DefaultBoothQty: 8, AvgSellPct: dec("0.3"), IsActive: true},
	}))

	svc := ledger.NewService(&ledgerdb.DB{Bun: db}, cat, events, logger.Discard())
	svc.Now = func() time.Time { return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestComputeBalanceChannelConvention(t *testing.T) {
	digital := &models.Order{OrderType: models.OrderTypeDigital, OrderAmount: dec("48")}
	paper := &models.Order{OrderType: models.OrderTypePaper, OrderAmount: dec("48")}

	assert.True(t, ledger.ComputeBalance(digital, nil).IsZero())
	assert.Equal(t, "48.00", ledger.ComputeBalance(paper, nil).StringFixed(2))

	payments := []models.MoneyLedgerEntry{{Amount: dec("20")}, {Amount: dec("10.50")}}
	assert.Equal(t, "17.50", ledger.ComputeBalance(paper, payments).StringFixed(2))
	assert.True(t, ledger.ComputeBalance(digital, payments).IsZero())
}

func TestBalanceFromLedger(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishMoneyReceived", mock.Anything, mock.Anything).Return(nil)
	svc := setupService(t, pub)
	ctx := context.Background()

	paper, err := svc.CreateOrder(ctx, ledger.CreateOrderRequest{
		ProgramYear: 2025, ScoutID: "scout-1", ParentID: "parent-1",
		OrderType: models.OrderTypePaper, TotalBoxes: 8, OrderAmount: dec("48"),
	})
	require.NoError(t, err)
	digital, err := svc.CreateOrder(ctx, ledger.CreateOrderRequest{
		ProgramYear: 2025, ScoutID: "scout-1", OrderType: models.OrderTypeDigital, TotalBoxes: 8, OrderAmount: dec("48"),
	})
	require.NoError(t, err)

	balance, err := svc.Balance(ctx, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, "48.00", balance.StringFixed(2))

	balance, err = svc.Balance(ctx, digital.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	entry, err := svc.RecordPayment(ctx, ledger.PaymentRequest{OrderID: paper.ID, Amount: dec("30.10"), Method: models.PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, "parent-1", entry.ParentID)
	assert.Equal(t, "scout-1", entry.ScoutID)

	_, err = svc.RecordPayment(ctx, ledger.PaymentRequest{OrderID: paper.ID, Amount: dec("0.20"), Method: models.PaymentCheck})
	require.NoError(t, err)

	balance, err = svc.Balance(ctx, paper.ID)
	require.NoError(t, err)
	assert.Equal(t, "17.70", balance.StringFixed(2))

	summary, err := svc.ScoutBalances(ctx, "scout-1", 2025)
	require.NoError(t, err)
	require.Len(t, summary.Orders, 2)
	assert.Equal(t, "17.70", summary.TotalDue.StringFixed(2))

	pub.AssertNumberOfCalls(t, "PublishMoneyReceived", 2)
}

func TestRecordPaymentValidation(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, ledger.PaymentRequest{OrderID: "x", Amount: dec("-1"), Method: models.PaymentCash})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.RecordPayment(ctx, ledger.PaymentRequest{OrderID: "x", Amount: dec("1"), Method: "Venmo"})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.RecordPayment(ctx, ledger.PaymentRequest{OrderID: "missing", Amount: dec("1"), Method: models.PaymentCash})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.Balance(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestNetInventory(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("PublishInventoryMoved", mock.Anything, mock.MatchedBy(func(e models.InventoryMovedEvent) bool {
		return e.EventType == models.InventoryPickup
	})).Return(nil)
	svc := setupService(t, pub)
	ctx := context.Background()

	_, err := svc.RecordPickup(ctx, ledger.PickupRequest{ProgramYear: 2025, CookieCode: "TM", Quantity: 36})
	require.NoError(t, err)
	_, err = svc.RecordPickup(ctx, ledger.PickupRequest{ProgramYear: 2025, CookieCode: "SAM", Quantity: 12})
	require.NoError(t, err)

	// A booth sale written by the verifier.
	store := svc.DB.(*ledgerdb.DB)
	require.NoError(t, store.InsertInventoryEntry(ctx, &models.InventoryLedgerEntry{
		EventID: "sale-1", ProgramYear: 2025, CookieCode: "TM", Quantity: -10,
		EventType: models.InventoryBoothSale, Status: models.LedgerActual, EventDT: time.Now(),
	}))

	net, err := svc.NetInventory(ctx, 2025, "TM")
	require.NoError(t, err)
	assert.Equal(t, 26, net)

	net, err = svc.NetInventory(ctx, 2025, "TAG")
	require.NoError(t, err)
	assert.Equal(t, 0, net)

	onHand, err := svc.InventoryOnHand(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"TM": 26, "SAM": 12}, onHand)

	all, err := svc.InventoryEntries(ctx, 2025, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tm, err := svc.InventoryEntries(ctx, 2025, " TM ")
	require.NoError(t, err)
	require.Len(t, tm, 2)
	for _, e := range tm {
		assert.Equal(t, "TM", e.CookieCode)
	}

	none, err := svc.InventoryEntries(ctx, 2024, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	pub.AssertNumberOfCalls(t, "PublishInventoryMoved", 2)
}

func TestRecordPickupValidation(t *testing.T) {
	svc := setupService(t, nil)
	ctx := context.Background()

	_, err := svc.RecordPickup(ctx, ledger.PickupRequest{ProgramYear: 2025, CookieCode: "TM", Quantity: 0})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.RecordPickup(ctx, ledger.PickupRequest{ProgramYear: 2025, CookieCode: "LEM", Quantity: 4})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.RecordPickup(ctx, ledger.PickupRequest{ProgramYear: 2019, CookieCode: "TM", Quantity: 4})
	assert.True(t, apperr.IsConfiguration(err))
}
