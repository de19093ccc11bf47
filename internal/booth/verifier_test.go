package booth_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/booth"
	"troop-cookies/internal/models"
)

func planned(rows map[string]int) []models.PlannedInventory {
	var out []models.PlannedInventory
	for code, qty := range rows {
		out = append(out, models.PlannedInventory{BoothID: "b1", ProgramYear: 2025, CookieCode: code, PlannedQuantity: qty})
	}
	return out
}

func money(start, cash, square string) booth.Money {
	return booth.Money{
		StartingCash: decimal.RequireFromString(start),
		EndingCash:   decimal.RequireFromString(cash),
		SquareTotal:  decimal.RequireFromString(square),
	}
}

func TestReconcileShortfall(t *testing.T) {
	rec, err := booth.Reconcile(seasonVariants(),
		planned(map[string]int{"TM": 24, "DON": 0}),
		map[string]int{"TM": 4},
		money("100", "140", "40"))
	require.NoError(t, err)

	assert.Equal(t, 20, rec.TotalSold())
	assert.Equal(t, "120.00", rec.ExpectedRevenue.StringFixed(2))
	assert.Equal(t, "180.00", rec.EndingMoney.StringFixed(2))
	assert.Equal(t, "80.00", rec.ActualRevenue.StringFixed(2))
	assert.Equal(t, "-40.00", rec.Difference.StringFixed(2))
	assert.True(t, rec.Shortfall())
	assert.Equal(t, 0, rec.OPCBoxes)

	order := &models.Order{ID: "o1", ProgramYear: 2025, BoothID: "b1"}
	entries := rec.LedgerEntries(order, time.Now(), func() string { return "e1" })
	require.Len(t, entries, 1)
	assert.Equal(t, -20, entries[0].Quantity)
	assert.Equal(t, "TM", entries[0].CookieCode)
	assert.Equal(t, models.InventoryBoothSale, entries[0].EventType)
	assert.Equal(t, models.LedgerActual, entries[0].Status)
	assert.Equal(t, "o1", entries[0].RelatedOrderID)
}

func TestReconcileExpectedRevenue(t *testing.T) {
	rec, err := booth.Reconcile(seasonVariants(),
		planned(map[string]int{"TM": 40}),
		map[string]int{"TM": 3},
		money("0", "222", "0"))
	require.NoError(t, err)

	assert.Equal(t, 37, rec.Sold()["TM"])
	assert.Equal(t, "222.00", rec.ExpectedRevenue.StringFixed(2))
	assert.True(t, rec.Difference.IsZero())
	assert.Equal(t, 0, rec.OPCBoxes)
}

func TestReconcileSurplusBecomesDonationBoxes(t *testing.T) {
	rec, err := booth.Reconcile(seasonVariants(),
		planned(map[string]int{"TM": 12, "SAM": 5, "DON": 0}),
		map[string]int{"TM": 4, "SAM": 1},
		money("50", "100", "40"))
	require.NoError(t, err)

	assert.Equal(t, "72.00", rec.ExpectedRevenue.StringFixed(2))
	assert.Equal(t, "18.00", rec.Difference.StringFixed(2))
	assert.Equal(t, 3, rec.OPCBoxes)
	assert.Equal(t, "DON", rec.DonationCode)
}

func TestReconcileClampsNegativeSold(t *testing.T) {
	rec, err := booth.Reconcile(seasonVariants(),
		planned(map[string]int{"TM": 5}),
		map[string]int{"TM": 8},
		money("0", "0", "0"))
	require.NoError(t, err)

	require.Len(t, rec.Lines, 1)
	assert.Equal(t, 0, rec.Lines[0].Sold)
	assert.Equal(t, 8, rec.Lines[0].End)
	assert.True(t, rec.ExpectedRevenue.IsZero())
	assert.Empty(t, rec.LedgerEntries(&models.Order{ID: "o1"}, time.Now(), func() string { return "e" }))
}

func TestReconcileRejectsBadInput(t *testing.T) {
	variants := seasonVariants()
	plan := planned(map[string]int{"TM": 5, "SAM": 5})

	_, err := booth.Reconcile(variants, plan, map[string]int{"TM": 1}, money("0", "0", "0"))
	assert.True(t, apperr.IsValidation(err), "missing count")

	_, err = booth.Reconcile(variants, plan, map[string]int{"TM": 1, "SAM": -1}, money("0", "0", "0"))
	assert.True(t, apperr.IsValidation(err), "negative count")

	_, err = booth.Reconcile(variants, plan, map[string]int{"TM": 1, "SAM": 1, "TAG": 2, "LEM": 1}, money("0", "0", "0"))
	require.True(t, apperr.IsValidation(err), "unplanned code")
	assert.Contains(t, err.Error(), "LEM, TAG")

	_, err = booth.Reconcile(variants, plan, map[string]int{"TM": 1, "SAM": 1}, money("-1", "0", "0"))
	assert.True(t, apperr.IsValidation(err), "negative money")

	_, err = booth.Reconcile(variants[:1], plan, map[string]int{"TM": 1, "SAM": 1}, money("0", "0", "0"))
	assert.True(t, apperr.IsConfiguration(err), "unpriced code")
}

func TestOPCBoxes(t *testing.T) {
	six := decimal.NewFromInt(6)
	assert.Equal(t, 2, booth.OPCBoxes(decimal.NewFromInt(17), six))
	assert.Equal(t, 0, booth.OPCBoxes(decimal.NewFromInt(-5), six))
	assert.Equal(t, 0, booth.OPCBoxes(decimal.Zero, six))
	assert.Equal(t, 0, booth.OPCBoxes(decimal.NewFromInt(17), decimal.Zero))
	assert.Equal(t, 1, booth.OPCBoxes(decimal.RequireFromString("6.00"), six))
}

func TestDonationVariantFallsBackToLowestPrice(t *testing.T) {
	variants := []models.CookieVariant{variant("TM", "6.00", 12), variant("TOF", "7.00", 6), variant("S", "5.00", 6)}
	code, unit := booth.DonationVariant(variants)
	assert.Equal(t, booth.DonationCode, code)
	assert.Equal(t, "5.00", unit.StringFixed(2))
}
