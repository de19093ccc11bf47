package booth_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/booth"
	"troop-cookies/internal/models"
)

type staticCatalog []models.CookieVariant

func (s staticCatalog) ActiveVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error) {
	return s, nil
}

func variant(code string, price string, qty int) models.CookieVariant {
	return models.CookieVariant{
		ProgramYear:     2025,
		Code:            code,
		DisplayName:     code,
		PricePerBox:     decimal.RequireFromString(price),
		DefaultBoothQty: qty,
		AvgSellPct:      decimal.RequireFromString("0.5"),
		IsActive:        true,
	}
}

func seasonVariants() []models.CookieVariant {
	don := variant("DON", "6.00", 0)
	don.IsDonation = true
	return []models.CookieVariant{
		variant("TM", "6.00", 12),
		variant("SAM", "6.00", 5),
		don,
	}
}

func TestResolveMultiplier(t *testing.T) {
	m, err := booth.ResolveMultiplier(1, nil)
	require.NoError(t, err)
	assert.True(t, m.Equal(decimal.NewFromInt(1)))

	m, err = booth.ResolveMultiplier(3, nil)
	require.NoError(t, err)
	assert.True(t, m.Equal(decimal.RequireFromString("0.5")))

	override := decimal.RequireFromString("1.25")
	m, err = booth.ResolveMultiplier(3, &override)
	require.NoError(t, err)
	assert.True(t, m.Equal(override))

	_, err = booth.ResolveMultiplier(4, nil)
	assert.True(t, apperr.IsValidation(err))

	tooHigh := decimal.RequireFromString("2.01")
	_, err = booth.ResolveMultiplier(1, &tooHigh)
	assert.True(t, apperr.IsValidation(err))

	negative := decimal.RequireFromString("-0.1")
	_, err = booth.ResolveMultiplier(1, &negative)
	assert.True(t, apperr.IsValidation(err))

	third := decimal.RequireFromString("0.333")
	_, err = booth.ResolveMultiplier(1, &third)
	assert.True(t, apperr.IsValidation(err))

	padded := decimal.RequireFromString("0.500")
	m, err = booth.ResolveMultiplier(1, &padded)
	require.NoError(t, err)
	assert.True(t, m.Equal(decimal.RequireFromString("0.5")))
}

func TestSeedPlanTruncates(t *testing.T) {
	variants := []models.CookieVariant{variant("TM", "6.00", 12), variant("SAM", "6.00", 5)}

	plan := booth.SeedPlan(2025, variants, decimal.RequireFromString("0.75"))
	assert.Equal(t, 9, plan.Quantities["TM"])
	assert.Equal(t, 3, plan.Quantities["SAM"])

	plan = booth.SeedPlan(2025, variants, decimal.RequireFromString("0.5"))
	assert.Equal(t, 6, plan.Quantities["TM"])
	assert.Equal(t, 2, plan.Quantities["SAM"])
	assert.Equal(t, 8, plan.TotalBoxes())
}

func TestSeedPlanKeepsZeroDefaults(t *testing.T) {
	variants := append(seasonVariants(), variant("TOF", "6.00", 0))

	plan := booth.SeedPlan(2025, variants, decimal.NewFromInt(1))
	qty, ok := plan.Quantities["TOF"]
	assert.True(t, ok)
	assert.Equal(t, 0, qty)
	assert.Equal(t, 17, plan.TotalBoxes())
	assert.Len(t, plan.Rows("booth-1"), 4)
}

func TestSeedPlanDonationLine(t *testing.T) {
	plan := booth.SeedPlan(2025, seasonVariants(), decimal.NewFromInt(2))
	assert.Equal(t, 0, plan.Quantities["DON"])
	assert.Equal(t, 24, plan.Quantities["TM"])
	assert.Equal(t, []string{"DON", "SAM", "TM"}, plan.Codes())

	rows := plan.Rows("booth-1")
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, "booth-1", r.BoothID)
		assert.Equal(t, 2025, r.ProgramYear)
		assert.Nil(t, r.EndQuantity)
	}

	// Without a flagged donation variant the synthetic code is used.
	plan = booth.SeedPlan(2025, []models.CookieVariant{variant("TM", "6.00", 12)}, decimal.NewFromInt(1))
	qty, ok := plan.Quantities[booth.DonationCode]
	assert.True(t, ok)
	assert.Equal(t, 0, qty)
}

func TestSeedPlanZeroMultiplier(t *testing.T) {
	zero := decimal.Zero
	plan, err := booth.NewPlanner(staticCatalog(seasonVariants())).SeedPlan(context.Background(), 2025, 1, &zero)
	require.NoError(t, err)
	assert.Equal(t, 0, plan.TotalBoxes())
	assert.Len(t, plan.Quantities, 3)
}

func TestPlannerEmptyCatalog(t *testing.T) {
	_, err := booth.NewPlanner(staticCatalog(nil)).SeedPlan(context.Background(), 2030, 1, nil)
	assert.True(t, apperr.IsConfiguration(err))
}
