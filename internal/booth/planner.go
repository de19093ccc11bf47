package booth

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/catalog"
	"troop-cookies/internal/models"
)

// DonationCode is used for the donation line when the catalog does not flag
// one of its variants as the donation variant.
const DonationCode = "DON"

var (
	weekendMultipliers = map[int]decimal.Decimal{
		1: decimal.RequireFromString("1.00"),
		2: decimal.RequireFromString("0.75"),
		3: decimal.RequireFromString("0.50"),
	}
	maxMultiplier = decimal.NewFromInt(2)
)

// Plan is the seeded starting stock for a booth, one entry per variant.
type Plan struct {
	ProgramYear int
	Multiplier  decimal.Decimal
	Quantities  map[string]int
}

func (p Plan) TotalBoxes() int {
	total := 0
	for _, qty := range p.Quantities {
		total += qty
	}
	return total
}

// Codes returns the planned codes in lexical order.
func (p Plan) Codes() []string {
	codes := make([]string, 0, len(p.Quantities))
	for code := range p.Quantities {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Rows converts the plan into PlannedInventory rows for boothID.
func (p Plan) Rows(boothID string) []models.PlannedInventory {
	rows := make([]models.PlannedInventory, 0, len(p.Quantities))
	for _, code := range p.Codes() {
		rows = append(rows, models.PlannedInventory{
			BoothID:         boothID,
			ProgramYear:     p.ProgramYear,
			CookieCode:      code,
			PlannedQuantity: p.Quantities[code],
		})
	}
	return rows
}

// ResolveMultiplier maps a weekend number to its fixed multiplier unless an
// explicit override in [0, 2] is given.
func ResolveMultiplier(weekendNumber int, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		if override.IsNegative() || override.GreaterThan(maxMultiplier) {
			return decimal.Zero, apperr.Validation("quantity_multiplier", "must be between 0.0 and 2.0")
		}
		if !override.Equal(override.Truncate(2)) {
			return decimal.Zero, apperr.Validation("quantity_multiplier", "must have at most 2 decimal places")
		}
		return *override, nil
	}
	m, ok := weekendMultipliers[weekendNumber]
	if !ok {
		return decimal.Zero, apperr.Validation("weekend_number", "must be 1, 2 or 3")
	}
	return m, nil
}

// SeedPlan scales each variant's default booth quantity by multiplier,
// truncating toward zero. Every variant gets a row, including zero-quantity
// ones, and the donation line is always present at 0.
func SeedPlan(programYear int, variants []models.CookieVariant, multiplier decimal.Decimal) Plan {
	plan := Plan{
		ProgramYear: programYear,
		Multiplier:  multiplier,
		Quantities:  make(map[string]int, len(variants)+1),
	}

	donation := DonationCode
	for _, v := range variants {
		if v.IsDonation {
			donation = v.Code
			continue
		}
		qty := decimal.NewFromInt(int64(v.DefaultBoothQty)).Mul(multiplier).Truncate(0)
		plan.Quantities[v.Code] = int(qty.IntPart())
	}
	plan.Quantities[donation] = 0
	return plan
}

// Planner seeds booth plans from the season catalog.
type Planner struct {
	Catalog catalog.Provider
}

func NewPlanner(provider catalog.Provider) *Planner {
	return &Planner{Catalog: provider}
}

// SeedPlan loads the active variants for programYear and seeds a plan. A year
// with no active variants is a ConfigurationError.
func (p *Planner) SeedPlan(ctx context.Context, programYear, weekendNumber int, override *decimal.Decimal) (Plan, error) {
	multiplier, err := ResolveMultiplier(weekendNumber, override)
	if err != nil {
		return Plan{}, err
	}

	variants, err := p.Catalog.ActiveVariants(ctx, programYear)
	if err != nil {
		return Plan{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(variants) == 0 {
		return Plan{}, apperr.Configuration(programYear, "no active cookie variants")
	}

	return SeedPlan(programYear, variants, multiplier), nil
}
