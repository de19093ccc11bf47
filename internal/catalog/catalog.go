// Package catalog supplies the cookie variants configured for a program year.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/models"
)

// Provider is the read interface the booth planner and verifier depend on.
type Provider interface {
	ActiveVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error)
}

// Validate checks a season's variant list before it is stored.
func Validate(programYear int, variants []models.CookieVariant) error {
	if len(variants) == 0 {
		return apperr.Validation("variants", "must not be empty")
	}
	seen := make(map[string]bool, len(variants))
	donations := 0
	for _, v := range variants {
		if v.Code == "" {
			return apperr.Validation("code", "is required")
		}
		if seen[v.Code] {
			return apperr.Validation("code", fmt.Sprintf("%s is duplicated", v.Code))
		}
		seen[v.Code] = true
		if v.ProgramYear != 0 && v.ProgramYear != programYear {
			return apperr.Validation("program_year", fmt.Sprintf("%s belongs to %d", v.Code, v.ProgramYear))
		}
		if v.PricePerBox.IsNegative() {
			return apperr.Validation("price_per_box", fmt.Sprintf("%s must not be negative", v.Code))
		}
		if v.DefaultBoothQty < 0 {
			return apperr.Validation("default_booth_qty", fmt.Sprintf("%s must not be negative", v.Code))
		}
		if v.AvgSellPct.IsNegative() || v.AvgSellPct.GreaterThan(decimal.NewFromInt(1)) {
			return apperr.Validation("avg_sell_pct", fmt.Sprintf("%s must be between 0 and 1", v.Code))
		}
		if v.IsDonation {
			donations++
		}
	}
	if donations > 1 {
		return apperr.Validation("is_donation", "only one donation variant is allowed")
	}
	return nil
}

// Sort orders variants the way booth sheets list them.
func Sort(variants []models.CookieVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		if variants[i].SortOrder != variants[j].SortOrder {
			return variants[i].SortOrder < variants[j].SortOrder
		}
		return variants[i].Code < variants[j].Code
	})
}

// PriceMap indexes price_per_box by code.
func PriceMap(variants []models.CookieVariant) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(variants))
	for _, v := range variants {
		prices[v.Code] = v.PricePerBox
	}
	return prices
}
