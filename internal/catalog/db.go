package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ActiveVariants returns the active variants of a year in sheet order.
func (d *DB) ActiveVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error) {
	var variants []models.CookieVariant
	err := d.Bun.NewSelect().
		Model(&variants).
		Where("program_year = ?", programYear).
		Where("is_active = ?", true).
		Order("sort_order", "code").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("select cookie_variants", err)
	}
	return variants, nil
}

// AllVariants includes inactive rows; used by the admin catalog screen.
func (d *DB) AllVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error) {
	var variants []models.CookieVariant
	err := d.Bun.NewSelect().
		Model(&variants).
		Where("program_year = ?", programYear).
		Order("sort_order", "code").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("select cookie_variants", err)
	}
	return variants, nil
}

// ReplaceSeason swaps the full variant list of a year in one transaction.
// On return variants carries the program year and is in sheet order.
func (d *DB) ReplaceSeason(ctx context.Context, programYear int, variants []models.CookieVariant) error {
	if err := Validate(programYear, variants); err != nil {
		return err
	}
	for i := range variants {
		variants[i].ProgramYear = programYear
	}
	Sort(variants)
	rows := variants

	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.CookieVariant)(nil)).
			Where("program_year = ?", programYear).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete season: %w", err)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert season: %w", err)
		}
		return nil
	})
	return apperr.Store("replace cookie_variants", err)
}
