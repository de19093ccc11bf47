package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/booth"
	"troop-cookies/internal/models"
)

type DB struct {
	Bun *bun.DB
}

const notVerified = "(verification_status IS NULL OR verification_status <> ?)"

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return apperr.Store(op, err)
}

// ---------------- BOOTHS ----------------

// CreateBooth → insert booth, planned rows and booth order together
func (d *DB) CreateBooth(ctx context.Context, b *models.BoothEvent, planned []models.PlannedInventory, order *models.Order) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("insert booth: %w", err)
		}
		if len(planned) > 0 {
			if _, err := tx.NewInsert().Model(&planned).Exec(ctx); err != nil {
				return fmt.Errorf("insert planned inventory: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return fmt.Errorf("insert booth order: %w", err)
		}
		return nil
	})
	return apperr.Store("create booth", err)
}

func (d *DB) GetBooth(ctx context.Context, id string) (*models.BoothEvent, error) {
	var b models.BoothEvent
	err := d.Bun.NewSelect().
		Model(&b).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("select booth", err)
	}
	return &b, nil
}

// GetBoothOrder → the 1:1 booth order of a booth
func (d *DB) GetBoothOrder(ctx context.Context, boothID string) (*models.Order, error) {
	var o models.Order
	err := d.Bun.NewSelect().
		Model(&o).
		Where("booth_id = ?", boothID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound("select booth order", err)
	}
	return &o, nil
}

func (d *DB) GetPlannedInventory(ctx context.Context, boothID string) ([]models.PlannedInventory, error) {
	var planned []models.PlannedInventory
	err := d.Bun.NewSelect().
		Model(&planned).
		Where("booth_id = ?", boothID).
		Order("cookie_code").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("select planned inventory", err)
	}
	return planned, nil
}

func (d *DB) ListBooths(ctx context.Context, programYear int) ([]models.BoothEvent, error) {
	var booths []models.BoothEvent
	err := d.Bun.NewSelect().
		Model(&booths).
		Where("program_year = ?", programYear).
		Order("booth_date", "start_time", "location").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("list booths", err)
	}
	return booths, nil
}

// ---------------- DRAFT EDITS ----------------

// UpdatePlannedQuantity → change one planned line and re-total the draft order
func (d *DB) UpdatePlannedQuantity(ctx context.Context, boothID, code string, qty int, prices map[string]decimal.Decimal) (*models.Order, error) {
	var order models.Order
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.PlannedInventory)(nil)).
			Set("planned_quantity = ?", qty).
			Where("booth_id = ?", boothID).
			Where("cookie_code = ?", code).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update planned quantity: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.ErrNotFound
		}

		var planned []models.PlannedInventory
		if err := tx.NewSelect().Model(&planned).Where("booth_id = ?", boothID).Scan(ctx); err != nil {
			return fmt.Errorf("reload planned inventory: %w", err)
		}
		total := 0
		for _, p := range planned {
			total += p.PlannedQuantity
		}

		res, err = tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("total_boxes = ?", total).
			Set("order_amount = ?", booth.PlannedAmount(planned, prices)).
			Set("updated_at = ?", time.Now()).
			Where("booth_id = ?", boothID).
			Where(notVerified, models.VerificationVerified).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update booth order totals: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return d.guardMiss(ctx, tx, boothID)
		}

		return tx.NewSelect().Model(&order).Where("booth_id = ?", boothID).Limit(1).Scan(ctx)
	})
	if err != nil {
		return nil, apperr.Store("update planned quantity", err)
	}
	return &order, nil
}

// UpdateBoothMoney → record cash counts on a draft booth order
func (d *DB) UpdateBoothMoney(ctx context.Context, boothID string, money booth.Money) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("starting_cash = ?", money.StartingCash).
			Set("ending_cash = ?", money.EndingCash).
			Set("square_total = ?", money.SquareTotal).
			Set("updated_at = ?", time.Now()).
			Where("booth_id = ?", boothID).
			Where(notVerified, models.VerificationVerified).
			Exec(ctx)
		if err != nil {
			return apperr.Store("update booth money", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return d.guardMiss(ctx, tx, boothID)
		}
		return nil
	})
}

// guardMiss tells a missing booth order apart from one that is already verified.
func (d *DB) guardMiss(ctx context.Context, tx bun.Tx, boothID string) error {
	exists, err := tx.NewSelect().
		Model((*models.Order)(nil)).
		Where("booth_id = ?", boothID).
		Exists(ctx)
	if err != nil {
		return apperr.Store("check booth order", err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return apperr.ErrAlreadyVerified
}

// ---------------- VERIFICATION ----------------

// CommitVerification flips the booth order to VERIFIED, stores the end counts
// and money, and appends the sale entries in one transaction. The status flip
// is conditional; when it matches no row nothing else is written and
// apperr.ErrAlreadyVerified is returned.
func (d *DB) CommitVerification(ctx context.Context, v booth.Verification, entries []models.InventoryLedgerEntry) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("verification_status = ?", models.VerificationVerified).
			Set("status = ?", models.OrderStatusVerified).
			Set("verified_by = ?", v.VerifiedBy).
			Set("verified_at = ?", v.VerifiedAt).
			Set("verification_notes = ?", v.Notes).
			Set("opc_boxes = ?", v.OPCBoxes).
			Set("starting_cash = ?", v.Money.StartingCash).
			Set("ending_cash = ?", v.Money.EndingCash).
			Set("square_total = ?", v.Money.SquareTotal).
			Set("updated_at = ?", v.VerifiedAt).
			Where("id = ?", v.OrderID).
			Where(notVerified, models.VerificationVerified).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("flip verification status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return d.guardMiss(ctx, tx, v.BoothID)
		}

		for code, qty := range v.EndQuantities {
			if _, err := tx.NewUpdate().
				Model((*models.PlannedInventory)(nil)).
				Set("end_quantity = ?", qty).
				Where("booth_id = ?", v.BoothID).
				Where("cookie_code = ?", code).
				Exec(ctx); err != nil {
				return fmt.Errorf("store end count for %s: %w", code, err)
			}
		}

		if len(entries) > 0 {
			if _, err := tx.NewInsert().Model(&entries).Exec(ctx); err != nil {
				return fmt.Errorf("insert booth sale entries: %w", err)
			}
		}
		return nil
	})
	return apperr.Store("commit verification", err)
}

// DeleteBooth → remove a booth and everything that hangs off its order
func (d *DB) DeleteBooth(ctx context.Context, boothID string) error {
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.BoothEvent)(nil)).
			Where("id = ?", boothID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check booth: %w", err)
		}
		if !exists {
			return apperr.ErrNotFound
		}

		var orderIDs []string
		if err := tx.NewSelect().
			Model((*models.Order)(nil)).
			Column("id").
			Where("booth_id = ?", boothID).
			Scan(ctx, &orderIDs); err != nil {
			return fmt.Errorf("select booth order: %w", err)
		}

		if len(orderIDs) > 0 {
			if _, err := tx.NewDelete().
				Model((*models.InventoryLedgerEntry)(nil)).
				Where("related_order_id IN (?)", bun.In(orderIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete inventory entries: %w", err)
			}
			if _, err := tx.NewDelete().
				Model((*models.MoneyLedgerEntry)(nil)).
				Where("related_order_id IN (?)", bun.In(orderIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete money entries: %w", err)
			}
			if _, err := tx.NewDelete().
				Model((*models.Order)(nil)).
				Where("id IN (?)", bun.In(orderIDs)).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete booth order: %w", err)
			}
		}

		if _, err := tx.NewDelete().
			Model((*models.PlannedInventory)(nil)).
			Where("booth_id = ?", boothID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete planned inventory: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.BoothEvent)(nil)).
			Where("id = ?", boothID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete booth: %w", err)
		}
		return nil
	})
	return apperr.Store("delete booth", err)
}
