package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetOrder → fetch one order by its ID
func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("select order", err)
	}
	return &order, nil
}

// CreateOrder → insert a scout order
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return apperr.Store("insert order", err)
}

// ScoutOrders → every order of a scout for one program year, oldest first
func (d *DB) ScoutOrders(ctx context.Context, scoutID string, programYear int) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("scout_id = ?", scoutID).
		Where("program_year = ?", programYear).
		Order("created_at", "id").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("select scout orders", err)
	}
	return orders, nil
}

// PaymentsForOrders returns money entries grouped by related order. Amounts
// are summed by the caller in decimal so no float rounding leaks in from the
// driver.
func (d *DB) PaymentsForOrders(ctx context.Context, orderIDs ...string) (map[string][]models.MoneyLedgerEntry, error) {
	out := make(map[string][]models.MoneyLedgerEntry, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var entries []models.MoneyLedgerEntry
	err := d.Bun.NewSelect().
		Model(&entries).
		Where("related_order_id IN (?)", bun.In(orderIDs)).
		Order("received_dt", "event_id").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Store("select money entries", err)
	}
	for _, e := range entries {
		out[e.RelatedOrderID] = append(out[e.RelatedOrderID], e)
	}
	return out, nil
}

// NetInventory → signed sum of quantity for one code in one year
func (d *DB) NetInventory(ctx context.Context, programYear int, code string) (int, error) {
	var total int
	err := d.Bun.NewSelect().
		Model((*models.InventoryLedgerEntry)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Where("program_year = ?", programYear).
		Where("cookie_code = ?", code).
		Scan(ctx, &total)
	if err != nil {
		return 0, apperr.Store("sum inventory", err)
	}
	return total, nil
}

type codeTotal struct {
	CookieCode string `bun:"cookie_code"`
	Total      int    `bun:"total"`
}

// InventoryByCode → net inventory of every code that has entries in a year
func (d *DB) InventoryByCode(ctx context.Context, programYear int) (map[string]int, error) {
	var rows []codeTotal
	err := d.Bun.NewSelect().
		Model((*models.InventoryLedgerEntry)(nil)).
		Column("cookie_code").
		ColumnExpr("COALESCE(SUM(quantity), 0) AS total").
		Where("program_year = ?", programYear).
		Group("cookie_code").
		Order("cookie_code").
		Scan(ctx, &rows)
	if err != nil {
		return nil, apperr.Store("sum inventory by code", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.CookieCode] = r.Total
	}
	return out, nil
}

// InventoryEntries → ledger rows for a year, optionally narrowed to one code
func (d *DB) InventoryEntries(ctx context.Context, programYear int, code string) ([]models.InventoryLedgerEntry, error) {
	var entries []models.InventoryLedgerEntry
	q := d.Bun.NewSelect().
		Model(&entries).
		Where("program_year = ?", programYear)
	if code != "" {
		q = q.Where("cookie_code = ?", code)
	}
	if err := q.Order("event_dt", "event_id").Scan(ctx); err != nil {
		return nil, apperr.Store("select inventory entries", err)
	}
	return entries, nil
}

func (d *DB) InsertInventoryEntry(ctx context.Context, entry *models.InventoryLedgerEntry) error {
	if _, err := d.Bun.NewInsert().Model(entry).Exec(ctx); err != nil {
		return apperr.Store("insert inventory entry", fmt.Errorf("%s %s: %w", entry.EventType, entry.CookieCode, err))
	}
	return nil
}

func (d *DB) InsertMoneyEntry(ctx context.Context, entry *models.MoneyLedgerEntry) error {
	if _, err := d.Bun.NewInsert().Model(entry).Exec(ctx); err != nil {
		return apperr.Store("insert money entry", fmt.Errorf("order %s: %w", entry.RelatedOrderID, err))
	}
	return nil
}
