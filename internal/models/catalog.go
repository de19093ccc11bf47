package models

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// CookieVariant is one product sold during a program year. Rows are configured
// once per season and read-only afterwards.
type CookieVariant struct {
	bun.BaseModel `bun:"table:cookie_variants"`

	ProgramYear     int             `bun:"program_year,pk" json:"program_year"`
	Code            string          `bun:"code,pk" json:"code"`
	DisplayName     string          `bun:"display_name,notnull" json:"display_name"`
	PricePerBox     decimal.Decimal `bun:"price_per_box,type:decimal(10,2),notnull" json:"price_per_box"`
	DefaultBoothQty int             `bun:"default_booth_qty,notnull" json:"default_booth_qty"`
	AvgSellPct      decimal.Decimal `bun:"avg_sell_pct,type:decimal(5,4),notnull" json:"avg_sell_pct"`
	IsActive        bool            `bun:"is_active,notnull" json:"is_active"`
	IsDonation      bool            `bun:"is_donation,notnull" json:"is_donation"`
	SortOrder       int             `bun:"sort_order,notnull" json:"sort_order"`
}
