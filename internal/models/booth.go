package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type BoothEvent struct {
	bun.BaseModel `bun:"table:booth_events"`

	ID                 string          `bun:"id,pk" json:"id"`
	ProgramYear        int             `bun:"program_year,notnull" json:"program_year"`
	Location           string          `bun:"location,notnull" json:"location"`
	BoothDate          time.Time       `bun:"booth_date,notnull" json:"booth_date"`
	StartTime          string          `bun:"start_time,notnull" json:"start_time"`
	EndTime            string          `bun:"end_time,notnull" json:"end_time"`
	WeekendNumber      int             `bun:"weekend_number,notnull" json:"weekend_number"`
	QuantityMultiplier decimal.Decimal `bun:"quantity_multiplier,type:decimal(4,2),notnull" json:"quantity_multiplier"`
	CreatedAt          time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// PlannedInventory is the starting stock of one variant at one booth. EndQuantity
// stays nil until the booth is verified so the raw counts remain auditable.
type PlannedInventory struct {
	bun.BaseModel `bun:"table:booth_planned_inventory"`

	BoothID         string `bun:"booth_id,pk" json:"booth_id"`
	ProgramYear     int    `bun:"program_year,notnull" json:"program_year"`
	CookieCode      string `bun:"cookie_code,pk" json:"cookie_code"`
	PlannedQuantity int    `bun:"planned_quantity,notnull" json:"planned_quantity"`
	EndQuantity     *int   `bun:"end_quantity" json:"end_quantity,omitempty"`
}
