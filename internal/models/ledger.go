package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type InventoryEventType string

const (
	InventoryPickup     InventoryEventType = "PICKUP"
	InventoryBoothSale  InventoryEventType = "BOOTH_SALE"
	InventoryDelivery   InventoryEventType = "DELIVERY"
	InventoryTransfer   InventoryEventType = "TRANSFER"
	InventoryAdjustment InventoryEventType = "ADJUSTMENT"
)

type LedgerStatus string

const (
	LedgerActual    LedgerStatus = "ACTUAL"
	LedgerCompleted LedgerStatus = "COMPLETED"
)

// InventoryLedgerEntry is an append-only stock movement. Positive quantities
// are inbound (pickups), negative quantities are outbound (sales), so the net
// on-hand count for a code is the plain sum of its entries.
type InventoryLedgerEntry struct {
	bun.BaseModel `bun:"table:inventory_ledger"`

	EventID        string             `bun:"event_id,pk" json:"event_id"`
	ProgramYear    int                `bun:"program_year,notnull" json:"program_year"`
	CookieCode     string             `bun:"cookie_code,notnull" json:"cookie_code"`
	Quantity       int                `bun:"quantity,notnull" json:"quantity"`
	EventType      InventoryEventType `bun:"event_type,notnull" json:"event_type"`
	Status         LedgerStatus       `bun:"status,notnull" json:"status"`
	RelatedOrderID string             `bun:"related_order_id,nullzero" json:"related_order_id,omitempty"`
	EventDT        time.Time          `bun:"event_dt,notnull" json:"event_dt"`
	Notes          string             `bun:"notes,nullzero" json:"notes,omitempty"`
}

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentCheck PaymentMethod = "Check"
	PaymentCard  PaymentMethod = "Card"
	PaymentOther PaymentMethod = "Other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCheck, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// MoneyLedgerEntry records money received against an order. Entries are never
// revised; the amount received for an order is the sum of its entries.
type MoneyLedgerEntry struct {
	bun.BaseModel `bun:"table:money_ledger"`

	EventID        string          `bun:"event_id,pk" json:"event_id"`
	ParentID       string          `bun:"parent_id,nullzero" json:"parent_id,omitempty"`
	ScoutID        string          `bun:"scout_id,nullzero" json:"scout_id,omitempty"`
	ProgramYear    int             `bun:"program_year,notnull" json:"program_year"`
	Amount         decimal.Decimal `bun:"amount,type:decimal(10,2),notnull" json:"amount"`
	PaymentMethod  PaymentMethod   `bun:"payment_method,notnull" json:"payment_method"`
	RelatedOrderID string          `bun:"related_order_id,nullzero" json:"related_order_id,omitempty"`
	ReceivedDT     time.Time       `bun:"received_dt,notnull" json:"received_dt"`
	Notes          string          `bun:"notes,nullzero" json:"notes,omitempty"`
}
