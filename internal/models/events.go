package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BoothVerifiedEvent is published once a booth order flips to VERIFIED.
type BoothVerifiedEvent struct {
	BoothID         string          `json:"booth_id"`
	OrderID         string          `json:"order_id"`
	ProgramYear     int             `json:"program_year"`
	Sold            map[string]int  `json:"sold"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	ActualRevenue   decimal.Decimal `json:"actual_revenue"`
	Difference      decimal.Decimal `json:"difference"`
	OPCBoxes        int             `json:"opc_boxes"`
	VerifiedBy      string          `json:"verified_by"`
	VerifiedAt      time.Time       `json:"verified_at"`
}

type MoneyReceivedEvent struct {
	EventID     string          `json:"event_id"`
	OrderID     string          `json:"order_id"`
	ScoutID     string          `json:"scout_id,omitempty"`
	ProgramYear int             `json:"program_year"`
	Amount      decimal.Decimal `json:"amount"`
	Method      PaymentMethod   `json:"payment_method"`
	ReceivedAt  time.Time       `json:"received_at"`
}

type InventoryMovedEvent struct {
	EventID     string             `json:"event_id"`
	ProgramYear int                `json:"program_year"`
	CookieCode  string             `json:"cookie_code"`
	Quantity    int                `json:"quantity"`
	EventType   InventoryEventType `json:"event_type"`
	OrderID     string             `json:"order_id,omitempty"`
}
