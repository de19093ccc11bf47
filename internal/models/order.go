package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderType string

const (
	OrderTypePaper   OrderType = "Paper"
	OrderTypeDigital OrderType = "Digital"
	OrderTypeBooth   OrderType = "Booth"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusVerified  OrderStatus = "VERIFIED"
	OrderStatusPickedUp  OrderStatus = "PICKED_UP"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

type VerificationStatus string

const (
	VerificationDraft    VerificationStatus = "DRAFT"
	VerificationVerified VerificationStatus = "VERIFIED"
)

// Order covers scout orders and booth orders. The booth columns are only
// populated when OrderType is Booth; BoothID links the order 1:1 to its event.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                 string             `bun:"id,pk" json:"id"`
	ProgramYear        int                `bun:"program_year,notnull" json:"program_year"`
	ScoutID            string             `bun:"scout_id,nullzero" json:"scout_id,omitempty"`
	ParentID           string             `bun:"parent_id,nullzero" json:"parent_id,omitempty"`
	OrderType          OrderType          `bun:"order_type,notnull" json:"order_type"`
	Status             OrderStatus        `bun:"status,notnull" json:"status"`
	TotalBoxes         int                `bun:"total_boxes,notnull" json:"total_boxes"`
	OrderAmount        decimal.Decimal    `bun:"order_amount,type:decimal(10,2),notnull" json:"order_amount"`
	BoothID            string             `bun:"booth_id,nullzero,unique" json:"booth_id,omitempty"`
	VerificationStatus VerificationStatus `bun:"verification_status,nullzero" json:"verification_status,omitempty"`
	StartingCash       decimal.Decimal    `bun:"starting_cash,type:decimal(10,2),notnull" json:"starting_cash"`
	EndingCash         decimal.Decimal    `bun:"ending_cash,type:decimal(10,2),notnull" json:"ending_cash"`
	SquareTotal        decimal.Decimal    `bun:"square_total,type:decimal(10,2),notnull" json:"square_total"`
	OPCBoxes           int                `bun:"opc_boxes,notnull" json:"opc_boxes"`
	VerifiedBy         string             `bun:"verified_by,nullzero" json:"verified_by,omitempty"`
	VerifiedAt         time.Time          `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	VerificationNotes  string             `bun:"verification_notes,nullzero" json:"verification_notes,omitempty"`
	CreatedAt          time.Time          `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt          time.Time          `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

func (o *Order) IsVerified() bool {
	return o.VerificationStatus == VerificationVerified
}
