// Package ledger answers "how much is owed" and "how much inventory remains"
// from the append-only inventory and money ledgers, and appends new pickup and
// payment entries to them.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/catalog"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

type Store interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	ScoutOrders(ctx context.Context, scoutID string, programYear int) ([]models.Order, error)
	PaymentsForOrders(ctx context.Context, orderIDs ...string) (map[string][]models.MoneyLedgerEntry, error)
	NetInventory(ctx context.Context, programYear int, code string) (int, error)
	InventoryByCode(ctx context.Context, programYear int) (map[string]int, error)
	InventoryEntries(ctx context.Context, programYear int, code string) ([]models.InventoryLedgerEntry, error)
	InsertInventoryEntry(ctx context.Context, entry *models.InventoryLedgerEntry) error
	InsertMoneyEntry(ctx context.Context, entry *models.MoneyLedgerEntry) error
}

type EventPublisher interface {
	PublishMoneyReceived(ctx context.Context, event models.MoneyReceivedEvent) error
	PublishInventoryMoved(ctx context.Context, event models.InventoryMovedEvent) error
}

type Service struct {
	DB      Store
	Catalog catalog.Provider
	Events  EventPublisher
	Logger  *logger.Logger
	Now     func() time.Time
	NewID   func() string
}

func NewService(db Store, provider catalog.Provider, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		DB:      db,
		Catalog: provider,
		Events:  events,
		Logger:  log,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// ComputeBalance is order_amount minus everything received against the order.
// Digital orders are settled by the platform and always report zero.
func ComputeBalance(order *models.Order, payments []models.MoneyLedgerEntry) decimal.Decimal {
	if order.OrderType == models.OrderTypeDigital {
		return decimal.Zero
	}
	return order.OrderAmount.Sub(Received(payments))
}

func Received(payments []models.MoneyLedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (s *Service) Balance(ctx context.Context, orderID string) (decimal.Decimal, error) {
	order, err := s.DB.GetOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.DB.PaymentsForOrders(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return ComputeBalance(order, payments[orderID]), nil
}

func (s *Service) NetInventory(ctx context.Context, programYear int, code string) (int, error) {
	if strings.TrimSpace(code) == "" {
		return 0, apperr.Validation("cookie_code", "is required")
	}
	return s.DB.NetInventory(ctx, programYear, code)
}

func (s *Service) InventoryOnHand(ctx context.Context, programYear int) (map[string]int, error) {
	return s.DB.InventoryByCode(ctx, programYear)
}

// InventoryEntries lists the ledger rows of a year in event order. An empty
// code lists every variant.
func (s *Service) InventoryEntries(ctx context.Context, programYear int, code string) ([]models.InventoryLedgerEntry, error) {
	return s.DB.InventoryEntries(ctx, programYear, strings.TrimSpace(code))
}

type CreateOrderRequest struct {
	ProgramYear int              `json:"program_year"`
	ScoutID     string           `json:"scout_id"`
	ParentID    string           `json:"parent_id,omitempty"`
	OrderType   models.OrderType `json:"order_type"`
	TotalBoxes  int              `json:"total_boxes"`
	OrderAmount decimal.Decimal  `json:"order_amount"`
}

// CreateOrder opens a Paper or Digital scout order. Booth orders are created
// by the booth service together with their event.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	if req.OrderType != models.OrderTypePaper && req.OrderType != models.OrderTypeDigital {
		return nil, apperr.Validation("order_type", "must be Paper or Digital")
	}
	if strings.TrimSpace(req.ScoutID) == "" {
		return nil, apperr.Validation("scout_id", "is required")
	}
	if req.TotalBoxes < 0 {
		return nil, apperr.Validation("total_boxes", "must not be negative")
	}
	if req.OrderAmount.IsNegative() {
		return nil, apperr.Validation("order_amount", "must not be negative")
	}

	order := &models.Order{
		ID:          s.NewID(),
		ProgramYear: req.ProgramYear,
		ScoutID:     req.ScoutID,
		ParentID:    req.ParentID,
		OrderType:   req.OrderType,
		Status:      models.OrderStatusNew,
		TotalBoxes:  req.TotalBoxes,
		OrderAmount: req.OrderAmount,
		CreatedAt:   s.Now(),
	}
	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.Logger.LogLedger("ORDER", order.ID, fmt.Sprintf("%s order for scout %s, %s", order.OrderType, order.ScoutID, order.OrderAmount.StringFixed(2)))
	return order, nil
}

type OrderBalance struct {
	OrderID     string           `json:"order_id"`
	OrderType   models.OrderType `json:"order_type"`
	OrderAmount decimal.Decimal  `json:"order_amount"`
	Received    decimal.Decimal  `json:"received"`
	Balance     decimal.Decimal  `json:"balance"`
}

type ScoutSummary struct {
	ScoutID     string          `json:"scout_id"`
	ProgramYear int             `json:"program_year"`
	Orders      []OrderBalance  `json:"orders"`
	TotalDue    decimal.Decimal `json:"total_due"`
}

// ScoutBalances reports the balance of each of a scout's orders for a year.
func (s *Service) ScoutBalances(ctx context.Context, scoutID string, programYear int) (*ScoutSummary, error) {
	if strings.TrimSpace(scoutID) == "" {
		return nil, apperr.Validation("scout_id", "is required")
	}
	orders, err := s.DB.ScoutOrders(ctx, scoutID, programYear)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	payments, err := s.DB.PaymentsForOrders(ctx, ids...)
	if err != nil {
		return nil, err
	}

	summary := &ScoutSummary{ScoutID: scoutID, ProgramYear: programYear, TotalDue: decimal.Zero}
	for i := range orders {
		o := &orders[i]
		balance := ComputeBalance(o, payments[o.ID])
		summary.Orders = append(summary.Orders, OrderBalance{
			OrderID:     o.ID,
			OrderType:   o.OrderType,
			OrderAmount: o.OrderAmount,
			Received:    Received(payments[o.ID]),
			Balance:     balance,
		})
		summary.TotalDue = summary.TotalDue.Add(balance)
	}
	return summary, nil
}

type PickupRequest struct {
	ProgramYear int    `json:"program_year"`
	CookieCode  string `json:"cookie_code"`
	Quantity    int    `json:"quantity"`
	OrderID     string `json:"order_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// RecordPickup appends an inbound PICKUP entry for boxes collected from the
// cupboard.
func (s *Service) RecordPickup(ctx context.Context, req PickupRequest) (*models.InventoryLedgerEntry, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity", "must be positive")
	}
	if err := s.checkCode(ctx, req.ProgramYear, req.CookieCode); err != nil {
		return nil, err
	}

	entry := &models.InventoryLedgerEntry{
		EventID:        s.NewID(),
		ProgramYear:    req.ProgramYear,
		CookieCode:     req.CookieCode,
		Quantity:       req.Quantity,
		EventType:      models.InventoryPickup,
		Status:         models.LedgerCompleted,
		RelatedOrderID: req.OrderID,
		EventDT:        s.Now(),
		Notes:          strings.TrimSpace(req.Notes),
	}
	if err := s.DB.InsertInventoryEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.Logger.LogLedger("PICKUP", entry.EventID, fmt.Sprintf("%d x %s for %d", entry.Quantity, entry.CookieCode, entry.ProgramYear))

	if s.Events != nil {
		if err := s.Events.PublishInventoryMoved(ctx, models.InventoryMovedEvent{
			EventID:     entry.EventID,
			ProgramYear: entry.ProgramYear,
			CookieCode:  entry.CookieCode,
			Quantity:    entry.Quantity,
			EventType:   entry.EventType,
			OrderID:     entry.RelatedOrderID,
		}); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish inventory moved event %s: %v", entry.EventID, err))
		}
	}
	return entry, nil
}

func (s *Service) checkCode(ctx context.Context, programYear int, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperr.Validation("cookie_code", "is required")
	}
	if s.Catalog == nil {
		return nil
	}
	variants, err := s.Catalog.ActiveVariants(ctx, programYear)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if len(variants) == 0 {
		return apperr.Configuration(programYear, "no active cookie variants")
	}
	for _, v := range variants {
		if v.Code == code {
			return nil
		}
	}
	return apperr.Validation("cookie_code", fmt.Sprintf("%s is not sold in %d", code, programYear))
}

type PaymentRequest struct {
	OrderID  string               `json:"order_id"`
	Amount   decimal.Decimal      `json:"amount"`
	Method   models.PaymentMethod `json:"payment_method"`
	ParentID string               `json:"parent_id,omitempty"`
	Notes    string               `json:"notes,omitempty"`
}

// RecordPayment appends money received against an order. Entries are never
// edited; an overpayment shows up as a negative balance.
func (s *Service) RecordPayment(ctx context.Context, req PaymentRequest) (*models.MoneyLedgerEntry, error) {
	if req.Amount.IsNegative() {
		return nil, apperr.Validation("amount", "must not be negative")
	}
	if !req.Method.Valid() {
		return nil, apperr.Validation("payment_method", fmt.Sprintf("%q is not one of Cash, Check, Card, Other", req.Method))
	}
	order, err := s.DB.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	parent := req.ParentID
	if parent == "" {
		parent = order.ParentID
	}
	entry := &models.MoneyLedgerEntry{
		EventID:        s.NewID(),
		ParentID:       parent,
		ScoutID:        order.ScoutID,
		ProgramYear:    order.ProgramYear,
		Amount:         req.Amount,
		PaymentMethod:  req.Method,
		RelatedOrderID: order.ID,
		ReceivedDT:     s.Now(),
		Notes:          strings.TrimSpace(req.Notes),
	}
	if err := s.DB.InsertMoneyEntry(ctx, entry); err != nil {
		return nil, err
	}
	s.Logger.LogLedger("PAYMENT", order.ID, fmt.Sprintf("%s %s received", entry.Amount.StringFixed(2), entry.PaymentMethod))

	if s.Events != nil {
		if err := s.Events.PublishMoneyReceived(ctx, models.MoneyReceivedEvent{
			EventID:     entry.EventID,
			OrderID:     order.ID,
			ScoutID:     entry.ScoutID,
			ProgramYear: entry.ProgramYear,
			Amount:      entry.Amount,
			Method:      entry.PaymentMethod,
			ReceivedAt:  entry.ReceivedDT,
		}); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish money received event %s: %v", entry.EventID, err))
		}
	}
	return entry, nil
}
