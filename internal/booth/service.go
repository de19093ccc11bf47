package booth

import (
	"context"
	"errors"
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

// Store persists booths. Every write that touches a booth order is guarded by
// "verification_status <> VERIFIED" and reports apperr.ErrAlreadyVerified when
// the guard matches no row.
type Store interface {
	CreateBooth(ctx context.Context, booth *models.BoothEvent, planned []models.PlannedInventory, order *models.Order) error
	GetBooth(ctx context.Context, id string) (*models.BoothEvent, error)
	GetBoothOrder(ctx context.Context, boothID string) (*models.Order, error)
	GetPlannedInventory(ctx context.Context, boothID string) ([]models.PlannedInventory, error)
	ListBooths(ctx context.Context, programYear int) ([]models.BoothEvent, error)
	UpdatePlannedQuantity(ctx context.Context, boothID, code string, qty int, prices map[string]decimal.Decimal) (*models.Order, error)
	UpdateBoothMoney(ctx context.Context, boothID string, money Money) error
	CommitVerification(ctx context.Context, v Verification, entries []models.InventoryLedgerEntry) error
	DeleteBooth(ctx context.Context, boothID string) error
}

type EventPublisher interface {
	PublishBoothVerified(ctx context.Context, event models.BoothVerifiedEvent) error
}

// Verification is the status flip written together with the sale entries.
type Verification struct {
	OrderID       string
	BoothID       string
	VerifiedBy    string
	VerifiedAt    time.Time
	Notes         string
	OPCBoxes      int
	EndQuantities map[string]int
	Money         Money
}

type Service struct {
	DB      Store
	Planner *Planner
	Catalog catalog.Provider
	Events  EventPublisher
	Logger  *logger.Logger
	Now     func() time.Time
	NewID   func() string
}

func NewService(db Store, provider catalog.Provider, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		DB:      db,
		Planner: NewPlanner(provider),
		Catalog: provider,
		Events:  events,
		Logger:  log,
		Now:     time.Now,
		NewID:   uuid.NewString,
	}
}

// Detail is a booth with its order and planned inventory.
type Detail struct {
	Booth   *models.BoothEvent        `json:"booth"`
	Order   *models.Order             `json:"order"`
	Planned []models.PlannedInventory `json:"planned_inventory"`
}

type CreateBoothRequest struct {
	ProgramYear   int              `json:"program_year"`
	Location      string           `json:"location"`
	BoothDate     time.Time        `json:"booth_date"`
	StartTime     string           `json:"start_time"`
	EndTime       string           `json:"end_time"`
	WeekendNumber int              `json:"weekend_number"`
	Multiplier    *decimal.Decimal `json:"quantity_multiplier,omitempty"`
}

func (r CreateBoothRequest) validate() error {
	if strings.TrimSpace(r.Location) == "" {
		return apperr.Validation("location", "is required")
	}
	if r.BoothDate.IsZero() {
		return apperr.Validation("booth_date", "is required")
	}
	if r.WeekendNumber < 1 || r.WeekendNumber > 3 {
		return apperr.Validation("weekend_number", "must be 1, 2 or 3")
	}
	start, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return apperr.Validation("start_time", "must be HH:MM")
	}
	end, err := time.Parse("15:04", r.EndTime)
	if err != nil {
		return apperr.Validation("end_time", "must be HH:MM")
	}
	if !end.After(start) {
		return apperr.Validation("end_time", "must be after start_time")
	}
	return nil
}

// CreateBooth schedules a booth, seeds its planned inventory and opens its
// DRAFT booth order in one transaction.
func (s *Service) CreateBooth(ctx context.Context, req CreateBoothRequest) (*Detail, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	plan, err := s.Planner.SeedPlan(ctx, req.ProgramYear, req.WeekendNumber, req.Multiplier)
	if err != nil {
		return nil, err
	}
	variants, err := s.Catalog.ActiveVariants(ctx, req.ProgramYear)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	now := s.Now()
	booth := &models.BoothEvent{
		ID:                 s.NewID(),
		ProgramYear:        req.ProgramYear,
		Location:           strings.TrimSpace(req.Location),
		BoothDate:          req.BoothDate,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		WeekendNumber:      req.WeekendNumber,
		QuantityMultiplier: plan.Multiplier,
		CreatedAt:          now,
	}
	planned := plan.Rows(booth.ID)
	order := &models.Order{
		ID:                 s.NewID(),
		ProgramYear:        req.ProgramYear,
		OrderType:          models.OrderTypeBooth,
		Status:             models.OrderStatusNew,
		VerificationStatus: models.VerificationDraft,
		BoothID:            booth.ID,
		TotalBoxes:         plan.TotalBoxes(),
		OrderAmount:        PlannedAmount(planned, catalog.PriceMap(variants)),
		CreatedAt:          now,
	}

	if err := s.DB.CreateBooth(ctx, booth, planned, order); err != nil {
		s.Logger.Error("BOOTH", fmt.Sprintf("Failed to create booth at %s: %v", booth.Location, err))
		return nil, err
	}

	s.Logger.LogBooth("CREATE", booth.ID, fmt.Sprintf("%s weekend %d, multiplier %s, %d boxes planned",
		booth.Location, booth.WeekendNumber, plan.Multiplier.String(), order.TotalBoxes))
	return &Detail{Booth: booth, Order: order, Planned: planned}, nil
}

// PlannedAmount prices a plan. Codes without a price count as zero.
func PlannedAmount(planned []models.PlannedInventory, prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range planned {
		total = total.Add(prices[p.CookieCode].Mul(decimal.NewFromInt(int64(p.PlannedQuantity))))
	}
	return total
}

func (s *Service) GetBooth(ctx context.Context, boothID string) (*Detail, error) {
	booth, err := s.DB.GetBooth(ctx, boothID)
	if err != nil {
		return nil, err
	}
	order, err := s.DB.GetBoothOrder(ctx, boothID)
	if err != nil {
		return nil, err
	}
	planned, err := s.DB.GetPlannedInventory(ctx, boothID)
	if err != nil {
		return nil, err
	}
	return &Detail{Booth: booth, Order: order, Planned: planned}, nil
}

func (s *Service) ListBooths(ctx context.Context, programYear int) ([]models.BoothEvent, error) {
	return s.DB.ListBooths(ctx, programYear)
}

// UpdatePlannedQuantity edits one planned line before verification and keeps
// the order's total boxes and amount in step with the plan.
func (s *Service) UpdatePlannedQuantity(ctx context.Context, boothID, code string, qty int) (*models.Order, error) {
	if qty < 0 {
		return nil, apperr.Validation("planned_quantity", "must not be negative")
	}
	booth, err := s.DB.GetBooth(ctx, boothID)
	if err != nil {
		return nil, err
	}
	variants, err := s.Catalog.ActiveVariants(ctx, booth.ProgramYear)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if donation, _ := DonationVariant(variants); code == donation && qty != 0 {
		return nil, apperr.Validation("planned_quantity", "the donation line is never pre-stocked")
	}

	order, err := s.DB.UpdatePlannedQuantity(ctx, boothID, code, qty, catalog.PriceMap(variants))
	if errors.Is(err, apperr.ErrAlreadyVerified) {
		return nil, apperr.Validation("booth", "is already verified; planned inventory is locked")
	}
	if err != nil {
		return nil, err
	}
	s.Logger.LogBooth("PLAN", boothID, fmt.Sprintf("%s set to %d, %d boxes planned", code, qty, order.TotalBoxes))
	return order, nil
}

// UpdateMoney records the booth's cash figures while it is still DRAFT.
func (s *Service) UpdateMoney(ctx context.Context, boothID string, money Money) error {
	if err := money.Validate(); err != nil {
		return err
	}
	err := s.DB.UpdateBoothMoney(ctx, boothID, money)
	if errors.Is(err, apperr.ErrAlreadyVerified) {
		return apperr.Validation("booth", "is already verified; money counts are locked")
	}
	return err
}

// DeleteBooth removes a booth with its plan, order and the order's ledger
// entries. It is the only way to undo a verified booth.
func (s *Service) DeleteBooth(ctx context.Context, boothID string) error {
	if err := s.DB.DeleteBooth(ctx, boothID); err != nil {
		return err
	}
	s.Logger.LogBooth("DELETE", boothID, "booth and dependent rows removed")
	return nil
}

type VerifyRequest struct {
	BoothID        string         `json:"booth_id"`
	EndQuantities  map[string]int `json:"end_quantities"`
	CountsVerified bool           `json:"counts_verified"`
	MoneyVerified  bool           `json:"money_verified"`
	Notes          string         `json:"notes"`
	VerifiedBy     string         `json:"verified_by"`

	// Money replaces the figures saved with UpdateMoney when set.
	Money *Money `json:"money,omitempty"`
}

func (r VerifyRequest) validate() error {
	if !r.CountsVerified {
		return apperr.Validation("counts_verified", "must be confirmed")
	}
	if !r.MoneyVerified {
		return apperr.Validation("money_verified", "must be confirmed")
	}
	if strings.TrimSpace(r.Notes) == "" {
		return apperr.Validation("notes", "is required")
	}
	if strings.TrimSpace(r.VerifiedBy) == "" {
		return apperr.Validation("verified_by", "is required")
	}
	if r.Money != nil {
		return r.Money.Validate()
	}
	return nil
}

// VerifyResult carries no Reconciliation when AlreadyVerified is set; the
// stored OPCBoxes are reported instead.
type VerifyResult struct {
	BoothID         string                        `json:"booth_id"`
	OrderID         string                        `json:"order_id"`
	Reconciliation  *Reconciliation               `json:"reconciliation,omitempty"`
	LedgerEntries   []models.InventoryLedgerEntry `json:"ledger_entries"`
	OPCBoxes        int                           `json:"opc_boxes"`
	AlreadyVerified bool                          `json:"already_verified"`
}

// StoredMoney returns the cash figures saved on a booth order.
func StoredMoney(o *models.Order) Money {
	return Money{StartingCash: o.StartingCash, EndingCash: o.EndingCash, SquareTotal: o.SquareTotal}
}

// Preview runs the reconciliation without confirmations or writes. A nil
// money uses the figures saved on the booth.
func (s *Service) Preview(ctx context.Context, boothID string, end map[string]int, money *Money) (*Reconciliation, error) {
	booth, order, err := s.load(ctx, boothID)
	if err != nil {
		return nil, err
	}
	rec, _, err := s.reconcile(ctx, booth, order, end, money)
	return rec, err
}

func (s *Service) load(ctx context.Context, boothID string) (*models.BoothEvent, *models.Order, error) {
	booth, err := s.DB.GetBooth(ctx, boothID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.DB.GetBoothOrder(ctx, boothID)
	if err != nil {
		return nil, nil, err
	}
	return booth, order, nil
}

func (s *Service) reconcile(ctx context.Context, booth *models.BoothEvent, order *models.Order, end map[string]int, override *Money) (*Reconciliation, Money, error) {
	money := StoredMoney(order)
	if override != nil {
		money = *override
	}
	planned, err := s.DB.GetPlannedInventory(ctx, booth.ID)
	if err != nil {
		return nil, money, err
	}
	variants, err := s.Catalog.ActiveVariants(ctx, booth.ProgramYear)
	if err != nil {
		return nil, money, fmt.Errorf("load catalog: %w", err)
	}
	if len(variants) == 0 {
		return nil, money, apperr.Configuration(booth.ProgramYear, "no active cookie variants")
	}

	rec, err := Reconcile(variants, planned, end, money)
	if err != nil {
		return nil, money, err
	}
	return rec, money, nil
}

func (s *Service) alreadyVerified(boothID string, order *models.Order) *VerifyResult {
	s.Logger.LogBooth("VERIFY", boothID, "already verified, nothing written")
	return &VerifyResult{
		BoothID:         boothID,
		OrderID:         order.ID,
		OPCBoxes:        order.OPCBoxes,
		AlreadyVerified: true,
	}
}

// Verify moves a booth order from DRAFT to VERIFIED and appends its sale
// entries atomically. The money saved with UpdateMoney is used unless the
// request carries its own. Re-submitting an already verified booth succeeds
// with AlreadyVerified set and writes nothing.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	booth, order, err := s.load(ctx, req.BoothID)
	if err != nil {
		return nil, err
	}
	if order.IsVerified() {
		return s.alreadyVerified(booth.ID, order), nil
	}

	rec, money, err := s.reconcile(ctx, booth, order, req.EndQuantities, req.Money)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	entries := rec.LedgerEntries(order, now, s.NewID)
	v := Verification{
		OrderID:       order.ID,
		BoothID:       booth.ID,
		VerifiedBy:    strings.TrimSpace(req.VerifiedBy),
		VerifiedAt:    now,
		Notes:         strings.TrimSpace(req.Notes),
		OPCBoxes:      rec.OPCBoxes,
		EndQuantities: req.EndQuantities,
		Money:         money,
	}

	err = s.DB.CommitVerification(ctx, v, entries)
	if errors.Is(err, apperr.ErrAlreadyVerified) {
		current, getErr := s.DB.GetBoothOrder(ctx, booth.ID)
		if getErr != nil {
			return nil, getErr
		}
		return s.alreadyVerified(booth.ID, current), nil
	}
	if err != nil {
		s.Logger.Error("BOOTH", fmt.Sprintf("Verification of booth %s failed: %v", booth.ID, err))
		return nil, err
	}

	s.Logger.LogBooth("VERIFY", booth.ID, fmt.Sprintf("sold %d boxes, expected %s, actual %s, diff %s, opc %d",
		rec.TotalSold(), rec.ExpectedRevenue.StringFixed(2), rec.ActualRevenue.StringFixed(2),
		rec.Difference.StringFixed(2), rec.OPCBoxes))
	if rec.Shortfall() {
		s.Logger.Warn("BOOTH", fmt.Sprintf("Booth %s is short %s", booth.ID, rec.Difference.Neg().StringFixed(2)))
	}

	if s.Events != nil {
		event := models.BoothVerifiedEvent{
			BoothID:         booth.ID,
			OrderID:         order.ID,
			ProgramYear:     booth.ProgramYear,
			Sold:            rec.Sold(),
			ExpectedRevenue: rec.ExpectedRevenue,
			ActualRevenue:   rec.ActualRevenue,
			Difference:      rec.Difference,
			OPCBoxes:        rec.OPCBoxes,
			VerifiedBy:      v.VerifiedBy,
			VerifiedAt:      now,
		}
		if err := s.Events.PublishBoothVerified(ctx, event); err != nil {
			s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish booth verified event for %s: %v", booth.ID, err))
		}
	}

	return &VerifyResult{
		BoothID:        booth.ID,
		OrderID:        order.ID,
		Reconciliation: rec,
		LedgerEntries:  entries,
		OPCBoxes:       rec.OPCBoxes,
	}, nil
}
