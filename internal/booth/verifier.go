package booth

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/models"
)

// Money holds the cash counts recorded for a booth.
type Money struct {
	StartingCash decimal.Decimal `json:"starting_cash"`
	EndingCash   decimal.Decimal `json:"ending_cash"`
	SquareTotal  decimal.Decimal `json:"square_total"`
}

func (m Money) Validate() error {
	switch {
	case m.StartingCash.IsNegative():
		return apperr.Validation("starting_cash", "must not be negative")
	case m.EndingCash.IsNegative():
		return apperr.Validation("ending_cash", "must not be negative")
	case m.SquareTotal.IsNegative():
		return apperr.Validation("square_total", "must not be negative")
	}
	return nil
}

// EndingMoney is cash in the box plus card sales.
func (m Money) EndingMoney() decimal.Decimal {
	return m.EndingCash.Add(m.SquareTotal)
}

// Line is the count breakdown for one variant.
type Line struct {
	Code    string          `json:"code"`
	Start   int             `json:"start_qty"`
	End     int             `json:"end_qty"`
	Sold    int             `json:"sold"`
	Price   decimal.Decimal `json:"price_per_box"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Reconciliation struct {
	Lines           []Line          `json:"lines"`
	DonationCode    string          `json:"donation_code"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	EndingMoney     decimal.Decimal `json:"ending_money"`
	ActualRevenue   decimal.Decimal `json:"actual_revenue"`
	Difference      decimal.Decimal `json:"difference"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	OPCBoxes        int             `json:"opc_boxes"`
}

func (r *Reconciliation) Sold() map[string]int {
	sold := make(map[string]int, len(r.Lines))
	for _, l := range r.Lines {
		sold[l.Code] = l.Sold
	}
	return sold
}

func (r *Reconciliation) TotalSold() int {
	total := 0
	for _, l := range r.Lines {
		total += l.Sold
	}
	return total
}

// Shortfall reports whether the booth took in less money than it sold.
func (r *Reconciliation) Shortfall() bool {
	return r.Difference.IsNegative()
}

// LedgerEntries builds one BOOTH_SALE entry per variant that sold at least one box.
func (r *Reconciliation) LedgerEntries(order *models.Order, at time.Time, newID func() string) []models.InventoryLedgerEntry {
	var entries []models.InventoryLedgerEntry
	for _, l := range r.Lines {
		if l.Sold <= 0 {
			continue
		}
		entries = append(entries, models.InventoryLedgerEntry{
			EventID:        newID(),
			ProgramYear:    order.ProgramYear,
			CookieCode:     l.Code,
			Quantity:       -l.Sold,
			EventType:      models.InventoryBoothSale,
			Status:         models.LedgerActual,
			RelatedOrderID: order.ID,
			EventDT:        at,
			Notes:          fmt.Sprintf("booth %s sale", order.BoothID),
		})
	}
	return entries
}

// DonationVariant returns the donation code of the catalog and the unit price
// used to convert a cash surplus into donation boxes: the donation variant's
// own price when set, otherwise the lowest positive price of the season.
func DonationVariant(variants []models.CookieVariant) (string, decimal.Decimal) {
	code := DonationCode
	unit := decimal.Zero
	for _, v := range variants {
		if v.IsDonation {
			code = v.Code
			if v.PricePerBox.IsPositive() {
				return code, v.PricePerBox
			}
		}
	}
	for _, v := range variants {
		if v.IsDonation || !v.PricePerBox.IsPositive() {
			continue
		}
		if unit.IsZero() || v.PricePerBox.LessThan(unit) {
			unit = v.PricePerBox
		}
	}
	return code, unit
}

// OPCBoxes floors a positive surplus into whole donation boxes. A shortfall
// or exact match yields 0.
func OPCBoxes(diff, unitPrice decimal.Decimal) int {
	if !diff.IsPositive() || !unitPrice.IsPositive() {
		return 0
	}
	q, _ := diff.QuoRem(unitPrice, 0)
	return int(q.IntPart())
}

// Reconcile turns planned stock, physical end counts and money counts into
// the sold breakdown and cash difference. It performs no writes.
//
// A negative raw difference (end above start) is clamped to zero sold; the
// raw counts stay on the lines for audit.
func Reconcile(variants []models.CookieVariant, planned []models.PlannedInventory, end map[string]int, money Money) (*Reconciliation, error) {
	if err := money.Validate(); err != nil {
		return nil, err
	}

	donation, unit := DonationVariant(variants)
	prices := make(map[string]decimal.Decimal, len(variants))
	for _, v := range variants {
		prices[v.Code] = v.PricePerBox
	}

	r := &Reconciliation{
		DonationCode:    donation,
		ExpectedRevenue: decimal.Zero,
		UnitPrice:       unit,
	}

	plannedCodes := make(map[string]bool, len(planned))
	for _, p := range planned {
		plannedCodes[p.CookieCode] = true
		if p.CookieCode == donation {
			continue
		}

		endQty, ok := end[p.CookieCode]
		if !ok {
			return nil, apperr.Validation("end_qty", fmt.Sprintf("count for %s is missing", p.CookieCode))
		}
		if endQty < 0 {
			return nil, apperr.Validation("end_qty", fmt.Sprintf("count for %s must not be negative", p.CookieCode))
		}
		price, ok := prices[p.CookieCode]
		if !ok {
			return nil, apperr.Configuration(p.ProgramYear, fmt.Sprintf("no active price for %s", p.CookieCode))
		}

		sold := p.PlannedQuantity - endQty
		if sold < 0 {
			sold = 0
		}
		revenue := price.Mul(decimal.NewFromInt(int64(sold)))
		r.ExpectedRevenue = r.ExpectedRevenue.Add(revenue)
		r.Lines = append(r.Lines, Line{
			Code:    p.CookieCode,
			Start:   p.PlannedQuantity,
			End:     endQty,
			Sold:    sold,
			Price:   price,
			Revenue: revenue,
		})
	}

	var unknown []string
	for code := range end {
		if !plannedCodes[code] && code != donation {
			unknown = append(unknown, code)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperr.Validation("end_qty", fmt.Sprintf("codes not planned for this booth: %s", strings.Join(unknown, ", ")))
	}

	r.EndingMoney = money.EndingMoney()
	r.ActualRevenue = r.EndingMoney.Sub(money.StartingCash)
	r.Difference = r.ActualRevenue.Sub(r.ExpectedRevenue)
	r.OPCBoxes = OPCBoxes(r.Difference, unit)
	return r, nil
}
