package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"troop-cookies/internal/apperr"
	"troop-cookies/internal/booth"
	"troop-cookies/internal/ledger"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
	"troop-cookies/internal/utils"
)

// CatalogAdmin is the season configuration store.
type CatalogAdmin interface {
	AllVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error)
	ReplaceSeason(ctx context.Context, programYear int, variants []models.CookieVariant) error
}

// CacheInvalidator drops cached catalog entries after a season is replaced.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, programYear int) error
}

type Handler struct {
	Booths      *booth.Service
	Ledger      *ledger.Service
	Catalog     CatalogAdmin
	Cache       CacheInvalidator
	Logger      *logger.Logger
	DefaultYear int
}

func NewHandler(booths *booth.Service, ledgerService *ledger.Service, catalog CatalogAdmin, log *logger.Logger, defaultYear int) *Handler {
	return &Handler{
		Booths:      booths,
		Ledger:      ledgerService,
		Catalog:     catalog,
		Logger:      log,
		DefaultYear: defaultYear,
	}
}

// RegisterRoutes registers the admin routes on a chi router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/catalog/{year}", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Put("/", h.ReplaceCatalog)
	})

	r.Route("/booths", func(r chi.Router) {
		r.Post("/", h.CreateBooth)
		r.Get("/", h.ListBooths)
		r.Route("/{boothId}", func(r chi.Router) {
			r.Get("/", h.GetBooth)
			r.Delete("/", h.DeleteBooth)
			r.Put("/planned/{code}", h.UpdatePlannedQuantity)
			r.Put("/money", h.UpdateMoney)
			r.Post("/preview", h.PreviewBooth)
			r.Post("/verify", h.VerifyBooth)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{orderId}/balance", h.GetBalance)
		r.Post("/{orderId}/payments", h.RecordPayment)
	})
	r.Get("/scouts/{scoutId}/balances", h.GetScoutBalances)

	r.Route("/inventory", func(r chi.Router) {
		r.Post("/pickups", h.RecordPickup)
		r.Get("/{year}", h.GetInventoryOnHand)
		r.Get("/{year}/entries", h.ListInventoryEntries)
		r.Get("/{year}/{code}", h.GetNetInventory)
	})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("body", fmt.Sprintf("is not valid JSON: %v", err))
	}
	return nil
}

func yearParam(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, apperr.Validation("year", "must be a number")
	}
	return year, nil
}

func (h *Handler) yearQuery(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.DefaultYear, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("year", "must be a number")
	}
	return year, nil
}

// ---------------- CATALOG ----------------

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	variants, err := h.Catalog.AllVariants(r.Context(), year)
	if err != nil {
		writeError(w, h.Logger, "Failed to load catalog", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Catalog loaded", variants))
}

func (h *Handler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	var variants []models.CookieVariant
	if err := decode(r, &variants); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	if err := h.Catalog.ReplaceSeason(r.Context(), year, variants); err != nil {
		writeError(w, h.Logger, "Failed to replace catalog", err)
		return
	}
	if h.Cache != nil {
		if err := h.Cache.Invalidate(r.Context(), year); err != nil {
			h.Logger.Warn("CATALOG", fmt.Sprintf("Failed to invalidate catalog cache for %d: %v", year, err))
		}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(fmt.Sprintf("Catalog for %d replaced", year), variants))
}

// ---------------- BOOTHS ----------------

func (h *Handler) CreateBooth(w http.ResponseWriter, r *http.Request) {
	var req booth.CreateBoothRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	if req.ProgramYear == 0 {
		req.ProgramYear = h.DefaultYear
	}
	detail, err := h.Booths.CreateBooth(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "Failed to create booth", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Booth created", detail))
}

func (h *Handler) ListBooths(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearQuery(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	booths, err := h.Booths.ListBooths(r.Context(), year)
	if err != nil {
		writeError(w, h.Logger, "Failed to list booths", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booths loaded", booths))
}

func (h *Handler) GetBooth(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Booths.GetBooth(r.Context(), chi.URLParam(r, "boothId"))
	if err != nil {
		writeError(w, h.Logger, "Failed to load booth", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booth loaded", detail))
}

func (h *Handler) DeleteBooth(w http.ResponseWriter, r *http.Request) {
	boothID := chi.URLParam(r, "boothId")
	if err := h.Booths.DeleteBooth(r.Context(), boothID); err != nil {
		writeError(w, h.Logger, "Failed to delete booth", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booth deleted", map[string]string{"booth_id": boothID}))
}

func (h *Handler) UpdatePlannedQuantity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlannedQuantity int `json:"planned_quantity"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	order, err := h.Booths.UpdatePlannedQuantity(r.Context(), chi.URLParam(r, "boothId"), chi.URLParam(r, "code"), body.PlannedQuantity)
	if err != nil {
		writeError(w, h.Logger, "Failed to update planned quantity", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Planned quantity updated", order))
}

func (h *Handler) UpdateMoney(w http.ResponseWriter, r *http.Request) {
	var money booth.Money
	if err := decode(r, &money); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	if err := h.Booths.UpdateMoney(r.Context(), chi.URLParam(r, "boothId"), money); err != nil {
		writeError(w, h.Logger, "Failed to update booth money", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booth money updated", money))
}

type previewRequest struct {
	EndQuantities map[string]int `json:"end_quantities"`
	Money         *booth.Money   `json:"money,omitempty"`
}

func (h *Handler) PreviewBooth(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	rec, err := h.Booths.Preview(r.Context(), chi.URLParam(r, "boothId"), req.EndQuantities, req.Money)
	if err != nil {
		writeError(w, h.Logger, "Failed to reconcile booth", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Booth reconciliation preview", rec))
}

func (h *Handler) VerifyBooth(w http.ResponseWriter, r *http.Request) {
	var req booth.VerifyRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	req.BoothID = chi.URLParam(r, "boothId")

	res, err := h.Booths.Verify(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "Failed to verify booth", err)
		return
	}
	message := "Booth verified"
	if res.AlreadyVerified {
		message = "Booth was already verified"
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, res))
}

// ---------------- ORDERS & LEDGER ----------------

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateOrderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	if req.ProgramYear == 0 {
		req.ProgramYear = h.DefaultYear
	}
	order, err := h.Ledger.CreateOrder(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "Failed to create order", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order created", order))
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	balance, err := h.Ledger.Balance(r.Context(), orderID)
	if err != nil {
		writeError(w, h.Logger, "Failed to compute balance", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Balance computed", map[string]interface{}{
		"order_id": orderID,
		"balance":  balance,
	}))
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req ledger.PaymentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	req.OrderID = chi.URLParam(r, "orderId")

	entry, err := h.Ledger.RecordPayment(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "Failed to record payment", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Payment recorded", entry))
}

func (h *Handler) GetScoutBalances(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearQuery(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	summary, err := h.Ledger.ScoutBalances(r.Context(), chi.URLParam(r, "scoutId"), year)
	if err != nil {
		writeError(w, h.Logger, "Failed to compute scout balances", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Scout balances computed", summary))
}

func (h *Handler) RecordPickup(w http.ResponseWriter, r *http.Request) {
	var req ledger.PickupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.Logger, "Invalid request body", err)
		return
	}
	if req.ProgramYear == 0 {
		req.ProgramYear = h.DefaultYear
	}
	entry, err := h.Ledger.RecordPickup(r.Context(), req)
	if err != nil {
		writeError(w, h.Logger, "Failed to record pickup", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Pickup recorded", entry))
}

func (h *Handler) GetInventoryOnHand(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	onHand, err := h.Ledger.InventoryOnHand(r.Context(), year)
	if err != nil {
		writeError(w, h.Logger, "Failed to compute inventory", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Inventory on hand", onHand))
}

func (h *Handler) ListInventoryEntries(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	entries, err := h.Ledger.InventoryEntries(r.Context(), year, r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, h.Logger, "Failed to list inventory entries", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Inventory entries", entries))
}

func (h *Handler) GetNetInventory(w http.ResponseWriter, r *http.Request) {
	year, err := yearParam(r)
	if err != nil {
		writeError(w, h.Logger, "Invalid year", err)
		return
	}
	code := chi.URLParam(r, "code")
	net, err := h.Ledger.NetInventory(r.Context(), year, code)
	if err != nil {
		writeError(w, h.Logger, "Failed to compute inventory", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Net inventory", map[string]interface{}{
		"program_year": year,
		"cookie_code":  code,
		"net":          net,
	}))
}
