package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troop-cookies/internal/api"
	"troop-cookies/internal/apperr"
	"troop-cookies/internal/booth"
	boothdb "troop-cookies/internal/booth/db"
	"troop-cookies/internal/catalog"
	"troop-cookies/internal/database"
	"troop-cookies/internal/ledger"
	ledgerdb "troop-cookies/internal/ledger/db"
	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.CreateSchema(context.Background(), db))

	log := logger.Discard()
	cat := &catalog.DB{Bun: db}
	h := api.NewHandler(
		booth.NewService(&boothdb.DB{Bun: db}, cat, nil, log),
		ledger.NewService(&ledgerdb.DB{Bun: db}, cat, nil, log),
		cat, log, 2025,
	)

	r := chi.NewRouter()
	r.Use(api.RequestLogger(log))
	r.Route("/api", h.RegisterRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

var season = []map[string]interface{}{
	{"code": "TM", "display_name": "Thin Mints", "price_per_box": "6.00", "default_booth_qty": 24, "avg_sell_pct": "0.4", "is_active": true, "sort_order": 1},
	{"code": "DON", "display_name": "Operation Cookie", "price_per_box": "6.00", "default_booth_qty": 0, "avg_sell_pct": "0", "is_active": true, "is_donation": true, "sort_order": 9},
}

func TestBoothLifecycle(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/booths", map[string]interface{}{
		"location": "Hardware Store", "booth_date": "2025-03-01T00:00:00Z",
		"start_time": "10:00", "end_time": "14:00", "weekend_number": 1,
	})
	assert.Equal(t, http.StatusConflict, code, "no catalog yet")
	assert.False(t, env.Success)

	code, _ = do(t, r, http.MethodPut, "/api/catalog/2025", season)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodPost, "/api/booths", map[string]interface{}{
		"location": "Hardware Store", "booth_date": "2025-03-01T00:00:00Z",
		"start_time": "10:00", "end_time": "14:00", "weekend_number": 1,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var detail booth.Detail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, 24, detail.Order.TotalBoxes)

	code, env = do(t, r, http.MethodPut, "/api/booths/"+detail.Booth.ID+"/money",
		map[string]string{"starting_cash": "100", "ending_cash": "140", "square_total": "40"})
	require.Equal(t, http.StatusOK, code, env.Error)

	verify := map[string]interface{}{
		"end_quantities":  map[string]int{"TM": 4},
		"counts_verified": true,
		"money_verified":  true,
		"notes":           "short forty",
		"verified_by":     "cookie-mom",
	}
	path := fmt.Sprintf("/api/booths/%s/verify", detail.Booth.ID)

	code, env = do(t, r, http.MethodPost, path, verify)
	require.Equal(t, http.StatusOK, code, env.Error)
	var res booth.VerifyResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.AlreadyVerified)
	assert.Equal(t, "-40.00", res.Reconciliation.Difference.StringFixed(2))
	assert.Len(t, res.LedgerEntries, 1)

	code, env = do(t, r, http.MethodPost, path, verify)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Booth was already verified", env.Message)

	code, env = do(t, r, http.MethodGet, "/api/inventory/2025/TM", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"net":-20`)

	code, env = do(t, r, http.MethodGet, "/api/inventory/2025/entries?code=TM", nil)
	require.Equal(t, http.StatusOK, code)
	var entries []models.InventoryLedgerEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.InventoryBoothSale, entries[0].EventType)
	assert.Equal(t, -20, entries[0].Quantity)

	code, _ = do(t, r, http.MethodDelete, "/api/booths/"+detail.Booth.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, r, http.MethodGet, "/api/booths/"+detail.Booth.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestVerifyValidationIsBadRequest(t *testing.T) {
	r := setupRouter(t)
	code, _ := do(t, r, http.MethodPut, "/api/catalog/2025", season)
	require.Equal(t, http.StatusOK, code)

	_, env := do(t, r, http.MethodPost, "/api/booths", map[string]interface{}{
		"location": "Bank", "booth_date": "2025-03-01T00:00:00Z",
		"start_time": "10:00", "end_time": "12:00", "weekend_number": 2,
	})
	var detail booth.Detail
	require.NoError(t, json.Unmarshal(env.Data, &detail))

	code, env = do(t, r, http.MethodPost, "/api/booths/"+detail.Booth.ID+"/verify", map[string]interface{}{
		"end_quantities": map[string]int{"TM": 1},
		"notes":          "missing confirmations",
		"verified_by":    "cookie-mom",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Error, "counts_verified")
}

func TestOrderBalanceEndpoints(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/orders", map[string]interface{}{
		"scout_id": "scout-7", "order_type": "Paper", "total_boxes": 8, "order_amount": "48.00",
	})
	require.Equal(t, http.StatusCreated, code, env.Error)
	var order struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))

	code, _ = do(t, r, http.MethodPost, "/api/orders/"+order.ID+"/payments", map[string]interface{}{
		"amount": "12.00", "payment_method": "Cash",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env = do(t, r, http.MethodGet, "/api/orders/"+order.ID+"/balance", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"balance":"36"`)

	code, env = do(t, r, http.MethodGet, "/api/scouts/scout-7/balances?year=2025", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), order.ID)

	code, _ = do(t, r, http.MethodGet, "/api/orders/nope/balance", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, api.StatusFor(apperr.Validation("notes", "is required")))
	assert.Equal(t, http.StatusConflict, api.StatusFor(apperr.Configuration(2025, "empty")))
	assert.Equal(t, http.StatusNotFound, api.StatusFor(fmt.Errorf("get: %w", apperr.ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, api.StatusFor(apperr.Store("insert", errors.New("disk full"))))
}
