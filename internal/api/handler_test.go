package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacare/internal/analytics"
	"pharmacare/internal/database"
	"pharmacare/internal/inventory"
	"pharmacare/internal/kv"
	"pharmacare/internal/metrics"
	"pharmacare/internal/migrations"
	"pharmacare/internal/pos"
	"pharmacare/internal/seed"
	"pharmacare/internal/session"
	"pharmacare/internal/store"
	"pharmacare/internal/users"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)

	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	medicineStore := store.NewMedicineStore(db)
	saleStore := store.NewSaleStore(db)
	require.NoError(t, seed.Run(context.Background(), userStore, categoryStore, medicineStore))

	sessions := session.NewStore(userStore, kv.NewMemoryStore(), zap.NewNop())
	m, registry := metrics.New()
	handler := New(
		sessions,
		inventory.NewService(medicineStore),
		pos.NewService(saleStore),
		analytics.NewService(medicineStore, saleStore),
		users.NewService(userStore),
		categoryStore,
		m,
		registry,
		"test_secret",
		zap.NewNop(),
	)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	status, body := doRequest(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login %s: %s", username, body)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	status, _ := doRequest(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogin(t *testing.T) {
	server := newTestServer(t)

	status, body := doRequest(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "owner", "password": "password",
	})
	require.Equal(t, http.StatusOK, status)
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Role     string `json:"role"`
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "owner", resp.User.Role)
	assert.NotContains(t, string(body), "password\":")

	status, _ = doRequest(t, server, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "owner", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)
	status, _ := doRequest(t, server, http.MethodGet, "/medicines", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMedicineRoleGate(t *testing.T) {
	server := newTestServer(t)
	cashier := login(t, server, "cashier", "password")
	pharmacist := login(t, server, "pharmacist", "password")

	payload := map[string]string{
		"name": "Aspirin", "batch_number": "ASP1", "manufacturer": "PharmaCorp",
		"category_id": "1", "price": "4.20", "stock_quantity": "30", "expiry_date": "2027-05-01",
	}

	status, _ := doRequest(t, server, http.MethodPost, "/medicines", cashier, payload)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doRequest(t, server, http.MethodPost, "/medicines", pharmacist, payload)
	assert.Equal(t, http.StatusCreated, status, "%s", body)
}

func TestUserAdminIsOwnerOnly(t *testing.T) {
	server := newTestServer(t)
	pharmacist := login(t, server, "pharmacist", "password")
	owner := login(t, server, "owner", "password")

	status, _ := doRequest(t, server, http.MethodGet, "/users", pharmacist, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := doRequest(t, server, http.MethodGet, "/users", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var roster []map[string]any
	require.NoError(t, json.Unmarshal(body, &roster))
	assert.Len(t, roster, 3)

	status, _ = doRequest(t, server, http.MethodPost, "/users", owner, map[string]string{
		"name": "New Cashier", "username": "cashier2", "email": "c2@pharmacy.com",
		"role": "cashier", "password": "secret",
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestSaleFlow(t *testing.T) {
	server := newTestServer(t)
	owner := login(t, server, "owner", "password")

	// Create a medicine with known price and stock.
	status, body := doRequest(t, server, http.MethodPost, "/medicines", owner, map[string]string{
		"name": "Paracetamol", "batch_number": "PCM1", "manufacturer": "PharmaCorp",
		"category_id": "1", "price": "5.00", "stock_quantity": "3", "expiry_date": "2027-05-01",
	})
	require.Equal(t, http.StatusCreated, status, "%s", body)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	// Over-stock quantity is rejected before anything is written.
	status, _ = doRequest(t, server, http.MethodPost, "/sales", owner, map[string]any{
		"items": []map[string]any{{"medicine_id": created.ID, "quantity": 4}},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// A full-stock sale with a 10% discount: 3 x 5.00 -> 13.50.
	status, body = doRequest(t, server, http.MethodPost, "/sales", owner, map[string]any{
		"items":            []map[string]any{{"medicine_id": created.ID, "quantity": 3}},
		"discount_percent": 10,
		"customer_name":    "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, status, "%s", body)
	var saleResp struct {
		Sale struct {
			TotalAmount float64 `json:"total_amount"`
		} `json:"sale"`
		Items []struct {
			Quantity   int     `json:"quantity"`
			TotalPrice float64 `json:"total_price"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(body, &saleResp))
	assert.InDelta(t, 13.50, saleResp.Sale.TotalAmount, 1e-9)
	require.Len(t, saleResp.Items, 1)
	assert.Equal(t, 3, saleResp.Items[0].Quantity)
	assert.InDelta(t, 15.00, saleResp.Items[0].TotalPrice, 1e-9)

	// The medicine is now out of stock.
	status, body = doRequest(t, server, http.MethodGet, fmt.Sprintf("/medicines/%s", created.ID), owner, nil)
	require.Equal(t, http.StatusOK, status)
	var med struct {
		StockQuantity int    `json:"stock_quantity"`
		StockStatus   string `json:"stock_status"`
	}
	require.NoError(t, json.Unmarshal(body, &med))
	assert.Equal(t, 0, med.StockQuantity)
	assert.Equal(t, "out_of_stock", med.StockStatus)

	// The sale shows up in today's figures.
	status, body = doRequest(t, server, http.MethodGet, "/reports/stats", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var stats struct {
		TodaySales float64 `json:"today_sales"`
	}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.InDelta(t, 13.50, stats.TodaySales, 1e-9)

	// And in the top-selling ranking.
	status, body = doRequest(t, server, http.MethodGet, "/reports/top-selling", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var ranking []struct {
		QuantitySold int `json:"quantity_sold"`
	}
	require.NoError(t, json.Unmarshal(body, &ranking))
	require.NotEmpty(t, ranking)
	assert.Equal(t, 3, ranking[0].QuantitySold)
}

func TestLogoutClearsSession(t *testing.T) {
	server := newTestServer(t)
	owner := login(t, server, "owner", "password")

	status, _ := doRequest(t, server, http.MethodGet, "/auth/me", owner, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, server, http.MethodPost, "/auth/logout", owner, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, server, http.MethodGet, "/auth/me", owner, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
