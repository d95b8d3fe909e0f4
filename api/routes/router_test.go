package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prejin2310/megora-inventory/internal/customers"
	"github.com/prejin2310/megora-inventory/internal/ledger"
	"github.com/prejin2310/megora-inventory/internal/orders"
	"github.com/prejin2310/megora-inventory/internal/products"
	pkgAuth "github.com/prejin2310/megora-inventory/pkg/auth"
	"github.com/prejin2310/megora-inventory/pkg/config"
	"github.com/prejin2310/megora-inventory/pkg/db/dbtest"
	"github.com/prejin2310/megora-inventory/pkg/enums"
	"github.com/prejin2310/megora-inventory/pkg/logger"
	"github.com/prejin2310/megora-inventory/pkg/metrics"
	"github.com/prejin2310/megora-inventory/pkg/outbox"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "megora",
			ExpirationMinutes: 60,
		},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"*"}},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	client, conn := dbtest.Client(t, "router")

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	productRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(productRepo, client, ledgerSvc, emitter, nil)
	require.NoError(t, err)
	customerSvc, err := customers.NewService(customers.NewRepository(conn))
	require.NoError(t, err)
	orderSvc, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(conn),
		Tx:        client,
		Outbox:    emitter,
		Products:  productRepo,
		Stock:     productSvc,
		Customers: customerSvc,
		Ledger:    ledgerSvc,
		Logger:    logg,
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return NewRouter(
		cfg,
		logg,
		client,
		nil,
		metrics.NewHTTPMetrics(reg),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		productSvc,
		customerSvc,
		orderSvc,
		ledgerSvc,
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.StaffRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		ActorID: uuid.New(),
		Role:    role,
	})
	require.NoError(t, err)
	return token
}

func call(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestStaffRoutesRejectMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := call(t, router, http.MethodGet, "/api/v1/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReconcileRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	staff := call(t, router, http.MethodGet, "/api/v1/inventory/reconcile", buildToken(t, cfg, enums.StaffRoleStaff), "")
	assert.Equal(t, http.StatusForbidden, staff.Code)

	admin := call(t, router, http.MethodGet, "/api/v1/inventory/reconcile", buildToken(t, cfg, enums.StaffRoleAdmin), "")
	require.Equal(t, http.StatusOK, admin.Code, admin.Body.String())
	assert.Contains(t, admin.Body.String(), `"consistent":true`)
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router := newTestRouter(t, testConfig())

	assert.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, call(t, router, http.MethodGet, "/health/ready", "", "").Code)

	rec := call(t, router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "megora_http_requests_total")
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	staff := buildToken(t, cfg, enums.StaffRoleStaff)
	admin := buildToken(t, cfg, enums.StaffRoleAdmin)

	rec := call(t, router, http.MethodPost, "/api/v1/products", staff, `{"name":"Kundan Jhumka","sku":"MJ-0A1","price":"100","stock":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product products.ProductDTO
	decodeData(t, rec, &product)

	orderBody := `{"customer":{"name":"Asha"},"items":[{"product_id":"` + product.ID.String() + `","qty":2}],"channel":"instagram","shipping":"10","tax":"5"}`
	rec = call(t, router, http.MethodPost, "/api/v1/orders", staff, orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created orders.CreateOrderResult
	decodeData(t, rec, &created)
	require.NotEmpty(t, created.PublicID)

	rec = call(t, router, http.MethodGet, "/api/v1/orders/"+created.OrderID.String(), staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var order orders.OrderDTO
	decodeData(t, rec, &order)
	assert.True(t, order.Totals.GrandTotal.Equal(decimal.NewFromInt(215)), order.Totals.GrandTotal.String())
	assert.Equal(t, enums.OrderStatusReceived, order.Status)

	rec = call(t, router, http.MethodGet, "/api/public/orders/"+created.PublicID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"by"`)

	rec = call(t, router, http.MethodPost, "/api/v1/orders/"+created.OrderID.String()+"/status", staff, `{"status":"Packed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/v1/orders/"+created.OrderID.String()+"/cancel", staff, `{"note":"customer asked"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodGet, "/api/v1/products/"+product.ID.String(), staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &product)
	assert.Equal(t, 10, product.Stock)

	rec = call(t, router, http.MethodGet, "/api/v1/orders/"+created.OrderID.String()+"/ledger", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ledgerBody struct {
		Entries []ledger.EntryDTO `json:"entries"`
	}
	decodeData(t, rec, &ledgerBody)
	assert.Len(t, ledgerBody.Entries, 2)

	rec = call(t, router, http.MethodGet, "/api/v1/inventory/reconcile", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"consistent":true`)
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	staff := buildToken(t, cfg, enums.StaffRoleStaff)

	rec := call(t, router, http.MethodPost, "/api/v1/products", staff, `{"name":"Choker","sku":"MJ-0B2","price":"50","stock":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var product products.ProductDTO
	decodeData(t, rec, &product)

	orderBody := `{"customer":{"name":"Ravi"},"items":[{"product_id":"` + product.ID.String() + `","qty":5}],"channel":"website"}`
	rec = call(t, router, http.MethodPost, "/api/v1/orders", staff, orderBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")

	rec = call(t, router, http.MethodGet, "/api/v1/products/low-stock", staff, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MJ-0B2")
}

func TestArchiveRequiresAdmin(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	staff := buildToken(t, cfg, enums.StaffRoleStaff)

	rec := call(t, router, http.MethodPost, "/api/v1/products", staff, `{"name":"Ring","sku":"MJ-0C3","price":"20","stock":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var product products.ProductDTO
	decodeData(t, rec, &product)

	rec = call(t, router, http.MethodDelete, "/api/v1/products/"+product.ID.String(), staff, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, router, http.MethodDelete, "/api/v1/products/"+product.ID.String(), buildToken(t, cfg, enums.StaffRoleAdmin), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPublicLookupUnknownID(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := call(t, router, http.MethodGet, "/api/public/orders/doesnotexist", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
