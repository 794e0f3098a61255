package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/application/checkout"
	orderapp "github.com/partsdesk/backend/internal/application/order"
	"github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/partsdesk/backend/internal/domain/shipping"
	"github.com/partsdesk/backend/internal/infrastructure/auth"
	"github.com/partsdesk/backend/internal/interfaces/http/middleware"
)

// stubOrderRepo is an in-memory order.Repository for handler tests
type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*order.Order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) FindAll(_ context.Context, _ shared.Filter) ([]order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) FindBySalesperson(_ context.Context, salespersonID uuid.UUID, _ shared.Filter) ([]order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range r.orders {
		if o.SalespersonID != nil && *o.SalespersonID == salespersonID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) FindByShippingEmail(_ context.Context, email string, _ shared.Filter) ([]order.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range r.orders {
		if strings.EqualFold(o.ShippingAddress.Email, email) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) FindByReferenceAndEmail(_ context.Context, reference, email string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if strings.EqualFold(o.Reference(), reference) && strings.EqualFold(o.ShippingAddress.Email, email) {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) SetLedgerLink(_ context.Context, orderID uuid.UUID, target order.LedgerTarget, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return shared.ErrNotFound
	}
	if target == order.LedgerTargetCRM {
		return o.LinkCRMRecord(externalID)
	}
	return o.LinkAccountingInvoice(externalID)
}

type staticLookup map[string]catalog.Product

func (l staticLookup) Product(_ context.Context, sku string) (*catalog.Product, error) {
	p, ok := l[sku]
	if !ok {
		return nil, shared.ErrUnknownSKU
	}
	return &p, nil
}

type staticRates []shipping.QuoteOption

func (r staticRates) Quote(_ context.Context, _ valueobject.Address, _ []shipping.Parcel) []shipping.QuoteOption {
	return r
}

func testLookup() staticLookup {
	return staticLookup{
		"PSU-650": {SKU: "PSU-650", Name: "650W Power Supply", UnitPrice: decimal.RequireFromString("89.99"), Weight: decimal.RequireFromString("48"), WeightUnit: catalog.WeightUnitOunce},
	}
}

func newTestPricing() *checkout.PricingService {
	return checkout.NewPricingService(testLookup(), staticRates(nil), 5_000_000, zap.NewNop())
}

// identityInjector stands in for the auth middleware in handler tests
func identityInjector(identity *auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.IdentityKey, identity)
		}
		c.Next()
	}
}

func orderRouter(repo *stubOrderRepo, identity *auth.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := orderapp.NewService(repo, newTestPricing(), nil, nil, nil, zap.NewNop())
	h := NewOrderHandler(svc)

	r := gin.New()
	r.Use(identityInjector(identity))
	r.POST("/orders", h.Create)
	r.GET("/orders", h.List)
	r.GET("/orders/:id", h.Get)
	r.PATCH("/orders/:id", h.Update)
	r.POST("/orders/:id/sync/:target", h.Sync)
	r.GET("/track", h.Track)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func createOrderBody() map[string]any {
	return map[string]any{
		"items":          []map[string]any{{"sku": "PSU-650", "quantity": 2}},
		"payment_method": "PURCHASE_ORDER",
		"po_number":      "PO-1001",
		"shipping_address": map[string]any{
			"name":    "Dana Reyes",
			"email":   "dana@acme-hw.example",
			"street1": "400 Depot Rd",
			"city":    "Reno",
			"state":   "NV",
			"country": "US",
		},
	}
}

func TestOrderCreateEndpoint(t *testing.T) {
	repo := newStubOrderRepo()
	router := orderRouter(repo, nil)

	t.Run("captures and returns 201", func(t *testing.T) {
		w := postJSON(t, router, "/orders", createOrderBody())
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Reference string `json:"reference"`
				Status    string `json:"status"`
				Total     string `json:"total"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, strings.HasPrefix(resp.Data.Reference, "PD-"))
		assert.Equal(t, "PENDING_APPROVAL", resp.Data.Status)
		assert.Equal(t, "179.98", resp.Data.Total)
	})

	t.Run("missing items is 400", func(t *testing.T) {
		body := createOrderBody()
		delete(body, "items")
		w := postJSON(t, router, "/orders", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown sku is 400 with domain code", func(t *testing.T) {
		body := createOrderBody()
		body["items"] = []map[string]any{{"sku": "GPU-9090", "quantity": 1}}
		w := postJSON(t, router, "/orders", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UNKNOWN_SKU")
	})

	t.Run("missing po number is 400", func(t *testing.T) {
		body := createOrderBody()
		body["po_number"] = ""
		w := postJSON(t, router, "/orders", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_PO_NUMBER")
	})
}

func TestOrderGetEndpoint(t *testing.T) {
	repo := newStubOrderRepo()
	admin := &auth.Identity{UserID: uuid.New(), Email: "ops@partsdesk.example", Role: auth.RoleSuperAdmin}
	router := orderRouter(repo, admin)

	w := postJSON(t, orderRouter(repo, nil), "/orders", createOrderBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("admin fetches order", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+created.Data.ID, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.Data.ID)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("foreign buyer sees 404", func(t *testing.T) {
		buyer := &auth.Identity{UserID: uuid.New(), Email: "other@buyer.example", Role: auth.RoleBuyer}
		buyerRouter := orderRouter(repo, buyer)
		w := httptest.NewRecorder()
		buyerRouter.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/"+created.Data.ID, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderListEndpoint(t *testing.T) {
	repo := newStubOrderRepo()
	_ = postJSON(t, orderRouter(repo, nil), "/orders", createOrderBody())

	admin := &auth.Identity{UserID: uuid.New(), Email: "ops@partsdesk.example", Role: auth.RoleSuperAdmin}
	router := orderRouter(repo, admin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestOrderSyncEndpointValidation(t *testing.T) {
	repo := newStubOrderRepo()
	admin := &auth.Identity{UserID: uuid.New(), Email: "ops@partsdesk.example", Role: auth.RoleSuperAdmin}
	router := orderRouter(repo, admin)

	w := postJSON(t, router, "/orders/"+uuid.NewString()+"/sync/fax", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown sync target")
}

func TestTrackEndpoint(t *testing.T) {
	repo := newStubOrderRepo()
	router := orderRouter(repo, nil)

	w := postJSON(t, router, "/orders", createOrderBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			Reference string `json:"reference"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("matching lookup returns minimal projection", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/track?reference="+created.Data.Reference+"&email=dana@acme-hw.example", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), created.Data.Reference)
		// Amounts never leak through the public endpoint
		assert.NotContains(t, w.Body.String(), "179.98")
	})

	t.Run("wrong email is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
			"/track?reference="+created.Data.Reference+"&email=mallory@evil.example", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing params is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
