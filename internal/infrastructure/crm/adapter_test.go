package crm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
)

func TestZohoConfig_Validate(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		err := (&ZohoConfig{}).Validate()
		assert.ErrorIs(t, err, ErrZohoConfigMissingToken)
	})

	t.Run("defaults filled", func(t *testing.T) {
		cfg := &ZohoConfig{AccessToken: "tok"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, ZohoDefaultAPIBaseURL, cfg.APIBaseURL)
		assert.Equal(t, "Sales_Orders", cfg.SalesOrderModule)
		assert.Equal(t, "Leads", cfg.LeadModule)
		assert.Equal(t, 15, cfg.TimeoutSeconds)
	})
}

func testOrder(t *testing.T) *order.Order {
	t.Helper()
	addr := valueobject.Address{
		Name:       "Dana Reeve",
		Company:    "Reeve Machining",
		Email:      "dana@reeve-machining.example",
		City:       "Toledo",
		State:      "OH",
		PostalCode: "43604",
		Country:    "US",
	}
	ord, err := order.New(order.PaymentMethodCard, "", decimal.NewFromFloat(249.50), valueobject.USD, addr, addr)
	require.NoError(t, err)
	_, err = ord.AddItem("BRG-6204", "Deep groove bearing 6204", 10, decimal.NewFromFloat(24.95))
	require.NoError(t, err)
	return ord
}

func TestZohoAdapter_SyncOrder_ExistingContact(t *testing.T) {
	var salesOrderBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Zoho-oauthtoken test-token", r.Header.Get("Authorization"))

		switch {
		case strings.HasPrefix(r.URL.Path, "/Contacts/search"):
			assert.Contains(t, r.URL.RawQuery, "equals")
			json.NewEncoder(w).Encode(zohoSearchResponse{
				Data: []zohoSearchRecord{{ID: "contact-77"}},
			})
		case r.URL.Path == "/Sales_Orders":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			salesOrderBody = body
			json.NewEncoder(w).Encode(zohoWriteResponse{
				Data: []zohoWriteResult{{Status: "success", Code: "SUCCESS", Details: zohoWriteDetails{ID: "so-1001"}}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter, err := NewZohoAdapter(&ZohoConfig{AccessToken: "test-token", APIBaseURL: server.URL})
	require.NoError(t, err)

	recordID, err := adapter.SyncOrder(context.Background(), testOrder(t))
	require.NoError(t, err)
	assert.Equal(t, "so-1001", recordID)

	var req zohoWriteRequest[zohoSalesOrder]
	require.NoError(t, json.Unmarshal(salesOrderBody, &req))
	require.Len(t, req.Data, 1)
	so := req.Data[0]
	assert.Equal(t, "contact-77", so.ContactName.ID)
	assert.InDelta(t, 249.50, so.GrandTotal, 0.001)
	require.Len(t, so.OrderedItems, 1)
	assert.Equal(t, "BRG-6204", so.OrderedItems[0].ProductCode)
	assert.Equal(t, int64(10), so.OrderedItems[0].Quantity)
}

func TestZohoAdapter_SyncOrder_CreatesMissingContact(t *testing.T) {
	var contactCreated bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/Contacts/search"):
			// Zoho signals no match with 204
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/Contacts" && r.Method == http.MethodPost:
			contactCreated = true
			var req zohoWriteRequest[zohoContact]
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Data, 1)
			assert.Equal(t, "dana@reeve-machining.example", req.Data[0].Email)
			assert.Equal(t, "Dana Reeve", req.Data[0].LastName)
			json.NewEncoder(w).Encode(zohoWriteResponse{
				Data: []zohoWriteResult{{Status: "success", Details: zohoWriteDetails{ID: "contact-new"}}},
			})
		case r.URL.Path == "/Sales_Orders":
			var req zohoWriteRequest[zohoSalesOrder]
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "contact-new", req.Data[0].ContactName.ID)
			json.NewEncoder(w).Encode(zohoWriteResponse{
				Data: []zohoWriteResult{{Status: "success", Details: zohoWriteDetails{ID: "so-2002"}}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	adapter, err := NewZohoAdapter(&ZohoConfig{AccessToken: "tok", APIBaseURL: server.URL})
	require.NoError(t, err)

	recordID, err := adapter.SyncOrder(context.Background(), testOrder(t))
	require.NoError(t, err)
	assert.True(t, contactCreated)
	assert.Equal(t, "so-2002", recordID)
}

func TestZohoAdapter_SyncOrder_ProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/Contacts/search") {
			json.NewEncoder(w).Encode(zohoSearchResponse{Data: []zohoSearchRecord{{ID: "c1"}}})
			return
		}
		json.NewEncoder(w).Encode(zohoWriteResponse{
			Data: []zohoWriteResult{{Status: "error", Code: "MANDATORY_NOT_FOUND", Message: "Subject is required"}},
		})
	}))
	defer server.Close()

	adapter, err := NewZohoAdapter(&ZohoConfig{AccessToken: "tok", APIBaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.SyncOrder(context.Background(), testOrder(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANDATORY_NOT_FOUND")
}

func TestZohoAdapter_SyncQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Leads", r.URL.Path)
		var req zohoWriteRequest[zohoLead]
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Data, 1)
		assert.Equal(t, "buyer@example.com", req.Data[0].Email)
		assert.Contains(t, req.Data[0].Description, "5x Hex bolt M8 (HXB-M8)")
		json.NewEncoder(w).Encode(zohoWriteResponse{
			Data: []zohoWriteResult{{Status: "success", Details: zohoWriteDetails{ID: "lead-31"}}},
		})
	}))
	defer server.Close()

	q, err := quote.New("Sam Ortiz", "buyer@example.com", "Ortiz Fab", "", "need pricing for a batch run")
	require.NoError(t, err)
	require.NoError(t, q.AddItem("HXB-M8", "Hex bolt M8", 5, decimal.NewFromFloat(0.42)))

	adapter, err := NewZohoAdapter(&ZohoConfig{AccessToken: "tok", APIBaseURL: server.URL})
	require.NoError(t, err)

	recordID, err := adapter.SyncQuote(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "lead-31", recordID)
}

func TestZohoAdapter_NetworkFailure(t *testing.T) {
	adapter, err := NewZohoAdapter(&ZohoConfig{AccessToken: "tok", APIBaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1})
	require.NoError(t, err)

	_, err = adapter.SyncOrder(context.Background(), testOrder(t))
	assert.Error(t, err)
}
