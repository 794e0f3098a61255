package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/partsdesk/backend/internal/domain/shipping"
	shippo "github.com/partsdesk/backend/internal/infrastructure/shipping"
)

// mapPriceLookup serves products from a fixed map
type mapPriceLookup map[string]catalog.Product

func (m mapPriceLookup) Product(_ context.Context, sku string) (*catalog.Product, error) {
	p, ok := m[sku]
	if !ok {
		return nil, shared.ErrUnknownSKU
	}
	return &p, nil
}

// stubRateResolver returns a canned option list and records the parcels it saw
type stubRateResolver struct {
	options []shipping.QuoteOption
	parcels []shipping.Parcel
	called  bool
}

func (s *stubRateResolver) Quote(_ context.Context, _ valueobject.Address, items []shipping.Parcel) []shipping.QuoteOption {
	s.called = true
	s.parcels = items
	return s.options
}

func completeAddress() valueobject.Address {
	return valueobject.Address{
		Email:      "buyer@example.com",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78701",
		Country:    "US",
	}
}

func testCatalog() mapPriceLookup {
	return mapPriceLookup{
		"BRG-6204": {SKU: "BRG-6204", Name: "Deep groove bearing", UnitPrice: decimal.RequireFromString("24.95"), Weight: decimal.NewFromInt(8), WeightUnit: catalog.WeightUnitOunce},
		"HXB-M8":   {SKU: "HXB-M8", Name: "Hex bolt M8", UnitPrice: decimal.RequireFromString("0.42")},
	}
}

func newService(rates *stubRateResolver) *PricingService {
	return NewPricingService(testCatalog(), rates, 5_000_000, zap.NewNop())
}

func TestPricingService_EmptyCart(t *testing.T) {
	svc := newService(&stubRateResolver{})

	_, err := svc.Price(context.Background(), nil, completeAddress(), "")
	assert.ErrorIs(t, err, shared.ErrEmptyCart)
}

func TestPricingService_UnknownSKU(t *testing.T) {
	svc := newService(&stubRateResolver{})

	_, err := svc.Price(context.Background(), []CartItem{{SKU: "NOPE-9", Quantity: 1}}, completeAddress(), "")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNKNOWN_SKU", domainErr.Code)
	assert.Contains(t, domainErr.Message, "NOPE-9")
}

func TestPricingService_SubtotalClampsQuantity(t *testing.T) {
	svc := newService(&stubRateResolver{})

	cart, err := svc.Price(context.Background(), []CartItem{
		{SKU: "BRG-6204", Quantity: 2},
		{SKU: "HXB-M8", Quantity: 0}, // clamped to 1
	}, valueobject.Address{Email: "b@example.com"}, "")
	require.NoError(t, err)

	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("50.32")), cart.Subtotal.String())
	assert.True(t, cart.ShippingCost.IsZero())
	assert.Equal(t, int64(5032), cart.TotalMinorUnits())
	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(1), cart.Items[1].Quantity)
	assert.Equal(t, "Hex bolt M8", cart.Items[1].Name)
}

func TestPricingService_AddsSelectedShippingCost(t *testing.T) {
	rates := &stubRateResolver{options: []shipping.QuoteOption{
		{ServiceName: "Standard Ground", ServiceCode: "ground", Cost: decimal.Zero},
		{ServiceName: "2nd Day Air", ServiceCode: "ups_2nd_day_air", Cost: decimal.RequireFromString("18.40")},
	}}
	svc := newService(rates)

	cart, err := svc.Price(context.Background(), []CartItem{{SKU: "BRG-6204", Quantity: 1}}, completeAddress(), "ups_2nd_day_air")
	require.NoError(t, err)

	assert.True(t, cart.ShippingCost.Equal(decimal.RequireFromString("18.40")))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("43.35")))
	require.Len(t, rates.parcels, 1)
	assert.Equal(t, "BRG-6204", rates.parcels[0].SKU)
}

func TestPricingService_UnmatchedServiceCodeChargesNoShipping(t *testing.T) {
	rates := &stubRateResolver{options: []shipping.QuoteOption{
		{ServiceCode: "ground", Cost: decimal.Zero},
	}}
	svc := newService(rates)

	cart, err := svc.Price(context.Background(), []CartItem{{SKU: "HXB-M8", Quantity: 10}}, completeAddress(), "teleport")
	require.NoError(t, err)
	assert.True(t, cart.ShippingCost.IsZero())
	assert.Equal(t, int64(420), cart.TotalMinorUnits())
}

func TestPricingService_IncompleteAddressSkipsRating(t *testing.T) {
	rates := &stubRateResolver{}
	svc := newService(rates)

	_, err := svc.Price(context.Background(), []CartItem{{SKU: "HXB-M8", Quantity: 1}},
		valueobject.Address{Email: "b@example.com", Country: "US"}, "ground")
	require.NoError(t, err)
	assert.False(t, rates.called)
}

func TestPricingService_ComputeAuthoritativeAmountRounds(t *testing.T) {
	lookup := mapPriceLookup{
		"ODD-1": {SKU: "ODD-1", Name: "Odd priced part", UnitPrice: decimal.RequireFromString("0.335")},
	}
	svc := NewPricingService(lookup, &stubRateResolver{}, 5_000_000, zap.NewNop())

	amount, err := svc.ComputeAuthoritativeAmount(context.Background(), []CartItem{{SKU: "ODD-1", Quantity: 3}}, valueobject.Address{}, "")
	require.NoError(t, err)
	// 1.005 rounds to 1.01
	assert.Equal(t, int64(101), amount)
}

// The full path from cart to charge amount: a real rate resolver whose
// provider is down falls back to the rate card, and the selected fallback
// service feeds into the authoritative amount.
func TestPricingService_FallbackRateEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := shippo.DefaultConfig()
	cfg.APIToken = "shippo_test_token"
	cfg.BaseURL = srv.URL
	cfg.Origin = shippo.OriginAddress{Zip: "89501", Country: "US"}

	resolver, err := shippo.NewResolver(cfg, zap.NewNop())
	require.NoError(t, err)

	lookup := mapPriceLookup{
		"PSU-1000": {SKU: "PSU-1000", Name: "1000W Power Supply", UnitPrice: decimal.RequireFromString("100.00"), Weight: decimal.NewFromInt(16), WeightUnit: catalog.WeightUnitOunce},
	}
	svc := NewPricingService(lookup, resolver, 5_000_000, zap.NewNop())
	items := []CartItem{{SKU: "PSU-1000", Quantity: 2}}

	// Two 1 lb units: fallback 2-day cost is 25.00 base plus 1.50 per lb
	cart, err := svc.Price(context.Background(), items, completeAddress(), "2day_fallback")
	require.NoError(t, err)
	assert.True(t, cart.ShippingCost.Equal(decimal.RequireFromString("28.00")), cart.ShippingCost.String())
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("228.00")), cart.Total.String())

	amount, err := svc.ComputeAuthoritativeAmount(context.Background(), items, completeAddress(), "2day_fallback")
	require.NoError(t, err)
	assert.Equal(t, int64(22800), amount)
}

func TestPricingService_ManualChargeAmount(t *testing.T) {
	svc := newService(&stubRateResolver{})

	amount, err := svc.ManualChargeAmount(125_00)
	require.NoError(t, err)
	assert.Equal(t, int64(12500), amount)

	_, err = svc.ManualChargeAmount(0)
	assert.Error(t, err)

	_, err = svc.ManualChargeAmount(5_000_001)
	assert.ErrorIs(t, err, shared.ErrAmountLimitExceeded)
}
