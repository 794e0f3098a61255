package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/application/checkout"
	orderapp "github.com/partsdesk/backend/internal/application/order"
	"github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/shipping"
	"github.com/partsdesk/backend/internal/infrastructure/payment"
)

// CheckoutHandler handles shipping rate quotes and payment authorization
type CheckoutHandler struct {
	BaseHandler
	pricing  *checkout.PricingService
	catalog  catalog.PriceLookup
	rates    shipping.RateResolver
	payments payment.Authorizer
	currency string
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler. Payments may be nil
// when card checkout is disabled.
func NewCheckoutHandler(pricing *checkout.PricingService, lookup catalog.PriceLookup, rates shipping.RateResolver, payments payment.Authorizer, defaultCurrency string, log *zap.Logger) *CheckoutHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutHandler{
		pricing:  pricing,
		catalog:  lookup,
		rates:    rates,
		payments: payments,
		currency: defaultCurrency,
		logger:   log,
	}
}

// RatesRequest carries a destination and cart lines to rate
type RatesRequest struct {
	Items           []checkout.CartItem   `json:"items" binding:"required,min=1,dive"`
	ShippingAddress orderapp.AddressInput `json:"shipping_address" binding:"required"`
}

// Rates quotes shipping service options for a cart and destination. The
// options are ephemeral: nothing about them is persisted, and a degraded
// carrier API yields synthetic fallback rates rather than an error.
func (h *CheckoutHandler) Rates(c *gin.Context) {
	var req RatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	parcels := make([]shipping.Parcel, 0, len(req.Items))
	for _, item := range req.Items {
		product, err := h.catalog.Product(c.Request.Context(), item.SKU)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		parcels = append(parcels, shipping.Parcel{
			SKU:        product.SKU,
			Quantity:   quantity,
			Weight:     product.Weight,
			WeightUnit: product.WeightUnit,
		})
	}

	options := h.rates.Quote(c.Request.Context(), req.ShippingAddress.ToAddress(), parcels)
	h.Success(c, gin.H{"options": options})
}

// AuthorizeRequest carries either a cart to price or, for invoice-style
// flows with no cart, a direct amount
type AuthorizeRequest struct {
	Items               []checkout.CartItem   `json:"items" binding:"omitempty,dive"`
	ShippingAddress     orderapp.AddressInput `json:"shipping_address"`
	ShippingServiceCode string                `json:"shipping_service_code" binding:"max=50"`
	AmountCents         int64                 `json:"amount_cents"`
}

// AuthorizeResponse is the created authorization handed back to the client
type AuthorizeResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Status          string `json:"status"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// Authorize reserves funds for a checkout. When cart items are present the
// charge amount is recomputed server-side and any client-sent amount is
// ignored; a cartless request may charge a direct amount up to the
// configured ceiling.
func (h *CheckoutHandler) Authorize(c *gin.Context) {
	if h.payments == nil {
		h.Error(c, http.StatusServiceUnavailable, "PAYMENTS_UNAVAILABLE", "Card payments are not configured")
		return
	}

	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var (
		amount int64
		err    error
	)
	if len(req.Items) > 0 {
		amount, err = h.pricing.ComputeAuthoritativeAmount(c.Request.Context(), req.Items, req.ShippingAddress.ToAddress(), req.ShippingServiceCode)
	} else {
		amount, err = h.pricing.ManualChargeAmount(req.AmountCents)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	authorization, err := h.payments.Authorize(c.Request.Context(), amount, h.currency, map[string]string{
		"source": "storefront-checkout",
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AuthorizeResponse{
		PaymentIntentID: authorization.IntentID,
		ClientSecret:    authorization.ClientSecret,
		Status:          authorization.Status,
		AmountCents:     amount,
		Currency:        h.currency,
	})
}
