// Package checkout computes the authoritative charge amount for a cart.
// Client-supplied amounts are never trusted when cart data is present.
package checkout

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/partsdesk/backend/internal/domain/shipping"
)

// CartItem is one requested cart line. Only the SKU and quantity are
// trusted from the client; prices come from the catalog.
type CartItem struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity"`
}

// PricedItem is a cart line with its catalog-resolved price snapshot
type PricedItem struct {
	SKU       string
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// PricedCart is the result of an authoritative pricing pass
type PricedCart struct {
	Items        []PricedItem
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// TotalMinorUnits returns the total in minor currency units, rounded to
// the nearest cent
func (c *PricedCart) TotalMinorUnits() int64 {
	return c.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PricingService prices carts server-side
type PricingService struct {
	catalog              catalog.PriceLookup
	rates                shipping.RateResolver
	maxManualChargeCents int64
	logger               *zap.Logger
}

// NewPricingService creates a new PricingService
func NewPricingService(lookup catalog.PriceLookup, rates shipping.RateResolver, maxManualChargeCents int64, logger *zap.Logger) *PricingService {
	return &PricingService{
		catalog:              lookup,
		rates:                rates,
		maxManualChargeCents: maxManualChargeCents,
		logger:               logger,
	}
}

// Price resolves every SKU against the catalog and adds the selected
// shipping option's cost. An incomplete destination or an unmatched service
// code contributes zero shipping; a missing SKU fails the whole cart.
func (s *PricingService) Price(ctx context.Context, items []CartItem, destination valueobject.Address, serviceCode string) (*PricedCart, error) {
	if len(items) == 0 {
		return nil, shared.ErrEmptyCart
	}

	cart := &PricedCart{
		Items:        make([]PricedItem, 0, len(items)),
		Subtotal:     decimal.Zero,
		ShippingCost: decimal.Zero,
	}
	parcels := make([]shipping.Parcel, 0, len(items))

	for _, item := range items {
		product, err := s.catalog.Product(ctx, item.SKU)
		if err != nil {
			return nil, shared.NewDomainError("UNKNOWN_SKU", "Unknown SKU: "+item.SKU)
		}

		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}

		cart.Items = append(cart.Items, PricedItem{
			SKU:       product.SKU,
			Name:      product.Name,
			Quantity:  qty,
			UnitPrice: product.UnitPrice,
		})
		cart.Subtotal = cart.Subtotal.Add(product.UnitPrice.Mul(decimal.NewFromInt(qty)))
		parcels = append(parcels, shipping.Parcel{
			SKU:        product.SKU,
			Quantity:   qty,
			Weight:     product.Weight,
			WeightUnit: product.WeightUnit,
		})
	}

	if serviceCode != "" && destination.IsComplete() {
		options := s.rates.Quote(ctx, destination, parcels)
		if option := shipping.FindOption(options, serviceCode); option != nil {
			cart.ShippingCost = option.Cost
		} else {
			s.logger.Warn("selected shipping service not quoted, charging no shipping",
				zap.String("service_code", serviceCode))
		}
	}

	cart.Total = cart.Subtotal.Add(cart.ShippingCost).Round(2)
	return cart, nil
}

// ComputeAuthoritativeAmount prices the cart and returns the charge amount
// in minor units
func (s *PricingService) ComputeAuthoritativeAmount(ctx context.Context, items []CartItem, destination valueobject.Address, serviceCode string) (int64, error) {
	cart, err := s.Price(ctx, items, destination, serviceCode)
	if err != nil {
		return 0, err
	}
	return cart.TotalMinorUnits(), nil
}

// ManualChargeAmount vets a client-supplied amount on the degenerate
// no-cart path. With no catalog data to price against, the only guardrail
// is the configured ceiling.
func (s *PricingService) ManualChargeAmount(amountMinorUnits int64) (int64, error) {
	if amountMinorUnits <= 0 {
		return 0, shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if amountMinorUnits > s.maxManualChargeCents {
		return 0, shared.ErrAmountLimitExceeded
	}
	return amountMinorUnits, nil
}
