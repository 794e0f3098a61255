// Package shipping defines the carrier-rate contract consumed by checkout.
package shipping

import (
	"context"

	"github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// QuoteOption is an ephemeral shipping service option offered to the
// customer. It is produced fresh per request and never persisted.
type QuoteOption struct {
	ServiceName string          `json:"service_name"`
	ServiceCode string          `json:"service_code"`
	Cost        decimal.Decimal `json:"cost"`
	Carrier     string          `json:"carrier"`
	TransitDays int             `json:"transit_days"`
}

// Parcel is one weighted cart line for rating purposes
type Parcel struct {
	SKU        string
	Quantity   int64
	Weight     decimal.Decimal
	WeightUnit catalog.WeightUnit
}

// RateResolver quotes shipping service options for a destination.
// Implementations never return an error to the caller: total provider
// failure degrades to synthetic fallback rates.
type RateResolver interface {
	Quote(ctx context.Context, destination valueobject.Address, items []Parcel) []QuoteOption
}

// FindOption returns the option matching the given service code, or nil
func FindOption(options []QuoteOption, serviceCode string) *QuoteOption {
	for i := range options {
		if options[i].ServiceCode == serviceCode {
			return &options[i]
		}
	}
	return nil
}

// TotalOunces sums parcel weights in ounces, converting from the unit each
// parcel is expressed in. Unknown units and non-positive totals yield zero;
// the resolver substitutes its default weight in that case.
func TotalOunces(items []Parcel) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		total = total.Add(toOunces(item.Weight, item.WeightUnit).Mul(decimal.NewFromInt(qty)))
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

var (
	ouncesPerPound = decimal.NewFromInt(16)
	gramsPerOunce  = decimal.NewFromFloat(28.3495)
)

func toOunces(w decimal.Decimal, unit catalog.WeightUnit) decimal.Decimal {
	if w.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	switch unit {
	case catalog.WeightUnitPound:
		return w.Mul(ouncesPerPound)
	case catalog.WeightUnitOunce:
		return w
	case catalog.WeightUnitGram:
		return w.Div(gramsPerOunce)
	}
	return decimal.Zero
}
