// Package catalog defines the port to the external catalog capability.
// Product search and indexing live outside this service; checkout only
// needs authoritative unit prices and weights per SKU.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// WeightUnit is the unit a product weight is expressed in
type WeightUnit string

const (
	WeightUnitPound WeightUnit = "lb"
	WeightUnitOunce WeightUnit = "oz"
	WeightUnitGram  WeightUnit = "g"
)

// Product is the pricing-relevant projection of a catalog entry
type Product struct {
	SKU        string
	Name       string
	UnitPrice  decimal.Decimal
	Weight     decimal.Decimal
	WeightUnit WeightUnit
}

// PriceLookup resolves SKUs against the catalog system of record.
// Implementations must return shared.ErrUnknownSKU-compatible errors for
// SKUs the catalog does not know.
type PriceLookup interface {
	Product(ctx context.Context, sku string) (*Product, error)
}
