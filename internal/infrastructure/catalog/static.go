// Package catalog provides the config-backed catalog price lookup. The
// storefront's browsing catalog lives in a separate system; this static
// table is the authoritative price source checkout runs against.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domaincatalog "github.com/partsdesk/backend/internal/domain/catalog"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/infrastructure/config"
)

// StaticPriceLookup serves product prices from an in-memory table keyed by
// SKU, case-insensitively
type StaticPriceLookup struct {
	products map[string]domaincatalog.Product
}

// NewStaticPriceLookup builds a lookup from configured catalog entries.
// Entries with a missing SKU or an unparseable price are rejected.
func NewStaticPriceLookup(cfg config.CatalogConfig) (*StaticPriceLookup, error) {
	products := make(map[string]domaincatalog.Product, len(cfg.Products))
	for _, p := range cfg.Products {
		sku := strings.TrimSpace(p.SKU)
		if sku == "" {
			return nil, fmt.Errorf("catalog: entry %q has no SKU", p.Name)
		}

		price, err := decimal.NewFromString(p.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("catalog: invalid unit price %q for SKU %s", p.UnitPrice, sku)
		}

		weight := decimal.Zero
		if p.Weight != "" {
			weight, err = decimal.NewFromString(p.Weight)
			if err != nil {
				return nil, fmt.Errorf("catalog: invalid weight %q for SKU %s", p.Weight, sku)
			}
		}

		unit := domaincatalog.WeightUnit(p.WeightUnit)
		if unit == "" {
			unit = domaincatalog.WeightUnitOunce
		}

		products[strings.ToUpper(sku)] = domaincatalog.Product{
			SKU:        sku,
			Name:       p.Name,
			UnitPrice:  price,
			Weight:     weight,
			WeightUnit: unit,
		}
	}
	return &StaticPriceLookup{products: products}, nil
}

// Product resolves a SKU, returning shared.ErrUnknownSKU for misses
func (l *StaticPriceLookup) Product(_ context.Context, sku string) (*domaincatalog.Product, error) {
	p, ok := l.products[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return nil, shared.ErrUnknownSKU
	}
	return &p, nil
}

// Size returns the number of catalog entries
func (l *StaticPriceLookup) Size() int {
	return len(l.products)
}
