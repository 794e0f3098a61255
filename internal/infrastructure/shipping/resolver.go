// Package shipping quotes carrier rates through the Shippo API and reduces
// them to the storefront's fixed service tiers. Provider failure degrades
// to synthetic formula rates; this component never fails the caller.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	domainshipping "github.com/partsdesk/backend/internal/domain/shipping"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 4 * 1024 * 1024

// Service tier codes and names the storefront exposes
const (
	groundCode            = "ground"
	groundName            = "Standard Ground"
	fallback2DayCode      = "2day_fallback"
	fallbackOvernightCode = "overnight_fallback"
	intlEconomyCode       = "intl_economy_fallback"
	intlPriorityCode      = "intl_priority_fallback"
	intlEconomyName       = "International Economy"
	intlPriorityName      = "International Priority"
	estimatedCarrier      = "estimated"
	groundTransitDays     = 5
)

var (
	twoDayPattern    = regexp.MustCompile(`(?i)(2nd.day|2.?day|two.day)`)
	overnightPattern = regexp.MustCompile(`(?i)(overnight|next.day)`)
)

// Resolver implements domainshipping.RateResolver over the Shippo rates API
type Resolver struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewResolver creates a new Shippo-backed rate resolver
func NewResolver(config *Config, logger *zap.Logger) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: logger,
	}, nil
}

// Quote returns the service options for a destination. It never returns an
// error: provider failures are logged and replaced by fallback rates.
func (r *Resolver) Quote(ctx context.Context, destination valueobject.Address, items []domainshipping.Parcel) []domainshipping.QuoteOption {
	weightOz := domainshipping.TotalOunces(items)
	if weightOz.LessThanOrEqual(decimal.Zero) {
		weightOz = r.config.DefaultWeightOz
	}

	rates, err := r.fetchRates(ctx, destination, weightOz)
	if err != nil {
		r.logger.Warn("rate provider unavailable, using fallback rates",
			zap.String("country", destination.Country),
			zap.String("weight_oz", weightOz.String()),
			zap.Error(err))
		return r.fallbackOptions(destination, weightOz)
	}

	if destination.IsDomestic() {
		return r.reduceDomestic(rates)
	}
	return r.reduceInternational(rates)
}

// reduceDomestic selects the storefront's three domestic tiers: free
// ground always, plus the cheapest 2-day and cheapest overnight candidates
// from the provider when present. Ties break strictly on lowest cost, not
// provider order.
func (r *Resolver) reduceDomestic(rates []shippoRate) []domainshipping.QuoteOption {
	options := []domainshipping.QuoteOption{{
		ServiceName: groundName,
		ServiceCode: groundCode,
		Cost:        decimal.Zero,
		Carrier:     "standard",
		TransitDays: groundTransitDays,
	}}

	if opt := cheapestMatching(rates, twoDayPattern, 2); opt != nil {
		options = append(options, *opt)
	}
	if opt := cheapestMatching(rates, overnightPattern, 1); opt != nil {
		options = append(options, *opt)
	}
	return options
}

// reduceInternational relabels the cheapest provider rate as economy and
// the most expensive as priority. When both resolve to the same underlying
// service a distinct priority code is synthesized so the two tiers remain
// separately selectable.
func (r *Resolver) reduceInternational(rates []shippoRate) []domainshipping.QuoteOption {
	parsed := parseRates(rates)
	if len(parsed) == 0 {
		return nil
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Cost.LessThan(parsed[j].Cost)
	})

	economy := parsed[0]
	economy.ServiceName = intlEconomyName

	priority := parsed[len(parsed)-1]
	priority.ServiceName = intlPriorityName
	if priority.ServiceCode == economy.ServiceCode {
		priority.ServiceCode = priority.ServiceCode + "-priority"
	}

	return []domainshipping.QuoteOption{economy, priority}
}

// fallbackOptions synthesizes rates from the configured linear-in-weight
// policy when the provider cannot be reached
func (r *Resolver) fallbackOptions(destination valueobject.Address, weightOz decimal.Decimal) []domainshipping.QuoteOption {
	weightLb := weightOz.Div(decimal.NewFromInt(16))
	p := r.config.Fallback

	if destination.IsDomestic() {
		return []domainshipping.QuoteOption{
			{
				ServiceName: groundName,
				ServiceCode: groundCode,
				Cost:        decimal.Zero,
				Carrier:     "standard",
				TransitDays: groundTransitDays,
			},
			{
				ServiceName: "2-Day (estimated)",
				ServiceCode: fallback2DayCode,
				Cost:        p.Domestic2DayBase.Add(p.Domestic2DayPerLb.Mul(weightLb)).Round(2),
				Carrier:     estimatedCarrier,
				TransitDays: 2,
			},
			{
				ServiceName: "Overnight (estimated)",
				ServiceCode: fallbackOvernightCode,
				Cost:        p.DomesticOvernightBase.Add(p.DomesticOvernightPerLb.Mul(weightLb)).Round(2),
				Carrier:     estimatedCarrier,
				TransitDays: 1,
			},
		}
	}

	return []domainshipping.QuoteOption{
		{
			ServiceName: intlEconomyName + " (estimated)",
			ServiceCode: intlEconomyCode,
			Cost:        p.IntlEconomyBase.Add(p.IntlEconomyPerLb.Mul(weightLb)).Round(2),
			Carrier:     estimatedCarrier,
			TransitDays: 10,
		},
		{
			ServiceName: intlPriorityName + " (estimated)",
			ServiceCode: intlPriorityCode,
			Cost:        p.IntlPriorityBase.Add(p.IntlPriorityPerLb.Mul(weightLb)).Round(2),
			Carrier:     estimatedCarrier,
			TransitDays: 4,
		},
	}
}

// fetchRates performs the shipment-rating request against the provider
func (r *Resolver) fetchRates(ctx context.Context, destination valueobject.Address, weightOz decimal.Decimal) ([]shippoRate, error) {
	reqBody := shipmentRequest{
		AddressFrom: shippoAddress{
			Name:    r.config.Origin.Name,
			Street1: r.config.Origin.Street1,
			City:    r.config.Origin.City,
			State:   r.config.Origin.State,
			Zip:     r.config.Origin.Zip,
			Country: r.config.Origin.Country,
			Phone:   r.config.Origin.Phone,
			Email:   r.config.Origin.Email,
		},
		AddressTo: shippoAddress{
			Name:    destination.Name,
			Street1: destination.Street1,
			Street2: destination.Street2,
			City:    destination.City,
			State:   destination.State,
			Zip:     destination.PostalCode,
			Country: destination.Country,
			Phone:   destination.Phone,
			Email:   destination.Email,
		},
		Parcels: []shippoParcel{{
			Length:       r.config.Parcel.Length,
			Width:        r.config.Parcel.Width,
			Height:       r.config.Parcel.Height,
			DistanceUnit: r.config.Parcel.DistanceUnit,
			Weight:       weightOz.Round(2).String(),
			MassUnit:     "oz",
		}},
		Async: false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("shippo: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.BaseURL+"/shipments/", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("shippo: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "ShippoToken "+r.config.APIToken)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shippo: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shippo: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("shippo: HTTP %d", resp.StatusCode)
	}

	var shipment shipmentResponse
	if err := json.Unmarshal(body, &shipment); err != nil {
		return nil, fmt.Errorf("shippo: failed to parse response: %w", err)
	}
	if len(shipment.Rates) == 0 {
		return nil, fmt.Errorf("shippo: shipment %s returned no rates", shipment.ObjectID)
	}
	return shipment.Rates, nil
}

// cheapestMatching returns the lowest-cost rate whose service name matches
// the pattern, or nil when no candidate exists
func cheapestMatching(rates []shippoRate, pattern *regexp.Regexp, defaultTransitDays int) *domainshipping.QuoteOption {
	var best *domainshipping.QuoteOption
	for _, rate := range rates {
		if !pattern.MatchString(rate.ServiceLevel.Name) {
			continue
		}
		cost, err := decimal.NewFromString(rate.Amount)
		if err != nil {
			continue
		}
		if best != nil && !cost.LessThan(best.Cost) {
			continue
		}
		days := rate.EstimatedDays
		if days == 0 {
			days = defaultTransitDays
		}
		best = &domainshipping.QuoteOption{
			ServiceName: rate.ServiceLevel.Name,
			ServiceCode: rate.ServiceLevel.Token,
			Cost:        cost,
			Carrier:     rate.Provider,
			TransitDays: days,
		}
	}
	return best
}

// parseRates converts provider rates, dropping ones with unparseable costs
func parseRates(rates []shippoRate) []domainshipping.QuoteOption {
	parsed := make([]domainshipping.QuoteOption, 0, len(rates))
	for _, rate := range rates {
		cost, err := decimal.NewFromString(rate.Amount)
		if err != nil {
			continue
		}
		parsed = append(parsed, domainshipping.QuoteOption{
			ServiceName: rate.ServiceLevel.Name,
			ServiceCode: rate.ServiceLevel.Token,
			Cost:        cost,
			Carrier:     rate.Provider,
			TransitDays: rate.EstimatedDays,
		})
	}
	return parsed
}

// Ensure Resolver implements the domain contract
var _ domainshipping.RateResolver = (*Resolver)(nil)
