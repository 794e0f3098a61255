// Package payment issues manual-capture card authorizations through Stripe.
// Funds are reserved at checkout; capture is a separate operator action
// taken when the order ships.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"
)

// Authorization is the result of a successful manual-capture authorization
type Authorization struct {
	IntentID     string
	ClientSecret string
	Status       string
}

// Authorizer is the port the checkout flow uses to reserve funds
type Authorizer interface {
	Authorize(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Authorization, error)
}

// StripeAdapter implements Authorizer against the Stripe PaymentIntents API
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// Authorize creates a manual-capture payment intent for the authoritative
// amount. Provider failures surface as a single normalized payment error
// carrying the provider's message.
func (a *StripeAdapter) Authorize(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string) (*Authorization, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if !a.config.CurrencyAllowed(currency) {
		return nil, shared.ErrUnsupportedCurrency
	}
	if amountMinorUnits <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Authorization amount must be positive")
	}

	a.logger.Debug("Creating Stripe payment intent",
		zap.Int64("amount", amountMinorUnits),
		zap.String("currency", currency))

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amountMinorUnits),
		Currency:      stripe.String(currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe payment intent",
			zap.Int64("amount", amountMinorUnits),
			zap.Error(err))
		return nil, normalizeStripeError(err)
	}

	a.logger.Info("Created Stripe payment intent",
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", amountMinorUnits),
		zap.String("status", string(intent.Status)))

	return &Authorization{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// normalizeStripeError collapses provider failures into the single payment
// error the checkout flow propagates to the caller
func normalizeStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return shared.NewDomainError("PAYMENT_FAILED", fmt.Sprintf("Payment authorization failed: %s", stripeErr.Msg))
	}
	return shared.ErrPaymentFailed
}

// Ensure StripeAdapter implements the port
var _ Authorizer = (*StripeAdapter)(nil)
