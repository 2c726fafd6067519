package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type stripeProvider struct {
	api      *client.API
	currency string
}

// NewStripeProvider returns a Provider backed by the Stripe API.
func NewStripeProvider(secretKey, currency string) (Provider, error) {
	if secretKey == "" {
		return nil, ErrNotConfigured
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeProvider{api: api, currency: currency}, nil
}

func (p *stripeProvider) CreateIntent(ctx context.Context, amount int64, receiptEmail string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if receiptEmail != "" {
		params.ReceiptEmail = stripe.String(receiptEmail)
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, Truncate(v, MaxMetadataValue))
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *stripeProvider) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get payment intent %s: %w", id, err)
	}
	return toIntent(pi), nil
}

func (p *stripeProvider) Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(paymentID)}
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}
	params.Context = ctx
	// one full refund per payment, whoever asks for it
	params.SetIdempotencyKey("refund:" + paymentID)

	r, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe refund %s: %w", paymentID, err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	in := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Currency:     string(pi.Currency),
		Amount:       pi.Amount,
	}
	if pi.LatestCharge != nil {
		in.ReceiptURL = pi.LatestCharge.ReceiptURL
		in.AmountRefunded = pi.LatestCharge.AmountRefunded
		if pi.LatestCharge.Refunded && in.AmountRefunded == 0 {
			in.AmountRefunded = pi.Amount
		}
	}
	return in
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
