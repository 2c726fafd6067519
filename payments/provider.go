// Package payments talks to the hosted card processor. The server only ever
// handles amounts and references; card data goes from the browser straight
// to the processor.
package payments

import (
	"context"
	"errors"
)

// StatusSucceeded is the only intent status that allows an order to be created.
const StatusSucceeded = "succeeded"

// MaxMetadataValue is the processor's limit on a single metadata value.
const MaxMetadataValue = 500

// ErrNotConfigured is returned when no processor key was supplied.
var ErrNotConfigured = errors.New("payment provider is not configured")

// Intent is the processor's view of an in-progress or finished charge.
type Intent struct {
	ID             string
	ClientSecret   string
	Status         string
	Currency       string
	Amount         int64
	// AmountRefunded is what has already gone back to the card.
	AmountRefunded int64
	ReceiptURL     string
}

// Refund is the result of a refund request.
type Refund struct {
	ID     string
	Status string
	Amount int64
}

// Provider is the subset of the processor API the shop needs.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, receiptEmail string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// Refund returns amount (minor units) of the payment; zero refunds everything.
	Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error)
}
