package payments

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestNewStripeProvider_RequiresKey(t *testing.T) {
	_, err := NewStripeProvider("", "aud")
	assert.ErrorIs(t, err, ErrNotConfigured)

	p, err := NewStripeProvider("sk_test_123", "aud")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abcdef", 2))

	s := "茶茶茶" // 9 bytes
	out := Truncate(s, 4)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "茶", out)
}

func TestToIntent(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Status:       stripe.PaymentIntentStatusSucceeded,
		Currency:     stripe.CurrencyAUD,
		Amount:       7000,
		LatestCharge: &stripe.Charge{ReceiptURL: "https://pay.example/r/1"},
	}

	in := toIntent(pi)
	assert.Equal(t, StatusSucceeded, in.Status)
	assert.Equal(t, int64(7000), in.Amount)
	assert.Equal(t, "aud", in.Currency)
	assert.Equal(t, "https://pay.example/r/1", in.ReceiptURL)
	assert.Zero(t, in.AmountRefunded)
}

func TestToIntent_Refunded(t *testing.T) {
	partial := toIntent(&stripe.PaymentIntent{
		ID:           "pi_2",
		Status:       stripe.PaymentIntentStatusSucceeded,
		Amount:       7000,
		LatestCharge: &stripe.Charge{AmountRefunded: 2500},
	})
	assert.Equal(t, StatusSucceeded, partial.Status)
	assert.Equal(t, int64(2500), partial.AmountRefunded)

	full := toIntent(&stripe.PaymentIntent{
		ID:           "pi_3",
		Status:       stripe.PaymentIntentStatusSucceeded,
		Amount:       7000,
		LatestCharge: &stripe.Charge{Refunded: true},
	})
	assert.Equal(t, int64(7000), full.AmountRefunded)
}
