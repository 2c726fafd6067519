package utils

import (
	"testing"

	"teashop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingSender struct {
	to, subject, html, text string
}

func (r *recordingSender) Send(to, subject, htmlBody, textBody string) error {
	r.to, r.subject, r.html, r.text = to, subject, htmlBody, textBody
	return nil
}

func TestEmailService_VerificationLink(t *testing.T) {
	rec := &recordingSender{}
	es := NewEmailService(rec, "https://shop.example/")

	require.NoError(t, es.SendVerificationEmail("a@b.com", "Ann", "tok123"))

	assert.Equal(t, "a@b.com", rec.to)
	assert.Contains(t, rec.html, "https://shop.example/verify?token=tok123")
	assert.NotContains(t, rec.text, "<p>")
}

func TestEmailService_RefundFailedMentionsManualRefund(t *testing.T) {
	rec := &recordingSender{}
	es := NewEmailService(rec, "http://localhost")
	order := &models.Order{ID: primitive.NewObjectID(), Total: 42.5, Buyer: models.Buyer{Name: "Bo <b>", Email: "bo@x.com"}}

	require.NoError(t, es.SendRefundFailed(order))

	assert.Equal(t, "bo@x.com", rec.to)
	assert.Contains(t, rec.text, "$42.50")
	assert.Contains(t, rec.text, "manually")
	assert.Contains(t, rec.html, "Bo &lt;b&gt;")
}

func TestNewEmailSender(t *testing.T) {
	_, err := NewEmailSender("postmark", "", "", "from@x.com", "Shop")
	assert.Error(t, err)

	_, err = NewEmailSender("fax", "t", "k", "from@x.com", "Shop")
	assert.Error(t, err)

	s, err := NewEmailSender("sendgrid", "", "key", "from@x.com", "Shop")
	require.NoError(t, err)
	assert.IsType(t, &sendgridSender{}, s)
}
