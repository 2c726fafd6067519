package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"teashop/events"
	"teashop/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func paidOrder(h *harness, paymentID string, total float64) *models.Order {
	o := &models.Order{
		Owner:         models.GuestOwner,
		Buyer:         buyer(),
		Delivery:      delivery("Australia"),
		Total:         total,
		PaymentID:     paymentID,
		PaymentMethod: models.PaymentMethodCard,
		Status:        models.OrderStatusPaid,
		PaidAt:        time.Now().UTC(),
	}
	h.orders.insert(o)
	return o
}

func TestUpdateStatus_CancelPaidRefundsOnce(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_123", 70)
	ctx := context.Background()

	updated, err := h.service.UpdateStatus(ctx, o.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)
	assert.Equal(t, []refundCall{{PaymentID: "pi_123", Amount: 7000}}, h.payments.refunds)
	require.NotNil(t, updated.Refund)
	assert.Equal(t, RefundSucceeded, updated.Refund.Status)
	assert.Equal(t, []string{"refund_succeeded"}, h.notifier.sent)

	stored, err := h.orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Refund)
	assert.Equal(t, "re_1", stored.Refund.ID)

	_, err = h.service.UpdateStatus(ctx, o.ID, models.OrderStatusCancelled)
	assert.Equal(t, 409, appError(t, err).Status)
	assert.Len(t, h.payments.refunds, 1)
}

func TestUpdateStatus_CancelRefundSurvivesDisconnect(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_gone", 25)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	updated, err := h.service.UpdateStatus(ctx, o.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	require.NotNil(t, updated.Refund)
	assert.Equal(t, RefundSucceeded, updated.Refund.Status)
	stored, err := h.orders.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Refund)
	assert.Equal(t, RefundSucceeded, stored.Refund.Status)
}

func TestUpdateStatus_CancelDeliveredSkipsPayment(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_456", 30)
	ctx := context.Background()

	_, err := h.service.UpdateStatus(ctx, o.ID, models.OrderStatusDelivered)
	require.NoError(t, err)
	updated, err := h.service.UpdateStatus(ctx, o.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCancelled, updated.Status)
	assert.Nil(t, updated.Refund)
	assert.Empty(t, h.payments.refunds)
	assert.Equal(t, []string{events.EventOrderDelivered, events.EventOrderCancelled}, h.events.events)
}

func TestUpdateStatus_DeliveredStampsAndNotifies(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_789", 30)

	updated, err := h.service.UpdateStatus(context.Background(), o.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	require.NotNil(t, updated.DeliveredAt)
	assert.Equal(t, []string{"delivered"}, h.notifier.sent)
	assert.Empty(t, h.payments.refunds)

	_, err = h.service.UpdateStatus(context.Background(), o.ID, models.OrderStatusDelivered)
	assert.Equal(t, 409, appError(t, err).Status)
}

func TestUpdateStatus_RefundFailureIsReported(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_fail", 45.5)
	h.payments.refundErr = errors.New("charge already refunded")

	updated, err := h.service.UpdateStatus(context.Background(), o.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	require.NotNil(t, updated.Refund)
	assert.Equal(t, RefundFailed, updated.Refund.Status)
	assert.Equal(t, []refundCall{{PaymentID: "pi_fail", Amount: 4550}}, h.payments.refunds)
	assert.Equal(t, []string{"refund_failed"}, h.notifier.sent)
	assert.Contains(t, h.events.events, events.EventRefundFailed)
}

func TestUpdateStatus_NonCardPaymentNotRefunded(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "manual-2041", 30)

	updated, err := h.service.UpdateStatus(context.Background(), o.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Nil(t, updated.Refund)
	assert.Empty(t, h.payments.refunds)
}

func TestUpdateStatus_Rejects(t *testing.T) {
	h := newHarness()
	o := paidOrder(h, "pi_x", 30)
	ctx := context.Background()

	_, err := h.service.UpdateStatus(ctx, o.ID, models.OrderStatus("shipped"))
	assert.Equal(t, 400, appError(t, err).Status)

	_, err = h.service.UpdateStatus(ctx, primitive.NewObjectID(), models.OrderStatusDelivered)
	assert.Equal(t, 404, appError(t, err).Status)

	_, err = h.service.UpdateStatus(ctx, o.ID, models.OrderStatusPaid)
	assert.Equal(t, 400, appError(t, err).Status)
}
