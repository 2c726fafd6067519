package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teashop/events"
	"teashop/metrics"
	"teashop/models"
	"teashop/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Refund states stored on a cancelled order.
const (
	RefundSucceeded = "succeeded"
	RefundFailed    = "failed"
)

// allowed lists the statuses each status may move to.
var allowed = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPaid:      {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered: {models.OrderStatusCancelled},
}

// Orders runs admin-driven order status changes.
type Orders struct {
	Deps
}

func NewOrders(deps Deps) *Orders {
	return &Orders{Deps: deps}
}

func canMove(from, to models.OrderStatus) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an order to status. Cancelling a paid card order
// refunds its full total once; the status change is conditional on the
// previous status so a repeated cancel can never refund twice.
func (s *Orders) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if status != models.OrderStatusDelivered && status != models.OrderStatusCancelled {
		return nil, utils.BadRequest(fmt.Sprintf("unknown order status %q", status))
	}
	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.NotFound("order not found")
		}
		return nil, err
	}
	from := order.Status
	if from == status {
		return nil, utils.Conflict(fmt.Sprintf("order is already %s", status))
	}
	if !canMove(from, status) {
		return nil, utils.Conflict(fmt.Sprintf("order cannot go from %s to %s", from, status))
	}

	now := time.Now().UTC()
	order.Status = status
	switch status {
	case models.OrderStatusDelivered:
		order.DeliveredAt = &now
	case models.OrderStatusCancelled:
		order.CancelledAt = &now
	}
	moved, err := s.Orders.Transition(ctx, order, from)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, utils.Conflict("order was changed by another request")
	}

	switch status {
	case models.OrderStatusDelivered:
		if err := s.Notifier.SendDeliveryNotice(order); err != nil {
			utils.Log.WithError(err).WithField("order_id", order.ID.Hex()).Warn("delivery email failed")
		}
		publishOrder(ctx, s.Events, events.EventOrderDelivered, order, "")
	case models.OrderStatusCancelled:
		state := ""
		if from == models.OrderStatusPaid && refundable(order) {
			state = s.refund(ctx, order)
		}
		publishOrder(ctx, s.Events, events.EventOrderCancelled, order, state)
	}
	return order, nil
}

func refundable(o *models.Order) bool {
	return o.PaymentMethod == models.PaymentMethodCard && strings.HasPrefix(o.PaymentID, "pi_")
}

// refund returns the order total to the card, records the outcome on the
// order and tells the customer. The order is already cancelled, so the
// refund outlives the request.
func (s *Orders) refund(ctx context.Context, order *models.Order) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()

	amount := toCents(decimal.NewFromFloat(order.Total))
	log := utils.Log.WithFields(logrus.Fields{
		"order_id":   order.ID.Hex(),
		"payment_id": order.PaymentID,
		"amount":     amount,
	})

	rec := &models.Refund{Amount: order.Total, At: time.Now().UTC()}
	res, err := s.Payments.Refund(ctx, order.PaymentID, amount)
	if err != nil {
		rec.Status = RefundFailed
		metrics.Refunds.WithLabelValues(metrics.ResultFailed).Inc()
		log.WithError(err).WithField("critical", true).Error("refund for cancelled order failed")
		if err := s.Notifier.SendRefundFailed(order); err != nil {
			log.WithError(err).Warn("refund-failed email failed")
		}
		publishOrder(ctx, s.Events, events.EventRefundFailed, order, RefundFailed)
	} else {
		rec.ID, rec.Status = res.ID, RefundSucceeded
		metrics.Refunds.WithLabelValues(metrics.ResultOK).Inc()
		if err := s.Notifier.SendRefundSucceeded(order); err != nil {
			log.WithError(err).Warn("refund email failed")
		}
	}

	order.Refund = rec
	if err := s.Orders.Save(ctx, order); err != nil {
		log.WithError(err).Error("could not record refund on order")
	}
	return rec.Status
}
