package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"teashop/events"
	"teashop/metrics"
	"teashop/models"
	"teashop/payments"
	"teashop/store"
	"teashop/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	lockTTL       = 2 * time.Minute
	refundTimeout = 15 * time.Second
)

// Checkout implements cart validation, payment intents and order creation.
type Checkout struct {
	Deps
	Postage decimal.Decimal
}

func NewCheckout(deps Deps, postage decimal.Decimal) *Checkout {
	return &Checkout{Deps: deps, Postage: postage}
}

type quote struct {
	items    []models.OrderItem
	subtotal decimal.Decimal
	discount decimal.Decimal
	gst      decimal.Decimal
	total    decimal.Decimal
}

// price prices the cart from live product records. Unlike ValidateCart it
// rejects instead of adjusting.
func (c *Checkout) price(ctx context.Context, lines []models.CartLine) (*quote, error) {
	if len(lines) == 0 {
		return nil, utils.BadRequest("your cart is empty")
	}
	entries, removed := normaliseCart(lines)
	if len(removed) > 0 {
		return nil, utils.BadRequest(fmt.Sprintf("cart line %q: %s", removed[0].ProductID, removed[0].Reason))
	}

	q := &quote{}
	for _, e := range entries {
		p, err := c.Products.FindByID(ctx, e.id)
		if errors.Is(err, utils.ErrNotFound) || (err == nil && !p.OnShelf) {
			return nil, utils.BadRequest(fmt.Sprintf("product %s is no longer available", e.line.ProductID))
		}
		if err != nil {
			return nil, err
		}
		if p.Stock < e.qty {
			return nil, utils.BadRequest(fmt.Sprintf("not enough stock for %s, %d left", p.Name, max(p.Stock, 0)))
		}
		a := priceLine(p.Price, p.Discount, e.qty, p.GSTIncluded)
		q.items = append(q.items, models.OrderItem{
			ProductID:   p.ID,
			Name:        p.Name,
			Price:       p.Price,
			Discount:    p.Discount,
			GSTIncluded: p.GSTIncluded,
			Quantity:    e.qty,
			LineTotal:   money(a.Total),
			LineGST:     money(a.GST),
		})
		q.subtotal = q.subtotal.Add(a.Total)
		q.discount = q.discount.Add(a.Discount)
		q.gst = q.gst.Add(a.GST)
	}
	q.total = q.subtotal.Add(c.Postage)
	return q, nil
}

// checkCountry rejects unless both the buyer and the delivery address are
// in Australia.
func checkCountry(b models.Buyer, d models.Delivery) error {
	for _, a := range []models.Address{b.Address, d.Address} {
		if strings.ToLower(strings.TrimSpace(a.Country)) != "australia" {
			return ErrOnlyAustralia
		}
	}
	return nil
}

type intentMetaLine struct {
	ID  string `json:"id"`
	Qty int    `json:"q"`
}

func intentMetadata(req *models.PaymentIntentRequest, q *quote) map[string]string {
	lines := make([]intentMetaLine, 0, len(q.items))
	for _, it := range q.items {
		lines = append(lines, intentMetaLine{ID: it.ProductID.Hex(), Qty: it.Quantity})
	}
	cart, _ := json.Marshal(lines)
	return map[string]string{
		"cart":     payments.Truncate(string(cart), payments.MaxMetadataValue),
		"buyer":    payments.Truncate(fmt.Sprintf("%s <%s> %s, %s", req.Buyer.Name, req.Buyer.Email, req.Buyer.Mobile, formatAddress(req.Buyer.Address)), payments.MaxMetadataValue),
		"delivery": payments.Truncate(fmt.Sprintf("%s, %s", req.Delivery.Name, formatAddress(req.Delivery.Address)), payments.MaxMetadataValue),
	}
}

func formatAddress(a models.Address) string {
	return fmt.Sprintf("%s %s, %s %s %s", a.Line1, a.Line2, a.Suburb, a.State, a.Postcode)
}

// CreatePaymentIntent prices the cart on the server and opens a payment
// intent for that amount. Nothing is sent to the processor unless every
// check passes.
func (c *Checkout) CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		metrics.PaymentIntents.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}
	if err := checkCountry(req.Buyer, req.Delivery); err != nil {
		metrics.PaymentIntents.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}
	q, err := c.price(ctx, req.Cart)
	if err != nil {
		metrics.PaymentIntents.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, err
	}

	amount := toCents(q.total)
	intent, err := c.Payments.CreateIntent(ctx, amount, req.Buyer.Email, intentMetadata(req, q))
	if err != nil {
		metrics.PaymentIntents.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, utils.Internal("could not start the payment", err)
	}
	metrics.PaymentIntents.WithLabelValues(metrics.ResultOK).Inc()
	return &models.PaymentIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Total:           money(q.total),
	}, nil
}

// resolveOwner returns the user's hex id, or GuestOwner if it does not
// belong to an existing account.
func (c *Checkout) resolveOwner(ctx context.Context, ownerID string) string {
	id, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return models.GuestOwner
	}
	if _, err := c.Users.FindByID(ctx, id); err != nil {
		return models.GuestOwner
	}
	return id.Hex()
}

// CreateOrder turns a succeeded payment into a paid order. Calling it again
// with the same payment id returns the existing order; a payment that has
// already been refunded is refused. If anything fails after the payment was
// confirmed, decremented stock is restored and the payment refunded before
// the error is returned as a *FulfillmentError.
func (c *Checkout) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	owner := c.resolveOwner(ctx, req.OwnerID)

	paymentID := strings.TrimSpace(req.PaymentID)
	if paymentID == "" {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, utils.BadRequest("missing payment reference")
	}

	intent, err := c.Payments.GetIntent(ctx, paymentID)
	if err != nil {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, utils.Internal("could not verify the payment", err)
	}
	if intent.Status != payments.StatusSucceeded {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, utils.BadRequest("payment has not succeeded")
	}

	release, ok, err := c.Locker.Acquire(ctx, fmt.Sprintf(store.KeyIdemOrderCreate, paymentID), lockTTL)
	if err != nil {
		// the unique payment_id index still prevents a second order
		utils.Log.WithError(err).WithField("payment_id", paymentID).Warn("idempotency lock unavailable")
	} else if !ok {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, utils.Conflict("this payment is already being processed")
	}
	defer release()

	existing, err := c.Orders.FindByPaymentID(ctx, paymentID)
	if err == nil {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultReplay).Inc()
		return existing, nil
	}
	if !errors.Is(err, utils.ErrNotFound) {
		metrics.OrdersCreated.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, utils.Internal("could not look up the order", err)
	}
	if intent.AmountRefunded > 0 {
		// refunded by an earlier failed attempt
		metrics.OrdersCreated.WithLabelValues(metrics.ResultRejected).Inc()
		utils.Log.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"refunded":   intent.AmountRefunded,
		}).Warn("order attempted on a refunded payment")
		return nil, utils.Conflict("this payment has been refunded, please check out again")
	}

	f := &fulfilment{c: c, req: req, owner: owner, intent: intent}
	order, err := f.run(ctx)
	if err != nil {
		f.restoreStock()
		if errors.Is(err, store.ErrDuplicatePayment) {
			// lost the race to a concurrent request for the same payment
			if existing, ferr := c.Orders.FindByPaymentID(ctx, paymentID); ferr == nil {
				metrics.OrdersCreated.WithLabelValues(metrics.ResultReplay).Inc()
				return existing, nil
			}
		}
		metrics.OrdersCreated.WithLabelValues(metrics.ResultFailed).Inc()
		return nil, &FulfillmentError{PaymentID: paymentID, Refunded: c.compensate(ctx, intent, err), Err: err}
	}

	metrics.OrdersCreated.WithLabelValues(metrics.ResultOK).Inc()
	if err := c.Notifier.SendOrderConfirmation(order); err != nil {
		utils.Log.WithError(err).WithField("order_id", order.ID.Hex()).Warn("order confirmation email failed")
	}
	publishOrder(ctx, c.Events, events.EventOrderPaid, order, "")
	return order, nil
}

// fulfilment holds the side effects of one CreateOrder call so they can be
// undone.
type fulfilment struct {
	c       *Checkout
	req     *models.CreateOrderRequest
	owner   string
	intent  *payments.Intent
	decrems []models.OrderItem
}

func (f *fulfilment) run(ctx context.Context) (*models.Order, error) {
	if err := utils.ValidateStruct(f.req); err != nil {
		return nil, err
	}
	if err := checkCountry(f.req.Buyer, f.req.Delivery); err != nil {
		return nil, err
	}
	q, err := f.c.price(ctx, f.req.Cart)
	if err != nil {
		return nil, err
	}
	for _, it := range q.items {
		ok, err := f.c.Products.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, utils.BadRequest(fmt.Sprintf("not enough stock for %s", it.Name))
		}
		f.decrems = append(f.decrems, it)
	}

	if amount := toCents(q.total); amount != f.intent.Amount {
		utils.Log.WithFields(logrus.Fields{
			"payment_id": f.intent.ID,
			"expected":   amount,
			"captured":   f.intent.Amount,
		}).Error("captured amount does not match order total")
		return nil, utils.BadRequest("the amount paid does not match the order total")
	}

	now := time.Now().UTC()
	order := &models.Order{
		Owner:         f.owner,
		Items:         q.items,
		Buyer:         f.req.Buyer,
		Delivery:      f.req.Delivery,
		Subtotal:      money(q.subtotal),
		DiscountTotal: money(q.discount),
		GSTTotal:      money(q.gst),
		Postage:       money(f.c.Postage),
		Total:         money(q.total),
		PaymentID:     f.intent.ID,
		PaymentMethod: models.PaymentMethodCard,
		Receipt:       models.Receipt{Number: uuid.NewString(), URL: f.intent.ReceiptURL},
		Status:        models.OrderStatusPaid,
		PaidAt:        now,
	}
	if err := f.c.Orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (f *fulfilment) restoreStock() {
	ctx, cancel := context.WithTimeout(context.Background(), refundTimeout)
	defer cancel()
	for _, it := range f.decrems {
		if err := f.c.Products.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
			utils.Log.WithError(err).WithFields(logrus.Fields{
				"product_id": it.ProductID.Hex(),
				"quantity":   it.Quantity,
			}).Error("failed to restore stock")
		}
	}
	f.decrems = nil
}

// compensate refunds the captured amount. It reports whether the refund
// went through.
func (c *Checkout) compensate(ctx context.Context, intent *payments.Intent, cause error) bool {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refundTimeout)
	defer cancel()

	log := utils.Log.WithFields(logrus.Fields{
		"payment_id": intent.ID,
		"amount":     intent.Amount,
		"cause":      cause.Error(),
	})
	refund, err := c.Payments.Refund(rctx, intent.ID, intent.Amount)
	if err != nil {
		metrics.Refunds.WithLabelValues(metrics.ResultFailed).Inc()
		log.WithError(err).WithField("critical", true).Error("refund after failed order failed, manual reconciliation required")
		_ = c.Events.Publish(rctx, events.EventRefundFailed, intent.ID, events.OrderPayload{
			PaymentID:   intent.ID,
			TotalCents:  intent.Amount,
			RefundState: "failed",
			Reason:      cause.Error(),
		})
		return false
	}
	metrics.Refunds.WithLabelValues(metrics.ResultOK).Inc()
	log.WithField("refund_id", refund.ID).Warn("payment refunded after failed order")
	return true
}

func publishOrder(ctx context.Context, p events.Publisher, eventType string, o *models.Order, refundState string) {
	err := p.Publish(ctx, eventType, o.ID.Hex(), events.OrderPayload{
		OrderID:     o.ID.Hex(),
		PaymentID:   o.PaymentID,
		Owner:       o.Owner,
		Status:      string(o.Status),
		TotalCents:  toCents(decimal.NewFromFloat(o.Total)),
		BuyerEmail:  o.Buyer.Email,
		RefundState: refundState,
	})
	if err != nil {
		utils.Log.WithError(err).WithField("event", eventType).Warn("publish order event")
	}
}
