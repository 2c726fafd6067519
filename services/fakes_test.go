package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"teashop/models"
	"teashop/payments"
	"teashop/store"
	"teashop/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeProducts struct {
	mu         sync.Mutex
	items      map[primitive.ObjectID]*models.Product
	decrements int
	increments int
}

func newFakeProducts(ps ...*models.Product) *fakeProducts {
	f := &fakeProducts{items: map[primitive.ObjectID]*models.Product{}}
	for _, p := range ps {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	f.decrements++
	return true, nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.items[id]; ok {
		p.Stock += qty
	}
	f.increments++
	return nil
}

func (f *fakeProducts) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Stock
}

func (f *fakeProducts) setStock(id primitive.ObjectID, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[id].Stock = n
}

type fakeOrders struct {
	mu       sync.Mutex
	byID     map[primitive.ObjectID]*models.Order
	creates  int
	onCreate func(o *models.Order) error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{byID: map[primitive.ObjectID]*models.Order{}}
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) FindByPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.byID {
		if o.PaymentID == paymentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeOrders) Create(_ context.Context, o *models.Order) error {
	if f.onCreate != nil {
		if err := f.onCreate(o); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.PaymentID == o.PaymentID {
			return store.ErrDuplicatePayment
		}
	}
	o.ID = primitive.NewObjectID()
	cp := *o
	f.byID[o.ID] = &cp
	f.creates++
	return nil
}

func (f *fakeOrders) insert(o *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	cp := *o
	f.byID[o.ID] = &cp
}

func (f *fakeOrders) Transition(_ context.Context, o *models.Order, from models.OrderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byID[o.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	cp := *o
	f.byID[o.ID] = &cp
	return true, nil
}

func (f *fakeOrders) Save(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[o.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *o
	f.byID[o.ID] = &cp
	return nil
}

type fakeUsers map[primitive.ObjectID]*models.User

func (f fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, utils.ErrNotFound
}

type refundCall struct {
	PaymentID string
	Amount    int64
}

type fakePayments struct {
	mu        sync.Mutex
	intents   map[string]*payments.Intent
	created   []int64
	metadata  []map[string]string
	refunds   []refundCall
	refundErr error
	seq       int
}

func newFakePayments() *fakePayments {
	return &fakePayments{intents: map[string]*payments.Intent{}}
}

func (f *fakePayments) CreateIntent(_ context.Context, amount int64, _ string, md map[string]string) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	in := &payments.Intent{
		ID:           fmt.Sprintf("pi_test_%d", f.seq),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", f.seq),
		Status:       "requires_payment_method",
		Currency:     "aud",
		Amount:       amount,
	}
	f.intents[in.ID] = in
	f.created = append(f.created, amount)
	f.metadata = append(f.metadata, md)
	return in, nil
}

// succeed marks an intent as paid by the browser.
func (f *fakePayments) succeed(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id].Status = payments.StatusSucceeded
	f.intents[id].ReceiptURL = "https://pay.example/receipts/" + id
}

// paid registers an already succeeded intent for amount.
func (f *fakePayments) paid(id string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents[id] = &payments.Intent{ID: id, Status: payments.StatusSucceeded, Amount: amount, Currency: "aud"}
}

func (f *fakePayments) GetIntent(_ context.Context, id string) (*payments.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	in, ok := f.intents[id]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	cp := *in
	return &cp, nil
}

func (f *fakePayments) Refund(ctx context.Context, paymentID string, amount int64) (*payments.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, refundCall{PaymentID: paymentID, Amount: amount})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	if in, ok := f.intents[paymentID]; ok {
		in.AmountRefunded += amount
	}
	return &payments.Refund{ID: fmt.Sprintf("re_%d", len(f.refunds)), Status: "succeeded", Amount: amount}, nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
	err  error
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	if l.err != nil {
		return func() {}, false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return func() {}, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fails bool
}

func (n *fakeNotifier) record(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
	if n.fails {
		return errors.New("smtp down")
	}
	return nil
}

func (n *fakeNotifier) SendOrderConfirmation(*models.Order) error { return n.record("confirmation") }
func (n *fakeNotifier) SendDeliveryNotice(*models.Order) error    { return n.record("delivered") }
func (n *fakeNotifier) SendRefundSucceeded(*models.Order) error   { return n.record("refund_succeeded") }
func (n *fakeNotifier) SendRefundFailed(*models.Order) error      { return n.record("refund_failed") }

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType, _ string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

type harness struct {
	products *fakeProducts
	orders   *fakeOrders
	users    fakeUsers
	payments *fakePayments
	locker   *fakeLocker
	notifier *fakeNotifier
	events   *fakePublisher
	checkout *Checkout
	service  *Orders
}

func newHarness(ps ...*models.Product) *harness {
	h := &harness{
		products: newFakeProducts(ps...),
		orders:   newFakeOrders(),
		users:    fakeUsers{},
		payments: newFakePayments(),
		locker:   &fakeLocker{},
		notifier: &fakeNotifier{},
		events:   &fakePublisher{},
	}
	deps := Deps{
		Products: h.products,
		Orders:   h.orders,
		Users:    h.users,
		Payments: h.payments,
		Locker:   h.locker,
		Notifier: h.notifier,
		Events:   h.events,
	}
	h.checkout = NewCheckout(deps, decimal.RequireFromString("10.00"))
	h.service = NewOrders(deps)
	return h
}

func product(name string, price, discount float64, stock int) *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Slug:     name,
		Price:    price,
		Discount: discount,
		Stock:    stock,
		OnShelf:  true,
	}
}

func line(p *models.Product, qty float64) models.CartLine {
	return models.CartLine{ProductID: p.ID.Hex(), Quantity: qty, Price: p.Price, Discount: p.Discount}
}

func address(country string) models.Address {
	return models.Address{
		Line1:    "12 Leaf St",
		Suburb:   "Fitzroy",
		State:    "VIC",
		Postcode: "3065",
		Country:  country,
	}
}

func buyerIn(country string) models.Buyer {
	return models.Buyer{Name: "Mei Chen", Email: "mei@example.com", Mobile: "0412 345 678", Address: address(country)}
}

func buyer() models.Buyer { return buyerIn("Australia") }

func delivery(country string) models.Delivery {
	return models.Delivery{Name: "Mei Chen", Mobile: "+61412345678", Address: address(country)}
}
