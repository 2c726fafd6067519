// Package services holds the checkout and order lifecycle logic. It talks to
// storage, the card processor, email and the event bus through small
// interfaces so it can be exercised without any of them running.
package services

import (
	"context"
	"time"

	"teashop/events"
	"teashop/models"
	"teashop/payments"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

type OrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	Create(ctx context.Context, o *models.Order) error
	Transition(ctx context.Context, o *models.Order, from models.OrderStatus) (bool, error)
	Save(ctx context.Context, o *models.Order) error
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Notifier sends the customer emails tied to an order.
type Notifier interface {
	SendOrderConfirmation(order *models.Order) error
	SendDeliveryNotice(order *models.Order) error
	SendRefundSucceeded(order *models.Order) error
	SendRefundFailed(order *models.Order) error
}

// Deps bundles the collaborators shared by Checkout and Orders.
type Deps struct {
	Products ProductStore
	Orders   OrderStore
	Users    UserFinder
	Payments payments.Provider
	Locker   Locker
	Notifier Notifier
	Events   events.Publisher
}
