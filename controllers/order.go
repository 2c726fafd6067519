package controllers

import (
	"context"
	"net/http"

	"teashop/middleware"
	"teashop/models"
	"teashop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orderCreator interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
}

type statusUpdater interface {
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
}

type orderReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, owner string) ([]models.Order, error)
}

// OrderController handles order-related requests
type OrderController struct {
	Checkout orderCreator
	Status   statusUpdater
	Orders   orderReader
}

// NewOrderController creates a new OrderController
func NewOrderController(checkout orderCreator, status statusUpdater, orders orderReader) *OrderController {
	return &OrderController{Checkout: checkout, Status: status, Orders: orders}
}

// CreateOrder records the order for a payment the browser reports as
// succeeded. The owner comes from the session, never from the body.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) error {
	var req models.CreateOrderRequest
	// validated by the service once the payment is confirmed, so a bad
	// address after payment still gets refunded
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	req.OwnerID = ""
	if claims, ok := middleware.ClaimsFrom(r.Context()); ok {
		req.OwnerID = claims.ID
	}

	ctx, cancel := withTimeout(r, checkoutTimeout)
	defer cancel()

	order, err := oc.Checkout.CreateOrder(ctx, &req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, order)
}

// GetOrders lists every order for admins and the caller's own orders
// otherwise. Admins can pass ?mine=true.
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) error {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return utils.NotFound("not found")
	}
	owner := claims.ID
	if claims.Admin && r.URL.Query().Get("mine") != "true" {
		owner = ""
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	orders, err := oc.Orders.List(ctx, owner)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order to its owner or an admin.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) error {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		return utils.NotFound("not found")
	}
	id, err := pathID(r)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	order, err := oc.Orders.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !claims.Admin && order.Owner != claims.ID {
		return utils.NotFound("not found")
	}
	return writeJSON(w, http.StatusOK, order)
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// UpdateOrderStatus marks an order delivered or cancelled (admin only).
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	ctx, cancel := withTimeout(r, checkoutTimeout)
	defer cancel()

	order, err := oc.Status.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, order)
}
