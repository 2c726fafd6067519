package controllers

import (
	"context"
	"net/http"

	"teashop/models"
)

type intentCreator interface {
	CreatePaymentIntent(ctx context.Context, req *models.PaymentIntentRequest) (*models.PaymentIntentResponse, error)
}

// CheckoutController starts card payments.
type CheckoutController struct {
	Checkout intentCreator
}

func NewCheckoutController(checkout intentCreator) *CheckoutController {
	return &CheckoutController{Checkout: checkout}
}

// CreatePaymentIntent prices the cart and returns the client secret for the card form.
func (cc *CheckoutController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) error {
	var req models.PaymentIntentRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, checkoutTimeout)
	defer cancel()

	resp, err := cc.Checkout.CreatePaymentIntent(ctx, &req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, resp)
}
