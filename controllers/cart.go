package controllers

import (
	"context"
	"net/http"

	"teashop/models"
)

type cartValidator interface {
	ValidateCart(ctx context.Context, lines []models.CartLine) (*models.ValidatedCart, error)
}

// CartController checks the browser-held cart against the catalog. The cart
// itself lives on the client.
type CartController struct {
	Checkout cartValidator
}

func NewCartController(checkout cartValidator) *CartController {
	return &CartController{Checkout: checkout}
}

type cartRequest struct {
	Cart []models.CartLine `json:"cart" validate:"max=100"`
}

// ValidateCart returns the refreshed cart with removed and changed lines.
func (cc *CartController) ValidateCart(w http.ResponseWriter, r *http.Request) error {
	var req cartRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	cart, err := cc.Checkout.ValidateCart(ctx, req.Cart)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, cart)
}
