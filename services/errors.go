package services

import (
	"errors"
	"net/http"

	"teashop/utils"
)

// ErrOnlyAustralia is returned when a delivery address is outside Australia.
var ErrOnlyAustralia = utils.BadRequest("sorry, we only deliver within Australia")

// FulfillmentError is returned when an order could not be created after the
// payment had already succeeded. Refunded tells whether the money went back.
type FulfillmentError struct {
	PaymentID string
	Refunded  bool
	Err       error
}

func (e *FulfillmentError) Error() string {
	if e.Refunded {
		return e.Err.Error() + " (payment refunded)"
	}
	return e.Err.Error() + " (refund failed)"
}

func (e *FulfillmentError) Unwrap() error { return e.Err }

// AppError is the user-facing form of the failure.
func (e *FulfillmentError) AppError() *utils.AppError {
	status, msg := http.StatusInternalServerError, "we could not complete your order"
	var ae *utils.AppError
	if errors.As(e.Err, &ae) && ae.Status < http.StatusInternalServerError {
		status, msg = ae.Status, ae.Message
	}
	if e.Refunded {
		msg += ". Your payment has been refunded."
	} else {
		msg += ". Your payment could not be refunded automatically; our team has been notified."
	}
	return &utils.AppError{Status: status, Code: "fulfillment_failed", Message: msg, Err: e}
}
