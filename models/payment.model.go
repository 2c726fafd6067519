package models

// Buyer is the person paying for the order.
type Buyer struct {
	Name    string  `bson:"name" json:"name" validate:"required,max=80"`
	Email   string  `bson:"email" json:"email" validate:"required,email"`
	Mobile  string  `bson:"mobile" json:"mobile" validate:"required,aumobile"`
	Address Address `bson:"address" json:"address" validate:"required"`
}

// Delivery is where the parcel goes.
type Delivery struct {
	Name    string  `bson:"name" json:"name" validate:"required,max=80"`
	Mobile  string  `bson:"mobile" json:"mobile" validate:"required,aumobile"`
	Address Address `bson:"address" json:"address" validate:"required"`
}

// PaymentIntentRequest is posted by the checkout page before showing the card form.
type PaymentIntentRequest struct {
	Cart     []CartLine `json:"cart"`
	Buyer    Buyer      `json:"buyer"`
	Delivery Delivery   `json:"delivery"`
}

// PaymentIntentResponse carries the secret the browser needs to confirm the card payment.
type PaymentIntentResponse struct {
	ClientSecret    string  `json:"client_secret"`
	PaymentIntentID string  `json:"payment_intent_id"`
	Amount          int64   `json:"amount"`
	Total           float64 `json:"total"`
}

// CreateOrderRequest is posted after the browser reports a succeeded payment.
type CreateOrderRequest struct {
	Cart      []CartLine `json:"cart"`
	Buyer     Buyer      `json:"buyer"`
	Delivery  Delivery   `json:"delivery"`
	PaymentID string     `json:"payment_id"`
	OwnerID   string     `json:"owner_id,omitempty"`
}
