package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// GuestOwner marks orders placed without a (resolvable) account.
const GuestOwner = "guest"

// PaymentMethodCard is the tag for orders paid through the card processor.
const PaymentMethodCard = "card"

// OrderItem is a snapshot of a product at purchase time.
type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"product_id" json:"product_id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Discount    float64            `bson:"discount" json:"discount"`
	GSTIncluded bool               `bson:"gst_included" json:"gst_included"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	LineTotal   float64            `bson:"line_total" json:"line_total"`
	LineGST     float64            `bson:"line_gst" json:"line_gst"`
}

// Receipt references the processor's receipt for the payment.
type Receipt struct {
	Number string `bson:"number" json:"number"`
	URL    string `bson:"url,omitempty" json:"url,omitempty"`
}

// Refund records the outcome of a refund attempt on cancellation.
type Refund struct {
	ID     string    `bson:"id,omitempty" json:"id,omitempty"`
	Status string    `bson:"status" json:"status"`
	Amount float64   `bson:"amount" json:"amount"`
	At     time.Time `bson:"at" json:"at"`
}

// Order represents a paid order
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Owner         string             `bson:"owner" json:"owner"`
	Items         []OrderItem        `bson:"items" json:"items"`
	Buyer         Buyer              `bson:"buyer" json:"buyer"`
	Delivery      Delivery           `bson:"delivery" json:"delivery"`
	Subtotal      float64            `bson:"subtotal" json:"subtotal"`
	DiscountTotal float64            `bson:"discount_total" json:"discount_total"`
	GSTTotal      float64            `bson:"gst_total" json:"gst_total"`
	Postage       float64            `bson:"postage" json:"postage"`
	Total         float64            `bson:"total" json:"total"`
	PaymentID     string             `bson:"payment_id" json:"payment_id"`
	PaymentMethod string             `bson:"payment_method" json:"payment_method"`
	Receipt       Receipt            `bson:"receipt" json:"receipt"`
	Status        OrderStatus        `bson:"status" json:"status"`
	Refund        *Refund            `bson:"refund,omitempty" json:"refund,omitempty"`
	PaidAt        time.Time          `bson:"paid_at" json:"paid_at"`
	DeliveredAt   *time.Time         `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	CancelledAt   *time.Time         `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}
