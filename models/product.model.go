package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Stock is only mutated when an order is created
// or when a failed order gives it back.
type Product struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string              `bson:"name" json:"name" validate:"required,max=120"`
	Slug        string              `bson:"slug" json:"slug" validate:"required,max=120"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	CategoryID  *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Price       float64             `bson:"price" json:"price" validate:"gte=0"`
	Discount    float64             `bson:"discount" json:"discount" validate:"gte=0,lte=100"`
	Stock       int                 `bson:"stock" json:"stock" validate:"gte=0"`
	OnShelf     bool                `bson:"on_shelf" json:"on_shelf"`
	GSTIncluded bool                `bson:"gst_included" json:"gst_included"`
	Images      []string            `bson:"images,omitempty" json:"images,omitempty" validate:"dive,url"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
