// Package store holds the MongoDB repositories and the Redis lock used by checkout.
package store

import (
	"context"
	"errors"
	"fmt"

	"teashop/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection      = "users"
	ProductsCollection   = "products"
	CategoriesCollection = "categories"
	OrdersCollection     = "orders"
)

// ErrDuplicatePayment is returned when an order already exists for a payment id.
var ErrDuplicatePayment = errors.New("order already exists for payment")

// EnsureIndexes creates the unique indexes the application relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	indexes := map[string][]mongo.IndexModel{
		UsersCollection:      {unique("email")},
		ProductsCollection:   {unique("slug"), {Keys: bson.D{{Key: "category_id", Value: 1}}}},
		CategoriesCollection: {unique("slug")},
		OrdersCollection:     {unique("payment_id"), {Keys: bson.D{{Key: "owner", Value: 1}, {Key: "created_at", Value: -1}}}},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// findOne decodes a single document, mapping "no documents" to utils.ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}) error {
	err := coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return utils.ErrNotFound
	}
	return err
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
