package store

import (
	"context"
	"time"

	"teashop/models"
	"teashop/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository struct {
	Collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{Collection: db.Collection(OrdersCollection)}
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var o models.Order
	if err := findOne(ctx, r.Collection, bson.M{"_id": id}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	var o models.Order
	if err := findOne(ctx, r.Collection, bson.M{"payment_id": paymentID}, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns orders newest first; an empty owner lists every order.
func (r *OrderRepository) List(ctx context.Context, owner string) ([]models.Order, error) {
	filter := bson.M{}
	if owner != "" {
		filter["owner"] = owner
	}
	return findAll[models.Order](ctx, r.Collection, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// Create inserts the order. The unique payment_id index turns a second order
// for the same payment into ErrDuplicatePayment.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	res, err := r.Collection.InsertOne(ctx, o)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicatePayment
	}
	if err != nil {
		return err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func lifecycleFields(o *models.Order) bson.M {
	return bson.M{
		"status":       o.Status,
		"refund":       o.Refund,
		"delivered_at": o.DeliveredAt,
		"cancelled_at": o.CancelledAt,
		"updated_at":   o.UpdatedAt,
	}
}

// Transition writes the order's lifecycle fields only if it is still in
// status from. It reports false when another request moved it first.
func (r *OrderRepository) Transition(ctx context.Context, o *models.Order, from models.OrderStatus) (bool, error) {
	o.UpdatedAt = time.Now().UTC()
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": o.ID, "status": from}, bson.M{"$set": lifecycleFields(o)})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// Save persists lifecycle fields of an existing order.
func (r *OrderRepository) Save(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = time.Now().UTC()
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": o.ID}, bson.M{"$set": lifecycleFields(o)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}
