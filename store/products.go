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

// ProductFilter narrows a product listing.
type ProductFilter struct {
	CategoryID  *primitive.ObjectID
	OnShelfOnly bool
}

// ProductRepository handles product documents
type ProductRepository struct {
	Collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{Collection: db.Collection(ProductsCollection)}
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := findOne(ctx, r.Collection, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	filter := bson.M{}
	if f.CategoryID != nil {
		filter["category_id"] = *f.CategoryID
	}
	if f.OnShelfOnly {
		filter["on_shelf"] = true
	}
	return findAll[models.Product](ctx, r.Collection, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	res, err := r.Collection.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": bson.M{
		"name":         p.Name,
		"slug":         p.Slug,
		"description":  p.Description,
		"category_id":  p.CategoryID,
		"price":        p.Price,
		"discount":     p.Discount,
		"stock":        p.Stock,
		"on_shelf":     p.OnShelf,
		"gst_included": p.GSTIncluded,
		"images":       p.Images,
		"updated_at":   p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

// DecrementStock takes qty units atomically. It reports false, without
// changing anything, when fewer than qty units are left.
func (r *ProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	res, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// IncrementStock gives units back, e.g. when an order fails after decrementing.
func (r *ProductRepository) IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"stock": qty}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	return err
}
