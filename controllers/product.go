package controllers

import (
	"context"
	"net/http"
	"strings"

	"teashop/middleware"
	"teashop/models"
	"teashop/store"
	"teashop/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type productStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	List(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductController handles product-related requests
type ProductController struct {
	Products productStore
}

// NewProductController creates a new ProductController
func NewProductController(products productStore) *ProductController {
	return &ProductController{Products: products}
}

type productRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Slug        string   `json:"slug" validate:"omitempty,max=120"`
	Description string   `json:"description" validate:"max=5000"`
	CategoryID  string   `json:"category_id" validate:"omitempty,mongodb"`
	Price       float64  `json:"price" validate:"gte=0"`
	Discount    float64  `json:"discount" validate:"gte=0,lte=100"`
	Stock       int      `json:"stock" validate:"gte=0"`
	OnShelf     bool     `json:"on_shelf"`
	GSTIncluded bool     `json:"gst_included"`
	Images      []string `json:"images" validate:"dive,url"`
}

func (req *productRequest) apply(p *models.Product) {
	p.Name = strings.TrimSpace(req.Name)
	p.Slug = slugify(req.Slug)
	if p.Slug == "" {
		p.Slug = slugify(req.Name)
	}
	p.Description = req.Description
	p.CategoryID = nil
	if id, err := primitive.ObjectIDFromHex(req.CategoryID); err == nil {
		p.CategoryID = &id
	}
	p.Price = req.Price
	p.Discount = req.Discount
	p.Stock = req.Stock
	p.OnShelf = req.OnShelf
	p.GSTIncluded = req.GSTIncluded
	p.Images = req.Images
}

// GetProducts lists products on the shelf, optionally in one category.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) error {
	filter := store.ProductFilter{OnShelfOnly: true}
	if c := r.URL.Query().Get("category"); c != "" {
		id, err := primitive.ObjectIDFromHex(c)
		if err != nil {
			return utils.BadRequest("invalid category")
		}
		filter.CategoryID = &id
	}
	return pc.list(w, r, filter)
}

// GetAllProducts includes products taken off the shelf (admin only).
func (pc *ProductController) GetAllProducts(w http.ResponseWriter, r *http.Request) error {
	return pc.list(w, r, store.ProductFilter{})
}

func (pc *ProductController) list(w http.ResponseWriter, r *http.Request, filter store.ProductFilter) error {
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	products, err := pc.Products.List(ctx, filter)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, products)
}

// GetProductByID hides off-shelf products from everyone but admins.
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !product.OnShelf {
		if claims, ok := middleware.ClaimsFrom(r.Context()); !ok || !claims.Admin {
			return utils.NotFound("product not found")
		}
	}
	return writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var req productRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	var product models.Product
	req.apply(&product)
	if err := pc.Products.Create(ctx, &product); err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct handles updating an existing product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	req.apply(product)
	if err := pc.Products.Update(ctx, product); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, product)
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	if err := pc.Products.Delete(ctx, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
