package controllers

import (
	"context"
	"net/http"
	"strings"

	"teashop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type categoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CategoryController handles category-related requests
type CategoryController struct {
	Categories categoryStore
}

func NewCategoryController(categories categoryStore) *CategoryController {
	return &CategoryController{Categories: categories}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Slug        string `json:"slug" validate:"omitempty,max=80"`
	Description string `json:"description" validate:"max=2000"`
}

func (req *categoryRequest) apply(c *models.Category) {
	c.Name = strings.TrimSpace(req.Name)
	c.Slug = slugify(req.Slug)
	if c.Slug == "" {
		c.Slug = slugify(req.Name)
	}
	c.Description = req.Description
}

func (cc *CategoryController) GetCategories(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	categories, err := cc.Categories.List(ctx)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, categories)
}

func (cc *CategoryController) GetCategoryByID(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	category, err := cc.Categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, category)
}

// CreateCategory (admin only)
func (cc *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) error {
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	var category models.Category
	req.apply(&category)
	if err := cc.Categories.Create(ctx, &category); err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, category)
}

func (cc *CategoryController) UpdateCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	category, err := cc.Categories.FindByID(ctx, id)
	if err != nil {
		return err
	}
	req.apply(category)
	if err := cc.Categories.Update(ctx, category); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, category)
}

func (cc *CategoryController) DeleteCategory(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(r, requestTimeout)
	defer cancel()

	if err := cc.Categories.Delete(ctx, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
