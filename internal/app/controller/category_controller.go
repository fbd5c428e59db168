package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{categoryService: categoryService}
}

type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required,slug"`
}

func (r CategoryRequest) input() service.CategoryInput {
	return service.CategoryInput{Name: r.Name, Slug: r.Slug}
}

// List returns all categories
// GET /api/v1/categories
func (ctrl *CategoryController) List(c *gin.Context) {
	categories, err := ctrl.categoryService.List(c.Request.Context())
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list categories", err)
		apperrors.RespondWithParsedError(c, err, "category")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// Get returns one category
// GET /api/v1/categories/:id
func (ctrl *CategoryController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	category, err := ctrl.categoryService.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// Create adds a category
// POST /api/v1/categories
func (ctrl *CategoryController) Create(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := ctrl.categoryService.Create(c.Request.Context(), req.input())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Category created", map[string]interface{}{
		"category_id": category.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// Update replaces a category's fields
// PUT /api/v1/categories/:id
func (ctrl *CategoryController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}

	category, err := ctrl.categoryService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// Delete removes a category that no product references
// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.categoryService.Delete(c.Request.Context(), id); err != nil {
		ctrl.respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Category deleted", map[string]interface{}{
		"category_id": id,
	})
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

func (ctrl *CategoryController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		apperrors.NotFound(c, apperrors.CategoryNotFound, "Category not found")
	case errors.Is(err, service.ErrCategoryInUse):
		apperrors.Conflict(c, apperrors.CategoryInUse, "Category still has products")
	default:
		middleware.GetLoggerFromContext(c).Error("Category request failed", err)
		apperrors.RespondWithParsedError(c, err, "category")
	}
}
