package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductController struct {
	productService service.ProductService
	maxUploadBytes int64
}

func NewProductController(productService service.ProductService, maxUploadBytes int64) *ProductController {
	return &ProductController{
		productService: productService,
		maxUploadBytes: maxUploadBytes,
	}
}

type SocialRequest struct {
	Name        string `json:"name" binding:"required"`
	Link        string `json:"link" binding:"required"`
	EmbededCode string `json:"embeded_code"`
}

// CompatibleRequest pairs a brand with its comma-joined vehicle types.
type CompatibleRequest struct {
	BrandID uuid.UUID `json:"brand_id" binding:"required"`
	Types   string    `json:"types"`
}

// ProductRequest is the JSON carried in the multipart "data" field.
type ProductRequest struct {
	Name        string              `json:"name" binding:"required"`
	Slug        string              `json:"slug" binding:"required,slug"`
	CategoryID  uuid.UUID           `json:"category_id" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Advantage   string              `json:"advantage" binding:"required"`
	Socials     []SocialRequest     `json:"socials" binding:"dive"`
	Compatibles []CompatibleRequest `json:"compatibles" binding:"dive"`
}

func (r ProductRequest) input() service.ProductInput {
	input := service.ProductInput{
		Name:        r.Name,
		Slug:        r.Slug,
		CategoryID:  r.CategoryID,
		Description: r.Description,
		Advantage:   r.Advantage,
		Socials:     make([]service.SocialInput, 0, len(r.Socials)),
		Compatibles: make([]service.CompatibleInput, 0, len(r.Compatibles)),
	}
	for _, s := range r.Socials {
		input.Socials = append(input.Socials, service.SocialInput{
			Name:        s.Name,
			Link:        s.Link,
			EmbededCode: s.EmbededCode,
		})
	}
	for _, cmp := range r.Compatibles {
		input.Compatibles = append(input.Compatibles, service.CompatibleInput{
			BrandID: cmp.BrandID,
			Types:   cmp.Types,
		})
	}
	return input
}

// List returns all products with their category
// GET /api/v1/products
func (ctrl *ProductController) List(c *gin.Context) {
	products, err := ctrl.productService.List(c.Request.Context())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// Get returns one product with socials and brand compatibility
// GET /api/v1/products/:id
func (ctrl *ProductController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := ctrl.productService.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// Create stores a product and its child rows
// POST /api/v1/products
func (ctrl *ProductController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if !bindMultipartData(c, &req) {
		return
	}

	file, closer, ok := readImage(c, ctrl.maxUploadBytes)
	if !ok {
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	product, err := ctrl.productService.Create(c.Request.Context(), req.input(), file)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id":  product.ID,
		"socials":     len(req.Socials),
		"compatibles": len(req.Compatibles),
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// Update replaces a product's fields and child rows
// PUT /api/v1/products/:id
func (ctrl *ProductController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if !bindMultipartData(c, &req) {
		return
	}

	file, closer, ok := readImage(c, ctrl.maxUploadBytes)
	if !ok {
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	product, err := ctrl.productService.Update(c.Request.Context(), id, req.input(), file)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// DELETE /api/v1/products/:id
func (ctrl *ProductController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.productService.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrCleanupDeferred) {
			ctrl.respondError(c, err)
			return
		}
		middleware.GetLoggerFromContext(c).Warn("Product image removal deferred", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (ctrl *ProductController) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrProductNotFound) {
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
		return
	}
	middleware.GetLoggerFromContext(c).Error("Product request failed", err)
	apperrors.RespondWithParsedError(c, err, "product")
}
