package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type BrandController struct {
	brandService service.BrandService
}

func NewBrandController(brandService service.BrandService) *BrandController {
	return &BrandController{brandService: brandService}
}

type BrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// GET /api/v1/brands
func (ctrl *BrandController) List(c *gin.Context) {
	brands, err := ctrl.brandService.List(c.Request.Context())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"brands": brands,
		"count":  len(brands),
	})
}

// GET /api/v1/brands/:id
func (ctrl *BrandController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	brand, err := ctrl.brandService.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"brand": brand})
}

// POST /api/v1/brands
func (ctrl *BrandController) Create(c *gin.Context) {
	var req BrandRequest
	if !bindJSON(c, &req) {
		return
	}

	brand, err := ctrl.brandService.Create(c.Request.Context(), service.BrandInput{Name: req.Name})
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"brand": brand})
}

// PUT /api/v1/brands/:id
func (ctrl *BrandController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req BrandRequest
	if !bindJSON(c, &req) {
		return
	}

	brand, err := ctrl.brandService.Update(c.Request.Context(), id, service.BrandInput{Name: req.Name})
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"brand": brand})
}

// DELETE /api/v1/brands/:id
func (ctrl *BrandController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.brandService.Delete(c.Request.Context(), id); err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Brand deleted"})
}

func (ctrl *BrandController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBrandNotFound):
		apperrors.NotFound(c, apperrors.BrandNotFound, "Brand not found")
	case errors.Is(err, service.ErrBrandInUse):
		apperrors.Conflict(c, apperrors.BrandInUse, "Brand is still linked to products")
	default:
		middleware.GetLoggerFromContext(c).Error("Brand request failed", err)
		apperrors.RespondWithParsedError(c, err, "brand")
	}
}
