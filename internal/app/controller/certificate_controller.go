package controller

import (
	"errors"
	"net/http"

	"github.com/fuboru/panel-backend/internal/app/service"
	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	certificateService service.CertificateService
	maxUploadBytes     int64
}

func NewCertificateController(certificateService service.CertificateService, maxUploadBytes int64) *CertificateController {
	return &CertificateController{
		certificateService: certificateService,
		maxUploadBytes:     maxUploadBytes,
	}
}

// CertificateRequest is the JSON carried in the multipart "data" field.
type CertificateRequest struct {
	Name          string `json:"name" binding:"required"`
	Slug          string `json:"slug" binding:"required,slug"`
	DescriptionID string `json:"description_id" binding:"required"`
	DescriptionEN string `json:"description_en" binding:"required"`
}

func (r CertificateRequest) input() service.CertificateInput {
	return service.CertificateInput{
		Name:          r.Name,
		Slug:          r.Slug,
		DescriptionID: r.DescriptionID,
		DescriptionEN: r.DescriptionEN,
	}
}

// GET /api/v1/certificates
func (ctrl *CertificateController) List(c *gin.Context) {
	certificates, err := ctrl.certificateService.List(c.Request.Context())
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"certificates": certificates,
		"count":        len(certificates),
	})
}

// GET /api/v1/certificates/:id
func (ctrl *CertificateController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	certificate, err := ctrl.certificateService.Get(c.Request.Context(), id)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificate": certificate})
}

// Create takes multipart/form-data with a "data" JSON field and an optional "image".
// POST /api/v1/certificates
func (ctrl *CertificateController) Create(c *gin.Context) {
	var req CertificateRequest
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

	certificate, err := ctrl.certificateService.Create(c.Request.Context(), req.input(), file)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("Certificate created", map[string]interface{}{
		"certificate_id": certificate.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"certificate": certificate})
}

// PUT /api/v1/certificates/:id
func (ctrl *CertificateController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req CertificateRequest
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

	certificate, err := ctrl.certificateService.Update(c.Request.Context(), id, req.input(), file)
	if err != nil {
		ctrl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificate": certificate})
}

// DELETE /api/v1/certificates/:id
func (ctrl *CertificateController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := ctrl.certificateService.Delete(c.Request.Context(), id); err != nil {
		if !errors.Is(err, service.ErrCleanupDeferred) {
			ctrl.respondError(c, err)
			return
		}
		middleware.GetLoggerFromContext(c).Warn("Certificate image removal deferred", map[string]interface{}{
			"certificate_id": id,
			"error":          err.Error(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "Certificate deleted"})
}

func (ctrl *CertificateController) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrCertificateNotFound) {
		apperrors.NotFound(c, apperrors.CertificateNotFound, "Certificate not found")
		return
	}
	middleware.GetLoggerFromContext(c).Error("Certificate request failed", err)
	apperrors.RespondWithParsedError(c, err, "certificate")
}
