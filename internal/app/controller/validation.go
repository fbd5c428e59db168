package controller

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"strings"

	"github.com/fuboru/panel-backend/internal/storage"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/middleware"
)

// RegisterValidators installs the custom binding rules used by request
// structs. It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return util.IsSlug(fl.Field().String())
	})
}

// validationFields turns a binding error into per-field messages.
func validationFields(err error) map[string]string {
	fields := map[string]string{}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		fields["body"] = "malformed request body"
		return fields
	}

	for _, fe := range verrs {
		name := jsonFieldName(fe)
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "email":
			fields[name] = "must be a valid email address"
		case "slug":
			fields[name] = "may only contain lower-case letters, digits and hyphens"
		case "min":
			fields[name] = "must be at least " + fe.Param() + " characters"
		case "url":
			fields[name] = "must be a valid URL"
		default:
			fields[name] = "is invalid"
		}
	}
	return fields
}

// jsonFieldName maps "ProductRequest.socials[0].name" to "socials[0].name".
func jsonFieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validationFields(err))
		return false
	}
	return true
}

// bindMultipartData decodes the JSON payload carried in the "data" form
// field and validates it with the binding rules.
func bindMultipartData(c *gin.Context, req interface{}) bool {
	log := middleware.GetLoggerFromContext(c)

	raw := c.PostForm("data")
	if raw == "" {
		apperrors.RespondWithValidationError(c, map[string]string{"data": "is required"})
		return false
	}
	if err := json.Unmarshal([]byte(raw), req); err != nil {
		log.Warn("Invalid multipart data field", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{"data": "must be a JSON object"})
		return false
	}
	if err := binding.Validator.ValidateStruct(req); err != nil {
		apperrors.RespondWithValidationError(c, validationFields(err))
		return false
	}
	return true
}

// readImage returns the optional "image" upload. A nil file with ok=true
// means no image was sent.
func readImage(c *gin.Context, maxBytes int64) (file *storage.File, closer io.Closer, ok bool) {
	header, err := c.FormFile("image")
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) {
			return nil, nil, true
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Could not read uploaded image")
		return nil, nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if err := storage.ValidateContentType(contentType, storage.ImageContentTypes); err != nil {
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Image must be JPEG, PNG, WebP, GIF or SVG")
		return nil, nil, false
	}
	if err := storage.ValidateFileSize(header.Size, maxBytes); err != nil {
		apperrors.RespondWithError(c, http.StatusRequestEntityTooLarge, apperrors.UploadFileTooLarge, "Image is too large")
		return nil, nil, false
	}

	var f multipart.File
	if f, err = header.Open(); err != nil {
		apperrors.InternalError(c, "")
		return nil, nil, false
	}

	return &storage.File{
		Name:        header.Filename,
		Body:        f,
		Size:        header.Size,
		ContentType: contentType,
	}, f, true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}
