package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. The panel maps these to messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // sign-in required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthSignupDisabled     = "AUTH_SIGNUP_DISABLED"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"
	ResourceInUse         = "RESOURCE_IN_USE" // still referenced by another row

	// ==================== Catalog ====================
	CategoryNotFound    = "CATEGORY_NOT_FOUND"
	CategoryInUse       = "CATEGORY_IN_USE"
	BrandNotFound       = "BRAND_NOT_FOUND"
	BrandInUse          = "BRAND_IN_USE"
	ProductNotFound     = "PRODUCT_NOT_FOUND"
	CertificateNotFound = "CERTIFICATE_NOT_FOUND"
	UserNotFound        = "USER_NOT_FOUND"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalDatabase    = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API_ERROR" // object storage or redis unreachable
)
