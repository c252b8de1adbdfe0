package errors

// Error codes returned in the "error" field. Clients map them to their own
// copy; "message" carries the default Portuguese text.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthWeakPassword       = "AUTH_WEAK_PASSWORD"
	AuthInvalidEmail       = "AUTH_INVALID_EMAIL"
	AuthPasswordMismatch   = "AUTH_PASSWORD_MISMATCH"
	AuthFederatedFailed    = "AUTH_FEDERATED_FAILED"
	AuthFederatedDisabled  = "AUTH_FEDERATED_DISABLED"

	// ==================== AUTHZ_ ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== PRODUCT_ ====================
	ProductNotFound = "PRODUCT_NOT_FOUND"
	ProductInvalid  = "PRODUCT_INVALID"

	// ==================== CART_ ====================
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartSessionRequired = "CART_SESSION_REQUIRED"

	// ==================== UPLOAD_ ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"
	UploadUnavailable     = "UPLOAD_UNAVAILABLE"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalNetworkError  = "INTERNAL_NETWORK_ERROR"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
