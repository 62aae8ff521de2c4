package errors

// Error codes returned in API responses.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map user-facing text from the code.

const (
	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Businesses (BUSINESS_) ====================
	BusinessNotFound       = "BUSINESS_NOT_FOUND"
	BusinessNameExists     = "BUSINESS_NAME_EXISTS"
	BusinessUpdateConflict = "BUSINESS_UPDATE_CONFLICT"
	BusinessInactive       = "BUSINESS_INACTIVE"
	BusinessHeaderRequired = "BUSINESS_HEADER_REQUIRED"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
)
