// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess         = "success"
	KeyError           = "error"
	KeyRequestInvalid  = "request.invalid"
	KeyInternalError   = "request.internal_error"
	KeyTooManyRequests = "request.too_many"

	// Sessions
	KeySessionRequired = "session.required"
	KeySessionInvalid  = "session.invalid_token"
	KeySessionMismatch = "session.mismatch"
	KeySessionFrozen   = "session.frozen"
	KeySessionDone     = "session.completed"

	// Wizard
	KeyStepBlocked       = "wizard.step_blocked"
	KeyUnknownSection    = "wizard.unknown_section"
	KeyUnknownStep       = "wizard.unknown_step"
	KeyInactiveVariant   = "wizard.inactive_variant"
	KeyRegistryNotLoaded = "wizard.registry_not_loaded"
	KeyNotAtConfirmation = "wizard.not_at_confirmation"
	KeyUnknownKind       = "wizard.unknown_kind"

	// Violations, suffixed with the reason
	KeyViolationPrefix = "violation."

	// Lookups
	KeyLookupNotFound       = "lookup.not_found"
	KeyLookupFailed         = "lookup.failed"
	KeyLookupInvalidCompany = "lookup.invalid_company_id"
	KeyLookupInvalidPostal  = "lookup.invalid_postal_code"

	// Uploads
	KeyUploadTooLarge        = "upload.too_large"
	KeyUploadTypeNotAllowed  = "upload.type_not_allowed"
	KeyUploadUnknownCategory = "upload.unknown_category"
	KeyUploadMissingFile     = "upload.missing_file"
	KeyUploadFailed          = "upload.failed"

	// Submission
	KeySubmissionFailed   = "submission.failed"
	KeyNotificationFailed = "submission.notification_failed"
	KeySubmissionReceived = "submission.received"
)
