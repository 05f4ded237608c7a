package models

import "fmt"

// Stable machine-readable error codes returned to clients.
const (
	CodeDecodeFailed        = "decode_failed"
	CodeUnsupportedDatum    = "unsupported_datum"
	CodeDuplicatePerceptual = "duplicate_perceptual_hash"
	CodeDuplicateUniqueID   = "duplicate_unique_id"
	CodeDuplicateAddressing = "duplicate_addressing_hash"
	CodeRelocationFailed    = "relocation_failed"
	CodePyramidBuildFailed  = "pyramid_build_failed"
	CodeNotFound            = "not_found"
	CodeValidationFailed    = "validation_failed"
	CodeStorageFailed       = "storage_failed"
)

// Error types for the ingestion and retrieval pipelines
type (
	// DecodeError means the uploaded bytes could not be decoded as an image.
	// Fatal for the upload; no record is created.
	DecodeError struct {
		Filename string `json:"filename"`
		Reason   string `json:"reason"`
	}

	// UnsupportedDatumError means the GPS map datum is not the accepted one.
	// Fatal for the upload.
	UnsupportedDatumError struct {
		Datum    string `json:"datum"`
		Accepted string `json:"accepted"`
	}

	// DuplicateError means an ingestion conflicts with an existing record.
	// Field names which identity collided; the existing record is untouched.
	DuplicateError struct {
		Field string `json:"field"` // "perceptual_hash", "unique_id" or "addressing_hash"
		Value string `json:"value"`
	}

	// RelocationError means the staged file could not be moved into the store.
	// Fatal; no upsert may follow it.
	RelocationError struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
		Reason      string `json:"reason"`
	}

	// PyramidBuildError means tile generation failed after the record was
	// committed. The record stands; tile reads report NotFound.
	PyramidBuildError struct {
		Hash   string `json:"hash"`
		Reason string `json:"reason"`
	}

	// NotFoundError covers every retrieval miss: unknown hash, absent
	// archive, absent member, out-of-range coordinates.
	NotFoundError struct {
		Resource string `json:"resource"`
		ID       string `json:"id"`
	}

	// ValidationError represents invalid request input
	ValidationError struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}

	// StorageError represents a record store or filesystem failure
	StorageError struct {
		Operation string `json:"operation"`
		Backend   string `json:"backend"`
		Reason    string `json:"reason"`
	}
)

func (e DecodeError) Error() string {
	return fmt.Sprintf("cannot decode image '%s': %s", e.Filename, e.Reason)
}

func (e DecodeError) Code() string { return CodeDecodeFailed }

func (e UnsupportedDatumError) Error() string {
	return fmt.Sprintf("unsupported GPS map datum '%s' (accepted: %s)", e.Datum, e.Accepted)
}

func (e UnsupportedDatumError) Code() string { return CodeUnsupportedDatum }

func (e DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s '%s' already stored", e.Field, e.Value)
}

func (e DuplicateError) Code() string {
	switch e.Field {
	case "perceptual_hash":
		return CodeDuplicatePerceptual
	case "unique_id":
		return CodeDuplicateUniqueID
	default:
		return CodeDuplicateAddressing
	}
}

func (e RelocationError) Error() string {
	return fmt.Sprintf("failed to relocate '%s' to '%s': %s", e.Source, e.Destination, e.Reason)
}

func (e RelocationError) Code() string { return CodeRelocationFailed }

func (e PyramidBuildError) Error() string {
	return fmt.Sprintf("failed to build tile pyramid for %s: %s", e.Hash, e.Reason)
}

func (e PyramidBuildError) Code() string { return CodePyramidBuildFailed }

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e NotFoundError) Code() string { return CodeNotFound }

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e ValidationError) Code() string { return CodeValidationFailed }

func (e StorageError) Error() string {
	return fmt.Sprintf("storage error during %s on %s: %s", e.Operation, e.Backend, e.Reason)
}

func (e StorageError) Code() string { return CodeStorageFailed }

// IsNotFound reports whether err is a retrieval miss
func IsNotFound(err error) bool {
	_, ok := err.(NotFoundError)
	return ok
}

// Coder is implemented by every error in the taxonomy
type Coder interface {
	Code() string
}

// ErrorCode returns the stable code for err, or "internal_error" for
// anything outside the taxonomy.
func ErrorCode(err error) string {
	if c, ok := err.(Coder); ok {
		return c.Code()
	}
	return "internal_error"
}

// ErrorResponse is the wire shape for all user-visible failures
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
