package domain

import (
	"strings"
)

// Outcome is the terminal state of a row.
type Outcome string

const (
	OutcomePass   Outcome = "PASS"
	OutcomeFailed Outcome = "FAILED"
)

// ReasonKind classifies why a row failed. The first failing stage wins.
type ReasonKind string

const (
	ReasonMissingRequiredFields ReasonKind = "MISSING_REQUIRED_FIELDS"
	ReasonIdentityFormatInvalid ReasonKind = "IDENTITY_FORMAT_INVALID"
	ReasonIdentityAlreadyExists ReasonKind = "IDENTITY_ALREADY_EXISTS"
	ReasonIdentityOrTypeMissing ReasonKind = "IDENTITY_OR_TYPE_MISSING"
	ReasonEmailMissing          ReasonKind = "EMAIL_MISSING"
	ReasonEmailFormatInvalid    ReasonKind = "EMAIL_FORMAT_INVALID"
	ReasonEmailAlreadyExists    ReasonKind = "EMAIL_ALREADY_EXISTS"
	ReasonReferenceViolation    ReasonKind = "REFERENCE_VIOLATION"
	ReasonGenericInsertFailure  ReasonKind = "GENERIC_INSERT_FAILURE"
	ReasonUnknownError          ReasonKind = "UNKNOWN_ERROR"
	// ReasonValidationIncomplete marks rows whose lookups could not be answered
	// (backend failure or timeout). Never treated as "not found".
	ReasonValidationIncomplete ReasonKind = "VALIDATION_INCOMPLETE"
)

// Report messages.
const (
	MessageIdentityAlreadyExists = "Identity number already exists in database"
	MessageIdentityFormatInvalid = "Invalid identity number format"
	MessageIdentityOrTypeMissing = "Identity number and identity type are required"
	MessageEmailMissing          = "Email is required"
	MessageEmailFormatInvalid    = "Invalid email format"
	MessageEmailAlreadyExists    = "Email already exists"
	MessageInvalidReference      = "Invalid reference ID"
	MessageInsertFailed          = "Failed to insert member data"
	MessageRegistered            = "Member registered successfully"
	MessageValidated             = "Validation passed"
)

// RowError is the failure produced by a single pipeline stage.
type RowError struct {
	Kind    ReasonKind
	Field   string
	Reasons []string
	Err     error
}

func (e *RowError) Error() string {
	return strings.Join(e.Reasons, "; ")
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// MissingFieldsError reports every missing column together.
func MissingFieldsError(columns []string) *RowError {
	return &RowError{
		Kind:    ReasonMissingRequiredFields,
		Reasons: []string{"Missing required fields: " + strings.Join(columns, ", ")},
	}
}
