package domain

import "errors"

var (
	// ErrOrderNotFound is the normal zero-result outcome of a token lookup.
	ErrOrderNotFound = errors.New("order not found")

	// ErrCredentialRejected is returned by the identity client when the
	// stored bearer credential is expired or invalid.
	ErrCredentialRejected = errors.New("credential rejected")
)

// ValidationError is a local, pre-network rejection. It is never produced
// by a collaborator service.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// AuthenticationError is an identity service rejection of a login or of a
// privileged call. The session is never left partially updated.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Message
}

// RegistrationError is an identity service rejection of a new registration.
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string {
	return "registration failed: " + e.Message
}

// UploadError aborts a checkout before any order is created.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return "attachment upload failed: " + e.Message
}

// SubmissionError is an order service rejection. The cart is left intact so
// the shopper can retry.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	return "order submission failed: " + e.Message
}

// IntegrityError flags a collaborator response that violates an invariant,
// e.g. two order records sharing one token. Callers log it and proceed
// with the first record rather than halt.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return "data integrity: " + e.Message
}
