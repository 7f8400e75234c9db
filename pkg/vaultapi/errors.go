package vaultapi

import (
	"errors"
	"fmt"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest         = "invalid_request"
	ErrorCodeUnauthorized           = "unauthorized"
	ErrorCodeInvalidCredentials     = "invalid_credentials"
	ErrorCodeEmailTaken             = "email_taken"
	ErrorCodeForbidden              = "forbidden"
	ErrorCodeNotFound               = "not_found"
	ErrorCodeNoOrganization         = "no_organization"
	ErrorCodeAlreadyMember          = "already_member"
	ErrorCodeDuplicatePending       = "duplicate_pending"
	ErrorCodeSelfShare              = "self_share"
	ErrorCodeInvalidOrExpired       = "invalid_or_expired"
	ErrorCodeUserNotFound           = "user_not_found"
	ErrorCodeRecipientNotRegistered = "recipient_not_registered"
	ErrorCodeEntryNotFound          = "entry_not_found"
	ErrorCodeRateLimited            = "rate_limit_exceeded"
	ErrorCodeServerError            = "server_error"
)

// APIError is a decoded non-2xx response.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Email       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vaultapi: %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
