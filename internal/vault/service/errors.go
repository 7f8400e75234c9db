package service

import (
	"errors"
	"fmt"
	"net/mail"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is the parent of every "state already says otherwise" error.
	ErrConflict         = errors.New("conflict")
	ErrAlreadyMember    = fmt.Errorf("%w: user already belongs to this organization", ErrConflict)
	ErrDuplicatePending = fmt.Errorf("%w: a pending invitation already exists for this email", ErrConflict)
	ErrSelfShare        = fmt.Errorf("%w: an entry cannot be shared with its owner", ErrConflict)

	ErrInvalidOrExpired       = errors.New("invitation is invalid or expired")
	ErrUserNotFound           = errors.New("no account exists for the invited email")
	ErrRecipientNotRegistered = errors.New("share recipient has no account")
	ErrEntryNotFound          = errors.New("entry not found")

	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	ErrInvalidRole        = fmt.Errorf("%w: invalid role", ErrInvalidRequest)
	ErrInvalidPassword    = fmt.Errorf("%w: password must be 8-128 characters", ErrInvalidRequest)
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoOrganization     = errors.New("user does not belong to an organization")
)

// UserNotFoundError is returned when an invitation is accepted before its
// invitee has registered. Email lets the caller prompt for registration.
type UserNotFoundError struct {
	Email string
}

func (e *UserNotFoundError) Error() string {
	return "no account exists for " + e.Email
}

func (e *UserNotFoundError) Unwrap() error { return ErrUserNotFound }

// validEmail accepts a bare, already normalized address.
func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
