package domain

import (
	"time"
)

// Entry is a stored credential owned by a single user. Password and
// TOTPSecret hold sealed values while at rest; services open them on read.
type Entry struct {
	ID             string
	OwnerID        string
	OrganizationID string
	Name           string
	Username       string
	Password       string
	URL            string
	Notes          string
	TOTPSecret     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
