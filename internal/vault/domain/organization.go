package domain

import (
	"strings"
	"time"
)

type Organization struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkspaceName is the name given to the organization provisioned at
// registration, e.g. "alice's Workspace" for alice@example.com.
func WorkspaceName(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		local = "Team"
	}
	return local + "'s Workspace"
}
