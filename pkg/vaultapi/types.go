package vaultapi

import "time"

// ============================================================================
// Common
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is a machine readable code, see the ErrorCode constants.
	Error string `json:"error"`

	// ErrorDescription is a human readable description of the error.
	ErrorDescription string `json:"error_description"`

	// Email is set with user_not_found so the caller can prompt registration.
	Email string `json:"email,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

// ============================================================================
// Accounts
// ============================================================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login. The token is also set
// as the pm_token cookie.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      UserInfo  `json:"user"`
}

type UserInfo struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           string    `json:"role,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type OrganizationInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// MeResponse describes the caller and their current organization.
type MeResponse struct {
	User         UserInfo          `json:"user"`
	Organization *OrganizationInfo `json:"organization,omitempty"`
}

// ============================================================================
// Invitations
// ============================================================================

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InvitationInfo is the view of an invitation given to organization managers.
type InvitationInfo struct {
	ID             string    `json:"id"`
	Token          string    `json:"token"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	InvitedByEmail string    `json:"invited_by_email,omitempty"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type ListInvitationsResponse struct {
	Invitations []InvitationInfo `json:"invitations"`
}

// InvitationPreview is what the holder of an invitation link can see.
type InvitationPreview struct {
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	OrganizationID   string    `json:"organization_id"`
	OrganizationName string    `json:"organization_name"`
	InviterLabel     string    `json:"inviter"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type RespondInvitationRequest struct {
	Accept bool `json:"accept"`
}

type RespondInvitationResponse struct {
	Status         string `json:"status"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role,omitempty"`

	// Switched is true when accepting moved the user out of another
	// organization; PreviousOrganizationID names it.
	Switched               bool   `json:"switched"`
	PreviousOrganizationID string `json:"previous_organization_id,omitempty"`
}

// ============================================================================
// Team
// ============================================================================

type MemberInfo struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type ListMembersResponse struct {
	Members []MemberInfo `json:"members"`
}

// ============================================================================
// Shares
// ============================================================================

type CreateShareRequest struct {
	EntryID string `json:"entry_id"`
	ToEmail string `json:"to_email"`
}

type ShareInfo struct {
	ID          string    `json:"id"`
	EntryID     string    `json:"entry_id"`
	FromUserID  string    `json:"from_user_id"`
	FromEmail   string    `json:"from_email"`
	ToUserID    string    `json:"to_user_id"`
	ToEmail     string    `json:"to_email"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListSharesResponse struct {
	Shares []ShareInfo `json:"shares"`
}

// ============================================================================
// Entries
// ============================================================================

// Entry list scopes.
const (
	ScopeAll    = "all"
	ScopeOwned  = "owned"
	ScopeShared = "shared"
)

// EntryRequest creates or replaces an entry. TOTPSecret is a base32 secret
// as shown by most authenticator enrolment screens.
type EntryRequest struct {
	Name       string `json:"name"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	URL        string `json:"url,omitempty"`
	Notes      string `json:"notes,omitempty"`
	TOTPSecret string `json:"totp_secret,omitempty"`
}

type EntryInfo struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`

	// TOTPCode is the current one-time code when the entry has a TOTP secret.
	TOTPCode string `json:"totp_code,omitempty"`

	// Shared entries were reached through a share and are read-only.
	Shared   bool   `json:"shared"`
	SharedBy string `json:"shared_by,omitempty"`
	ShareID  string `json:"share_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListEntriesResponse struct {
	Entries []EntryInfo `json:"entries"`
}
