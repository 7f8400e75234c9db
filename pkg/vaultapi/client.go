package vaultapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a teamvault service. Token, when set, is sent as a bearer
// token on every request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
}

// NewClient returns an unauthenticated client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithToken returns a copy of c that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.Token = token
	return &cp
}

// do sends in (if non-nil) as JSON and decodes the response into out (if
// non-nil). Any status other than want becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, in, out any, want int) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			apiErr.Code = er.Error
			apiErr.Description = er.ErrorDescription
			apiErr.Email = er.Email
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ============================================================================
// Accounts
// ============================================================================

// Register creates an account and returns a client authenticated as it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Client, *SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/register", req, &resp, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return c.WithToken(resp.Token), &resp, nil
}

// Login returns a client authenticated as the given account.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Client, *SessionResponse, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/auth/login", req, &resp, http.StatusOK); err != nil {
		return nil, nil, err
	}
	return c.WithToken(resp.Token), &resp, nil
}

func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	var resp MeResponse
	if err := c.do(ctx, http.MethodGet, "/v1/auth/me", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ============================================================================
// Invitations
// ============================================================================

func (c *Client) CreateInvitation(ctx context.Context, req CreateInvitationRequest) (*InvitationInfo, error) {
	var resp InvitationInfo
	if err := c.do(ctx, http.MethodPost, "/v1/invitations", req, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListInvitations(ctx context.Context, organizationID string) ([]InvitationInfo, error) {
	var resp ListInvitationsResponse
	path := "/v1/invitations?organization_id=" + url.QueryEscape(organizationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Invitations, nil
}

func (c *Client) PreviewInvitation(ctx context.Context, token string) (*InvitationPreview, error) {
	var resp InvitationPreview
	if err := c.do(ctx, http.MethodGet, "/v1/invitations/"+url.PathEscape(token), nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RespondInvitation(ctx context.Context, token string, accept bool) (*RespondInvitationResponse, error) {
	var resp RespondInvitationResponse
	req := RespondInvitationRequest{Accept: accept}
	if err := c.do(ctx, http.MethodPost, "/v1/invitations/"+url.PathEscape(token), req, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ResendInvitation(ctx context.Context, token string) (*InvitationInfo, error) {
	var resp InvitationInfo
	path := "/v1/invitations/" + url.PathEscape(token) + "/resend"
	if err := c.do(ctx, http.MethodPost, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RevokeInvitation(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/v1/invitations/"+url.PathEscape(token), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Team
// ============================================================================

func (c *Client) ListMembers(ctx context.Context, organizationID string) ([]MemberInfo, error) {
	var resp ListMembersResponse
	path := "/v1/team/members?organization_id=" + url.QueryEscape(organizationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

func (c *Client) RemoveMember(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/team/members/"+url.PathEscape(userID), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Shares
// ============================================================================

func (c *Client) CreateShare(ctx context.Context, req CreateShareRequest) (*ShareInfo, error) {
	var resp ShareInfo
	if err := c.do(ctx, http.MethodPost, "/v1/shares", req, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListOutgoingShares lists active shares of the caller's entries; entryID may be empty.
func (c *Client) ListOutgoingShares(ctx context.Context, entryID string) ([]ShareInfo, error) {
	var resp ListSharesResponse
	path := "/v1/shares"
	if entryID != "" {
		path += "?entry_id=" + url.QueryEscape(entryID)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Shares, nil
}

func (c *Client) ListIncomingShares(ctx context.Context) ([]ShareInfo, error) {
	var resp ListSharesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/shares/incoming", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Shares, nil
}

func (c *Client) RevokeShare(ctx context.Context, shareID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/shares/"+url.PathEscape(shareID), nil, nil, http.StatusNoContent)
}

// ============================================================================
// Entries
// ============================================================================

func (c *Client) CreateEntry(ctx context.Context, req EntryRequest) (*EntryInfo, error) {
	var resp EntryInfo
	if err := c.do(ctx, http.MethodPost, "/v1/entries", req, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*EntryInfo, error) {
	var resp EntryInfo
	if err := c.do(ctx, http.MethodGet, "/v1/entries/"+url.PathEscape(id), nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateEntry(ctx context.Context, id string, req EntryRequest) (*EntryInfo, error) {
	var resp EntryInfo
	if err := c.do(ctx, http.MethodPut, "/v1/entries/"+url.PathEscape(id), req, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/entries/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// ListEntries lists the caller's vault; scope is one of ScopeAll, ScopeOwned, ScopeShared.
func (c *Client) ListEntries(ctx context.Context, scope string) ([]EntryInfo, error) {
	var resp ListEntriesResponse
	path := "/v1/entries"
	if scope != "" {
		path += "?scope=" + url.QueryEscape(scope)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// ============================================================================
// Health
// ============================================================================

func (c *Client) Readyz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/readyz", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}
