package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

type invitationsRepo struct {
	db dbtx
}

const invitationColumns = `id, token, email, organization_id, role, invited_by_id, invited_by_email,
	status, expires_at, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (domain.Invitation, error) {
	var (
		inv                       domain.Invitation
		role, status              string
		expires, created, updated dbTime
	)
	err := row.Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.OrganizationID, &role,
		&inv.InvitedByID, &inv.InvitedByEmail, &status, &expires, &created, &updated,
	)
	if err != nil {
		return domain.Invitation{}, err
	}
	inv.Role = domain.Role(role)
	inv.Status = domain.InvitationStatus(status)
	inv.ExpiresAt = expires.Time
	inv.CreatedAt = created.Time
	inv.UpdatedAt = updated.Time
	return inv, nil
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invitations (`+invitationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.Token,
		domain.NormalizeEmail(inv.Email),
		inv.OrganizationID,
		string(inv.Role),
		inv.InvitedByID,
		inv.InvitedByEmail,
		string(inv.Status),
		utc(inv.ExpiresAt),
		utc(inv.CreatedAt),
		utc(inv.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = ?`, token,
	)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetOpenInvitationByToken(
	ctx context.Context,
	token string,
	now time.Time,
) (domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE token = ? AND status = 'pending' AND expires_at > ?`,
		token, utc(now),
	)
	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListOpenInvitations(
	ctx context.Context,
	orgID string,
	now time.Time,
) ([]domain.Invitation, error) {
	return r.list(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE organization_id = ? AND status = 'pending' AND expires_at > ?
		 ORDER BY created_at DESC, id DESC`,
		orgID, utc(now),
	)
}

func (r *invitationsRepo) ListPendingInvitations(ctx context.Context) ([]domain.Invitation, error) {
	return r.list(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE status = 'pending'
		 ORDER BY created_at DESC, id DESC`,
	)
}

func (r *invitationsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) ExtendInvitation(ctx context.Context, id string, expiresAt, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE invitations SET expires_at = ?, updated_at = ?
		 WHERE id = ? AND status = 'pending' AND expires_at > ?`,
		utc(expiresAt), utc(now), id, utc(now),
	))
}

func (r *invitationsRepo) TransitionInvitation(
	ctx context.Context,
	id string,
	from, to domain.InvitationStatus,
	now time.Time,
) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE invitations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), utc(now), id, string(from),
	))
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = ?`, id))
}

func (r *invitationsRepo) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET status = 'expired', updated_at = ?
		 WHERE status = 'pending' AND expires_at < ?`,
		utc(now), utc(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
