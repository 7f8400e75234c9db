package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

type sharesRepo struct {
	db dbtx
}

const shareColumns = `id, entry_id, from_user_id, from_email, to_user_id, to_email,
	permissions, status, created_at, updated_at`

func scanShare(row interface{ Scan(...any) error }) (domain.Share, error) {
	var (
		s                   domain.Share
		permissions, status string
		created, updated    dbTime
	)
	err := row.Scan(
		&s.ID, &s.EntryID, &s.FromUserID, &s.FromEmail, &s.ToUserID, &s.ToEmail,
		&permissions, &status, &created, &updated,
	)
	if err != nil {
		return domain.Share{}, err
	}
	s.Permissions = splitPermissions(permissions)
	s.Status = domain.ShareStatus(status)
	s.CreatedAt = created.Time
	s.UpdatedAt = updated.Time
	return s, nil
}

// UpsertShare relies on the unique (entry_id, to_user_id) index: a conflicting
// insert turns into an update of the existing row, keeping its id and
// created_at, so concurrent shares of the same pair converge on one row.
func (r *sharesRepo) UpsertShare(ctx context.Context, s domain.Share) (domain.Share, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO shares (`+shareColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'active', ?, ?)
		 ON CONFLICT (entry_id, to_user_id) DO UPDATE SET
		     from_user_id = excluded.from_user_id,
		     from_email   = excluded.from_email,
		     to_email     = excluded.to_email,
		     permissions  = excluded.permissions,
		     status       = 'active',
		     updated_at   = excluded.updated_at
		 RETURNING `+shareColumns,
		s.ID,
		s.EntryID,
		s.FromUserID,
		domain.NormalizeEmail(s.FromEmail),
		s.ToUserID,
		domain.NormalizeEmail(s.ToEmail),
		joinPermissions(s.Permissions),
		utc(s.CreatedAt),
		utc(s.UpdatedAt),
	)
	out, err := scanShare(row)
	if err != nil {
		return domain.Share{}, mapConstraint(err)
	}
	return out, nil
}

func (r *sharesRepo) GetShareByID(ctx context.Context, id string) (domain.Share, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+shareColumns+` FROM shares WHERE id = ?`, id)
	s, err := scanShare(row)
	if err != nil {
		return domain.Share{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sharesRepo) GetActiveShare(ctx context.Context, entryID, toUserID string) (domain.Share, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+shareColumns+` FROM shares
		 WHERE entry_id = ? AND to_user_id = ? AND status = 'active'`,
		entryID, toUserID,
	)
	s, err := scanShare(row)
	if err != nil {
		return domain.Share{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sharesRepo) RevokeShare(ctx context.Context, id, fromUserID string, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE shares SET status = 'revoked', updated_at = ? WHERE id = ? AND from_user_id = ?`,
		utc(now), id, fromUserID,
	))
}

func (r *sharesRepo) RevokeEntryShares(ctx context.Context, entryID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE shares SET status = 'revoked', updated_at = ? WHERE entry_id = ? AND status = 'active'`,
		utc(now), entryID,
	)
	return err
}

func (r *sharesRepo) ListOutgoingShares(ctx context.Context, fromUserID, entryID string) ([]domain.Share, error) {
	if entryID != "" {
		return r.list(ctx,
			`SELECT `+shareColumns+` FROM shares
			 WHERE from_user_id = ? AND entry_id = ? AND status = 'active'
			 ORDER BY created_at DESC, id DESC`,
			fromUserID, entryID,
		)
	}
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM shares
		 WHERE from_user_id = ? AND status = 'active'
		 ORDER BY created_at DESC, id DESC`,
		fromUserID,
	)
}

func (r *sharesRepo) ListIncomingShares(ctx context.Context, toUserID string) ([]domain.Share, error) {
	return r.list(ctx,
		`SELECT `+shareColumns+` FROM shares
		 WHERE to_user_id = ? AND status = 'active'
		 ORDER BY created_at DESC, id DESC`,
		toUserID,
	)
}

func (r *sharesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Share, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Share
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
