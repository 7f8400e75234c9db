package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

type entriesRepo struct {
	db dbtx
}

const entryColumns = `id, owner_id, organization_id, name, username, password, url, notes,
	totp_secret, created_at, updated_at`

func scanEntry(row interface{ Scan(...any) error }) (domain.Entry, error) {
	var (
		e                domain.Entry
		orgID            sql.NullString
		created, updated dbTime
	)
	err := row.Scan(
		&e.ID, &e.OwnerID, &orgID, &e.Name, &e.Username, &e.Password, &e.URL, &e.Notes,
		&e.TOTPSecret, &created, &updated,
	)
	if err != nil {
		return domain.Entry{}, err
	}
	e.OrganizationID = mapNullString(orgID)
	e.CreatedAt = created.Time
	e.UpdatedAt = updated.Time
	return e, nil
}

func (r *entriesRepo) CreateEntry(ctx context.Context, e domain.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.OwnerID,
		mapStringNull(e.OrganizationID),
		e.Name,
		e.Username,
		e.Password,
		e.URL,
		e.Notes,
		e.TOTPSecret,
		utc(e.CreatedAt),
		utc(e.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *entriesRepo) GetEntryByID(ctx context.Context, id string) (domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return domain.Entry{}, mapNotFound(err)
	}
	return e, nil
}

func (r *entriesRepo) ListEntriesByOwner(ctx context.Context, ownerID string) ([]domain.Entry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE owner_id = ? ORDER BY updated_at DESC, id DESC`,
		ownerID,
	)
}

func (r *entriesRepo) ListEntriesByIDs(ctx context.Context, ids []string) ([]domain.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
}

func (r *entriesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *entriesRepo) UpdateEntry(ctx context.Context, e domain.Entry) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE entries
		 SET name = ?, username = ?, password = ?, url = ?, notes = ?, totp_secret = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		e.Name, e.Username, e.Password, e.URL, e.Notes, e.TOTPSecret, utc(e.UpdatedAt),
		e.ID, e.OwnerID,
	))
}

func (r *entriesRepo) DeleteEntry(ctx context.Context, id, ownerID string) error {
	return expectOne(r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE id = ? AND owner_id = ?`, id, ownerID,
	))
}
