package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, organization_id, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                domain.User
		orgID, role      sql.NullString
		created, updated dbTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &orgID, &role, &created, &updated); err != nil {
		return domain.User{}, err
	}
	u.OrganizationID = mapNullString(orgID)
	u.Role = domain.Role(mapNullString(role))
	u.CreatedAt = created.Time
	u.UpdatedAt = updated.Time
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		domain.NormalizeEmail(u.Email),
		u.PasswordHash,
		mapStringNull(u.OrganizationID),
		mapStringNull(string(u.Role)),
		utc(u.CreatedAt),
		utc(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`,
		domain.NormalizeEmail(email),
	)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
}

func (r *usersRepo) ListUsersByOrganization(ctx context.Context, orgID string) ([]domain.User, error) {
	return r.list(ctx,
		`SELECT `+userColumns+` FROM users WHERE organization_id = ? ORDER BY created_at, id`,
		orgID,
	)
}

func (r *usersRepo) list(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) SetOrganization(
	ctx context.Context,
	userID, orgID string,
	role domain.Role,
	now time.Time,
) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET organization_id = ?, role = ?, updated_at = ? WHERE id = ?`,
		orgID, string(role), utc(now), userID,
	))
}

func (r *usersRepo) ClearOrganization(ctx context.Context, userID string, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET organization_id = NULL, role = NULL, updated_at = ? WHERE id = ?`,
		utc(now), userID,
	))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, utc(now), userID,
	))
}
