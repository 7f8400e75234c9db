package sqlite

import (
	"context"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
)

type organizationsRepo struct {
	db dbtx
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.OwnerID, utc(o.CreatedAt), utc(o.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var (
		o                domain.Organization
		created, updated dbTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &o.OwnerID, &created, &updated)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	o.CreatedAt = created.Time
	o.UpdatedAt = updated.Time
	return o, nil
}
