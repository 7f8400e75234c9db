package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type organizationDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	OwnerID   string    `bson:"owner_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type organizationsRepo struct {
	coll *mongo.Collection
	sess mongo.Session
}

func newOrganizationsRepo(db *mongo.Database, sess mongo.Session) *organizationsRepo {
	return &organizationsRepo{coll: db.Collection(collOrganizations), sess: sess}
}

func (r *organizationsRepo) CreateOrganization(ctx context.Context, o domain.Organization) error {
	_, err := r.coll.InsertOne(scoped(ctx, r.sess), organizationDoc{
		ID:        o.ID,
		Name:      o.Name,
		OwnerID:   o.OwnerID,
		CreatedAt: o.CreatedAt.UTC(),
		UpdatedAt: o.UpdatedAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *organizationsRepo) GetOrganizationByID(ctx context.Context, id string) (domain.Organization, error) {
	var doc organizationDoc
	err := r.coll.FindOne(scoped(ctx, r.sess), bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		return domain.Organization{}, mapNotFound(err)
	}
	return domain.Organization{
		ID:        doc.ID,
		Name:      doc.Name,
		OwnerID:   doc.OwnerID,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}, nil
}
