package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Email          string    `bson:"email"`
	PasswordHash   string    `bson:"password_hash"`
	OrganizationID string    `bson:"organization_id,omitempty"`
	Role           string    `bson:"role,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:             d.ID,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		OrganizationID: d.OrganizationID,
		Role:           domain.Role(d.Role),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type usersRepo struct {
	coll *mongo.Collection
	sess mongo.Session
}

func newUsersRepo(db *mongo.Database, sess mongo.Session) *usersRepo {
	return &usersRepo{coll: db.Collection(collUsers), sess: sess}
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.coll.InsertOne(scoped(ctx, r.sess), userDoc{
		ID:             u.ID,
		Email:          domain.NormalizeEmail(u.Email),
		PasswordHash:   u.PasswordHash,
		OrganizationID: u.OrganizationID,
		Role:           string(u.Role),
		CreatedAt:      u.CreatedAt.UTC(),
		UpdatedAt:      u.UpdatedAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.D) (domain.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(scoped(ctx, r.sess), filter).Decode(&doc); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	return r.find(ctx, bson.D{})
}

func (r *usersRepo) ListUsersByOrganization(ctx context.Context, orgID string) ([]domain.User, error) {
	return r.find(ctx, bson.D{{Key: "organization_id", Value: orgID}})
}

func (r *usersRepo) find(ctx context.Context, filter bson.D) ([]domain.User, error) {
	ctx = scoped(ctx, r.sess)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *usersRepo) SetOrganization(
	ctx context.Context,
	userID, orgID string,
	role domain.Role,
	now time.Time,
) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "organization_id", Value: orgID},
			{Key: "role", Value: string(role)},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	))
}

func (r *usersRepo) ClearOrganization(ctx context.Context, userID string, now time.Time) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: userID}},
		bson.D{
			{Key: "$unset", Value: bson.D{{Key: "organization_id", Value: ""}, {Key: "role", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: now.UTC()}}},
		},
	))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, now time.Time) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: hash},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	))
}
