package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type invitationDoc struct {
	ID             string    `bson:"_id"`
	Token          string    `bson:"token"`
	Email          string    `bson:"email"`
	OrganizationID string    `bson:"organization_id"`
	Role           string    `bson:"role"`
	InvitedByID    string    `bson:"invited_by_id"`
	InvitedByEmail string    `bson:"invited_by_email"`
	Status         string    `bson:"status"`
	ExpiresAt      time.Time `bson:"expires_at"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d invitationDoc) toDomain() domain.Invitation {
	return domain.Invitation{
		ID:             d.ID,
		Token:          d.Token,
		Email:          d.Email,
		OrganizationID: d.OrganizationID,
		Role:           domain.Role(d.Role),
		InvitedByID:    d.InvitedByID,
		InvitedByEmail: d.InvitedByEmail,
		Status:         domain.InvitationStatus(d.Status),
		ExpiresAt:      d.ExpiresAt.UTC(),
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type invitationsRepo struct {
	coll *mongo.Collection
	sess mongo.Session
}

func newInvitationsRepo(db *mongo.Database, sess mongo.Session) *invitationsRepo {
	return &invitationsRepo{coll: db.Collection(collInvitations), sess: sess}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.coll.InsertOne(scoped(ctx, r.sess), invitationDoc{
		ID:             inv.ID,
		Token:          inv.Token,
		Email:          domain.NormalizeEmail(inv.Email),
		OrganizationID: inv.OrganizationID,
		Role:           string(inv.Role),
		InvitedByID:    inv.InvitedByID,
		InvitedByEmail: inv.InvitedByEmail,
		Status:         string(inv.Status),
		ExpiresAt:      inv.ExpiresAt.UTC(),
		CreatedAt:      inv.CreatedAt.UTC(),
		UpdatedAt:      inv.UpdatedAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *invitationsRepo) findOne(ctx context.Context, filter bson.D) (domain.Invitation, error) {
	var doc invitationDoc
	if err := r.coll.FindOne(scoped(ctx, r.sess), filter).Decode(&doc); err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *invitationsRepo) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	return r.findOne(ctx, bson.D{{Key: "token", Value: token}})
}

func (r *invitationsRepo) GetOpenInvitationByToken(
	ctx context.Context,
	token string,
	now time.Time,
) (domain.Invitation, error) {
	return r.findOne(ctx, bson.D{
		{Key: "token", Value: token},
		{Key: "status", Value: string(domain.InvitationPending)},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	})
}

func (r *invitationsRepo) ListOpenInvitations(
	ctx context.Context,
	orgID string,
	now time.Time,
) ([]domain.Invitation, error) {
	return r.find(ctx, bson.D{
		{Key: "organization_id", Value: orgID},
		{Key: "status", Value: string(domain.InvitationPending)},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	})
}

func (r *invitationsRepo) ListPendingInvitations(ctx context.Context) ([]domain.Invitation, error) {
	return r.find(ctx, bson.D{{Key: "status", Value: string(domain.InvitationPending)}})
}

func (r *invitationsRepo) find(ctx context.Context, filter bson.D) ([]domain.Invitation, error) {
	ctx = scoped(ctx, r.sess)
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var docs []invitationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Invitation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *invitationsRepo) ExtendInvitation(ctx context.Context, id string, expiresAt, now time.Time) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: string(domain.InvitationPending)},
			{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "expires_at", Value: expiresAt.UTC()},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	))
}

func (r *invitationsRepo) TransitionInvitation(
	ctx context.Context,
	id string,
	from, to domain.InvitationStatus,
	now time.Time,
) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: string(from)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(to)},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	))
}

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(scoped(ctx, r.sess), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *invitationsRepo) ExpireInvitations(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(scoped(ctx, r.sess),
		bson.D{
			{Key: "status", Value: string(domain.InvitationPending)},
			{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: now.UTC()}}},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(domain.InvitationExpired)},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
