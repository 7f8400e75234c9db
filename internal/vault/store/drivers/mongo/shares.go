package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type shareDoc struct {
	ID          string    `bson:"_id"`
	EntryID     string    `bson:"entry_id"`
	FromUserID  string    `bson:"from_user_id"`
	FromEmail   string    `bson:"from_email"`
	ToUserID    string    `bson:"to_user_id"`
	ToEmail     string    `bson:"to_email"`
	Permissions []string  `bson:"permissions"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d shareDoc) toDomain() domain.Share {
	perms := make([]domain.SharePermission, 0, len(d.Permissions))
	for _, p := range d.Permissions {
		perms = append(perms, domain.SharePermission(p))
	}
	return domain.Share{
		ID:          d.ID,
		EntryID:     d.EntryID,
		FromUserID:  d.FromUserID,
		FromEmail:   d.FromEmail,
		ToUserID:    d.ToUserID,
		ToEmail:     d.ToEmail,
		Permissions: perms,
		Status:      domain.ShareStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

type sharesRepo struct {
	coll *mongo.Collection
	sess mongo.Session
}

func newSharesRepo(db *mongo.Database, sess mongo.Session) *sharesRepo {
	return &sharesRepo{coll: db.Collection(collShares), sess: sess}
}

// UpsertShare is one findAndModify with upsert. Two concurrent upserts of a
// new pair can both miss and race on insert; the loser hits the unique index
// and a single retry then matches the winner's row.
func (r *sharesRepo) UpsertShare(ctx context.Context, s domain.Share) (domain.Share, error) {
	ctx = scoped(ctx, r.sess)

	perms := make([]string, 0, len(s.Permissions))
	for _, p := range s.Permissions {
		perms = append(perms, string(p))
	}

	filter := bson.D{{Key: "entry_id", Value: s.EntryID}, {Key: "to_user_id", Value: s.ToUserID}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "from_user_id", Value: s.FromUserID},
			{Key: "from_email", Value: domain.NormalizeEmail(s.FromEmail)},
			{Key: "to_email", Value: domain.NormalizeEmail(s.ToEmail)},
			{Key: "permissions", Value: perms},
			{Key: "status", Value: string(domain.ShareActive)},
			{Key: "updated_at", Value: s.UpdatedAt.UTC()},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: s.ID},
			{Key: "created_at", Value: s.CreatedAt.UTC()},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc shareDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return domain.Share{}, mapDuplicate(err)
	}
	return doc.toDomain(), nil
}

func (r *sharesRepo) findOne(ctx context.Context, filter bson.D) (domain.Share, error) {
	var doc shareDoc
	if err := r.coll.FindOne(scoped(ctx, r.sess), filter).Decode(&doc); err != nil {
		return domain.Share{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *sharesRepo) GetShareByID(ctx context.Context, id string) (domain.Share, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *sharesRepo) GetActiveShare(ctx context.Context, entryID, toUserID string) (domain.Share, error) {
	return r.findOne(ctx, bson.D{
		{Key: "entry_id", Value: entryID},
		{Key: "to_user_id", Value: toUserID},
		{Key: "status", Value: string(domain.ShareActive)},
	})
}

func (r *sharesRepo) RevokeShare(ctx context.Context, id, fromUserID string, now time.Time) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: id}, {Key: "from_user_id", Value: fromUserID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(domain.ShareRevoked)},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	))
}

func (r *sharesRepo) RevokeEntryShares(ctx context.Context, entryID string, now time.Time) error {
	_, err := r.coll.UpdateMany(scoped(ctx, r.sess),
		bson.D{{Key: "entry_id", Value: entryID}, {Key: "status", Value: string(domain.ShareActive)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: string(domain.ShareRevoked)},
			{Key: "updated_at", Value: now.UTC()},
		}}},
	)
	return err
}

func (r *sharesRepo) ListOutgoingShares(ctx context.Context, fromUserID, entryID string) ([]domain.Share, error) {
	filter := bson.D{
		{Key: "from_user_id", Value: fromUserID},
		{Key: "status", Value: string(domain.ShareActive)},
	}
	if entryID != "" {
		filter = append(filter, bson.E{Key: "entry_id", Value: entryID})
	}
	return r.find(ctx, filter)
}

func (r *sharesRepo) ListIncomingShares(ctx context.Context, toUserID string) ([]domain.Share, error) {
	return r.find(ctx, bson.D{
		{Key: "to_user_id", Value: toUserID},
		{Key: "status", Value: string(domain.ShareActive)},
	})
}

func (r *sharesRepo) find(ctx context.Context, filter bson.D) ([]domain.Share, error) {
	ctx = scoped(ctx, r.sess)
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var docs []shareDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Share, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
