package mongo

import (
	"context"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type entryDoc struct {
	ID             string    `bson:"_id"`
	OwnerID        string    `bson:"owner_id"`
	OrganizationID string    `bson:"organization_id,omitempty"`
	Name           string    `bson:"name"`
	Username       string    `bson:"username"`
	Password       string    `bson:"password"`
	URL            string    `bson:"url"`
	Notes          string    `bson:"notes"`
	TOTPSecret     string    `bson:"totp_secret"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d entryDoc) toDomain() domain.Entry {
	return domain.Entry{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		OrganizationID: d.OrganizationID,
		Name:           d.Name,
		Username:       d.Username,
		Password:       d.Password,
		URL:            d.URL,
		Notes:          d.Notes,
		TOTPSecret:     d.TOTPSecret,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type entriesRepo struct {
	coll *mongo.Collection
	sess mongo.Session
}

func newEntriesRepo(db *mongo.Database, sess mongo.Session) *entriesRepo {
	return &entriesRepo{coll: db.Collection(collEntries), sess: sess}
}

func (r *entriesRepo) CreateEntry(ctx context.Context, e domain.Entry) error {
	_, err := r.coll.InsertOne(scoped(ctx, r.sess), entryDoc{
		ID:             e.ID,
		OwnerID:        e.OwnerID,
		OrganizationID: e.OrganizationID,
		Name:           e.Name,
		Username:       e.Username,
		Password:       e.Password,
		URL:            e.URL,
		Notes:          e.Notes,
		TOTPSecret:     e.TOTPSecret,
		CreatedAt:      e.CreatedAt.UTC(),
		UpdatedAt:      e.UpdatedAt.UTC(),
	})
	return mapDuplicate(err)
}

func (r *entriesRepo) GetEntryByID(ctx context.Context, id string) (domain.Entry, error) {
	var doc entryDoc
	if err := r.coll.FindOne(scoped(ctx, r.sess), bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		return domain.Entry{}, mapNotFound(err)
	}
	return doc.toDomain(), nil
}

func (r *entriesRepo) ListEntriesByOwner(ctx context.Context, ownerID string) ([]domain.Entry, error) {
	return r.find(ctx, bson.D{{Key: "owner_id", Value: ownerID}})
}

func (r *entriesRepo) ListEntriesByIDs(ctx context.Context, ids []string) ([]domain.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
}

var recentlyUpdatedFirst = bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *entriesRepo) find(ctx context.Context, filter bson.D) ([]domain.Entry, error) {
	ctx = scoped(ctx, r.sess)
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(recentlyUpdatedFirst))
	if err != nil {
		return nil, err
	}
	var docs []entryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *entriesRepo) UpdateEntry(ctx context.Context, e domain.Entry) error {
	return expectMatched(r.coll.UpdateOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: e.ID}, {Key: "owner_id", Value: e.OwnerID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "name", Value: e.Name},
			{Key: "username", Value: e.Username},
			{Key: "password", Value: e.Password},
			{Key: "url", Value: e.URL},
			{Key: "notes", Value: e.Notes},
			{Key: "totp_secret", Value: e.TOTPSecret},
			{Key: "updated_at", Value: e.UpdatedAt.UTC()},
		}}},
	))
}

func (r *entriesRepo) DeleteEntry(ctx context.Context, id, ownerID string) error {
	res, err := r.coll.DeleteOne(scoped(ctx, r.sess),
		bson.D{{Key: "_id", Value: id}, {Key: "owner_id", Value: ownerID}},
	)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mapNotFound(mongo.ErrNoDocuments)
	}
	return nil
}
