package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ApplyMigrations creates the collections' indexes. CreateMany is a no-op for
// indexes that already exist with the same name and options.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	sets := map[string][]mongo.IndexModel{
		collUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
			},
			{
				Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: 1}},
				Options: options.Index().SetName("idx_users_org"),
			},
		},
		collInvitations: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_invitations_token"),
			},
			{
				// At most one pending invitation per (organization, email).
				Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_invitations_pending").
					SetPartialFilterExpression(bson.D{{Key: "status", Value: "pending"}}),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "expires_at", Value: 1}},
				Options: options.Index().SetName("idx_invitations_status_expiry"),
			},
		},
		collShares: {
			{
				Keys:    bson.D{{Key: "entry_id", Value: 1}, {Key: "to_user_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_shares_entry_recipient"),
			},
			{
				Keys:    bson.D{{Key: "from_user_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_shares_from"),
			},
			{
				Keys:    bson.D{{Key: "to_user_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_shares_to"),
			},
		},
		collEntries: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_entries_owner"),
			},
		},
	}

	for coll, models := range sets {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: ensure %s indexes: %w", coll, err)
		}
	}

	// Collections must exist before they can be written inside a transaction
	// on older servers; creating the indexes above also creates them, except
	// for organizations which has none.
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collOrganizations}})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		if err := s.db.CreateCollection(ctx, collOrganizations); err != nil {
			return fmt.Errorf("mongo: create %s: %w", collOrganizations, err)
		}
	}

	return nil
}
