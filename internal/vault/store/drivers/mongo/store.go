// Package mongo implements store.Store on MongoDB. Transactions require the
// server to run as a replica set.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/store"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	collUsers         = "users"
	collOrganizations = "organizations"
	collInvitations   = "invitations"
	collShares        = "shares"
	collEntries       = "entries"
)

// Store owns one mongo.Client for the life of the process. It is built once
// at startup and passed to whatever needs it.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to uri and verifies the connection before returning.
func NewStore(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Close() error { return s.client.Disconnect(context.Background()) }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Tx starts a multi-document transaction. Commit and Rollback end the session.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, err
	}
	if err := sess.StartTransaction(); err != nil {
		sess.EndSession(ctx)
		return nil, err
	}
	return &txStore{parent: s, sess: sess, ctx: ctx}, nil
}

// WithTx runs fn inside a driver-managed transaction, which retries fn on
// transient transaction errors and commits on success.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(&txStore{parent: s, sess: sess, ctx: sc, managed: true})
	})
	return err
}

func (s *Store) Users() store.Users                 { return newUsersRepo(s.db, nil) }
func (s *Store) Organizations() store.Organizations { return newOrganizationsRepo(s.db, nil) }
func (s *Store) Invitations() store.Invitations     { return newInvitationsRepo(s.db, nil) }
func (s *Store) Shares() store.Shares               { return newSharesRepo(s.db, nil) }
func (s *Store) Entries() store.Entries             { return newEntriesRepo(s.db, nil) }

// scoped binds ctx to sess so repo calls join the transaction.
func scoped(ctx context.Context, sess mongo.Session) context.Context {
	if sess == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, sess)
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}

func mapDuplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func expectMatched(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
