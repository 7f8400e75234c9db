package mongo

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/teamvault/internal/vault/store"

	"go.mongodb.org/mongo-driver/mongo"
)

var errNestedTx = errors.New("mongo: nested transactions are not supported")

type txStore struct {
	parent *Store
	sess   mongo.Session
	ctx    context.Context

	// managed transactions are committed or aborted by WithTransaction.
	managed bool
	done    bool
}

func (t *txStore) Commit() error {
	if t.managed || t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.CommitTransaction(t.ctx)
}

func (t *txStore) Rollback() error {
	if t.managed || t.done {
		return nil
	}
	t.done = true
	defer t.sess.EndSession(t.ctx)
	return t.sess.AbortTransaction(t.ctx)
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return errNestedTx
}

func (t *txStore) ApplyMigrations(ctx context.Context) error { return nil }

func (t *txStore) Users() store.Users {
	return newUsersRepo(t.parent.db, t.sess)
}

func (t *txStore) Organizations() store.Organizations {
	return newOrganizationsRepo(t.parent.db, t.sess)
}

func (t *txStore) Invitations() store.Invitations {
	return newInvitationsRepo(t.parent.db, t.sess)
}

func (t *txStore) Shares() store.Shares {
	return newSharesRepo(t.parent.db, t.sess)
}

func (t *txStore) Entries() store.Entries {
	return newEntriesRepo(t.parent.db, t.sess)
}
