package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/internal/vault/domain"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/store/drivers/sqlite"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	notices []InvitationNotice
	err     error
}

func (n *recordingNotifier) SendInvitation(_ context.Context, notice InvitationNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) sent() []InvitationNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]InvitationNotice(nil), n.notices...)
}

// fixture wires every service against a private in-memory database and a
// clock the test can move.
type fixture struct {
	st       store.Store
	now      time.Time
	notifier *recordingNotifier

	accounts *AccountService
	orgs     *OrganizationService
	invites  *InvitationService
	shares   *ShareService
	vault    *VaultService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	sealer, err := cryptox.NewSealer([]byte("fixture-master-key"))
	require.NoError(t, err)

	f := &fixture{st: st, now: t0, notifier: &recordingNotifier{}}
	clock := Clock(func() time.Time { return f.now })

	f.accounts = &AccountService{Store: st, Hasher: cryptox.Hasher{Pepper: "pepper"}, Clock: clock}
	f.orgs = &OrganizationService{Store: st, Clock: clock}
	f.invites = &InvitationService{Store: st, Notifier: f.notifier, Clock: clock}
	f.shares = &ShareService{Store: st, Clock: clock}
	f.vault = &VaultService{Store: st, Shares: f.shares, Sealer: sealer, Clock: clock}
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

// register creates an account and returns it as an actor.
func (f *fixture) register(t *testing.T, email string) domain.Actor {
	t.Helper()
	u, _, err := f.accounts.Register(context.Background(), email, "correct horse")
	require.NoError(t, err)
	return domain.ActorFromUser(u)
}

// actor reloads the current view of a user.
func (f *fixture) actor(t *testing.T, userID string) domain.Actor {
	t.Helper()
	a, err := f.accounts.ResolveActor(context.Background(), userID)
	require.NoError(t, err)
	return a
}

// join registers email and brings it into owner's organization with role.
func (f *fixture) join(t *testing.T, owner domain.Actor, email string, role domain.Role) domain.Actor {
	t.Helper()
	ctx := context.Background()

	u := f.register(t, email)
	inv, err := f.invites.Create(ctx, owner, email, role.String())
	require.NoError(t, err)
	_, err = f.invites.Respond(ctx, inv.Token, true)
	require.NoError(t, err)
	return f.actor(t, u.UserID)
}

var errNotifierDown = errors.New("smtp down")
