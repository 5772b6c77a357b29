package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
	"github.com/saikhaykhunmong/strapi-nextts/internal/session"
	"github.com/saikhaykhunmong/strapi-nextts/internal/storage"
)

type stubIdentity struct {
	profile domain.Profile
}

func (s *stubIdentity) Login(context.Context, string, string) (string, *domain.Profile, error) {
	p := s.profile
	return "token-1", &p, nil
}

func (s *stubIdentity) Register(context.Context, string, string, string) (string, *domain.Profile, error) {
	p := s.profile
	return "token-1", &p, nil
}

func (s *stubIdentity) Me(context.Context, string) (*domain.Profile, error) {
	p := s.profile
	return &p, nil
}

func (s *stubIdentity) Update(context.Context, string, int64, session.ProfileUpdate) (*domain.Profile, error) {
	p := s.profile
	return &p, nil
}

func TestWatchSession_LogoutWipesCartAndPersistedRecord(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	sessions := session.NewStore(kv, &stubIdentity{profile: domain.Profile{ID: 7, Username: "amara"}}, testLogger())
	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))

	sut := NewStore(kv, testLogger())
	stop := sut.WatchSession(sessions)
	defer stop()

	require.NoError(t, sut.AddItem(ctx, product(1, 100), 1))
	require.NoError(t, sut.AddItem(ctx, product(2, 200), 1))

	require.NoError(t, sessions.Logout(ctx))

	require.Eventually(t, func() bool {
		return len(sut.Lines()) == 0 && !kv.has(storage.CartKey)
	}, time.Second, 10*time.Millisecond, "cart was not torn down after logout")
}

func TestWatchSession_LogoutTwiceLeavesSameEndState(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	sessions := session.NewStore(kv, &stubIdentity{profile: domain.Profile{ID: 7, Username: "amara"}}, testLogger())
	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))

	sut := NewStore(kv, testLogger())
	stop := sut.WatchSession(sessions)
	defer stop()

	require.NoError(t, sut.AddItem(ctx, product(1, 100), 1))

	require.NoError(t, sessions.Logout(ctx))
	require.NoError(t, sessions.Logout(ctx))

	require.Eventually(t, func() bool {
		return len(sut.Lines()) == 0 && !kv.has(storage.CartKey)
	}, time.Second, 10*time.Millisecond)
	assert.False(t, sessions.Authenticated())
	assert.False(t, kv.has(storage.SessionKey))
}

func TestWatchSession_IdentitySwitchWipesCart(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	identity := &stubIdentity{profile: domain.Profile{ID: 7, Username: "amara"}}
	sessions := session.NewStore(kv, identity, testLogger())
	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))

	sut := NewStore(kv, testLogger())
	stop := sut.WatchSession(sessions)
	defer stop()

	require.NoError(t, sut.AddItem(ctx, product(1, 100), 2))

	// A second login replaces the session without an intervening logout.
	identity.profile = domain.Profile{ID: 8, Username: "noor"}
	require.NoError(t, sessions.Authenticate(ctx, "noor", "secret"))

	require.Eventually(t, func() bool {
		return len(sut.Lines()) == 0 && !kv.has(storage.CartKey)
	}, time.Second, 10*time.Millisecond, "cart crossed an identity switch")
	assert.True(t, sessions.Authenticated())
	assert.Equal(t, "noor", sessions.Current().Profile.Username)
}

func TestWatchSession_SameIdentityReloginKeepsCart(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	identity := &stubIdentity{profile: domain.Profile{ID: 7, Username: "amara"}}
	sessions := session.NewStore(kv, identity, testLogger())
	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))

	sut := NewStore(kv, testLogger())
	stop := sut.WatchSession(sessions)
	defer stop()

	require.NoError(t, sut.AddItem(ctx, product(1, 100), 1))

	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sut.Lines(), 1)
}

func TestWatchSession_LoginDoesNotWipeCart(t *testing.T) {
	kv := newMockKV()
	ctx := context.Background()

	sessions := session.NewStore(kv, &stubIdentity{profile: domain.Profile{ID: 7, Username: "amara"}}, testLogger())

	sut := NewStore(kv, testLogger())
	stop := sut.WatchSession(sessions)
	defer stop()

	require.NoError(t, sessions.Authenticate(ctx, "amara", "secret"))
	require.NoError(t, sut.AddItem(ctx, product(1, 100), 1))

	// Refresh keeps the session authenticated; nothing should be wiped.
	require.NoError(t, sessions.RefreshProfile(ctx))

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sut.Lines(), 1)
}
