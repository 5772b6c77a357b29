// Package session owns the authentication credential and profile of the
// current browsing context. It is the single source of truth for "is a user
// authenticated"; the cart store keys its own validity off it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
	"github.com/saikhaykhunmong/strapi-nextts/internal/storage"
)

// IdentityClient is what the store needs from the identity service.
// Consumers define this interface, not the HTTP implementation.
type IdentityClient interface {
	Login(ctx context.Context, identifier, secret string) (string, *domain.Profile, error)
	Register(ctx context.Context, email, username, secret string) (string, *domain.Profile, error)
	Me(ctx context.Context, credential string) (*domain.Profile, error)
	Update(ctx context.Context, credential string, userID int64, upd ProfileUpdate) (*domain.Profile, error)
}

// ProfileUpdate carries the editable profile fields plus an optional
// password change.
type ProfileUpdate struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`

	OldPassword     string `json:"oldPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	ConfirmPassword string `json:"-"`
}

func (u ProfileUpdate) changesPassword() bool {
	return u.OldPassword != "" || u.NewPassword != "" || u.ConfirmPassword != ""
}

// Store holds the session in memory and mirrors it into durable storage.
// Every transition to unauthenticated is announced on the broadcaster so
// dependents (the cart) can tear down without a direct call back in.
type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	identity IdentityClient
	log      *slog.Logger

	session domain.Session
	bcast   *broadcast.Broadcaster
}

func NewStore(kv storage.KV, identity IdentityClient, log *slog.Logger) *Store {
	return &Store{
		kv:       kv,
		identity: identity,
		log:      log,
		bcast:    broadcast.New(),
	}
}

// Subscribe attaches a listener to session changes. Listeners re-read the
// store; the signal carries no payload.
func (s *Store) Subscribe() *broadcast.Subscription {
	return s.bcast.Subscribe()
}

// Current returns a copy of the session.
func (s *Store) Current() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Store) Authenticated() bool {
	return s.Current().Authenticated()
}

// Restore loads the persisted session, if any. It runs synchronously on
// startup, before the cart store decides whether to keep its own persisted
// record. A record missing either half is discarded whole.
func (s *Store) Restore(ctx context.Context) error {
	data, err := s.kv.Get(ctx, storage.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil || !sess.Authenticated() {
		s.log.Warn("discarding unusable persisted session")
		if delErr := s.kv.Delete(ctx, storage.SessionKey); delErr != nil {
			return fmt.Errorf("failed to discard persisted session: %w", delErr)
		}
		return nil
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.bcast.Notify()
	return nil
}

// Authenticate logs in against the identity service. On success credential
// and profile are stored together and persisted, then the profile is
// re-fetched for freshness. On failure nothing is stored.
func (s *Store) Authenticate(ctx context.Context, identifier, secret string) error {
	credential, profile, err := s.identity.Login(ctx, identifier, secret)
	if err != nil {
		return &domain.AuthenticationError{Message: serviceMessage(err)}
	}

	if err := s.commit(ctx, domain.Session{Credential: credential, Profile: profile}); err != nil {
		return err
	}

	// Freshness only; the credential was valid a moment ago, so a failed
	// re-fetch is not a teardown.
	if err := s.refresh(ctx); err != nil {
		s.log.Warn("post-login profile refresh failed", "error", err)
	}
	return nil
}

// Register creates a new identity and authenticates it.
func (s *Store) Register(ctx context.Context, email, username, secret string) error {
	credential, profile, err := s.identity.Register(ctx, email, username, secret)
	if err != nil {
		return &domain.RegistrationError{Message: serviceMessage(err)}
	}

	if err := s.commit(ctx, domain.Session{Credential: credential, Profile: profile}); err != nil {
		return err
	}

	if err := s.refresh(ctx); err != nil {
		s.log.Warn("post-registration profile refresh failed", "error", err)
	}
	return nil
}

// RefreshProfile re-fetches the profile with the stored credential. A
// rejected credential fails closed: the session is torn down exactly as on
// logout, and an AuthenticationError is returned.
func (s *Store) RefreshProfile(ctx context.Context) error {
	if !s.Authenticated() {
		return nil
	}
	if err := s.refresh(ctx); err != nil {
		if errors.Is(err, domain.ErrCredentialRejected) {
			if logoutErr := s.Logout(ctx); logoutErr != nil {
				s.log.Error("teardown after credential rejection failed", "error", logoutErr)
			}
			return &domain.AuthenticationError{Message: "session expired"}
		}
		return err
	}
	return nil
}

func (s *Store) refresh(ctx context.Context) error {
	cur := s.Current()
	if !cur.Authenticated() {
		return nil
	}
	profile, err := s.identity.Me(ctx, cur.Credential)
	if err != nil {
		return err
	}
	return s.commit(ctx, domain.Session{Credential: cur.Credential, Profile: profile})
}

// UpdateProfile validates the optional password change locally, pushes the
// update to the identity service, then re-fetches the profile so local
// state matches the service's view.
func (s *Store) UpdateProfile(ctx context.Context, upd ProfileUpdate) error {
	cur := s.Current()
	if !cur.Authenticated() {
		return &domain.AuthenticationError{Message: "not authenticated"}
	}

	if upd.changesPassword() && upd.NewPassword != upd.ConfirmPassword {
		return &domain.ValidationError{Reason: "new passwords do not match"}
	}
	if !upd.changesPassword() {
		upd.OldPassword, upd.NewPassword = "", ""
	}

	profile, err := s.identity.Update(ctx, cur.Credential, cur.Profile.ID, upd)
	if err != nil {
		if errors.Is(err, domain.ErrCredentialRejected) {
			if logoutErr := s.Logout(ctx); logoutErr != nil {
				s.log.Error("teardown after credential rejection failed", "error", logoutErr)
			}
			return &domain.AuthenticationError{Message: "session expired"}
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return s.commit(ctx, domain.Session{Credential: cur.Credential, Profile: profile})
}

// Logout clears the session and its persisted copy. Idempotent. Dependents
// observe the transition through the broadcaster, not a direct call.
// Memory is cleared and the transition announced even when the erase fails;
// until a later Logout or commit succeeds, the stale persisted record would
// come back on the next Restore.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = domain.Session{}
	s.mu.Unlock()

	err := s.kv.Delete(ctx, storage.SessionKey)
	s.bcast.Notify()
	if err != nil {
		s.log.Error("persisted session not erased on logout", "error", err)
		return fmt.Errorf("failed to erase persisted session: %w", err)
	}
	return nil
}

// commit persists the new session and only then makes it current, so a
// storage failure never leaves memory and disk disagreeing.
func (s *Store) commit(ctx context.Context, sess domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.kv.Set(ctx, storage.SessionKey, data); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.bcast.Notify()
	return nil
}

func serviceMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
