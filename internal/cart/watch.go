package cart

import (
	"context"

	"github.com/saikhaykhunmong/strapi-nextts/internal/broadcast"
	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// sessionState is the slice of the session store the watcher needs.
type sessionState interface {
	Current() domain.Session
	Subscribe() *broadcast.Subscription
}

// WatchSession wipes the cart whenever its owning identity goes away:
// logout, credential teardown, or a login that replaces one identity with
// another. The cart is never handed from one identity to the next. A first
// sign-in does not wipe; an unauthenticated cart is empty already. The
// coupling runs through the session broadcaster, so the session store never
// depends on the cart. Call stop to detach.
func (s *Store) WatchSession(sess sessionState) (stop func()) {
	sub := sess.Subscribe()
	done := make(chan struct{})
	lastOwner := ownerOf(sess.Current())

	go func() {
		for {
			select {
			case _, ok := <-sub.C:
				if !ok {
					return
				}
				owner := ownerOf(sess.Current())
				if owner == lastOwner {
					continue
				}
				prev := lastOwner
				lastOwner = owner
				if prev == 0 {
					continue
				}
				if err := s.Clear(context.Background()); err != nil {
					s.log.Error("cart teardown failed", "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		sub.Cancel()
		close(done)
	}
}

// ownerOf reduces a session to the identity owning the cart; zero means no
// one does.
func ownerOf(sess domain.Session) int64 {
	if !sess.Authenticated() {
		return 0
	}
	return sess.Profile.ID
}
