package orders

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// RecordSource is the slice of the order service client the lookup needs.
type RecordSource interface {
	OrdersByToken(ctx context.Context, credential, token string) ([]domain.OrderRecord, error)
	OrdersByOwner(ctx context.Context, credential string, ownerID int64) ([]domain.OrderRecord, error)
}

// SessionSource supplies the current session for owner-scoped queries.
type SessionSource interface {
	Current() domain.Session
}

// Lookup is the read-only order query surface.
type Lookup struct {
	source  RecordSource
	session SessionSource
	log     *slog.Logger
}

func NewLookup(source RecordSource, session SessionSource, log *slog.Logger) *Lookup {
	return &Lookup{source: source, session: session, log: log}
}

// FindByToken resolves the public order token to its record. Zero results
// is the normal not-found outcome. More than one means a token collision;
// the collision is logged and the first record returned.
func (l *Lookup) FindByToken(ctx context.Context, token string) (*domain.OrderRecord, error) {
	records, err := l.source.OrdersByToken(ctx, l.session.Current().Credential, token)
	if err != nil {
		return nil, fmt.Errorf("failed to query order by token: %w", err)
	}

	switch {
	case len(records) == 0:
		return nil, domain.ErrOrderNotFound
	case len(records) > 1:
		ie := &domain.IntegrityError{
			Message: fmt.Sprintf("%d order records share token %s", len(records), token),
		}
		l.log.Error("order token collision", "error", ie)
	}
	return &records[0], nil
}

// ListForCurrentUser returns the authenticated shopper's orders, newest
// first. Records are de-duplicated by the service's own identifier in case
// the backend returns one logical order twice.
func (l *Lookup) ListForCurrentUser(ctx context.Context) ([]domain.OrderRecord, error) {
	sess := l.session.Current()
	if !sess.Authenticated() {
		return nil, &domain.AuthenticationError{Message: "not authenticated"}
	}

	records, err := l.source.OrdersByOwner(ctx, sess.Credential, sess.Profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	seen := make(map[int64]bool, len(records))
	unique := records[:0]
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		unique = append(unique, r)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].CreatedAt.After(unique[j].CreatedAt)
	})
	return unique, nil
}
