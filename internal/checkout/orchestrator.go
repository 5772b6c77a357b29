// Package checkout converts the current cart and session into a durable
// order submission with an idempotent, client-minted identifier.
package checkout

import (
	"context"
	"log/slog"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// CartSource is the slice of the cart store the orchestrator consumes.
type CartSource interface {
	Lines() []domain.CartLine
	Clear(ctx context.Context) error
}

// SessionSource supplies the submitting session.
type SessionSource interface {
	Current() domain.Session
}

// OrderClient is the write side of the order service.
type OrderClient interface {
	UploadAttachment(ctx context.Context, att domain.Attachment) (int64, error)
	CreateOrder(ctx context.Context, credential string, draft domain.OrderDraft) (*domain.OrderRecord, error)
}

// EventSink receives best-effort notifications about accepted orders.
type EventSink interface {
	OrderSubmitted(ctx context.Context, token string, total int64) error
}

type Orchestrator struct {
	cart    CartSource
	session SessionSource
	orders  OrderClient
	events  EventSink // optional
	log     *slog.Logger
}

func NewOrchestrator(cart CartSource, session SessionSource, orders OrderClient, events EventSink, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cart:    cart,
		session: session,
		orders:  orders,
		events:  events,
		log:     log,
	}
}

// Submit turns the cart into an order. The order token is minted before any
// network call, so a manual retry after a transient failure can reuse it.
// On acceptance the cart is cleared and the token returned; on any failure
// the cart is left exactly as it was.
func (o *Orchestrator) Submit(ctx context.Context, details domain.ShopperDetails, att *domain.Attachment) (string, error) {
	lines := o.cart.Lines()
	if len(lines) == 0 {
		return "", &domain.ValidationError{Reason: "cart is empty"}
	}

	token := domain.NewOrderToken()

	var attachmentID *int64
	if att != nil {
		id, err := o.orders.UploadAttachment(ctx, *att)
		if err != nil {
			return "", &domain.UploadError{Message: err.Error()}
		}
		attachmentID = &id
	}

	draft := domain.OrderDraft{
		Token:      token,
		Username:   domain.GuestMarker,
		FullName:   details.FullName,
		Phone:      details.Phone,
		Email:      details.Email,
		Address:    details.Address,
		Notes:      details.Notes,
		Status:     domain.OrderStatusPending,
		TotalPrice: domain.CartTotal(lines),
		Items:      lines,
		Attachment: attachmentID,
	}

	sess := o.session.Current()
	if sess.Authenticated() {
		draft.Username = sess.Profile.Username
		ownerID := sess.Profile.ID
		draft.OwnerID = &ownerID
	}

	record, err := o.orders.CreateOrder(ctx, sess.Credential, draft)
	if err != nil {
		return "", &domain.SubmissionError{Message: err.Error()}
	}

	if err := o.cart.Clear(ctx); err != nil {
		// The order exists; do not fail the submission over local cleanup.
		o.log.Error("failed to clear cart after checkout", "token", token, "error", err)
	}

	if o.events != nil {
		if err := o.events.OrderSubmitted(ctx, token, draft.TotalPrice); err != nil {
			o.log.Warn("order event publish failed", "token", token, "error", err)
		}
	}

	o.log.Info("order accepted",
		"token", token,
		"order_id", record.ID,
		"total", draft.TotalPrice,
		"items", len(draft.Items))
	return token, nil
}
