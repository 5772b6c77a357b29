package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

// maxAttachmentSize bounds proof-of-payment uploads.
const maxAttachmentSize = 8 << 20 // 8MB

// Submitter is the checkout orchestrator surface.
type Submitter interface {
	Submit(ctx context.Context, details domain.ShopperDetails, att *domain.Attachment) (string, error)
}

type CheckoutHandler struct {
	submitter Submitter
	timeout   time.Duration
}

func NewCheckoutHandler(submitter Submitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{submitter: submitter, timeout: timeout}
}

type CheckoutResponseDTO struct {
	Token string `json:"token"`
}

// Submit accepts a multipart form: shopper contact fields plus an optional
// "screenshot" file. On success it returns the order token the shopper can
// look the order up by.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	details := domain.ShopperDetails{
		FullName: r.FormValue("full_name"),
		Phone:    r.FormValue("phone"),
		Email:    r.FormValue("email"),
		Address:  r.FormValue("address"),
		Notes:    r.FormValue("notes"),
	}
	if details.FullName == "" || details.Phone == "" || details.Email == "" || details.Address == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "full_name, phone, email and address are required")
		return
	}

	attachment, err := readAttachment(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_attachment", "could not read attachment")
		return
	}

	token, err := h.submitter.Submit(ctx, details, attachment)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{Token: token})
}

func readAttachment(r *http.Request) (*domain.Attachment, error) {
	file, header, err := r.FormFile("screenshot")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize))
	if err != nil {
		return nil, err
	}
	return &domain.Attachment{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
