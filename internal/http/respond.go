package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps the error taxonomy onto HTTP statuses. Validation
// problems are the caller's fault; collaborator rejections surface with the
// service's message; everything else is internal.
func handleDomainError(w http.ResponseWriter, err error) {
	var (
		validation   *domain.ValidationError
		authErr      *domain.AuthenticationError
		registration *domain.RegistrationError
		upload       *domain.UploadError
		submission   *domain.SubmissionError
	)

	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, "validation_failed", validation.Reason)
	case errors.As(err, &authErr):
		respondError(w, http.StatusUnauthorized, "authentication_failed", authErr.Message)
	case errors.As(err, &registration):
		respondError(w, http.StatusBadRequest, "registration_failed", registration.Message)
	case errors.As(err, &upload):
		respondError(w, http.StatusBadGateway, "upload_failed", upload.Message)
	case errors.As(err, &submission):
		respondError(w, http.StatusBadGateway, "submission_failed", submission.Message)
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
