package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

type mockSubmitter struct {
	token string
	err   error

	gotDetails    domain.ShopperDetails
	gotAttachment *domain.Attachment
}

func (m *mockSubmitter) Submit(_ context.Context, details domain.ShopperDetails, att *domain.Attachment) (string, error) {
	m.gotDetails = details
	m.gotAttachment = att
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func checkoutForm(t *testing.T, fields map[string]string, screenshot []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if screenshot != nil {
		fw, err := mw.CreateFormFile("screenshot", "slip.png")
		require.NoError(t, err)
		_, err = fw.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"full_name": "Amara W",
		"phone":     "0812345678",
		"email":     "amara@example.com",
		"address":   "12 Rose Lane",
		"notes":     "leave at the door",
	}
}

func TestCheckoutSubmit_Success(t *testing.T) {
	submitter := &mockSubmitter{token: "order-token-1"}
	sut := NewCheckoutHandler(submitter, 5*time.Second)

	body, contentType := checkoutForm(t, validFields(), nil)
	request := httptest.NewRequest("POST", "/api/v1/checkout", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	sut.Submit(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var resp CheckoutResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "order-token-1", resp.Token)
	assert.Equal(t, "Amara W", submitter.gotDetails.FullName)
	assert.Equal(t, "leave at the door", submitter.gotDetails.Notes)
	assert.Nil(t, submitter.gotAttachment)
}

func TestCheckoutSubmit_WithAttachment(t *testing.T) {
	submitter := &mockSubmitter{token: "order-token-2"}
	sut := NewCheckoutHandler(submitter, 5*time.Second)

	body, contentType := checkoutForm(t, validFields(), []byte{0xDE, 0xAD})
	request := httptest.NewRequest("POST", "/api/v1/checkout", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	sut.Submit(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, submitter.gotAttachment)
	assert.Equal(t, "slip.png", submitter.gotAttachment.FileName)
	assert.Equal(t, []byte{0xDE, 0xAD}, submitter.gotAttachment.Content)
}

func TestCheckoutSubmit_MissingContactFields(t *testing.T) {
	sut := NewCheckoutHandler(&mockSubmitter{token: "x"}, 5*time.Second)

	fields := validFields()
	delete(fields, "phone")
	body, contentType := checkoutForm(t, fields, nil)
	request := httptest.NewRequest("POST", "/api/v1/checkout", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	sut.Submit(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCheckoutSubmit_EmptyCart(t *testing.T) {
	submitter := &mockSubmitter{err: &domain.ValidationError{Reason: "cart is empty"}}
	sut := NewCheckoutHandler(submitter, 5*time.Second)

	body, contentType := checkoutForm(t, validFields(), nil)
	request := httptest.NewRequest("POST", "/api/v1/checkout", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	sut.Submit(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "validation_failed", resp.Code)
}

func TestCheckoutSubmit_SubmissionErrorIsBadGateway(t *testing.T) {
	submitter := &mockSubmitter{err: &domain.SubmissionError{Message: "order service down"}}
	sut := NewCheckoutHandler(submitter, 5*time.Second)

	body, contentType := checkoutForm(t, validFields(), nil)
	request := httptest.NewRequest("POST", "/api/v1/checkout", body)
	request.Header.Set("Content-Type", contentType)

	recorder := httptest.NewRecorder()
	sut.Submit(recorder, request)

	require.Equal(t, http.StatusBadGateway, recorder.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	assert.Equal(t, "submission_failed", resp.Code)
	assert.Contains(t, resp.Error, "order service down")
}
