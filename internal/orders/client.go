// Package orders talks to the remote order service: attachment uploads,
// order creation, and the read-only lookups built on top.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saikhaykhunmong/strapi-nextts/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// UploadAttachment stores a proof-of-payment file and returns the asset id
// the order draft should reference.
func (c *Client) UploadAttachment(ctx context.Context, att domain.Attachment) (int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("files", att.FileName)
	if err != nil {
		return 0, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := fw.Write(att.Content); err != nil {
		return 0, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("%s", serviceError(resp))
	}

	var uploaded []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return 0, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if len(uploaded) == 0 {
		return 0, fmt.Errorf("order service returned no uploaded asset")
	}
	return uploaded[0].ID, nil
}

// CreateOrder submits the draft and returns the accepted record.
func (c *Client) CreateOrder(ctx context.Context, credential string, draft domain.OrderDraft) (*domain.OrderRecord, error) {
	body, err := json.Marshal(struct {
		Data domain.OrderDraft `json:"data"`
	}{Data: draft})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order draft: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s", serviceError(resp))
	}

	var record domain.OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode order record: %w", err)
	}
	return &record, nil
}

// OrdersByToken queries orders filtered by the public order token.
func (c *Client) OrdersByToken(ctx context.Context, credential, token string) ([]domain.OrderRecord, error) {
	return c.query(ctx, credential, url.Values{"token": {token}})
}

// OrdersByOwner queries orders filtered by the owning user's identifier.
func (c *Client) OrdersByOwner(ctx context.Context, credential string, ownerID int64) ([]domain.OrderRecord, error) {
	return c.query(ctx, credential, url.Values{"ownerId": {fmt.Sprint(ownerID)}})
}

func (c *Client) query(ctx context.Context, credential string, params url.Values) ([]domain.OrderRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/orders?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s", serviceError(resp))
	}

	var records []domain.OrderRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode order records: %w", err)
	}
	return records, nil
}

func serviceError(resp *http.Response) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return resp.Status
}
