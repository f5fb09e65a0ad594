package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/campaign-console/internal/pkg/httpretry"
)

// Client is the mail backend API client.
//
// Idempotent reads and membership mutations go through a retrying client;
// campaign sends go through a plain client because a send is never
// auto-retried — any retry is a distinct operator action.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient httpretry.HTTPDoer
	sendClient httpretry.HTTPDoer
}

// NewClient creates a new mail backend client.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: timeout}, 3),
		sendClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// SetHTTPClient sets a custom HTTP client for reads and mutations (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated JSON request against the backend.
func (c *Client) doRequest(ctx context.Context, client httpretry.HTTPDoer, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// parseAPIError extracts the backend's error message, when it supplied one,
// so it can be passed through to the operator verbatim.
func parseAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else if payload.Message != "" {
			msg = payload.Message
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func (c *Client) get(ctx context.Context, endpoint string, out interface{}) error {
	respBody, err := c.doRequest(ctx, c.httpClient, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// ========== List Methods ==========

// GetLists retrieves all recipient lists.
func (c *Client) GetLists(ctx context.Context) ([]RecipientList, error) {
	var lists []RecipientList
	if err := c.get(ctx, "/lists", &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateList creates a new recipient list.
func (c *Client) CreateList(ctx context.Context, name string) (*RecipientList, error) {
	respBody, err := c.doRequest(ctx, c.httpClient, http.MethodPost, "/lists", map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var list RecipientList
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("failed to parse created list: %w", err)
	}
	return &list, nil
}

// DeleteList deletes a list and its memberships.
func (c *Client) DeleteList(ctx context.Context, listID int64) error {
	_, err := c.doRequest(ctx, c.httpClient, http.MethodDelete, fmt.Sprintf("/lists/%d", listID), nil)
	return err
}

// RecipientCount returns the number of recipients in a list.
func (c *Client) RecipientCount(ctx context.Context, listID int64) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, fmt.Sprintf("/lists/%d/count", listID), &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// ========== Membership Methods ==========

// GetMembers retrieves the authoritative member list, most recent first.
func (c *Client) GetMembers(ctx context.Context, listID int64) ([]Recipient, error) {
	var members []Recipient
	if err := c.get(ctx, fmt.Sprintf("/lists/%d/members", listID), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// AddMember adds one address to a list. A duplicate yields a conflict
// APIError (see IsConflict); the backend is the authority on membership.
func (c *Client) AddMember(ctx context.Context, listID int64, email string) (*Recipient, error) {
	respBody, err := c.doRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("/lists/%d/members", listID), map[string]string{"email": email})
	if err != nil {
		return nil, err
	}
	var member Recipient
	if err := json.Unmarshal(respBody, &member); err != nil {
		return nil, fmt.Errorf("failed to parse added member: %w", err)
	}
	return &member, nil
}

// DeleteMember removes one recipient from a list. A missing recipient yields
// a not-found APIError (see IsNotFound).
func (c *Client) DeleteMember(ctx context.Context, listID, memberID int64) error {
	_, err := c.doRequest(ctx, c.httpClient, http.MethodDelete,
		fmt.Sprintf("/lists/%d/members/%d", listID, memberID), nil)
	return err
}

// ImportMembers submits one batch of candidate addresses. The backend
// arbitrates final membership and returns the classification summary.
func (c *Client) ImportMembers(ctx context.Context, listID int64, batchID string, emails []string) (*ImportSummary, error) {
	respBody, err := c.doRequest(ctx, c.httpClient, http.MethodPost,
		fmt.Sprintf("/lists/%d/import", listID),
		map[string]interface{}{"batch_id": batchID, "emails": emails})
	if err != nil {
		return nil, err
	}
	var summary ImportSummary
	if err := json.Unmarshal(respBody, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse import summary: %w", err)
	}
	return &summary, nil
}

// ValidateDomains runs a domain validity check over one list. The backend
// de-duplicates domain lookups; cost is proportional to distinct domains.
func (c *Client) ValidateDomains(ctx context.Context, listID int64) (*ValidationReport, error) {
	var report ValidationReport
	if err := c.get(ctx, fmt.Sprintf("/lists/%d/validate", listID), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ========== Sender Methods ==========

// GetSenders retrieves all sender accounts.
func (c *Client) GetSenders(ctx context.Context) ([]Sender, error) {
	var senders []Sender
	if err := c.get(ctx, "/senders", &senders); err != nil {
		return nil, err
	}
	return senders, nil
}

// UpdateSenderOutbound updates a sender's outbound SMTP configuration.
func (c *Client) UpdateSenderOutbound(ctx context.Context, senderID int64, cfg OutboundConfig) error {
	_, err := c.doRequest(ctx, c.httpClient, http.MethodPut,
		fmt.Sprintf("/senders/%d/outbound", senderID), cfg)
	return err
}

// ========== Campaign Methods ==========

// SendCampaign dispatches one campaign. This call is never retried by the
// client; the request runs to completion however long the backend takes.
func (c *Client) SendCampaign(ctx context.Context, req SendRequest) (*SendResult, error) {
	respBody, err := c.doRequest(ctx, c.sendClient, http.MethodPost, "/campaigns/send", req)
	if err != nil {
		return nil, err
	}
	var result SendResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse send result: %w", err)
	}
	return &result, nil
}

// UploadAttachment relays one file to the backend and returns its metadata
// reference. Binary storage is the backend's responsibility.
func (c *Client) UploadAttachment(ctx context.Context, filename string, r io.Reader) (*Attachment, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart field: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy attachment data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.sendClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var att Attachment
	if err := json.Unmarshal(respBody, &att); err != nil {
		return nil, fmt.Errorf("failed to parse attachment metadata: %w", err)
	}
	if att.Name == "" {
		att.Name = filename
	}
	return &att, nil
}

// ========== History Methods ==========

// GetSends retrieves the send history, most recent first.
func (c *Client) GetSends(ctx context.Context, limit int) ([]SendRecord, error) {
	endpoint := "/sends"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	var sends []SendRecord
	if err := c.get(ctx, endpoint, &sends); err != nil {
		return nil, err
	}
	return sends, nil
}

// GetSendDetails retrieves recipient-level outcomes for one send, paginated.
func (c *Client) GetSendDetails(ctx context.Context, sendID int64, page, pageSize int) (*SendDetails, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}
	endpoint := fmt.Sprintf("/sends/%d", sendID)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var details SendDetails
	if err := c.get(ctx, endpoint, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// GetStats retrieves the backend's aggregate sending statistics.
func (c *Client) GetStats(ctx context.Context) (*BackendStats, error) {
	var stats BackendStats
	if err := c.get(ctx, "/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// HealthCheck performs a simple backend reachability check.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.GetLists(ctx)
	return err
}
