package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultBaseURL is the SendGrid API host.
const defaultBaseURL = "https://api.sendgrid.com"

// APIError is a non-success response from the SendGrid API. The response
// body is kept verbatim for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sendgrid API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// Client issues authenticated requests against the SendGrid v3 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client authenticated with the given API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithBaseURL creates a Client against a custom API host, used for testing.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = baseURL
	return c
}

// Lists returns all marketing contact lists.
func (c *Client) Lists(ctx context.Context) ([]List, error) {
	var resp listsResponse
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/lists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// CreateList creates a new contacts list with the given name.
func (c *Client) CreateList(ctx context.Context, name string) (*List, error) {
	var resp List
	if err := c.do(ctx, http.MethodPost, "/v3/marketing/lists", createListRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpsertContacts adds or updates all given recipient emails in a single
// batch and attaches them to the list.
func (c *Client) UpsertContacts(ctx context.Context, listID string, emails []string) error {
	contacts := make([]Contact, 0, len(emails))
	for _, email := range emails {
		contacts = append(contacts, Contact{Email: email})
	}
	body := upsertContactsRequest{
		ListIDs:  []string{listID},
		Contacts: contacts,
	}
	return c.do(ctx, http.MethodPut, "/v3/marketing/contacts", body, nil)
}

// Senders returns the account's verified sender identities.
func (c *Client) Senders(ctx context.Context) ([]Sender, error) {
	var resp []Sender
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/senders", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SuppressionGroups returns the account's unsubscribe groups.
func (c *Client) SuppressionGroups(ctx context.Context) ([]SuppressionGroup, error) {
	var resp []SuppressionGroup
	if err := c.do(ctx, http.MethodGet, "/v3/asm/groups", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateSuppressionGroup creates a new unsubscribe group.
func (c *Client) CreateSuppressionGroup(ctx context.Context, req SuppressionGroupRequest) (*SuppressionGroup, error) {
	var resp SuppressionGroup
	if err := c.do(ctx, http.MethodPost, "/v3/asm/groups", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Singlesends returns all single-send campaigns.
func (c *Client) Singlesends(ctx context.Context) ([]Singlesend, error) {
	var resp singlesendsResponse
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/singlesends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Singlesend returns one single-send campaign by ID.
func (c *Client) Singlesend(ctx context.Context, id string) (*Singlesend, error) {
	var resp Singlesend
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/singlesends/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSinglesend creates a new single-send campaign.
func (c *Client) CreateSinglesend(ctx context.Context, req *SinglesendRequest) (*Singlesend, error) {
	var resp Singlesend
	if err := c.do(ctx, http.MethodPost, "/v3/marketing/singlesends", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSinglesend patches an existing single-send campaign.
func (c *Client) UpdateSinglesend(ctx context.Context, id string, req *SinglesendRequest) (*Singlesend, error) {
	var resp Singlesend
	if err := c.do(ctx, http.MethodPatch, "/v3/marketing/singlesends/"+id, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScheduleSinglesend schedules a single send for the given RFC 3339 time.
func (c *Client) ScheduleSinglesend(ctx context.Context, id, sendAt string) error {
	return c.do(ctx, http.MethodPut, "/v3/marketing/singlesends/"+id+"/schedule", scheduleRequest{SendAt: sendAt}, nil)
}

// SinglesendStats returns the stats snapshot for a single send. The shape of
// the stats payload is passed through untyped for reporting.
func (c *Client) SinglesendStats(ctx context.Context, id string) (map[string]any, error) {
	var resp map[string]any
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/stats/singlesends/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// do performs one authenticated request. Status codes outside {200, 201,
// 202} become an APIError carrying the response body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
	default:
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response body: %w", err)
		}
	}

	return nil
}
