package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError is a non-success response from the Firefly III API. It carries
// the status code and the raw response body so a failed create or update is
// never reduced to a bare status line.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firefly returned %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Client is a Firefly III API client covering account lookup, transaction
// search by external id, and transaction create/update.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a Firefly III client from a personal access token and
// the base URL of the instance, e.g. "https://firefly.example.com".
func NewClient(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, errors.New("firefly access token was not set")
	}
	if baseURL == "" {
		return nil, errors.New("firefly base url was not set")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/") + "/api/v1",
		token:      token,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: path, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// GetAccount fetches one account by its Firefly id.
func (c *Client) GetAccount(ctx context.Context, id string) (*Account, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/accounts/"+id, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("get account %s: empty response", id)
	}
	return resp.Data, nil
}

// SearchAccountByNumber finds the account whose account_number field equals
// number. Returns nil without error when no account matches.
func (c *Client) SearchAccountByNumber(ctx context.Context, number string) (*Account, error) {
	params := url.Values{}
	params.Set("query", number)
	params.Set("field", "number")
	params.Set("type", "all")

	var resp accountsResponse
	if err := c.do(ctx, http.MethodGet, "/search/accounts", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("search account by number: %w", err)
	}

	for i := range resp.Data {
		acc := &resp.Data[i]
		if acc.Attributes.AccountNumber != nil && *acc.Attributes.AccountNumber == number {
			return acc, nil
		}
	}
	return nil, nil
}

// SearchTransactionsByExternalID returns every transaction group whose
// external_id equals externalID. Zero, one, or unexpectedly many results are
// all possible; the caller decides what each case means.
func (c *Client) SearchTransactionsByExternalID(ctx context.Context, externalID string) ([]TransactionData, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("external_id:%q", externalID))

	var resp transactionsResponse
	if err := c.do(ctx, http.MethodGet, "/search/transactions", params, nil, &resp); err != nil {
		return nil, fmt.Errorf("search transactions by external id: %w", err)
	}

	// The search is full-text; keep only exact external_id matches.
	var matches []TransactionData
	for _, data := range resp.Data {
		for _, split := range data.Attributes.Transactions {
			if split.ExternalID != nil && *split.ExternalID == externalID {
				matches = append(matches, data)
				break
			}
		}
	}
	return matches, nil
}

// CreateTransaction stores a new single-split transaction group. Non-success
// responses surface as an *APIError with status and body.
func (c *Client) CreateTransaction(ctx context.Context, payload *TransactionPayload) (*TransactionData, error) {
	req := transactionRequest{
		ErrorIfDuplicateHash: true,
		Transactions:         []TransactionPayload{*payload},
	}

	var resp transactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	if resp.Data == nil {
		return nil, errors.New("create transaction: empty response")
	}
	return resp.Data, nil
}

// UpdateTransaction replaces the single split of an existing transaction
// group.
func (c *Client) UpdateTransaction(ctx context.Context, id string, payload *TransactionPayload) (*TransactionData, error) {
	req := transactionRequest{
		Transactions: []TransactionPayload{*payload},
	}

	var resp transactionResponse
	if err := c.do(ctx, http.MethodPut, "/transactions/"+id, nil, req, &resp); err != nil {
		return nil, fmt.Errorf("update transaction %s: %w", id, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("update transaction %s: empty response", id)
	}
	return resp.Data, nil
}
