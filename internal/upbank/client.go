package upbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dvloznov/upfly/internal/logger"
)

// DefaultBaseURL is the public Up Bank API endpoint.
const DefaultBaseURL = "https://api.up.com.au/api/v1"

// APIError is a non-success response from the Up Bank API. It carries the
// status code and the raw response body so a failed call is never reduced to
// a bare status line.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("up bank returned %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// Client is a minimal Up Bank API client covering the operations the
// migration needs: health check, account listing and transaction listing
// with full cursor traversal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	// Populated by LoadData; used for account-map validation and the
	// accounts inspection command.
	Accounts   []Account
	Categories []Category
	Tags       []Tag
}

// NewClient creates an Up Bank client from a personal access token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, errors.New("up bank access token was not set")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}, nil
}

// NewClientWithBaseURL creates a client against a non-default endpoint.
// Used by tests.
func NewClientWithBaseURL(token, baseURL string) (*Client, error) {
	c, err := NewClient(token)
	if err != nil {
		return nil, err
	}
	c.baseURL = baseURL
	return c, nil
}

func (c *Client) get(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Endpoint: req.URL.Path, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// Ping verifies the access token against the utility ping endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.get(ctx, c.baseURL+"/util/ping", nil, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// ListAccounts returns every account, following the pagination cursor until
// exhausted.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account

	requestURL := c.baseURL + "/accounts"
	for {
		var page accountsResponse
		if err := c.get(ctx, requestURL, nil, &page); err != nil {
			return nil, fmt.Errorf("list accounts: %w", err)
		}
		accounts = append(accounts, page.Data...)

		if page.Links.Next == nil {
			break
		}
		requestURL = *page.Links.Next
	}

	return accounts, nil
}

// ListTransactions returns every transaction in the window, following the
// pagination cursor until exhausted. A nil since/until leaves that side of
// the window open.
func (c *Client) ListTransactions(ctx context.Context, since, until *time.Time) ([]Transaction, error) {
	params := url.Values{}
	if since != nil {
		params.Set("filter[since]", since.Format(time.RFC3339))
	}
	if until != nil {
		params.Set("filter[until]", until.Format(time.RFC3339))
	}

	var transactions []Transaction

	requestURL := c.baseURL + "/transactions"
	for {
		var page transactionsResponse
		if err := c.get(ctx, requestURL, params, &page); err != nil {
			return nil, fmt.Errorf("list transactions: %w", err)
		}
		transactions = append(transactions, page.Data...)

		if page.Links.Next == nil {
			break
		}
		// The next cursor already encodes the filter params.
		requestURL = *page.Links.Next
		params = nil
	}

	return transactions, nil
}

// ListCategories returns all spending categories. The categories listing is
// not paginated.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var page categoriesResponse
	if err := c.get(ctx, c.baseURL+"/categories", nil, &page); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return page.Data, nil
}

// ListTags returns every tag, following the pagination cursor until exhausted.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag

	requestURL := c.baseURL + "/tags"
	for {
		var page tagsResponse
		if err := c.get(ctx, requestURL, nil, &page); err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		tags = append(tags, page.Data...)

		if page.Links.Next == nil {
			break
		}
		requestURL = *page.Links.Next
	}

	return tags, nil
}

// LoadData fetches and caches accounts, categories and tags on the client.
// Called once at startup before account-map validation.
func (c *Client) LoadData(ctx context.Context) error {
	log := logger.FromContext(ctx)

	var err error
	if c.Accounts, err = c.ListAccounts(ctx); err != nil {
		return err
	}
	if c.Categories, err = c.ListCategories(ctx); err != nil {
		return err
	}
	if c.Tags, err = c.ListTags(ctx); err != nil {
		return err
	}

	log.Debug().
		Int("accounts", len(c.Accounts)).
		Int("categories", len(c.Categories)).
		Int("tags", len(c.Tags)).
		Msg("Loaded Up Bank reference data")

	return nil
}
