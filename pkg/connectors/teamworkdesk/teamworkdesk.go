// Package teamworkdesk pulls tickets from the Teamwork Desk API for
// api-backed sources.
package teamworkdesk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const Provider = "teamwork_desk"

var (
	ErrBadCredentials = errors.New("invalid Teamwork Desk api key or site name")
	ErrSiteNotFound   = errors.New("Teamwork Desk site not found")
	ErrRateLimited    = errors.New("Teamwork Desk api rate limit exceeded")
)

// ConnectionConfig is the shape of apiConnectionConfig for Teamwork
// Desk sources. ApiKey holds the sealed credential ("plain:..." or
// "enc:..."), never the raw one.
type ConnectionConfig struct {
	Provider string `json:"provider"`
	SiteName string `json:"siteName"`
	ApiKey   string `json:"apiKey"`
	DataType string `json:"dataType"`
}

// NewConnectionConfig builds the config stored on a source.
func NewConnectionConfig(siteName, sealedApiKey string) ConnectionConfig {
	return ConnectionConfig{
		Provider: Provider,
		SiteName: siteName,
		ApiKey:   sealedApiKey,
		DataType: "tickets",
	}
}

// Client talks to one Teamwork Desk site.
type Client struct {
	httpClient *http.Client

	// baseURL overrides the per-site url when set. For tests and
	// self-hosted gateways.
	baseURL string
}

type Option func(*Client)

// WithBaseURL points the client at base instead of
// https://<site>.teamwork.com/desk/api/v2 .
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *Client) apiBase(siteName string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf("https://%s.teamwork.com/desk/api/v2", siteName)
}

func (c *Client) request(ctx context.Context, siteName, apiKey, path string, into any) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apiBase(siteName)+path, nil,
	)
	if err != nil {
		return err
	}
	req.SetBasicAuth(apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrBadCredentials
	case resp.StatusCode == http.StatusNotFound:
		return ErrSiteNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("Teamwork Desk api error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(into)
}

// TestConnection verifies credentials by fetching a single ticket page.
func (c *Client) TestConnection(ctx context.Context, siteName, apiKey string) error {
	var page ticketPage
	return c.request(ctx, siteName, apiKey, "/tickets.json?pageSize=1", &page)
}

type ticketPage struct {
	Tickets []map[string]any `json:"tickets"`
	Meta    struct {
		Page struct {
			Count *int `json:"count"`
		} `json:"page"`
	} `json:"meta"`
}

// FetchOptions bounds a ticket pull.
type FetchOptions struct {
	PageSize   int // capped at 50, the api maximum
	MaxRecords int // default 5000
}

// FetchTickets pages through the site's tickets with the raw
// (unsealed) api key.
func (c *Client) FetchTickets(ctx context.Context, siteName, apiKey string, opts FetchOptions) ([]map[string]any, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 || 50 < pageSize {
		pageSize = 50
	}
	maxRecords := opts.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 5000
	}

	var tickets []map[string]any
	var totalCount *int
	for pageOffset := 0; ; pageOffset += pageSize {
		query := url.Values{
			"pageSize":   {strconv.Itoa(pageSize)},
			"pageOffset": {strconv.Itoa(pageOffset)},
		}
		var page ticketPage
		if err := c.request(
			ctx, siteName, apiKey, "/tickets.json?"+query.Encode(), &page,
		); err != nil {
			return nil, err
		}

		tickets = append(tickets, page.Tickets...)
		if totalCount == nil && page.Meta.Page.Count != nil {
			totalCount = page.Meta.Page.Count
		}

		exhausted := len(page.Tickets) < pageSize
		reachedTotal := totalCount != nil && *totalCount <= len(tickets)
		if exhausted || reachedTotal || maxRecords <= len(tickets) {
			break
		}
	}
	return tickets, nil
}
