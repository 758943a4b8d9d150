// Package allabolag fetches published Swedish company figures from
// allabolag.se and maps them onto raw statement records.
package allabolag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/creditpm/backend/internal/domain/financial"
	"github.com/creditpm/backend/internal/domain/shared"
)

// Config holds the registry client settings
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Client implements financial.UpstreamRegistry against allabolag.se.
// All transport and parse failures surface as upstream errors so the
// caller's retry policy applies uniformly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a registry client
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.allabolag.se"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  cfg.UserAgent,
	}
}

// FetchStatements retrieves the published statement years for the
// organization number, newest first.
func (c *Client) FetchStatements(ctx context.Context, orgNumber string) ([]financial.RawStatementRecord, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf("%s/%s/bokslut", c.baseURL, cleanOrgNumber(orgNumber)))
	if err != nil {
		return nil, err
	}

	records := parseStatementTables(doc)
	if len(records) == 0 {
		return nil, shared.NewUpstreamError("no published statements found for " + orgNumber)
	}
	return records, nil
}

// FetchProfile retrieves registry master data for the company
func (c *Client) FetchProfile(ctx context.Context, orgNumber string) (*financial.CompanyProfile, error) {
	doc, err := c.fetchDocument(ctx, fmt.Sprintf("%s/%s", c.baseURL, cleanOrgNumber(orgNumber)))
	if err != nil {
		return nil, err
	}

	profile := parseProfile(doc, orgNumber)
	if profile.Name == "" {
		return nil, shared.NewUpstreamError("no company page found for " + orgNumber)
	}
	return profile, nil
}

func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.NewUpstreamError(fmt.Sprintf("building request: %v", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewUpstreamError(fmt.Sprintf("fetching %s: %v", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, shared.NewUpstreamError(fmt.Sprintf("fetching %s: status %d", url, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, shared.NewUpstreamError(fmt.Sprintf("parsing %s: %v", url, err))
	}
	return doc, nil
}

func cleanOrgNumber(orgNumber string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(orgNumber)
}
