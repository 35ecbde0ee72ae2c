// Package enrich fetches a web page and extracts its title, description, and
// links. It backs the search_internet tool and the project description
// enrichment pass. Best effort by contract: failures are reported in the
// summary, never raised to the caller.
package enrich

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// DefaultTimeout bounds each page fetch.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a page is read before extraction.
const maxBodySize = 2 * 1024 * 1024

// Link is one hyperlink found on the page.
type Link struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Summary is the outcome of visiting one URL.
type Summary struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Links         []Link `json:"links"`
	ResourceLinks []Link `json:"resourceLinks"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// Client fetches and summarizes pages.
type Client struct {
	http *http.Client
}

// NewClient creates an enrichment client.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// Fetch visits the URL and returns a summary. It never returns an error:
// any failure is captured in the summary's Success/Error fields so a batch
// enrichment pass can carry on.
func (c *Client) Fetch(ctx context.Context, pageURL string) *Summary {
	s := &Summary{URL: pageURL, Links: []Link{}, ResourceLinks: []Link{}}

	body, err := c.get(ctx, pageURL)
	if err != nil {
		s.Error = err.Error()
		return s
	}

	extracted, err := extract(body, pageURL)
	if err != nil {
		s.Error = err.Error()
		return s
	}

	s.Title = extracted.title
	s.Description = extracted.description
	s.Links = extracted.links
	s.ResourceLinks = extracted.resourceLinks
	s.Success = true
	return s
}

// Describe implements aggregate.Enricher: it returns the page's meta
// description, falling back to its title.
func (c *Client) Describe(ctx context.Context, pageURL string) (string, error) {
	s := c.Fetch(ctx, pageURL)
	if !s.Success {
		return "", errors.New(s.Error)
	}
	if s.Description != "" {
		return s.Description, nil
	}
	return s.Title, nil
}

func (c *Client) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "nestbridge/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read page")
	}
	return body, nil
}
