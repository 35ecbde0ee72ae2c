// Package nest is the OWASP Nest API client. It issues one paginated request
// per call; the aggregate package drives it across pages.
package nest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"nestbridge/server/internal/aggregate"
	"nestbridge/server/internal/middleware"
)

// DefaultBaseURL is the public Nest API root.
const DefaultBaseURL = "https://nest.owasp.org/api/v0"

// DefaultTimeout bounds each individual upstream call so a hung upstream
// cannot stall an aggregation indefinitely.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 2048

// endpoints maps resource types to their listing paths under the API root.
var endpoints = map[aggregate.ResourceType]string{
	aggregate.Projects:     "projects",
	aggregate.Events:       "events",
	aggregate.Issues:       "issues",
	aggregate.Contributors: "contributors",
	aggregate.Chapters:     "chapters",
	aggregate.Committees:   "committees",
	aggregate.Milestones:   "milestones",
	aggregate.Releases:     "releases",
	aggregate.Repositories: "repositories",
	aggregate.Sponsors:     "sponsors",
}

// Client talks to the Nest API. It is constructed once at startup and passed
// into the Aggregator; there is no package-level instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Nest API client. An empty baseURL selects the public
// API; an empty apiKey sends unauthenticated requests (callers may still
// supply a per-request key via the X-Nest-API-Key side channel).
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchPage implements aggregate.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, req aggregate.PageRequest) (*aggregate.Page, error) {
	path, ok := endpoints[req.Resource]
	if !ok {
		return nil, errors.Errorf("no endpoint for resource %q", req.Resource)
	}

	q := url.Values{}
	for key, vals := range req.Params {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("page_size", strconv.Itoa(req.PageSize))

	endpoint := fmt.Sprintf("%s/%s/?%s", c.baseURL, path, q.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if key := c.requestKey(ctx); key != "" {
		httpReq.Header.Set("X-API-Key", key)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s page %d", path, req.Page)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, errors.Errorf("%s returned status %d: %s", path, resp.StatusCode, snippet)
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s page %d", path, req.Page)
	}
	return page, nil
}

// requestKey prefers the per-request credential from the side channel over
// the client's configured key.
func (c *Client) requestKey(ctx context.Context) string {
	if key := middleware.GetNestAPIKey(ctx); key != "" {
		return key
	}
	return c.apiKey
}

// decodePage parses a listing response. The API is inconsistent about
// envelope naming, so both items/results and total_count/count are accepted,
// as are bare top-level arrays.
func decodePage(data []byte) (*aggregate.Page, error) {
	page := &aggregate.Page{}
	d := jx.DecodeBytes(data)

	if d.Next() == jx.Array {
		if err := decodeItems(d, page); err != nil {
			return nil, err
		}
		return page, nil
	}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "items", "results":
			return decodeItems(d, page)
		case "total_count", "count":
			n, err := d.Int()
			if err != nil {
				return err
			}
			page.TotalCount = n
			return nil
		case "has_next":
			b, err := d.Bool()
			if err != nil {
				return err
			}
			page.HasNext = b
			return nil
		case "next":
			// DRF-style cursor: a non-null next URL means more pages exist.
			if d.Next() == jx.Null {
				return d.Null()
			}
			page.HasNext = true
			return d.Skip()
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func decodeItems(d *jx.Decoder, page *aggregate.Page) error {
	return d.Arr(func(d *jx.Decoder) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		item := make(jx.Raw, len(raw))
		copy(item, raw)
		page.Items = append(page.Items, item)
		return nil
	})
}
