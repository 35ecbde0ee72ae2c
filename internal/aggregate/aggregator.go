// Package aggregate turns one logical "give me N items" request into the
// correct sequence of paginated upstream calls, deduplicates and normalizes
// the results, and returns a uniform items+pagination envelope.
package aggregate

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPageCap is the upstream per-call page size cap observed for most
// resource types. Deployments can override it per resource via options.
const DefaultPageCap = 100

// PageRequest asks the upstream client for one page of one resource listing.
type PageRequest struct {
	Resource ResourceType
	Page     int
	PageSize int
	Params   url.Values
}

// Page is one upstream call's response. Items are carried raw; the
// normalizer interprets them.
type Page struct {
	Items      []jx.Raw
	TotalCount int  // 0 when upstream does not report a total
	HasNext    bool
}

// PageFetcher issues one paginated request against the upstream data source.
// The production implementation lives in internal/nest; tests use stubs.
type PageFetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// Enricher supplies a description for a record URL when the primary listing
// omits one. Best effort: a failure leaves the fallback description in place.
type Enricher interface {
	Describe(ctx context.Context, url string) (string, error)
}

// Pagination describes how a Result was assembled.
type Pagination struct {
	Requested      int    `json:"requested"`
	Returned       int    `json:"returned"`
	TotalAvailable int    `json:"totalAvailable"`
	HasMore        bool   `json:"hasMore"`
	RequestsMade   int    `json:"requestsMade"`
	Error          string `json:"error,omitempty"`
}

// Result is the aggregator's output envelope, uniform across resource types.
type Result struct {
	Items      []Record   `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Aggregator drives the upstream client across pages until the requested
// count is satisfied, the upstream is exhausted, or a call fails. It holds no
// mutable state across invocations; every Aggregate call is independent.
type Aggregator struct {
	fetcher  PageFetcher
	enricher Enricher
	caps     map[ResourceType]int

	tracer    trace.Tracer
	pageCalls metric.Int64Counter
	pageErrs  metric.Int64Counter
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPageCap overrides the per-call page size cap for one resource type.
func WithPageCap(resource ResourceType, pageCap int) Option {
	return func(a *Aggregator) {
		if pageCap > 0 {
			a.caps[resource] = pageCap
		}
	}
}

// WithEnricher attaches the enrichment collaborator used for project records
// whose listing omits a description.
func WithEnricher(e Enricher) Option {
	return func(a *Aggregator) { a.enricher = e }
}

// New creates an Aggregator around the given upstream client.
func New(fetcher PageFetcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher: fetcher,
		caps:    make(map[ResourceType]int),
		tracer:  otel.Tracer("nestbridge/server/internal/aggregate"),
	}
	meter := otel.Meter("nestbridge/server/internal/aggregate")
	a.pageCalls, _ = meter.Int64Counter("nest.page_requests",
		metric.WithDescription("Upstream page requests issued"))
	a.pageErrs, _ = meter.Int64Counter("nest.page_errors",
		metric.WithDescription("Upstream page requests that failed"))
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) pageCap(resource ResourceType) int {
	if c, ok := a.caps[resource]; ok {
		return c
	}
	return DefaultPageCap
}

// Aggregate executes the query. It returns an error only for pre-flight
// validation failures; once upstream I/O has started, failures are folded
// into the envelope's pagination.error and partial results are returned.
func (a *Aggregator) Aggregate(ctx context.Context, q ResourceQuery) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	attrs := attribute.String("nest.resource", string(q.Resource))
	ctx, span := a.tracer.Start(ctx, "aggregate", trace.WithAttributes(attrs))
	defer span.End()

	maxSize := a.pageCap(q.Resource)
	pagesNeeded := (q.Limit + maxSize - 1) / maxSize
	offset := q.PageOffset
	if offset < 1 {
		offset = 1
	}
	params := q.params()

	seen := make(map[string]struct{}, q.Limit)
	items := make([]Record, 0, q.Limit)
	pag := Pagination{Requested: q.Limit}
	totalAvailable := -1

	for page := offset; page < offset+pagesNeeded; page++ {
		size := maxSize
		if rem := q.Limit - len(items); rem < size {
			size = rem
		}

		pg, err := a.fetcher.FetchPage(ctx, PageRequest{
			Resource: q.Resource,
			Page:     page,
			PageSize: size,
			Params:   params,
		})
		pag.RequestsMade++
		a.pageCalls.Add(ctx, 1, metric.WithAttributes(attrs))
		if err != nil {
			// Partial results beat total failure: stop the loop, keep what
			// we have, and surface the degradation through the envelope.
			pag.Error = err.Error()
			a.pageErrs.Add(ctx, 1, metric.WithAttributes(attrs))
			span.RecordError(err)
			break
		}

		if pg.TotalCount > 0 {
			totalAvailable = pg.TotalCount
		}

		for _, rawItem := range pg.Items {
			var raw map[string]any
			if err := json.Unmarshal(rawItem, &raw); err != nil {
				continue
			}
			rec := Normalize(q.Resource, raw, q.Filters)
			key, _ := rec["url"].(string)
			if _, dup := seen[key]; dup {
				// Overlapping pages; first occurrence wins.
				continue
			}
			seen[key] = struct{}{}
			items = append(items, rec)
			if len(items) >= q.Limit {
				break
			}
		}

		if len(items) >= q.Limit {
			break
		}
		if len(pg.Items) == 0 || len(pg.Items) < size {
			// Upstream exhausted.
			break
		}
	}

	if len(items) > q.Limit {
		items = items[:q.Limit]
	}

	if q.Enrich && q.Resource == Projects && a.enricher != nil {
		a.enrichDescriptions(ctx, items)
	}

	pag.Returned = len(items)
	if totalAvailable < 0 {
		totalAvailable = len(items)
	}
	pag.TotalAvailable = totalAvailable
	pag.HasMore = totalAvailable > pag.Returned

	span.SetAttributes(
		attribute.Int("nest.requests_made", pag.RequestsMade),
		attribute.Int("nest.returned", pag.Returned),
	)
	return &Result{Items: items, Pagination: pag}, nil
}

// enrichDescriptions visits each record still carrying the fallback
// description, sequentially. Any single failure leaves that record's fallback
// in place and never aborts the batch.
func (a *Aggregator) enrichDescriptions(ctx context.Context, items []Record) {
	for _, rec := range items {
		if desc, _ := rec["description"].(string); desc != fallbackDescription {
			continue
		}
		recURL, _ := rec["url"].(string)
		if recURL == "" {
			continue
		}
		desc, err := a.enricher.Describe(ctx, recURL)
		if err != nil || desc == "" {
			continue
		}
		rec["description"] = desc
	}
}
