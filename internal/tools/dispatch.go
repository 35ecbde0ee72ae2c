// Package tools routes named tool invocations to the aggregation engine.
// It is the boundary of the core: argument validation and resource routing
// live here, the page loop lives in internal/aggregate.
package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"

	"nestbridge/server/internal/aggregate"
	"nestbridge/server/internal/enrich"
)

// ErrUnknownTool marks invocations of tool names that do not exist; the
// protocol layer maps it to MethodNotFound.
var ErrUnknownTool = errors.New("unknown tool")

// callTimeout bounds one whole tool invocation, including every upstream
// page the aggregator fetches for it.
const callTimeout = 60 * time.Second

// Dispatcher routes {toolName, arguments} pairs to the Aggregator or the
// enrichment client.
type Dispatcher struct {
	agg      *aggregate.Aggregator
	enricher *enrich.Client
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(agg *aggregate.Aggregator, enricher *enrich.Client) *Dispatcher {
	return &Dispatcher{agg: agg, enricher: enricher}
}

// Call executes one tool invocation. Errors are returned only for pre-flight
// conditions (unknown tool, invalid arguments); once upstream I/O starts,
// degradation is reported inside the result envelope.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*ToolCallResult, error) {
	tool, ok := findTool(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTool, "%q", name)
	}

	args, err := ValidateParams(tool.InputSchema, args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if name == "search_internet" {
		pageURL, _ := args["url"].(string)
		summary := d.enricher.Fetch(ctx, pageURL)
		return envelope(summary)
	}

	q, err := buildQuery(name, args)
	if err != nil {
		return nil, err
	}

	result, err := d.agg.Aggregate(ctx, q)
	if err != nil {
		return nil, err
	}
	return envelope(result)
}

// envelope wraps a result as both a JSON text block and structured content.
func envelope(v any) (*ToolCallResult, error) {
	text, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal result")
	}
	return &ToolCallResult{
		Content:           []ContentBlock{{Type: "text", Text: string(text)}},
		StructuredContent: v,
	}, nil
}

// buildQuery maps a validated argument object onto a typed ResourceQuery.
func buildQuery(name string, args map[string]any) (aggregate.ResourceQuery, error) {
	limit, err := limitArg(args)
	if err != nil {
		return aggregate.ResourceQuery{}, err
	}

	q := aggregate.ResourceQuery{Limit: limit, PageOffset: 1}

	switch name {
	case "get_projects":
		q.Resource = aggregate.Projects
		q.Filters = aggregate.ProjectFilters{
			Level: stringArg(args, "level"),
			Type:  stringArg(args, "type"),
		}
		q.Enrich, _ = args["enrich"].(bool)
	case "get_events":
		q.Resource = aggregate.Events
		f := aggregate.EventFilters{}
		if upcoming, ok := args["upcoming"].(bool); ok {
			f.Upcoming = &upcoming
		}
		q.Filters = f
	case "get_issues":
		q.Resource = aggregate.Issues
		q.Filters = aggregate.IssueFilters{
			Priority: stringArg(args, "priority"),
			Project:  stringArg(args, "project"),
		}
	case "get_contributors":
		q.Resource = aggregate.Contributors
		q.Filters = aggregate.ContributorFilters{
			Project: stringArg(args, "project"),
		}
	case "get_chapters":
		q.Resource = aggregate.Chapters
		q.Filters = aggregate.ChapterFilters{
			Location: stringArg(args, "location"),
		}
	case "get_committees":
		q.Resource = aggregate.Committees
		q.Filters = aggregate.CommitteeFilters{}
	case "get_milestones":
		q.Resource = aggregate.Milestones
		q.Filters = aggregate.MilestoneFilters{
			Organization: stringArg(args, "organization"),
			Repository:   stringArg(args, "repository"),
		}
	case "get_releases":
		q.Resource = aggregate.Releases
		q.Filters = aggregate.ReleaseFilters{
			Organization: stringArg(args, "organization"),
			Repository:   stringArg(args, "repository"),
		}
	case "get_repositories":
		q.Resource = aggregate.Repositories
		q.Filters = aggregate.RepositoryFilters{
			Organization: stringArg(args, "organization"),
		}
	case "get_sponsors":
		q.Resource = aggregate.Sponsors
		q.Filters = aggregate.SponsorFilters{}
	default:
		return aggregate.ResourceQuery{}, errors.Wrapf(ErrUnknownTool, "%q", name)
	}

	return q, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func limitArg(args map[string]any) (int, error) {
	v, ok := args["limit"]
	if !ok || v == nil {
		return defaultLimit, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, errors.Errorf("limit must be a number, got %T", v)
	}
	limit := int(f)
	if float64(limit) != f {
		return 0, errors.Errorf("limit must be an integer, got %v", f)
	}
	if limit < 1 {
		return 0, errors.Errorf("limit must be >= 1, got %d", limit)
	}
	return limit, nil
}
