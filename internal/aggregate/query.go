package aggregate

import (
	"fmt"
	"net/url"

	"github.com/go-faster/errors"
)

// ResourceType identifies an OWASP Nest listing endpoint.
type ResourceType string

const (
	Projects     ResourceType = "projects"
	Events       ResourceType = "events"
	Issues       ResourceType = "issues"
	Contributors ResourceType = "contributors"
	Chapters     ResourceType = "chapters"
	Committees   ResourceType = "committees"
	Milestones   ResourceType = "milestones"
	Releases     ResourceType = "releases"
	Repositories ResourceType = "repositories"
	Sponsors     ResourceType = "sponsors"
)

var knownResources = map[ResourceType]bool{
	Projects:     true,
	Events:       true,
	Issues:       true,
	Contributors: true,
	Chapters:     true,
	Committees:   true,
	Milestones:   true,
	Releases:     true,
	Repositories: true,
	Sponsors:     true,
}

// ErrUnknownResource is returned when a query names a resource type that has
// no upstream endpoint.
var ErrUnknownResource = errors.New("unknown resource type")

// MissingParameterError reports a filter that is mandatory for the queried
// resource type (e.g. repository for milestones/releases). Raised before any
// upstream call is made.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter: %s", e.Param)
}

// InvalidQueryError reports a query that violates the ResourceQuery contract.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

// Filters narrows an upstream listing. Each resource type has its own struct
// so that filters invalid for a given tool are unrepresentable.
type Filters interface {
	resource() ResourceType
	encode(v url.Values)
}

// ProjectFilters narrows the projects listing.
type ProjectFilters struct {
	Level string // flagship, lab, incubator
	Type  string // tool, documentation, code
}

func (ProjectFilters) resource() ResourceType { return Projects }

func (f ProjectFilters) encode(v url.Values) {
	setIfPresent(v, "level", f.Level)
	setIfPresent(v, "type", f.Type)
}

// EventFilters narrows the events listing.
type EventFilters struct {
	Upcoming *bool
}

func (EventFilters) resource() ResourceType { return Events }

func (f EventFilters) encode(v url.Values) {
	if f.Upcoming != nil {
		v.Set("upcoming", fmt.Sprintf("%t", *f.Upcoming))
	}
}

// IssueFilters narrows the issues listing.
type IssueFilters struct {
	Priority string // high, medium, low
	Project  string
}

func (IssueFilters) resource() ResourceType { return Issues }

func (f IssueFilters) encode(v url.Values) {
	setIfPresent(v, "priority", f.Priority)
	setIfPresent(v, "project", f.Project)
}

// ContributorFilters narrows the contributors listing.
type ContributorFilters struct {
	Project string
}

func (ContributorFilters) resource() ResourceType { return Contributors }

func (f ContributorFilters) encode(v url.Values) {
	setIfPresent(v, "project", f.Project)
}

// ChapterFilters narrows the chapters listing.
type ChapterFilters struct {
	Location string
}

func (ChapterFilters) resource() ResourceType { return Chapters }

func (f ChapterFilters) encode(v url.Values) {
	setIfPresent(v, "location", f.Location)
}

// CommitteeFilters narrows the committees listing. No filters are supported.
type CommitteeFilters struct{}

func (CommitteeFilters) resource() ResourceType { return Committees }

func (CommitteeFilters) encode(url.Values) {}

// MilestoneFilters narrows the milestones listing. Repository is mandatory.
type MilestoneFilters struct {
	Organization string
	Repository   string
}

func (MilestoneFilters) resource() ResourceType { return Milestones }

func (f MilestoneFilters) encode(v url.Values) {
	setIfPresent(v, "organization", f.Organization)
	setIfPresent(v, "repository", f.Repository)
}

// ReleaseFilters narrows the releases listing. Repository is mandatory.
type ReleaseFilters struct {
	Organization string
	Repository   string
}

func (ReleaseFilters) resource() ResourceType { return Releases }

func (f ReleaseFilters) encode(v url.Values) {
	setIfPresent(v, "organization", f.Organization)
	setIfPresent(v, "repository", f.Repository)
}

// RepositoryFilters narrows the repositories listing.
type RepositoryFilters struct {
	Organization string
}

func (RepositoryFilters) resource() ResourceType { return Repositories }

func (f RepositoryFilters) encode(v url.Values) {
	setIfPresent(v, "organization", f.Organization)
}

// SponsorFilters narrows the sponsors listing. No filters are supported.
type SponsorFilters struct{}

func (SponsorFilters) resource() ResourceType { return Sponsors }

func (SponsorFilters) encode(url.Values) {}

func setIfPresent(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// ResourceQuery is one logical request against a resource listing. It lives
// for a single tool invocation and produces exactly one Result.
type ResourceQuery struct {
	Resource   ResourceType
	Limit      int
	PageOffset int // starting page, default 1
	Filters    Filters
	Enrich     bool // fill missing descriptions via the enrichment client
}

// Validate rejects contract violations before any upstream I/O.
func (q ResourceQuery) Validate() error {
	if !knownResources[q.Resource] {
		return errors.Wrapf(ErrUnknownResource, "%q", q.Resource)
	}
	if q.Limit < 1 {
		return &InvalidQueryError{Reason: fmt.Sprintf("limit must be >= 1, got %d", q.Limit)}
	}
	if q.Filters != nil && q.Filters.resource() != q.Resource {
		return &InvalidQueryError{Reason: fmt.Sprintf("filters for %s used on %s query", q.Filters.resource(), q.Resource)}
	}
	switch q.Resource {
	case Milestones:
		f, ok := q.Filters.(MilestoneFilters)
		if !ok || f.Repository == "" {
			return &MissingParameterError{Param: "repository"}
		}
	case Releases:
		f, ok := q.Filters.(ReleaseFilters)
		if !ok || f.Repository == "" {
			return &MissingParameterError{Param: "repository"}
		}
	}
	return nil
}

// params encodes the query's filters as upstream query parameters.
func (q ResourceQuery) params() url.Values {
	v := url.Values{}
	if q.Filters != nil {
		q.Filters.encode(v)
	}
	return v
}
