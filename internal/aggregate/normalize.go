package aggregate

import (
	"fmt"
	"strings"
)

// Record is one canonical output row. Every field declared for the resource
// type is always present; missing upstream values are replaced with the
// documented fallback, never left absent.
type Record map[string]any

// Fallback literals shared across resource types.
const (
	fallbackName        = "Unknown"
	fallbackDescription = "No description available"
	fallbackDate        = "Unknown"
	nestBaseURL         = "https://nest.owasp.org"
	defaultOrganization = "OWASP"
)

// fieldSpec declares how one canonical field is derived: the ordered list of
// upstream names to probe (the API mixes snake_case and camelCase for the
// same logical field) and the value used when all of them are absent or empty.
type fieldSpec struct {
	key      string
	sources  []string
	fallback any
}

var fieldTable = map[ResourceType][]fieldSpec{
	Projects: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url", "nest_url", "nestUrl"}, ""},
		{"key", []string{"key"}, ""},
		{"level", []string{"level"}, "unknown"},
		{"type", []string{"type"}, "unknown"},
		{"leaders", []string{"leaders"}, []any{}},
		{"stars", []string{"stars_count", "starsCount"}, float64(0)},
		{"contributorsCount", []string{"contributors_count", "contributorsCount"}, float64(0)},
	},
	Events: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url"}, ""},
		{"startDate", []string{"start_date", "startDate"}, fallbackDate},
		{"endDate", []string{"end_date", "endDate"}, fallbackDate},
		{"location", []string{"suggested_location", "suggestedLocation", "location"}, "Location not specified"},
		{"category", []string{"category"}, "general"},
	},
	Issues: {
		{"title", []string{"title", "name"}, fallbackName},
		{"description", []string{"summary", "description", "body"}, fallbackDescription},
		{"url", []string{"url", "html_url", "htmlUrl"}, ""},
		{"priority", []string{"priority"}, "medium"},
		{"labels", []string{"labels"}, []any{}},
		{"project", []string{"project_name", "projectName", "project"}, fallbackName},
		{"repository", []string{"repository_name", "repositoryName"}, fallbackName},
		{"createdAt", []string{"created_at", "createdAt"}, fallbackDate},
	},
	Contributors: {
		{"name", []string{"name", "login"}, fallbackName},
		{"description", []string{"bio", "description"}, fallbackDescription},
		{"url", []string{"url", "html_url", "htmlUrl"}, ""},
		{"avatarUrl", []string{"avatar_url", "avatarUrl"}, ""},
		{"joinedDate", []string{"joined_date", "joinedDate", "created_at", "createdAt"}, fallbackDate},
		{"contributions", []string{"contributions_count", "contributionsCount"}, float64(0)},
		{"project", []string{"project_name", "projectName"}, ""},
	},
	Chapters: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url", "nest_url", "nestUrl"}, ""},
		{"key", []string{"key"}, ""},
		{"location", []string{"suggested_location", "suggestedLocation", "location"}, "Location not specified"},
		{"region", []string{"region"}, "Unknown"},
		{"country", []string{"country"}, "Unknown"},
	},
	Committees: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url", "nest_url", "nestUrl"}, ""},
		{"key", []string{"key"}, ""},
		{"membersCount", []string{"members_count", "membersCount"}, float64(0)},
	},
	Milestones: {
		{"title", []string{"title", "name"}, fallbackName},
		{"description", []string{"body", "description"}, fallbackDescription},
		{"url", []string{"url", "html_url", "htmlUrl"}, ""},
		{"state", []string{"state"}, "open"},
		{"openIssues", []string{"open_issues_count", "openIssuesCount"}, float64(0)},
		{"closedIssues", []string{"closed_issues_count", "closedIssuesCount"}, float64(0)},
		{"createdAt", []string{"created_at", "createdAt"}, fallbackDate},
		{"repository", []string{"repository_name", "repositoryName"}, ""},
	},
	Releases: {
		{"name", []string{"name", "tag_name", "tagName"}, fallbackName},
		{"description", []string{"description", "body"}, fallbackDescription},
		{"url", []string{"url", "html_url", "htmlUrl"}, ""},
		{"tagName", []string{"tag_name", "tagName"}, ""},
		{"publishedAt", []string{"published_at", "publishedAt"}, fallbackDate},
		{"author", []string{"author_name", "authorName", "author"}, fallbackName},
		{"repository", []string{"repository_name", "repositoryName"}, ""},
	},
	Repositories: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url", "html_url", "htmlUrl"}, ""},
		{"stars", []string{"stars_count", "starsCount", "stargazers_count"}, float64(0)},
		{"forks", []string{"forks_count", "forksCount"}, float64(0)},
		{"language", []string{"language"}, "Unknown"},
		{"organization", []string{"organization_name", "organizationName"}, defaultOrganization},
	},
	Sponsors: {
		{"name", []string{"name", "title"}, fallbackName},
		{"description", []string{"description", "summary"}, fallbackDescription},
		{"url", []string{"url", "website"}, ""},
		{"sponsorType", []string{"sponsor_type", "sponsorType"}, "supporter"},
		{"imageUrl", []string{"image_url", "imageUrl", "logo_url", "logoUrl"}, ""},
	},
}

// Normalize maps a raw upstream item onto the canonical Record shape for its
// resource type. Pure function, no I/O. Filters are consulted only for the
// milestone/release URL fallback (which embeds organization/repository).
func Normalize(resource ResourceType, raw map[string]any, filters Filters) Record {
	rec := make(Record, len(fieldTable[resource]))
	for _, spec := range fieldTable[resource] {
		rec[spec.key] = probe(raw, spec)
	}

	switch resource {
	case Projects:
		synthesizeKeyedURL(rec, "projects")
	case Chapters:
		synthesizeKeyedURL(rec, "chapters")
	case Committees:
		synthesizeKeyedURL(rec, "committees")
	case Milestones:
		if rec["url"] == "" {
			org, repo := repoScope(filters)
			rec["url"] = fmt.Sprintf("https://github.com/%s/%s/milestones#%s", org, repo, DeriveKey(displayName(rec)))
		}
	case Releases:
		if rec["url"] == "" {
			org, repo := repoScope(filters)
			if tag, _ := rec["tagName"].(string); tag != "" {
				rec["url"] = fmt.Sprintf("https://github.com/%s/%s/releases/tag/%s", org, repo, tag)
			} else {
				rec["url"] = fmt.Sprintf("https://github.com/%s/%s/releases#%s", org, repo, DeriveKey(displayName(rec)))
			}
		}
	default:
		synthesizeSectionURL(rec, string(resource))
	}
	return rec
}

// probe tries each source name in order and returns the first usable value.
func probe(raw map[string]any, spec fieldSpec) any {
	for _, src := range spec.sources {
		v, ok := raw[src]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			if s == "" {
				continue
			}
			return s
		}
		return v
	}
	return spec.fallback
}

// synthesizeKeyedURL derives the record key from its display name when the
// upstream key is missing, then fills the URL from the Nest URL template.
func synthesizeKeyedURL(rec Record, section string) {
	key, _ := rec["key"].(string)
	if key == "" {
		name, _ := rec["name"].(string)
		key = DeriveKey(name)
		rec["key"] = key
	}
	if rec["url"] == "" {
		rec["url"] = fmt.Sprintf("%s/%s/%s", nestBaseURL, section, key)
	}
}

// synthesizeSectionURL points a record without an upstream URL at its section
// listing, keyed by a fragment derived from the display name. The fragment
// keeps canonical URLs distinct across URL-less records, which is what the
// dedup pass keys on.
func synthesizeSectionURL(rec Record, section string) {
	if rec["url"] != "" {
		return
	}
	rec["url"] = fmt.Sprintf("%s/%s#%s", nestBaseURL, section, DeriveKey(displayName(rec)))
}

func displayName(rec Record) string {
	if s, _ := rec["name"].(string); s != "" {
		return s
	}
	s, _ := rec["title"].(string)
	return s
}

// DeriveKey lower-cases and hyphenates a display name into a URL-safe key.
// "OWASP Juice Shop" becomes "juice-shop" (the www-project prefix upstream
// uses is not part of the display key).
func DeriveKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimPrefix(key, "owasp ")
	key = strings.Join(strings.Fields(key), "-")
	return key
}

// repoScope extracts the organization/repository pair from milestone or
// release filters, defaulting the organization when absent.
func repoScope(filters Filters) (org, repo string) {
	org = defaultOrganization
	switch f := filters.(type) {
	case MilestoneFilters:
		if f.Organization != "" {
			org = f.Organization
		}
		repo = f.Repository
	case ReleaseFilters:
		if f.Organization != "" {
			org = f.Organization
		}
		repo = f.Repository
	}
	return org, repo
}
