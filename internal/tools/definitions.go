package tools

// Limit/page defaults applied when a tool omits them.
const defaultLimit = 10

var limitProp = Property{Type: "number", Description: "How many items to return in total. The server fetches as many upstream pages as needed. Default: 10"}

var toolDefinitions = []Tool{
	{
		Name:        "get_projects",
		Description: "List OWASP projects, optionally filtered by maturity level and project type.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"level":  {Type: "string", Description: "Project maturity level", Enum: []string{"flagship", "lab", "incubator"}},
				"type":   {Type: "string", Description: "Project type", Enum: []string{"tool", "documentation", "code"}},
				"limit":  limitProp,
				"enrich": {Type: "boolean", Description: "Visit each project page to fill in missing descriptions. Slower. Default: false"},
			},
		},
	},
	{
		Name:        "get_events",
		Description: "List OWASP events.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"limit":    limitProp,
				"upcoming": {Type: "boolean", Description: "Only events that have not happened yet"},
			},
		},
	},
	{
		Name:        "get_issues",
		Description: "List open issues across OWASP repositories.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"priority": {Type: "string", Description: "Issue priority", Enum: []string{"high", "medium", "low"}},
				"project":  {Type: "string", Description: "Limit to one project"},
				"limit":    limitProp,
			},
		},
	},
	{
		Name:        "get_contributors",
		Description: "List contributors. Upstream orders by join date, not contribution volume.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"limit":   limitProp,
				"project": {Type: "string", Description: "Limit to one project"},
			},
		},
	},
	{
		Name:        "get_chapters",
		Description: "List OWASP chapters, optionally filtered by location.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"location": {Type: "string", Description: "City, country, or region"},
				"limit":    limitProp,
			},
		},
	},
	{
		Name:        "get_committees",
		Description: "List OWASP committees.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"limit": limitProp,
			},
		},
	},
	{
		Name:        "get_milestones",
		Description: "List milestones for a repository.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"repository":   {Type: "string", Description: "Repository name"},
				"organization": {Type: "string", Description: "Organization name. Default: OWASP"},
				"limit":        limitProp,
			},
			Required: []string{"repository"},
		},
	},
	{
		Name:        "get_releases",
		Description: "List releases for a repository.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"repository":   {Type: "string", Description: "Repository name"},
				"organization": {Type: "string", Description: "Organization name. Default: OWASP"},
				"limit":        limitProp,
			},
			Required: []string{"repository"},
		},
	},
	{
		Name:        "get_repositories",
		Description: "List repositories.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"organization": {Type: "string", Description: "Limit to one organization"},
				"limit":        limitProp,
			},
		},
	},
	{
		Name:        "get_sponsors",
		Description: "List OWASP sponsors.",
		Annotations: AnnotateReadOnly,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"limit": limitProp,
			},
		},
	},
	{
		Name:        "search_internet",
		Description: "Fetch a web page and extract its title, description, and links.",
		Annotations: AnnotateOpenWorld,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Absolute URL of the page to visit"},
			},
			Required: []string{"url"},
		},
	},
}

// Definitions returns the full tool table exposed via tools/list.
func Definitions() []Tool {
	return toolDefinitions
}

func findTool(name string) (Tool, bool) {
	for _, t := range toolDefinitions {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
