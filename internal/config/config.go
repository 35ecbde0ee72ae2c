// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"

	"nestbridge/server/internal/aggregate"
)

// Config holds everything the process needs at startup.
type Config struct {
	Port string

	NestBaseURL     string
	NestAPIKey      string
	UpstreamTimeout time.Duration

	// PageCaps is the per-resource upstream page size cap. The cap is a
	// deployment property, not a constant: the upstream enforces 100 for
	// most listings but 50 for committees.
	PageCaps map[aggregate.ResourceType]int

	DatabaseURL      string
	ServiceJWTSecret string

	RateLimitPerSecond int
}

// defaultPageCaps reflects the observed upstream limits.
var defaultPageCaps = map[aggregate.ResourceType]int{
	aggregate.Committees: 50,
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8089"),
		NestBaseURL:        os.Getenv("NEST_BASE_URL"),
		NestAPIKey:         os.Getenv("NEST_API_KEY"),
		UpstreamTimeout:    10 * time.Second,
		PageCaps:           make(map[aggregate.ResourceType]int),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		ServiceJWTSecret:   os.Getenv("SERVICE_JWT_SECRET"),
		RateLimitPerSecond: 10,
	}

	if v := os.Getenv("NEST_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			return nil, errors.Errorf("invalid NEST_TIMEOUT_SECONDS: %q", v)
		}
		cfg.UpstreamTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("RATE_LIMIT_PER_SECOND"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, errors.Errorf("invalid RATE_LIMIT_PER_SECOND: %q", v)
		}
		cfg.RateLimitPerSecond = n
	}

	if err := cfg.loadPageCaps(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadPageCaps resolves page caps in precedence order: built-in defaults,
// then NEST_PAGE_CAP, then NEST_PAGE_CAP_<RESOURCE>.
func (c *Config) loadPageCaps() error {
	for resource, pageCap := range defaultPageCaps {
		c.PageCaps[resource] = pageCap
	}

	if v := os.Getenv("NEST_PAGE_CAP"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return errors.Errorf("invalid NEST_PAGE_CAP: %q", v)
		}
		for resource := range resourceEnvNames {
			c.PageCaps[resource] = n
		}
	}

	for resource, envName := range resourceEnvNames {
		v := os.Getenv("NEST_PAGE_CAP_" + envName)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return errors.Errorf("invalid NEST_PAGE_CAP_%s: %q", envName, v)
		}
		c.PageCaps[resource] = n
	}

	return nil
}

var resourceEnvNames = map[aggregate.ResourceType]string{
	aggregate.Projects:     "PROJECTS",
	aggregate.Events:       "EVENTS",
	aggregate.Issues:       "ISSUES",
	aggregate.Contributors: "CONTRIBUTORS",
	aggregate.Chapters:     "CHAPTERS",
	aggregate.Committees:   "COMMITTEES",
	aggregate.Milestones:   "MILESTONES",
	aggregate.Releases:     "RELEASES",
	aggregate.Repositories: "REPOSITORIES",
	aggregate.Sponsors:     "SPONSORS",
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
