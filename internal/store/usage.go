// Package store records tool usage in Postgres. Optional: when no database
// is configured the rest of the server runs unchanged.
package store

import (
	"encoding/json"
	"log"
	"time"

	"github.com/go-faster/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the usage-log database. A nil *Store is valid and inert, so
// callers never branch on whether persistence is enabled.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the usage table.
func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.AutoMigrate(&ToolUsage{}); err != nil {
		return nil, errors.Wrap(err, "migrate usage table")
	}
	return &Store{db: db}, nil
}

// RecordUsage inserts a usage row asynchronously. Fire-and-forget: failures
// are logged, never surfaced to the tool caller. details carries the tool
// arguments for later inspection.
func (s *Store) RecordUsage(caller, tool, requestID string, durationMs int64, details map[string]any) {
	if s == nil {
		return
	}
	entry := usageEntry(caller, tool, requestID, durationMs, details)
	go func() {
		if err := s.db.Create(&entry).Error; err != nil {
			log.Printf("Failed to record usage: %v", err)
		}
	}()
}

func usageEntry(caller, tool, requestID string, durationMs int64, details map[string]any) ToolUsage {
	entry := ToolUsage{
		Caller:     caller,
		Tool:       tool,
		DurationMs: durationMs,
	}
	if requestID != "" {
		entry.RequestID = &requestID
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = JSONB(b)
		}
	}
	return entry
}

// UsageSince returns per-tool invocation counts from the given time.
func (s *Store) UsageSince(since time.Time) (map[string]int, error) {
	if s == nil {
		return map[string]int{}, nil
	}
	type toolCount struct {
		Tool  string
		Count int
	}
	var counts []toolCount
	err := s.db.Model(&ToolUsage{}).
		Select("tool, count(*) as count").
		Where("created_at >= ?", since).
		Group("tool").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "query usage")
	}
	byTool := make(map[string]int, len(counts))
	for _, c := range counts {
		byTool[c.Tool] = c.Count
	}
	return byTool, nil
}

// HealthCheck pings the database.
func (s *Store) HealthCheck() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
