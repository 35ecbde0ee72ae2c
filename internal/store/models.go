package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB is a generic type for PostgreSQL JSONB columns.
type JSONB json.RawMessage

func (j JSONB) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "{}", nil
	}
	return string(j), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = JSONB("{}")
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = JSONB(v)
	case string:
		*j = JSONB(v)
	default:
		return fmt.Errorf("unsupported type for JSONB: %T", value)
	}
	return nil
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("{}"), nil
	}
	return json.RawMessage(j).MarshalJSON()
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	*j = JSONB(data)
	return nil
}

// ToolUsage is one recorded tool invocation. Observational only; nothing in
// the request path reads it back.
type ToolUsage struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Caller     string  `gorm:"type:text;not null;index" json:"caller"`
	Tool       string  `gorm:"type:text;not null;index" json:"tool"`
	RequestID  *string `gorm:"type:text" json:"request_id,omitempty"`
	DurationMs int64   `gorm:"not null" json:"duration_ms"`
	Details    JSONB   `gorm:"type:jsonb;default:'{}'" json:"details"`
	CreatedAt  time.Time
}

func (ToolUsage) TableName() string { return "nestbridge.tool_usage" }
