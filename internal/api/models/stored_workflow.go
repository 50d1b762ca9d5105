package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// WorkflowDocument stores the serialized workflow definition as raw JSON so
// the database column round-trips byte for byte.
type WorkflowDocument []byte

// Scan implements sql.Scanner interface
func (d *WorkflowDocument) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*d = append((*d)[:0], v...)
		return nil
	case string:
		*d = WorkflowDocument(v)
		return nil
	default:
		return fmt.Errorf("cannot scan type %T into WorkflowDocument", value)
	}
}

// Value implements driver.Valuer interface
func (d WorkflowDocument) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return []byte(d), nil
}

// MarshalJSON implements json.Marshaler - returns raw JSON
func (d WorkflowDocument) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON implements json.Unmarshaler - stores raw JSON
func (d *WorkflowDocument) UnmarshalJSON(data []byte) error {
	if data == nil {
		*d = nil
		return nil
	}
	*d = append((*d)[:0], data...)
	return nil
}

// StoredWorkflow is a persisted workflow definition with its editor state.
type StoredWorkflow struct {
	ID          uint   `gorm:"primaryKey"`
	ExternalID  string `gorm:"uniqueIndex;size:64"`
	Name        string
	Description string
	Version     string
	Document    WorkflowDocument `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
