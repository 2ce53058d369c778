package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TemplateField declares one fillable field of a template document.
// SubmitterUUID binds the field to a role from the template's submitter table.
type TemplateField struct {
	Name              string  `json:"name"`
	Title             string  `json:"title,omitempty"`
	Description       string  `json:"description,omitempty"`
	Type              string  `json:"type,omitempty"`
	SubmitterUUID     string  `json:"submitter_uuid"`
	Required          bool    `json:"required"`
	ReadOnly          bool    `json:"readonly"`
	DefaultValue      string  `json:"default_value,omitempty"`
	ValidationPattern string  `json:"validation_pattern,omitempty"`
	InvalidMessage    string  `json:"invalid_message,omitempty"`
}

// TemplateSubmitter is one declared signing role of a template.
type TemplateSubmitter struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// TemplateFields is the jsonb column wrapper for the field definitions.
type TemplateFields []TemplateField

// TemplateSubmitters is the jsonb column wrapper for the role table.
type TemplateSubmitters []TemplateSubmitter

// Template is the reusable blueprint submissions are instantiated from.
type Template struct {
	ID         string             `db:"id" json:"id"`
	AccountID  string             `db:"account_id" json:"account_id"`
	AuthorID   string             `db:"author_id" json:"author_id"`
	Name       string             `db:"name" json:"name"`
	FolderName string             `db:"folder_name" json:"folder_name"`
	IsPublic   bool               `db:"is_public" json:"is_public"`
	Fields     TemplateFields     `db:"fields" json:"fields"`
	Submitters TemplateSubmitters `db:"submitters" json:"submitters"`
	ArchivedAt *time.Time         `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}

// RoleByUUID resolves a declared role by its uuid.
func (t *Template) RoleByUUID(uuid string) (TemplateSubmitter, bool) {
	for _, s := range t.Submitters {
		if s.UUID == uuid {
			return s, true
		}
	}
	return TemplateSubmitter{}, false
}

// FieldsForSubmitter returns the fields bound to the given role uuid.
func (t *Template) FieldsForSubmitter(uuid string) []TemplateField {
	fields := make([]TemplateField, 0)
	for _, f := range t.Fields {
		if f.SubmitterUUID == uuid {
			fields = append(fields, f)
		}
	}
	return fields
}

// Value implements driver.Valuer.
func (f TemplateFields) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *TemplateFields) Scan(src interface{}) error {
	return scanJSON(src, f)
}

// Value implements driver.Valuer.
func (s TemplateSubmitters) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *TemplateSubmitters) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
