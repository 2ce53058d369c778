package dto

import "time"

// DocumentSnapshot is the external view of a generated artifact.
type DocumentSnapshot struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// EventSnapshot is the external view of a submission event.
type EventSnapshot struct {
	ID             string    `json:"id"`
	SubmitterID    string    `json:"submitter_id"`
	EventType      string    `json:"event_type"`
	EventTimestamp time.Time `json:"event_timestamp"`
}

// SubmitterSnapshot is the serialized read-only view of one signing party.
type SubmitterSnapshot struct {
	ID           string                 `json:"id"`
	SubmissionID string                 `json:"submission_id"`
	UUID         string                 `json:"uuid"`
	Slug         string                 `json:"slug"`
	Name         string                 `json:"name"`
	Email        string                 `json:"email"`
	Phone        string                 `json:"phone"`
	Role         string                 `json:"role"`
	Status       string                 `json:"status"`
	Values       map[string]interface{} `json:"values"`
	Metadata     map[string]interface{} `json:"metadata"`
	ExternalID   *string                `json:"external_id"`
	EmbedSrc     string                 `json:"embed_src"`
	Documents    []DocumentSnapshot     `json:"documents"`
	SentAt       *time.Time             `json:"sent_at"`
	OpenedAt     *time.Time             `json:"opened_at"`
	CompletedAt  *time.Time             `json:"completed_at"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// TemplateRef is the embedded template reference of a submission snapshot.
type TemplateRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRef identifies the creating user of a submission.
type UserRef struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SubmissionSnapshot is the serialized read-only view of a submission.
type SubmissionSnapshot struct {
	ID              string              `json:"id"`
	Source          string              `json:"source"`
	SubmittersOrder string              `json:"submitters_order"`
	Status          string              `json:"status"`
	AuditLogURL     *string             `json:"audit_log_url"`
	CompletedAt     *time.Time          `json:"completed_at"`
	ArchivedAt      *time.Time          `json:"archived_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Template        TemplateRef         `json:"template"`
	CreatedBy       *UserRef            `json:"created_by_user,omitempty"`
	Documents       []DocumentSnapshot  `json:"documents"`
	Submitters      []SubmitterSnapshot `json:"submitters"`
	Events          []EventSnapshot     `json:"submission_events,omitempty"`
}
