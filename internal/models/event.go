package models

import "time"

// EventType enumerates tracked submitter lifecycle events.
type EventType string

const (
	EventSendEmail       EventType = "send_email"
	EventViewForm        EventType = "view_form"
	EventCompleteForm    EventType = "complete_form"
	EventAPICompleteForm EventType = "api_complete_form"
)

// SubmissionEvent is an append-only record of a submitter lifecycle event.
// Rows are never mutated after insertion; ordering within a submitter is by
// event_timestamp.
type SubmissionEvent struct {
	ID             string    `db:"id" json:"id"`
	SubmissionID   string    `db:"submission_id" json:"-"`
	SubmitterID    string    `db:"submitter_id" json:"submitter_id"`
	EventType      EventType `db:"event_type" json:"event_type"`
	EventTimestamp time.Time `db:"event_timestamp" json:"event_timestamp"`
	Data           JSONMap   `db:"data" json:"-"`
}
