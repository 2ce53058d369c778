package models

import "time"

// SubmitterStatus is derived from the lifecycle timestamps.
type SubmitterStatus string

const (
	SubmitterPending   SubmitterStatus = "pending"
	SubmitterSent      SubmitterStatus = "sent"
	SubmitterOpened    SubmitterStatus = "opened"
	SubmitterCompleted SubmitterStatus = "completed"
)

// Submitter is one signing party of a submission. The lifecycle timestamps
// are monotonic: sent_at <= opened_at <= completed_at, and completed_at is
// written at most once and never cleared.
type Submitter struct {
	ID           string     `db:"id" json:"id"`
	SubmissionID string     `db:"submission_id" json:"submission_id"`
	UUID         string     `db:"uuid" json:"uuid"`
	Slug         string     `db:"slug" json:"slug"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	Position     int        `db:"position" json:"-"`
	Values       JSONMap    `db:"values" json:"values"`
	Metadata     JSONMap    `db:"metadata" json:"metadata"`
	ExternalID   *string    `db:"external_id" json:"external_id"`
	SendEmail    bool       `db:"send_email" json:"-"`
	SendSMS      bool       `db:"send_sms" json:"-"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at"`
	OpenedAt     *time.Time `db:"opened_at" json:"opened_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the submitter finished signing.
func (s *Submitter) Completed() bool {
	return s.CompletedAt != nil
}

// Status derives the lifecycle state from the timestamps.
func (s *Submitter) Status() SubmitterStatus {
	switch {
	case s.CompletedAt != nil:
		return SubmitterCompleted
	case s.OpenedAt != nil:
		return SubmitterOpened
	case s.SentAt != nil:
		return SubmitterSent
	default:
		return SubmitterPending
	}
}
