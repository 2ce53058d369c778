package models

import "time"

// Attachment is a binary default value supplied out-of-band during
// normalization and bound to a specific field of a submitter. Rows are
// written in the same transaction as their submitter.
type Attachment struct {
	ID          string    `db:"id" json:"id"`
	SubmitterID string    `db:"submitter_id" json:"submitter_id"`
	FieldName   string    `db:"field_name" json:"field_name"`
	Filename    string    `db:"filename" json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	Data        []byte    `db:"data" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
