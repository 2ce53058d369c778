package models

import "time"

// DocumentKind distinguishes derived artifact types.
type DocumentKind string

const (
	// DocumentResult is a per-submitter signed result document.
	DocumentResult DocumentKind = "result"
	// DocumentAuditTrail is the submission-wide completion audit trail.
	DocumentAuditTrail DocumentKind = "audit_trail"
)

// Document is a generated artifact. Result documents reference a submitter,
// the audit trail references its submission; the row is only written after
// the file was rendered and stored, so its existence implies a usable file.
type Document struct {
	ID           string       `db:"id" json:"id"`
	SubmitterID  *string      `db:"submitter_id" json:"submitter_id,omitempty"`
	SubmissionID *string      `db:"submission_id" json:"submission_id,omitempty"`
	Kind         DocumentKind `db:"kind" json:"kind"`
	Filename     string       `db:"filename" json:"filename"`
	ContentType  string       `db:"content_type" json:"content_type"`
	ByteSize     int64        `db:"byte_size" json:"byte_size"`
	Checksum     string       `db:"checksum" json:"checksum"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}
