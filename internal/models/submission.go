package models

import "time"

// SubmittersOrder governs whether submitters act sequentially or independently.
type SubmittersOrder string

const (
	// OrderPreserved requires submitters to complete in their declared order.
	OrderPreserved SubmittersOrder = "preserved"
	// OrderRandom imposes no ordering constraint.
	OrderRandom SubmittersOrder = "random"
)

// SubmissionStatus is the derived aggregate state; it is never stored.
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
)

// SubmissionSource records which surface created the submission.
type SubmissionSource string

const (
	SourceAPI    SubmissionSource = "api"
	SourceInvite SubmissionSource = "invite"
)

// Submission is one signing request instantiated from a template.
// Its aggregate status is derived from the submitters' completed_at
// timestamps; the audit trail reference is attached at most once.
type Submission struct {
	ID                   string           `db:"id" json:"id"`
	TemplateID           string           `db:"template_id" json:"template_id"`
	AccountID            string           `db:"account_id" json:"account_id"`
	CreatedByUserID      string           `db:"created_by_user_id" json:"created_by_user_id"`
	Source               SubmissionSource `db:"source" json:"source"`
	SubmittersOrder      SubmittersOrder  `db:"submitters_order" json:"submitters_order"`
	AuditTrailDocumentID *string          `db:"audit_trail_document_id" json:"-"`
	ArchivedAt           *time.Time       `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time        `db:"updated_at" json:"updated_at"`
}

// Archived reports whether the submission was soft deleted.
func (s *Submission) Archived() bool {
	return s.ArchivedAt != nil
}
