package dto

// Message overrides the notification subject/body for a submission or a
// single submitter.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// FieldParams overrides a template field definition for one submitter.
// DefaultValue may carry a data: URI whose payload is persisted as a
// default-value attachment bound to the field.
type FieldParams struct {
	Name              string `json:"name" binding:"required"`
	DefaultValue      string `json:"default_value"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	ReadOnly          *bool  `json:"readonly"`
	ValidationPattern string `json:"validation_pattern"`
	InvalidMessage    string `json:"invalid_message"`
}

// SubmitterParams is the fully specified per-submitter request form.
type SubmitterParams struct {
	UUID           string                 `json:"uuid"`
	Role           string                 `json:"role"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	Completed      bool                   `json:"completed"`
	ExternalID     string                 `json:"external_id"`
	Values         map[string]interface{} `json:"values"`
	Metadata       map[string]interface{} `json:"metadata"`
	ReadonlyFields []string               `json:"readonly_fields"`
	Fields         []FieldParams          `json:"fields"`
	SendEmail      *bool                  `json:"send_email"`
	SendSMS        *bool                  `json:"send_sms"`
	Message        *Message               `json:"message"`
}

// CreateSubmissionRequest is the tagged-union creation payload: either a bare
// list of emails or a fully specified submitters structure, never both.
type CreateSubmissionRequest struct {
	TemplateID      string            `json:"template_id" binding:"required"`
	Emails          []string          `json:"emails"`
	Submitters      []SubmitterParams `json:"submitters"`
	SendEmail       *bool             `json:"send_email"`
	SendSMS         *bool             `json:"send_sms"`
	SubmittersOrder string            `json:"submitters_order" binding:"omitempty,oneof=preserved random"`
	Message         *Message          `json:"message"`
	ReplyTo         string            `json:"reply_to"`
	BCCCompleted    string            `json:"bcc_completed"`
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	TemplateID      string
	TemplateFolder  string
	Query           string
	Slug            string
	IncludeArchived bool
	Limit           int
	Before          string
	After           string
}

// ArchiveResponse confirms a soft delete.
type ArchiveResponse struct {
	ID         string `json:"id"`
	ArchivedAt string `json:"archived_at"`
}
