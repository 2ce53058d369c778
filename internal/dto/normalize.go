package dto

// SubmitterSpec is the canonical per-submitter specification the normalizer
// emits. Downstream components consume only this shape regardless of which
// request form produced it.
type SubmitterSpec struct {
	RoleUUID       string
	Role           string
	Name           string
	Email          string
	Phone          string
	ExternalID     string
	Values         map[string]interface{}
	Metadata       map[string]interface{}
	ReadonlyFields []string
	FieldOverrides []FieldParams
	SendEmail      bool
	SendSMS        bool
	Completed      bool
	Message        *Message
}

// SpecAttachment is a binary default value extracted during normalization.
// SubmitterIndex binds it to the spec entry it belongs to so persistence can
// happen in the same transaction as submitter creation.
type SpecAttachment struct {
	SubmitterIndex int
	FieldName      string
	Filename       string
	ContentType    string
	Data           []byte
}

// EventContext carries request metadata recorded alongside lifecycle events.
type EventContext struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
