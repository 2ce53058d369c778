package dto

// CompleteFormRequest carries the field values of a completion signal.
type CompleteFormRequest struct {
	Values map[string]interface{} `json:"values"`
}

// UpdateAppURLRequest replaces the configured deployment base URL.
type UpdateAppURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}
