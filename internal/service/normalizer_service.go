package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
)

// NormalizerService resolves the tagged-union creation payload into the
// canonical submitter specification consumed by the factory.
type NormalizerService struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// NewNormalizerService constructs the normalizer.
func NewNormalizerService(logger *zap.Logger) *NormalizerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NormalizerService{
		validate: validator.New(),
		logger:   logger,
	}
}

// Normalize turns either request form into an ordered canonical sequence of
// submitter specifications plus any extracted default-value attachments.
// Supplying both forms at once is ambiguous caller input and rejected.
func (s *NormalizerService) Normalize(req dto.CreateSubmissionRequest, template *models.Template) ([]dto.SubmitterSpec, []dto.SpecAttachment, error) {
	hasEmails := len(req.Emails) > 0
	hasSubmitters := len(req.Submitters) > 0

	switch {
	case hasEmails && hasSubmitters:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "emails and submitters cannot be combined in one request")
	case !hasEmails && !hasSubmitters:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "emails or submitters required")
	}

	if len(template.Submitters) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "template does not declare submitter roles")
	}

	if hasEmails {
		specs, err := s.normalizeEmails(req, template)
		return specs, nil, err
	}
	return s.normalizeSubmitters(req, template)
}

func (s *NormalizerService) normalizeEmails(req dto.CreateSubmissionRequest, template *models.Template) ([]dto.SubmitterSpec, error) {
	roles := template.Submitters
	specs := make([]dto.SubmitterSpec, 0, len(req.Emails))
	for i, email := range req.Emails {
		email = strings.TrimSpace(email)
		if err := s.validate.Var(email, "required,email"); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid email %q", email))
		}
		role := roles[i%len(roles)]
		specs = append(specs, dto.SubmitterSpec{
			RoleUUID:  role.UUID,
			Role:      role.Name,
			Email:     email,
			Values:    map[string]interface{}{},
			Metadata:  map[string]interface{}{},
			SendEmail: boolOrDefault(req.SendEmail, true),
			SendSMS:   boolOrDefault(req.SendSMS, false),
			Message:   req.Message,
		})
	}
	return specs, nil
}

func (s *NormalizerService) normalizeSubmitters(req dto.CreateSubmissionRequest, template *models.Template) ([]dto.SubmitterSpec, []dto.SpecAttachment, error) {
	roles := template.Submitters
	specs := make([]dto.SubmitterSpec, 0, len(req.Submitters))
	attachments := make([]dto.SpecAttachment, 0)

	for i, params := range req.Submitters {
		role, err := resolveRole(roles, params, i)
		if err != nil {
			return nil, nil, err
		}

		email := strings.TrimSpace(params.Email)
		if err := s.validate.Var(email, "required,email"); err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid email %q for role %s", email, role.Name))
		}

		values := make(map[string]interface{}, len(params.Values))
		for k, v := range params.Values {
			values[k] = v
		}

		for _, field := range params.Fields {
			if field.DefaultValue == "" {
				continue
			}
			if data, contentType, ok := decodeDataURI(field.DefaultValue); ok {
				attachments = append(attachments, dto.SpecAttachment{
					SubmitterIndex: i,
					FieldName:      field.Name,
					Filename:       field.Name + extensionFor(contentType),
					ContentType:    contentType,
					Data:           data,
				})
				continue
			}
			if _, exists := values[field.Name]; !exists {
				values[field.Name] = field.DefaultValue
			}
		}

		metadata := params.Metadata
		if metadata == nil {
			metadata = map[string]interface{}{}
		}

		message := params.Message
		if message == nil {
			message = req.Message
		}

		completed := params.Completed
		if !completed && len(values) > 0 {
			completed = requiredFieldsSatisfied(template, role.UUID, values)
		}

		specs = append(specs, dto.SubmitterSpec{
			RoleUUID:       role.UUID,
			Role:           role.Name,
			Name:           params.Name,
			Email:          email,
			Phone:          params.Phone,
			ExternalID:     params.ExternalID,
			Values:         values,
			Metadata:       metadata,
			ReadonlyFields: params.ReadonlyFields,
			FieldOverrides: params.Fields,
			SendEmail:      boolOrDefault(params.SendEmail, boolOrDefault(req.SendEmail, true)),
			SendSMS:        boolOrDefault(params.SendSMS, boolOrDefault(req.SendSMS, false)),
			Completed:      completed,
			Message:        message,
		})
	}
	return specs, attachments, nil
}

func resolveRole(roles models.TemplateSubmitters, params dto.SubmitterParams, index int) (models.TemplateSubmitter, error) {
	if params.UUID != "" {
		for _, role := range roles {
			if role.UUID == params.UUID {
				return role, nil
			}
		}
		return models.TemplateSubmitter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown submitter uuid %s", params.UUID))
	}
	if params.Role != "" {
		for _, role := range roles {
			if role.Name == params.Role {
				return role, nil
			}
		}
		return models.TemplateSubmitter{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", params.Role))
	}
	if index >= len(roles) {
		return models.TemplateSubmitter{}, appErrors.Clone(appErrors.ErrValidation, "more submitters than template roles")
	}
	return roles[index], nil
}

// requiredFieldsSatisfied reports whether the supplied values cover every
// required non-readonly field bound to the role.
func requiredFieldsSatisfied(template *models.Template, roleUUID string, values map[string]interface{}) bool {
	seen := false
	for _, field := range template.FieldsForSubmitter(roleUUID) {
		if !field.Required || field.ReadOnly {
			continue
		}
		seen = true
		value, ok := values[field.Name]
		if !ok || value == nil || value == "" {
			return false
		}
	}
	return seen
}

// decodeDataURI extracts the payload of a base64 data: URI.
func decodeDataURI(raw string) ([]byte, string, bool) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", false
	}
	rest := strings.TrimPrefix(raw, "data:")
	sep := strings.Index(rest, ";base64,")
	if sep < 0 {
		return nil, "", false
	}
	contentType := rest[:sep]
	payload := rest[sep+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}
	return data, contentType, true
}

func extensionFor(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	default:
		return ""
	}
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
