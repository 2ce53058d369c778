package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sealbase/sealbase-api/internal/dto"
	"github.com/sealbase/sealbase-api/internal/models"
)

// SubmissionRepository persists submissions and their owned entities.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionColumns = `id, template_id, account_id, created_by_user_id, source, submitters_order, audit_trail_document_id, archived_at, created_at, updated_at`

const insertSubmissionQuery = `INSERT INTO submissions (id, template_id, account_id, created_by_user_id, source, submitters_order, created_at, updated_at)
VALUES (:id, :template_id, :account_id, :created_by_user_id, :source, :submitters_order, :created_at, :updated_at)`

const insertSubmitterQuery = `INSERT INTO submitters (id, submission_id, uuid, slug, name, email, phone, position, "values", metadata, external_id, send_email, send_sms, sent_at, opened_at, completed_at, created_at, updated_at)
VALUES (:id, :submission_id, :uuid, :slug, :name, :email, :phone, :position, :values, :metadata, :external_id, :send_email, :send_sms, :sent_at, :opened_at, :completed_at, :created_at, :updated_at)`

const insertAttachmentQuery = `INSERT INTO attachments (id, submitter_id, field_name, filename, content_type, data, created_at)
VALUES (:id, :submitter_id, :field_name, :filename, :content_type, :data, :created_at)`

const insertEventQuery = `INSERT INTO submission_events (id, submission_id, submitter_id, event_type, event_timestamp, data)
VALUES (:id, :submission_id, :submitter_id, :event_type, :event_timestamp, :data)`

// CreateWithSubmitters inserts a submission together with its submitters,
// their default-value attachments and any pre-completion events in a single
// transaction. A partially persisted set must never be observable.
func (r *SubmissionRepository) CreateWithSubmitters(ctx context.Context, submission *models.Submission, submitters []*models.Submitter, attachments []*models.Attachment, events []*models.SubmissionEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create submission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = submission.CreatedAt

	if _, err := tx.NamedExecContext(ctx, insertSubmissionQuery, submission); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	for _, submitter := range submitters {
		submitter.SubmissionID = submission.ID
		if submitter.ID == "" {
			submitter.ID = uuid.NewString()
		}
		if submitter.CreatedAt.IsZero() {
			submitter.CreatedAt = now
		}
		submitter.UpdatedAt = submitter.CreatedAt
		if _, err := tx.NamedExecContext(ctx, insertSubmitterQuery, submitter); err != nil {
			return fmt.Errorf("insert submitter: %w", err)
		}
	}

	for _, attachment := range attachments {
		if attachment.ID == "" {
			attachment.ID = uuid.NewString()
		}
		if attachment.CreatedAt.IsZero() {
			attachment.CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertAttachmentQuery, attachment); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}

	for _, event := range events {
		event.SubmissionID = submission.ID
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.EventTimestamp.IsZero() {
			event.EventTimestamp = now
		}
		if _, err := tx.NamedExecContext(ctx, insertEventQuery, event); err != nil {
			return fmt.Errorf("insert submission event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create submission: %w", err)
	}
	return nil
}

// GetByID returns a submission row by its identifier.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &submission, nil
}

// GetWithSubmitters loads a submission and all its submitters in one
// repeatable-read transaction so completion-status derivation never sees a
// torn snapshot.
func (r *SubmissionRepository) GetWithSubmitters(ctx context.Context, id string) (*models.Submission, []models.Submitter, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, fmt.Errorf("begin submission read: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var submission models.Submission
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	if err := tx.GetContext(ctx, &submission, query, id); err != nil {
		return nil, nil, fmt.Errorf("get submission: %w", err)
	}

	var submitters []models.Submitter
	if err := tx.SelectContext(ctx, &submitters, selectSubmittersQuery+` WHERE submission_id = $1 ORDER BY position ASC`, id); err != nil {
		return nil, nil, fmt.Errorf("list submitters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit submission read: %w", err)
	}
	return &submission, submitters, nil
}

// List returns submissions of an account matching the filter, newest first,
// together with cursor pagination metadata.
func (r *SubmissionRepository) List(ctx context.Context, accountID string, filter dto.SubmissionFilter) ([]models.Submission, *models.Pagination, error) {
	where := []string{"s.account_id = $1"}
	args := []interface{}{accountID}

	if !filter.IncludeArchived {
		where = append(where, "s.archived_at IS NULL")
	}
	if filter.TemplateID != "" {
		args = append(args, filter.TemplateID)
		where = append(where, fmt.Sprintf("s.template_id = $%d", len(args)))
	}
	if filter.TemplateFolder != "" {
		args = append(args, filter.TemplateFolder)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM templates t WHERE t.id = s.template_id AND t.folder_name = $%d)", len(args)))
	}
	if filter.Slug != "" {
		args = append(args, filter.Slug)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM submitters sb WHERE sb.submission_id = s.id AND sb.slug = $%d)", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM submitters sb WHERE sb.submission_id = s.id AND (sb.email ILIKE $%d OR sb.name ILIKE $%d))", len(args), len(args)))
	}
	if filter.Before != "" {
		args = append(args, filter.Before)
		where = append(where, fmt.Sprintf("s.id < $%d", len(args)))
	}
	if filter.After != "" {
		args = append(args, filter.After)
		where = append(where, fmt.Sprintf("s.id > $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT s.id, s.template_id, s.account_id, s.created_by_user_id, s.source, s.submitters_order, s.audit_trail_document_id, s.archived_at, s.created_at, s.updated_at
FROM submissions s WHERE %s ORDER BY s.created_at DESC, s.id DESC LIMIT $%d`, strings.Join(where, " AND "), len(args))

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list submissions: %w", err)
	}

	pagination := &models.Pagination{Count: len(submissions)}
	if len(submissions) > 0 {
		pagination.Prev = &submissions[0].ID
		pagination.Next = &submissions[len(submissions)-1].ID
	}
	return submissions, pagination, nil
}

// Archive soft deletes a submission, keeping any earlier archival timestamp.
func (r *SubmissionRepository) Archive(ctx context.Context, id string) (*time.Time, error) {
	var archivedAt time.Time
	const query = `UPDATE submissions SET archived_at = COALESCE(archived_at, NOW()), updated_at = NOW() WHERE id = $1 RETURNING archived_at`
	if err := r.db.GetContext(ctx, &archivedAt, query, id); err != nil {
		return nil, fmt.Errorf("archive submission: %w", err)
	}
	return &archivedAt, nil
}
