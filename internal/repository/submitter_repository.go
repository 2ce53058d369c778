package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sealbase/sealbase-api/internal/models"
)

const selectSubmittersQuery = `SELECT id, submission_id, uuid, slug, name, email, phone, position, "values", metadata, external_id, send_email, send_sms, sent_at, opened_at, completed_at, created_at, updated_at
FROM submitters`

// SubmitterRepository persists submitter lifecycle state. All timestamp
// updates are monotonic: an earlier value is never rewound.
type SubmitterRepository struct {
	db *sqlx.DB
}

// NewSubmitterRepository constructs the repository.
func NewSubmitterRepository(db *sqlx.DB) *SubmitterRepository {
	return &SubmitterRepository{db: db}
}

// GetByID returns a submitter row by id.
func (r *SubmitterRepository) GetByID(ctx context.Context, id string) (*models.Submitter, error) {
	var submitter models.Submitter
	if err := r.db.GetContext(ctx, &submitter, selectSubmittersQuery+` WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("get submitter: %w", err)
	}
	return &submitter, nil
}

// GetBySlug returns a submitter row by its shareable slug.
func (r *SubmitterRepository) GetBySlug(ctx context.Context, slug string) (*models.Submitter, error) {
	var submitter models.Submitter
	if err := r.db.GetContext(ctx, &submitter, selectSubmittersQuery+` WHERE slug = $1`, slug); err != nil {
		return nil, fmt.Errorf("get submitter by slug: %w", err)
	}
	return &submitter, nil
}

// ListBySubmission returns the submitters of a submission in declared order.
func (r *SubmitterRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.Submitter, error) {
	var submitters []models.Submitter
	if err := r.db.SelectContext(ctx, &submitters, selectSubmittersQuery+` WHERE submission_id = $1 ORDER BY position ASC`, submissionID); err != nil {
		return nil, fmt.Errorf("list submitters: %w", err)
	}
	return submitters, nil
}

// MarkSent records the notification timestamp unless already set.
func (r *SubmitterRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE submitters SET sent_at = COALESCE(sent_at, $2), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark submitter sent: %w", err)
	}
	return nil
}

// MarkOpened records the first form view unless already set.
func (r *SubmitterRepository) MarkOpened(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE submitters SET opened_at = COALESCE(opened_at, $2), updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark submitter opened: %w", err)
	}
	return nil
}

// Complete writes the final values and completion timestamp. The guard on
// completed_at makes the write at-most-once; the caller learns whether it won
// from the returned flag.
func (r *SubmitterRepository) Complete(ctx context.Context, id string, values models.JSONMap, at time.Time) (bool, error) {
	const query = `UPDATE submitters SET "values" = $2, completed_at = $3, opened_at = COALESCE(opened_at, $3), updated_at = $3
WHERE id = $1 AND completed_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, values, at)
	if err != nil {
		return false, fmt.Errorf("complete submitter: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("complete submitter rows: %w", err)
	}
	return affected == 1, nil
}
