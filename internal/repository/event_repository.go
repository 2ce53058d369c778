package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sealbase/sealbase-api/internal/models"
)

// EventRepository appends and reads the submission event log.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append inserts an event row. Events are never updated or deleted.
func (r *EventRepository) Append(ctx context.Context, event *models.SubmissionEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.EventTimestamp.IsZero() {
		event.EventTimestamp = time.Now().UTC()
	}
	const query = `INSERT INTO submission_events (id, submission_id, submitter_id, event_type, event_timestamp, data)
VALUES (:id, :submission_id, :submitter_id, :event_type, :event_timestamp, :data)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("append submission event: %w", err)
	}
	return nil
}

// ListBySubmission returns the full event history ordered by timestamp.
func (r *EventRepository) ListBySubmission(ctx context.Context, submissionID string) ([]models.SubmissionEvent, error) {
	const query = `SELECT id, submission_id, submitter_id, event_type, event_timestamp, data
FROM submission_events WHERE submission_id = $1 ORDER BY event_timestamp ASC, id ASC`
	var events []models.SubmissionEvent
	if err := r.db.SelectContext(ctx, &events, query, submissionID); err != nil {
		return nil, fmt.Errorf("list submission events: %w", err)
	}
	return events, nil
}
