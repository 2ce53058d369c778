package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sealbase/sealbase-api/internal/models"
)

// Advisory lock classes keep submitter and submission keyspaces disjoint.
const (
	lockClassSubmitter  = 1
	lockClassSubmission = 2
)

// ArtifactScope is the transactional view handed to a materializer critical
// section while the per-entity advisory lock is held. Everything read or
// written through it commits atomically when the section returns nil.
type ArtifactScope interface {
	ListSubmitterDocuments(ctx context.Context, submitterID string) ([]models.Document, error)
	AuditTrailDocumentID(ctx context.Context, submissionID string) (*string, error)
	InsertDocument(ctx context.Context, doc *models.Document) error
	AttachAuditTrail(ctx context.Context, submissionID, documentID string) (bool, error)
}

// DocumentRepository persists generated artifact metadata and provides the
// per-entity exclusivity used by the materializer.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, submitter_id, submission_id, kind, filename, content_type, byte_size, checksum, created_at`

// GetByID returns a document row.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// ListBySubmitter returns the result documents of a submitter.
func (r *DocumentRepository) ListBySubmitter(ctx context.Context, submitterID string) ([]models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE submitter_id = $1 AND kind = 'result' ORDER BY created_at ASC, id ASC", documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, submitterID); err != nil {
		return nil, fmt.Errorf("list submitter documents: %w", err)
	}
	return docs, nil
}

// ListBySubmitters returns the result documents of several submitters keyed
// by submitter id.
func (r *DocumentRepository) ListBySubmitters(ctx context.Context, submitterIDs []string) (map[string][]models.Document, error) {
	if len(submitterIDs) == 0 {
		return map[string][]models.Document{}, nil
	}
	query := fmt.Sprintf("SELECT %s FROM documents WHERE submitter_id = ANY($1) AND kind = 'result' ORDER BY created_at ASC, id ASC", documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, pq.Array(submitterIDs)); err != nil {
		return nil, fmt.Errorf("list submitters documents: %w", err)
	}
	grouped := make(map[string][]models.Document, len(submitterIDs))
	for _, doc := range docs {
		if doc.SubmitterID == nil {
			continue
		}
		grouped[*doc.SubmitterID] = append(grouped[*doc.SubmitterID], doc)
	}
	return grouped, nil
}

// WithSubmitterLock runs fn while holding the submitter's advisory lock.
func (r *DocumentRepository) WithSubmitterLock(ctx context.Context, submitterID string, fn func(scope ArtifactScope) error) error {
	return r.withEntityLock(ctx, lockClassSubmitter, submitterID, fn)
}

// WithSubmissionLock runs fn while holding the submission's advisory lock.
func (r *DocumentRepository) WithSubmissionLock(ctx context.Context, submissionID string, fn func(scope ArtifactScope) error) error {
	return r.withEntityLock(ctx, lockClassSubmission, submissionID, fn)
}

// withEntityLock serializes concurrent critical sections on the same entity
// with a transaction-scoped postgres advisory lock. The lock is released on
// commit or rollback, so a loser blocked here observes the winner's rows once
// it enters the section.
func (r *DocumentRepository) withEntityLock(ctx context.Context, class int, key string, fn func(scope ArtifactScope) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin artifact tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, class, key); err != nil {
		return fmt.Errorf("acquire artifact lock: %w", err)
	}

	if err := fn(&artifactScope{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit artifact tx: %w", err)
	}
	return nil
}

type artifactScope struct {
	tx *sqlx.Tx
}

func (s *artifactScope) ListSubmitterDocuments(ctx context.Context, submitterID string) ([]models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE submitter_id = $1 AND kind = 'result' ORDER BY created_at ASC, id ASC", documentColumns)
	var docs []models.Document
	if err := s.tx.SelectContext(ctx, &docs, query, submitterID); err != nil {
		return nil, fmt.Errorf("list submitter documents: %w", err)
	}
	return docs, nil
}

func (s *artifactScope) AuditTrailDocumentID(ctx context.Context, submissionID string) (*string, error) {
	var documentID *string
	if err := s.tx.GetContext(ctx, &documentID, `SELECT audit_trail_document_id FROM submissions WHERE id = $1`, submissionID); err != nil {
		return nil, fmt.Errorf("read audit trail reference: %w", err)
	}
	return documentID, nil
}

func (s *artifactScope) InsertDocument(ctx context.Context, doc *models.Document) error {
	const query = `INSERT INTO documents (id, submitter_id, submission_id, kind, filename, content_type, byte_size, checksum, created_at)
VALUES (:id, :submitter_id, :submission_id, :kind, :filename, :content_type, :byte_size, :checksum, :created_at)`
	if _, err := s.tx.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// AttachAuditTrail sets the submission's audit trail reference if still
// unset. The IS NULL guard backs the at-most-once property even outside the
// advisory lock.
func (s *artifactScope) AttachAuditTrail(ctx context.Context, submissionID, documentID string) (bool, error) {
	const query = `UPDATE submissions SET audit_trail_document_id = $2, updated_at = NOW() WHERE id = $1 AND audit_trail_document_id IS NULL`
	result, err := s.tx.ExecContext(ctx, query, submissionID, documentID)
	if err != nil {
		return false, fmt.Errorf("attach audit trail: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attach audit trail rows: %w", err)
	}
	return affected == 1, nil
}
