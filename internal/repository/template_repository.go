package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sealbase/sealbase-api/internal/models"
)

// TemplateRepository reads template blueprints.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetByID returns a template row by its identifier.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.Template, error) {
	const query = `SELECT id, account_id, author_id, name, folder_name, is_public, fields, submitters, archived_at, created_at, updated_at
FROM templates WHERE id = $1`
	var tpl models.Template
	if err := r.db.GetContext(ctx, &tpl, query, id); err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &tpl, nil
}
