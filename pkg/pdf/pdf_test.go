package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealbase/sealbase-api/internal/models"
)

func TestResultRendererProducesPDF(t *testing.T) {
	now := time.Now().UTC()
	renderer := NewResultRenderer("SealBase")

	docs, err := renderer.Render(context.Background(), &models.Template{Name: "NDA"}, &models.Submitter{
		ID:          "sub-1",
		Name:        "Alice",
		Email:       "a@x.com",
		Values:      models.JSONMap{"name": "Alice"},
		CompletedAt: &now,
	})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "%PDF", string(docs[0][:4]))
}

func TestResultRendererRejectsIncompleteSubmitter(t *testing.T) {
	renderer := NewResultRenderer("")

	_, err := renderer.Render(context.Background(), &models.Template{Name: "NDA"}, &models.Submitter{ID: "sub-1"})
	assert.Error(t, err)
}

func TestAuditTrailRendererProducesPDF(t *testing.T) {
	now := time.Now().UTC()
	renderer := NewAuditTrailRenderer("SealBase")

	data, err := renderer.Render(context.Background(), &models.Submission{ID: "s-1"},
		[]models.Submitter{{ID: "sub-1", Name: "Alice", Email: "a@x.com", CompletedAt: &now}},
		[]models.SubmissionEvent{{SubmitterID: "sub-1", EventType: models.EventCompleteForm, EventTimestamp: now}})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestAuditTrailRendererRequiresCompletedSet(t *testing.T) {
	renderer := NewAuditTrailRenderer("")

	_, err := renderer.Render(context.Background(), &models.Submission{ID: "s-1"},
		[]models.Submitter{{ID: "sub-1"}}, nil)
	assert.Error(t, err)
}
