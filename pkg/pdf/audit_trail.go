package pdf

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sealbase/sealbase-api/internal/models"
)

// AuditTrailRenderer renders the submission-wide completion audit trail.
type AuditTrailRenderer struct {
	productName string
}

// NewAuditTrailRenderer constructs the renderer.
func NewAuditTrailRenderer(productName string) *AuditTrailRenderer {
	if productName == "" {
		productName = "SealBase"
	}
	return &AuditTrailRenderer{productName: productName}
}

// Render produces the audit trail PDF. It requires the full completed set of
// submitters plus their ordered event history.
func (r *AuditTrailRenderer) Render(ctx context.Context, submission *models.Submission, submitters []models.Submitter, events []models.SubmissionEvent) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range submitters {
		if submitters[i].CompletedAt == nil {
			return nil, fmt.Errorf("submitter %s not completed", submitters[i].ID)
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Audit Trail", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Submission %s", submission.ID), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Parties", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, s := range submitters {
		line := fmt.Sprintf("%s <%s> completed %s", s.Name, s.Email, s.CompletedAt.UTC().Format(time.RFC3339))
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 8, "Events", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(55, 7, "Timestamp", "1", 0, "L", false, 0, "")
	pdf.CellFormat(60, 7, "Submitter", "1", 0, "L", false, 0, "")
	pdf.CellFormat(65, 7, "Event", "1", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, e := range events {
		pdf.CellFormat(55, 6, e.EventTimestamp.UTC().Format(time.RFC3339), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, e.SubmitterID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(65, 6, string(e.EventType), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by %s", r.productName), "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render audit trail pdf: %w", err)
	}
	return buf.Bytes(), nil
}
