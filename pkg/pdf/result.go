package pdf

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sealbase/sealbase-api/internal/models"
)

// ResultRenderer renders the per-submitter signed result document.
type ResultRenderer struct {
	productName string
}

// NewResultRenderer constructs a renderer stamped with the product name.
func NewResultRenderer(productName string) *ResultRenderer {
	if productName == "" {
		productName = "SealBase"
	}
	return &ResultRenderer{productName: productName}
}

// Render produces the signed document PDFs for a completed submitter.
// One document is emitted per submission; the field values are flattened
// into a completion summary page.
func (r *ResultRenderer) Render(ctx context.Context, template *models.Template, submitter *models.Submitter) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if submitter.CompletedAt == nil {
		return nil, fmt.Errorf("submitter %s not completed", submitter.ID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, template.Name, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Signed by %s <%s>", submitter.Name, submitter.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Completed at %s", submitter.CompletedAt.UTC().Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 8, "Field", "1", 0, "L", false, 0, "")
	pdf.CellFormat(110, 8, "Value", "1", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, name := range sortedKeys(submitter.Values) {
		pdf.CellFormat(70, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(110, 7, fmt.Sprintf("%v", submitter.Values[name]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated by %s", r.productName), "", 1, "L", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render result pdf: %w", err)
	}
	return [][]byte{buf.Bytes()}, nil
}

func sortedKeys(values models.JSONMap) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
