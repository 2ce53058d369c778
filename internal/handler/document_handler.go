package handler

import (
	"context"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sealbase/sealbase-api/internal/models"
	appErrors "github.com/sealbase/sealbase-api/pkg/errors"
	"github.com/sealbase/sealbase-api/pkg/response"
)

type documentTokenParser interface {
	Parse(token string, allowExpired bool) (documentID, relPath string, expiresAt time.Time, err error)
}

type documentStore interface {
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

type documentFileOpener interface {
	Open(filename string) (*os.File, error)
}

// DocumentHandler serves generated artifacts behind signed expiring tokens.
type DocumentHandler struct {
	signer    documentTokenParser
	documents documentStore
	files     documentFileOpener
}

// NewDocumentHandler builds a new handler.
func NewDocumentHandler(signer documentTokenParser, documents documentStore, files documentFileOpener) *DocumentHandler {
	return &DocumentHandler{signer: signer, documents: documents, files: files}
}

// Download godoc
// @Summary Download a generated document
// @Tags Documents
// @Produce application/pdf
// @Param token path string true "Signed document token"
// @Success 200 {file} binary
// @Router /documents/{token} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired document link"))
		return
	}

	document, err := h.documents.GetByID(c.Request.Context(), documentID)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if document.Filename != relPath {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired document link"))
		return
	}

	file, err := h.files.Open(document.Filename)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(document.Filename)+`"`)
	c.DataFromReader(http.StatusOK, document.ByteSize, document.ContentType, file, nil)
}
