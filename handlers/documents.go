package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"restaurant-platform-api/middleware"
	"restaurant-platform-api/models"
	"restaurant-platform-api/services"

	"github.com/gin-gonic/gin"
)

// ── Documents & Assets ───────────────────────────────────────────────────────

// formUpload reads the multipart "file" field. A missing file yields nil when it is
// optional. The returned close func must be called once the upload is consumed.
func (h *Handler) formUpload(c *gin.Context, required bool) (*services.Upload, func(), bool) {
	noop := func() {}
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}
	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":  "validation_error",
			"field":  "file",
			"reason": fmt.Sprintf("upload exceeds %d bytes", h.MaxUploadBytes),
		})
		return nil, noop, false
	case (errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart)) && !required:
		return nil, noop, true
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "field": "file", "reason": err.Error()})
		return nil, noop, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open upload: %w", err))
		return nil, noop, false
	}
	upload := &services.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, true
}

// AddDocument attaches a compliance document, with an optional scan in "file"
func (h *Handler) AddDocument(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	upload, closeUpload, ok := h.formUpload(c, false)
	if !ok {
		return
	}
	defer closeUpload()

	in := services.AddDocumentInput{
		DocumentType:   models.DocumentType(c.PostForm("document_type")),
		DocumentNumber: c.PostForm("document_number"),
	}
	doc, err := h.Documents.AddDocument(c.Request.Context(), middleware.GetActor(c), id, in, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Document added", "document": doc})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	docs, err := h.Documents.ListDocuments(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(docs), "documents": docs})
}

// DeleteDocument soft-deletes a document so a replacement can be uploaded
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	docID, ok := paramID(c, "docId")
	if !ok {
		return
	}
	if err := h.Documents.DeleteDocument(c.Request.Context(), middleware.GetActor(c), id, docID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// AddAsset uploads a bank passbook, license or menu page
func (h *Handler) AddAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	upload, closeUpload, ok := h.formUpload(c, true)
	if !ok {
		return
	}
	defer closeUpload()

	in := services.AddAssetInput{Kind: models.AssetKind(c.PostForm("kind"))}
	asset, err := h.Documents.AddAsset(c.Request.Context(), middleware.GetActor(c), id, in, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Asset uploaded", "asset": asset})
}
