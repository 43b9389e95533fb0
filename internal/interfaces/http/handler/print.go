package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	printingapp "github.com/erp/workstation/internal/application/printing"
	"github.com/erp/workstation/internal/domain/printing"
	"github.com/erp/workstation/internal/infrastructure/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PrintHandler handles pagination, export and print draft endpoints
type PrintHandler struct {
	BaseHandler
	printService *printingapp.PrintService
	documents    storage.DocumentStorage
	logger       *zap.Logger
}

// NewPrintHandler creates a new PrintHandler. documents may be nil when
// exports are not stored.
func NewPrintHandler(printService *printingapp.PrintService, documents storage.DocumentStorage, logger *zap.Logger) *PrintHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintHandler{
		printService: printService,
		documents:    documents,
		logger:       logger,
	}
}

// =============================================================================
// Reference Data
// =============================================================================

// GetKinds godoc
//
//	@Summary		List printable entity kinds
//	@Tags			print
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]printingapp.KindResponse]
//	@Router			/print/kinds [get]
func (h *PrintHandler) GetKinds(c *gin.Context) {
	h.Success(c, h.printService.Kinds())
}

// GetPaperSizes godoc
//
//	@Summary		List paper sizes
//	@Tags			print
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]printingapp.PaperSizeResponse]
//	@Router			/print/paper-sizes [get]
func (h *PrintHandler) GetPaperSizes(c *gin.Context) {
	h.Success(c, h.printService.GetPaperSizes())
}

// =============================================================================
// Pagination and Export
// =============================================================================

// Paginate godoc
//
//	@Summary		Lay a dataset out into pages
//	@Description	Fails with ERR_PRINT_DRAFT_PENDING when a saved draft exists and the request sets no draft decision
//	@Tags			print
//	@Accept			json
//	@Produce		json
//	@Param			kind	path		string						true	"Entity kind"
//	@Param			request	body		printingapp.PrintRequest	true	"Dataset and configuration"
//	@Success		200		{object}	APIResponse[printingapp.PaginateResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/{kind}/paginate [post]
func (h *PrintHandler) Paginate(c *gin.Context) {
	var req printingapp.PrintRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.printService.Paginate(c.Request.Context(), c.Param("kind"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Export godoc
//
//	@Summary		Export a dataset as a document
//	@Description	Returns the document itself when it was not stored or when download=1, otherwise its location
//	@Tags			print
//	@Accept			json
//	@Produce		json,application/pdf
//	@Param			kind		path		string						true	"Entity kind"
//	@Param			download	query		bool						false	"Return the document bytes"
//	@Param			request		body		printingapp.ExportRequest	true	"Dataset, configuration and format"
//	@Success		200			{object}	APIResponse[printingapp.ExportResponse]
//	@Failure		409			{object}	ErrorResponse
//	@Failure		429			{object}	ErrorResponse
//	@Failure		502			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/{kind}/export [post]
func (h *PrintHandler) Export(c *gin.Context) {
	var req printingapp.ExportRequest
	if !h.BindJSON(c, &req) {
		return
	}

	resp, err := h.printService.Export(c.Request.Context(), c.Param("kind"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if resp.Location == "" || c.Query("download") == "1" {
		h.sendDocument(c, resp.Filename, resp.ContentType, resp.Data)
		return
	}
	h.Success(c, resp)
}

// GetExport godoc
//
//	@Summary		Download a stored export
//	@Tags			print
//	@Produce		application/pdf
//	@Param			key	path	string	true	"Storage key"
//	@Success		200	{file}	binary
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/exports/{key} [get]
func (h *PrintHandler) GetExport(c *gin.Context) {
	if h.documents == nil {
		h.NotFound(c, "Exports are not stored")
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")

	rc, err := h.documents.Get(c.Request.Context(), key)
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		h.BadRequest(c, "Invalid export key")
		return
	case errors.Is(err, storage.ErrNotFound):
		h.NotFound(c, "Export not found")
		return
	case err != nil:
		h.logger.Warn("Failed to open stored export", zap.String("key", key), zap.Error(err))
		h.ServiceUnavailable(c, "Export storage is temporarily unavailable")
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		h.logger.Warn("Failed to read stored export", zap.String("key", key), zap.Error(err))
		h.ServiceUnavailable(c, "Export storage is temporarily unavailable")
		return
	}
	name := path.Base(key)
	h.sendDocument(c, name, contentTypeOf(name), data)
}

func (h *PrintHandler) sendDocument(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func contentTypeOf(name string) string {
	format := printing.ExportFormat(strings.TrimPrefix(path.Ext(name), "."))
	if !format.IsValid() {
		return "application/octet-stream"
	}
	return format.ContentType()
}

// =============================================================================
// Drafts
// =============================================================================

// GetDraft godoc
//
//	@Summary		Get the saved print draft of a dataset
//	@Tags			print-drafts
//	@Produce		json
//	@Param			dataset	path		string	true	"Dataset identifier"
//	@Success		200		{object}	APIResponse[printingapp.DraftResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/drafts/{dataset} [get]
func (h *PrintHandler) GetDraft(c *gin.Context) {
	resp, err := h.printService.GetDraft(c.Request.Context(), c.Param("dataset"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SaveDraft godoc
//
//	@Summary		Save the print draft of a dataset
//	@Tags			print-drafts
//	@Accept			json
//	@Produce		json
//	@Param			dataset	path		string							true	"Dataset identifier"
//	@Param			request	body		printingapp.SaveDraftRequest	true	"Print configuration"
//	@Success		200		{object}	APIResponse[printing.PrintDraft]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/drafts/{dataset} [put]
func (h *PrintHandler) SaveDraft(c *gin.Context) {
	var req printingapp.SaveDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.printService.SaveDraft(c.Request.Context(), c.Param("dataset"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, d)
}

// DeleteDraft godoc
//
//	@Summary		Discard the print draft of a dataset
//	@Tags			print-drafts
//	@Param			dataset	path	string	true	"Dataset identifier"
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/print/drafts/{dataset} [delete]
func (h *PrintHandler) DeleteDraft(c *gin.Context) {
	if err := h.printService.DeleteDraft(c.Request.Context(), c.Param("dataset")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
