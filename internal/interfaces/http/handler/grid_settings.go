package handler

import (
	gridapp "github.com/erp/workstation/internal/application/grid"
	"github.com/gin-gonic/gin"
)

// GridSettingsHandler serves the calling user's saved table layouts
type GridSettingsHandler struct {
	BaseHandler
	settingsService *gridapp.SettingsService
}

// NewGridSettingsHandler creates a new GridSettingsHandler
func NewGridSettingsHandler(settingsService *gridapp.SettingsService) *GridSettingsHandler {
	return &GridSettingsHandler{
		settingsService: settingsService,
	}
}

// ListSettings godoc
//
//	@Summary		List customized tables
//	@Tags			grid
//	@Produce		json
//	@Param			page		query		int		false	"Page number"
//	@Param			page_size	query		int		false	"Page size"
//	@Success		200			{object}	APIResponse[[]gridapp.SettingsResponse]
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/grid/settings [get]
func (h *GridSettingsHandler) ListSettings(c *gin.Context) {
	var req gridapp.ListSettingsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	list, err := h.settingsService.ListSettings(c.Request.Context(), getUserID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]*gridapp.SettingsResponse, len(list))
	for i := range list {
		out[i] = gridapp.ToSettingsResponse(&list[i])
	}
	h.Success(c, out)
}

// GetSettings godoc
//
//	@Summary		Get the layout of a table
//	@Description	Returns null data when the table has never been customized
//	@Tags			grid
//	@Produce		json
//	@Param			table	path		string	true	"Table identifier"
//	@Success		200		{object}	APIResponse[gridapp.SettingsResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/grid/settings/{table} [get]
func (h *GridSettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.GetSettings(c.Request.Context(), getUserID(c), c.Param("table"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gridapp.ToSettingsResponse(settings))
}

// SaveSettings godoc
//
//	@Summary		Save the layout of a table
//	@Tags			grid
//	@Accept			json
//	@Produce		json
//	@Param			table	path		string						true	"Table identifier"
//	@Param			request	body		gridapp.SaveSettingsRequest	true	"Column layout"
//	@Success		200		{object}	APIResponse[gridapp.SettingsResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/grid/settings/{table} [put]
func (h *GridSettingsHandler) SaveSettings(c *gin.Context) {
	var req gridapp.SaveSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	settings, err := h.settingsService.SaveSettings(c.Request.Context(), getUserID(c), c.Param("table"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gridapp.ToSettingsResponse(settings))
}

// DeleteSettings godoc
//
//	@Summary		Reset a table to its column defaults
//	@Tags			grid
//	@Param			table	path	string	true	"Table identifier"
//	@Success		204
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/grid/settings/{table} [delete]
func (h *GridSettingsHandler) DeleteSettings(c *gin.Context) {
	if err := h.settingsService.DeleteSettings(c.Request.Context(), getUserID(c), c.Param("table")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
