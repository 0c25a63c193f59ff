package handler

import (
	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/byom"
)

// EditorHandler serves editor sessions: placement, drag, undo and live price
type EditorHandler struct {
	BaseHandler
	editor *appbyom.EditorService
}

// NewEditorHandler creates a new EditorHandler
func NewEditorHandler(editor *appbyom.EditorService) *EditorHandler {
	return &EditorHandler{editor: editor}
}

// Open godoc
// @Summary      Open an editor session
// @Description  Starts a session from the saved draft of the merchandise type, or from defaults
// @Tags         editor
// @Router       /editor/sessions [post]
func (h *EditorHandler) Open(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	var req appbyom.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	session, err := h.editor.Open(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// Get godoc
// @Summary      Get an editor session
// @Tags         editor
// @Router       /editor/sessions/{id} [get]
func (h *EditorHandler) Get(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.editor.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Close godoc
// @Summary      Close an editor session
// @Tags         editor
// @Router       /editor/sessions/{id} [delete]
func (h *EditorHandler) Close(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.editor.Close(c.Request.Context(), actor, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddText godoc
// @Summary      Add a text to a zone
// @Tags         editor
// @Router       /editor/sessions/{id}/texts [post]
func (h *EditorHandler) AddText(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.AddTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	text, err := h.editor.AddText(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, text)
}

// RemoveText godoc
// @Summary      Remove a text
// @Tags         editor
// @Router       /editor/sessions/{id}/texts/{zone}/{element_id} [delete]
func (h *EditorHandler) RemoveText(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	zone := byom.PlacementZone(c.Param("zone"))
	if err := h.editor.RemoveText(c.Request.Context(), actor, id, zone, c.Param("element_id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddAsset godoc
// @Summary      Place a graphic on a zone
// @Tags         editor
// @Router       /editor/sessions/{id}/assets [post]
func (h *EditorHandler) AddAsset(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.AddAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	asset, err := h.editor.AddAsset(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, asset)
}

// RemoveAsset godoc
// @Summary      Remove a graphic
// @Tags         editor
// @Router       /editor/sessions/{id}/assets/{zone}/{element_id} [delete]
func (h *EditorHandler) RemoveAsset(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	zone := byom.PlacementZone(c.Param("zone"))
	if err := h.editor.RemoveAsset(c.Request.Context(), actor, id, zone, c.Param("element_id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ScaleAsset godoc
// @Summary      Change the scale of a graphic
// @Tags         editor
// @Router       /editor/sessions/{id}/assets/{zone}/{element_id}/scale [post]
func (h *EditorHandler) ScaleAsset(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.ScaleAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	zone := byom.PlacementZone(c.Param("zone"))
	resp, err := h.editor.ScaleAsset(c.Request.Context(), actor, id, zone, c.Param("element_id"), req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BeginDrag godoc
// @Summary      Start dragging an element
// @Tags         editor
// @Router       /editor/sessions/{id}/drag/begin [post]
func (h *EditorHandler) BeginDrag(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.BeginDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	if err := h.editor.BeginDrag(c.Request.Context(), actor, id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateDrag godoc
// @Summary      Move the dragged element
// @Tags         editor
// @Router       /editor/sessions/{id}/drag/update [post]
func (h *EditorHandler) UpdateDrag(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.UpdateDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	pos, err := h.editor.UpdateDrag(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, pos)
}

// EndDrag godoc
// @Summary      Finish the drag and record it in the history
// @Tags         editor
// @Router       /editor/sessions/{id}/drag/end [post]
func (h *EditorHandler) EndDrag(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	recorded, err := h.editor.EndDrag(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DragEndResponse{Recorded: recorded})
}

// Undo godoc
// @Summary      Undo the last history step
// @Tags         editor
// @Router       /editor/sessions/{id}/undo [post]
func (h *EditorHandler) Undo(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	undone, err := h.editor.Undo(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, UndoResponse{Undone: undone})
}

// Price godoc
// @Summary      Price the session's configuration
// @Description  Returns the canonical breakdown under the active policy and the display estimate
// @Tags         editor
// @Router       /editor/sessions/{id}/price [get]
func (h *EditorHandler) Price(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	quote, err := h.editor.Price(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}
