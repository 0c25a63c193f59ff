package handler

import (
	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/byom"
)

// DraftHandler serves the saved work-in-progress per merchandise type
type DraftHandler struct {
	BaseHandler
	drafts *appbyom.DraftService
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(drafts *appbyom.DraftService) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

func (h *DraftHandler) merchType(c *gin.Context) (byom.MerchandiseType, bool) {
	mt := byom.MerchandiseType(c.Param("merch_type"))
	if !mt.IsValid() {
		h.BadRequest(c, "Unknown merchandise type")
		return "", false
	}
	return mt, true
}

// Get returns the draft of a merchandise type, or its defaults when nothing
// usable was saved
// @Router /drafts/{merch_type} [get]
func (h *DraftHandler) Get(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	mt, ok := h.merchType(c)
	if !ok {
		return
	}
	h.Success(c, h.drafts.Get(c.Request.Context(), actor, mt))
}

// Delete discards the draft of a merchandise type
// @Router /drafts/{merch_type} [delete]
func (h *DraftHandler) Delete(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	mt, ok := h.merchType(c)
	if !ok {
		return
	}
	if err := h.drafts.Delete(c.Request.Context(), actor.OwnerKey(), mt); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
