package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/interfaces/http/dto"
)

// Download content types
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// AdminHandler serves design review and pricing policy administration
type AdminHandler struct {
	BaseHandler
	designs *appbyom.DesignService
	pricing *appbyom.PricingService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(designs *appbyom.DesignService, pricing *appbyom.PricingService) *AdminHandler {
	return &AdminHandler{designs: designs, pricing: pricing}
}

// ListDesigns godoc
// @Summary      List designs with their cart lines
// @Description  Returns {count, results}; results are paged, count is the total
// @Tags         admin
// @Router       /admin/designs [get]
func (h *AdminHandler) ListDesigns(c *gin.Context) {
	var req appbyom.ListDesignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.designs.ListDesignsWithOrders(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountedList[appbyom.DesignWithOrdersResponse]{
		Count:   result.Count,
		Results: result.Results,
	})
}

// Breakdown godoc
// @Summary      Price a design under the current policy
// @Description  Compares the price stored at submission with the current price
// @Tags         admin
// @Router       /admin/designs/{id}/breakdown [get]
func (h *AdminHandler) Breakdown(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	breakdown, err := h.designs.ReviewBreakdown(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, breakdown)
}

// Approve godoc
// @Summary      Approve a pending design
// @Tags         admin
// @Router       /admin/designs/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	reviewer, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	design, err := h.designs.ApproveDesign(c.Request.Context(), reviewer, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, design)
}

// Reject godoc
// @Summary      Reject a pending design
// @Tags         admin
// @Router       /admin/designs/{id}/reject [post]
func (h *AdminHandler) Reject(c *gin.Context) {
	reviewer, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.RejectDesignRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return
		}
	}

	design, err := h.designs.RejectDesign(c.Request.Context(), reviewer, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, design)
}

// Export godoc
// @Summary      Export designs as a spreadsheet
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router       /admin/designs/export [get]
func (h *AdminHandler) Export(c *gin.Context) {
	var req appbyom.ListDesignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	data, err := h.designs.ExportDesigns(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filename := fmt.Sprintf("designs-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	attachment(c, filename, ContentTypeXLSX, data)
}

// Proof godoc
// @Summary      Render the proof sheet of a design
// @Tags         admin
// @Produce      application/pdf
// @Router       /admin/designs/{id}/proof [get]
func (h *AdminHandler) Proof(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	data, err := h.designs.ProofSheet(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	attachment(c, "proof-"+id.String()+".pdf", ContentTypePDF, data)
}

// CreatePolicy godoc
// @Summary      Create a pricing policy
// @Tags         admin
// @Router       /admin/pricing/policies [post]
func (h *AdminHandler) CreatePolicy(c *gin.Context) {
	var req appbyom.CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	policy, err := h.pricing.CreatePolicy(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, policy)
}

// PatchPolicy godoc
// @Summary      Change a pricing policy
// @Description  Only the fields present in the body change
// @Tags         admin
// @Router       /admin/pricing/policies/{id} [patch]
func (h *AdminHandler) PatchPolicy(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.PatchPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	policy, err := h.pricing.PatchPolicy(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
