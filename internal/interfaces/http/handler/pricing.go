package handler

import (
	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
)

// PricingHandler serves the active pricing policy and price quotes
type PricingHandler struct {
	BaseHandler
	pricing *appbyom.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricing *appbyom.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// GetActivePolicy godoc
// @Summary      Get the active pricing policy
// @Tags         pricing
// @Router       /pricing/policy [get]
func (h *PricingHandler) GetActivePolicy(c *gin.Context) {
	policy, err := h.pricing.GetActivePolicy(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, policy)
}

// Quote godoc
// @Summary      Price a configuration
// @Description  Accepts the configuration in any transport shape. The canonical breakdown
// @Description  is null while no policy is active; the estimate is always present.
// @Tags         pricing
// @Router       /pricing/quote [post]
func (h *PricingHandler) Quote(c *gin.Context) {
	var req appbyom.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	quote, err := h.pricing.QuoteRaw(c.Request.Context(), req.Configuration)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}
