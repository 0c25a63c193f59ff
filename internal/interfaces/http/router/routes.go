package router

import (
	"github.com/gin-gonic/gin"
	"github.com/merch/byom/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers mounted under the API prefix
type Handlers struct {
	Editor  *handler.EditorHandler
	Drafts  *handler.DraftHandler
	Designs *handler.DesignHandler
	Pricing *handler.PricingHandler
	Admin   *handler.AdminHandler
}

// Guards are the per-route middleware of the API. Nil entries are skipped.
type Guards struct {
	// Submit throttles the submission endpoints
	Submit gin.HandlerFunc
	// Admin restricts the admin group, normally RequireRole(admin)
	Admin gin.HandlerFunc
}

func chain(guard gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{guard, h}
}

// EditorRoutes mounts the server-side editor sessions
func EditorRoutes(h *handler.EditorHandler) *DomainGroup {
	g := NewDomainGroup("editor", "/editor/sessions")
	g.POST("", h.Open)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Close)
	g.POST("/:id/texts", h.AddText)
	g.DELETE("/:id/texts/:zone/:element_id", h.RemoveText)
	g.POST("/:id/assets", h.AddAsset)
	g.DELETE("/:id/assets/:zone/:element_id", h.RemoveAsset)
	g.POST("/:id/assets/:zone/:element_id/scale", h.ScaleAsset)
	g.POST("/:id/drag/begin", h.BeginDrag)
	g.POST("/:id/drag/update", h.UpdateDrag)
	g.POST("/:id/drag/end", h.EndDrag)
	g.POST("/:id/undo", h.Undo)
	g.GET("/:id/price", h.Price)
	return g
}

// DraftRoutes mounts the saved drafts, one per merchandise type
func DraftRoutes(h *handler.DraftHandler) *DomainGroup {
	g := NewDomainGroup("drafts", "/drafts")
	g.GET("/:merch_type", h.Get)
	g.DELETE("/:merch_type", h.Delete)
	return g
}

// DesignRoutes mounts the customer side of the approval workflow
func DesignRoutes(h *handler.DesignHandler, submit gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("designs", "/designs")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.POST("/submit-pipeline", chain(submit, h.SubmitPipeline)...)
	g.GET("/:id", h.Get)
	g.POST("/:id/submit", chain(submit, h.Submit)...)
	g.POST("/:id/cart", h.AddToCart)
	return g
}

// PricingRoutes mounts the customer pricing endpoints
func PricingRoutes(h *handler.PricingHandler) *DomainGroup {
	g := NewDomainGroup("pricing", "/pricing")
	g.GET("/policy", h.GetActivePolicy)
	g.POST("/quote", h.Quote)
	return g
}

// AdminRoutes mounts the review queue and pricing policy administration
func AdminRoutes(h *handler.AdminHandler, guard gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("admin", "/admin")
	if guard != nil {
		g.Use(guard)
	}

	designs := g.Group("admin-designs", "/designs")
	designs.GET("", h.ListDesigns)
	designs.GET("/export", h.Export)
	designs.GET("/:id/breakdown", h.Breakdown)
	designs.GET("/:id/proof", h.Proof)
	designs.POST("/:id/approve", h.Approve)
	designs.POST("/:id/reject", h.Reject)

	policies := g.Group("admin-pricing", "/pricing/policies")
	policies.POST("", h.CreatePolicy)
	policies.PATCH("/:id", h.PatchPolicy)
	return g
}

// Groups returns every route group of the API
func Groups(h Handlers, guards Guards) []RouteRegistrar {
	return []RouteRegistrar{
		EditorRoutes(h.Editor),
		DraftRoutes(h.Drafts),
		DesignRoutes(h.Designs, guards.Submit),
		PricingRoutes(h.Pricing),
		AdminRoutes(h.Admin, guards.Admin),
	}
}
