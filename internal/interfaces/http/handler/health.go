package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/merch/byom/internal/interfaces/http/dto"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping() error
}

// SessionCounter reports the number of open editor sessions
type SessionCounter interface {
	Len() int
}

// HealthHandler serves the public health check
type HealthHandler struct {
	BaseHandler
	db        Pinger
	sessions  SessionCounter
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. Both arguments may be nil.
func NewHealthHandler(db Pinger, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions, startTime: time.Now()}
}

// HealthResponse is the health check payload
type HealthResponse struct {
	HealthData
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health godoc
// @Summary      Health check
// @Description  Returns 503 when the database is unreachable
// @Tags         system
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		HealthData: HealthData{Status: "healthy", Database: "unknown"},
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Len()
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "unhealthy"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "connected"
		}
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
