package handler

import (
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/interfaces/http/dto"
)

// APIResponse is the typed form of dto.Response
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse is an error API response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// SubmissionResponse is the outcome of a submission pipeline run. Design is
// absent when a stage failed; Progress then ends at the failing stage.
type SubmissionResponse struct {
	Design   *appbyom.DesignResponse `json:"design,omitempty"`
	Progress []appbyom.StageProgress `json:"progress"`
	Stage    string                  `json:"failed_stage,omitempty"`
	Error    *dto.ErrorInfo          `json:"error,omitempty"`
}

// DragEndResponse reports whether ending a drag recorded a history entry
type DragEndResponse struct {
	Recorded bool `json:"recorded"`
}

// UndoResponse reports whether a history step was undone
type UndoResponse struct {
	Undone bool `json:"undone"`
}

// HealthData is the health check payload
type HealthData struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Sessions int    `json:"editor_sessions"`
}
