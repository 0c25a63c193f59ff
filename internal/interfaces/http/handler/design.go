package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/interfaces/http/dto"
)

// Multipart field names of design uploads
const (
	FormFieldConfiguration = "configuration"
	FormFieldName          = "name"
	FormFieldFiles         = "files[]"
	FormFieldFilesAlt      = "files"
)

// DesignHandler serves the customer side of the approval workflow
type DesignHandler struct {
	BaseHandler
	designs        *appbyom.DesignService
	pipeline       *appbyom.SubmissionPipeline
	maxUploadBytes int64
}

// NewDesignHandler creates a new DesignHandler
func NewDesignHandler(designs *appbyom.DesignService, pipeline *appbyom.SubmissionPipeline, maxUploadBytes int64) *DesignHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = byom.MaxUploadBytes
	}
	return &DesignHandler{designs: designs, pipeline: pipeline, maxUploadBytes: maxUploadBytes}
}

// Create godoc
// @Summary      Save a design
// @Description  Accepts JSON or multipart with a configuration field and files[]
// @Tags         designs
// @Accept       json,mpfd
// @Router       /designs [post]
func (h *DesignHandler) Create(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	req, uploads, ok := h.bindDesign(c)
	if !ok {
		return
	}

	design, err := h.designs.CreateDesign(c.Request.Context(), actor, req, uploads)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, design)
}

// List godoc
// @Summary      List my designs
// @Tags         designs
// @Router       /designs [get]
func (h *DesignHandler) List(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	var req appbyom.ListDesignsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.designs.ListMyDesigns(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filter := req.ToFilter()
	h.SuccessWithMeta(c, result.Results, result.Count, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get a design
// @Tags         designs
// @Router       /designs/{id} [get]
func (h *DesignHandler) Get(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	design, err := h.designs.GetDesign(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, design)
}

// Submit godoc
// @Summary      Submit a design for approval
// @Description  Prices the design under the active policy and moves it to pending_approval
// @Tags         designs
// @Router       /designs/{id}/submit [post]
func (h *DesignHandler) Submit(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	design, err := h.designs.SubmitForApproval(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, design)
}

// SubmitPipeline godoc
// @Summary      Upload, create and submit in one request
// @Description  Returns the design with the progress log of every stage. On failure the
// @Description  log ends at the failing stage and nothing is left half-submitted.
// @Tags         designs
// @Accept       json,mpfd
// @Router       /designs/submit-pipeline [post]
func (h *DesignHandler) SubmitPipeline(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	req, uploads, ok := h.bindDesign(c)
	if !ok {
		return
	}

	progress := &appbyom.ProgressLog{}
	design, err := h.pipeline.Run(c.Request.Context(), actor, req, uploads, progress)
	if err != nil {
		code, message := errorInfo(err)
		if code == dto.ErrCodeInternal || code == dto.ErrCodeUpstream {
			_ = c.Error(err)
		}
		resp := SubmissionResponse{
			Progress: progress.Entries(),
			Error: &dto.ErrorInfo{
				Code:      code,
				Message:   message,
				RequestID: getRequestID(c),
			},
		}
		var pipeErr *appbyom.PipelineError
		if errors.As(err, &pipeErr) {
			resp.Stage = pipeErr.Stage
		}
		c.JSON(dto.GetHTTPStatus(code), APIResponse[SubmissionResponse]{Data: resp, Error: resp.Error})
		return
	}
	h.Created(c, SubmissionResponse{Design: design, Progress: progress.Entries()})
}

// AddToCart godoc
// @Summary      Add an approved design to the cart
// @Tags         designs
// @Router       /designs/{id}/cart [post]
func (h *DesignHandler) AddToCart(c *gin.Context) {
	actor, ok := h.actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appbyom.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	line, err := h.designs.AddToCart(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, line)
}

// bindDesign reads a design request from JSON or multipart. It writes the
// error response itself and reports false on failure.
func (h *DesignHandler) bindDesign(c *gin.Context) (appbyom.CreateDesignRequest, []byom.Upload, bool) {
	var req appbyom.CreateDesignRequest
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.ValidationError(c, err)
			return req, nil, false
		}
		return req, nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.HandleError(c, err)
		} else {
			h.BadRequest(c, "Invalid multipart form")
		}
		return req, nil, false
	}
	raw := firstValue(form.Value, FormFieldConfiguration)
	if raw == "" || !json.Valid([]byte(raw)) {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "The configuration field must hold a JSON document")
		return req, nil, false
	}
	req.Name = firstValue(form.Value, FormFieldName)
	req.Configuration = json.RawMessage(raw)

	headers := slices.Concat(form.File[FormFieldFiles], form.File[FormFieldFilesAlt])
	uploads := make([]byom.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, err := h.readUpload(fh)
		if err != nil {
			h.HandleError(c, err)
			return req, nil, false
		}
		uploads = append(uploads, upload)
	}
	return req, uploads, true
}

// readUpload reads one part, stopping one byte past the limit so that
// oversized files are reported by upload validation
func (h *DesignHandler) readUpload(fh *multipart.FileHeader) (byom.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return byom.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return byom.Upload{}, err
	}
	return byom.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
