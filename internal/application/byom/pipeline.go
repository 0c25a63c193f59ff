package byom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Pipeline stages in execution order
const (
	StageUpload = "upload"
	StageCreate = "create"
	StageSubmit = "submit"
)

// PipelineError reports the stage a submission pipeline stopped at
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Code is the error code of a backend failure in the stage. Domain errors
// keep their own code.
func (e *PipelineError) Code() string {
	return "PIPELINE_" + strings.ToUpper(e.Stage) + "_FAILED"
}

// StageProgress is one progress report of a pipeline run
type StageProgress struct {
	Stage    string    `json:"stage"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	At       time.Time `json:"at"`
}

// ProgressReporter receives pipeline progress. Progress never decreases within a run.
type ProgressReporter interface {
	Report(p StageProgress)
}

// ProgressLog collects progress reports
type ProgressLog struct {
	mu      sync.Mutex
	entries []StageProgress
}

// Report appends p to the log
func (l *ProgressLog) Report(p StageProgress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, p)
}

// Entries returns a copy of the collected reports
func (l *ProgressLog) Entries() []StageProgress {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]StageProgress, len(l.entries))
	copy(out, l.entries)
	return out
}

// SubmissionPipeline uploads graphics, creates a design and submits it in one go
type SubmissionPipeline struct {
	designs *DesignService
	metrics WorkflowMetrics
	logger  *zap.Logger
}

// NewSubmissionPipeline creates a new SubmissionPipeline
func NewSubmissionPipeline(designs *DesignService, logger *zap.Logger) *SubmissionPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionPipeline{designs: designs, metrics: NoopMetrics, logger: logger}
}

// WithMetrics sets the workflow metrics recorder
func (p *SubmissionPipeline) WithMetrics(m WorkflowMetrics) *SubmissionPipeline {
	if m != nil {
		p.metrics = m
	}
	return p
}

type pipelineRun struct {
	ctx       context.Context
	actor     Actor
	name      string
	cfg       byom.Configuration
	uploads   []byom.Upload
	files     []byom.DesignFile
	design    *byom.Design
	reporter  ProgressReporter
	progress  int
	merchType string
}

func (r *pipelineRun) report(stage string, progress int, message string) {
	if progress < r.progress {
		progress = r.progress
	}
	r.progress = progress
	if r.reporter != nil {
		r.reporter.Report(StageProgress{Stage: stage, Progress: progress, Message: message, At: time.Now()})
	}
}

// Run executes upload, create and submit in order. Input that could never be
// submitted is rejected before the first stage, with nothing stored. The first failing stage
// aborts the run with a *PipelineError; a retry starts again from upload.
// Graphics stored by a run whose design was never created are deleted.
func (p *SubmissionPipeline) Run(ctx context.Context, actor Actor, req CreateDesignRequest, uploads []byom.Upload, reporter ProgressReporter) (*DesignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "submission_pipeline")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	cfg := byom.ParseConfiguration(req.Configuration)
	run := &pipelineRun{
		ctx:       ctx,
		actor:     actor,
		name:      req.Name,
		cfg:       cfg,
		uploads:   uploads,
		reporter:  reporter,
		merchType: cfg.MerchType.String(),
	}
	span.SetAttributes(attribute.String(telemetry.SpanAttrMerchType, run.merchType))
	if err = p.preflight(run); err != nil {
		p.logger.Info("Submission pipeline rejected",
			zap.String("owner_id", actor.ID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	run.report(StageUpload, 0, "Starting")

	stages := []struct {
		name string
		done int
		fn   func(*pipelineRun) error
	}{
		{StageUpload, 34, p.upload},
		{StageCreate, 67, p.create},
		{StageSubmit, 100, p.submit},
	}
	for _, st := range stages {
		if err = p.stage(run, st.name, st.fn); err != nil {
			if run.design == nil {
				p.designs.uploader.Discard(ctx, run.files)
			}
			p.logger.Warn("Submission pipeline aborted",
				zap.String("stage", st.name),
				zap.String("owner_id", actor.ID.String()),
				zap.Error(err),
			)
			return nil, err
		}
		run.report(st.name, st.done, stageDoneMessage(st.name, run))
	}

	resp := toDesignResponse(run.design, p.designs.pricing.Formatter(), p.designs.uploader.storage)
	return &resp, nil
}

func (p *SubmissionPipeline) stage(run *pipelineRun, name string, fn func(*pipelineRun) error) error {
	var err error
	start := time.Now()
	telemetry.WithProfilingLabels(run.ctx, telemetry.StageLabels(name, run.merchType), func(ctx context.Context) {
		prev := run.ctx
		run.ctx = ctx
		err = fn(run)
		run.ctx = prev
	})
	p.metrics.RecordStage(run.ctx, name, time.Since(start), err)
	if err != nil {
		return &PipelineError{Stage: name, Err: err}
	}
	return nil
}

// preflight rejects a run that would fail validation in a later stage
func (p *SubmissionPipeline) preflight(run *pipelineRun) error {
	if err := run.cfg.Validate(); err != nil {
		return err
	}
	if !run.cfg.HasContent() {
		return byom.ErrNothingToSubmit
	}
	return p.designs.uploader.Validate(run.uploads)
}

func (p *SubmissionPipeline) upload(run *pipelineRun) error {
	files, err := p.designs.uploader.Store(run.ctx, run.actor.ID, run.uploads)
	if err != nil {
		return err
	}
	run.files = files
	return nil
}

func (p *SubmissionPipeline) create(run *pipelineRun) error {
	d, err := p.designs.create(run.ctx, run.actor, run.name, run.cfg, run.files)
	if err != nil {
		return err
	}
	run.design = d
	return nil
}

func (p *SubmissionPipeline) submit(run *pipelineRun) error {
	return p.designs.submit(run.ctx, run.design)
}

func stageDoneMessage(stage string, run *pipelineRun) string {
	switch stage {
	case StageUpload:
		return fmt.Sprintf("Stored %d graphic(s)", len(run.files))
	case StageCreate:
		return "Design created"
	default:
		return "Submitted for approval"
	}
}

// PipelineErrorCode returns the code to report for err. Domain errors keep
// their code, other failures are named after the stage.
func PipelineErrorCode(err *PipelineError) string {
	var de *shared.DomainError
	if errors.As(err.Err, &de) {
		return de.Code
	}
	return err.Code()
}
