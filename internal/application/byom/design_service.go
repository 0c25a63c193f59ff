package byom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultSubmitGuardTTL is how long a submission of one design version is remembered
const DefaultSubmitGuardTTL = 10 * time.Minute

// maxExportRows caps the admin export
const maxExportRows = 10000

// ErrDesignNotFound hides designs the caller may not see
var ErrDesignNotFound = shared.NewDomainError("NOT_FOUND", "Design not found")

// DesignService runs the approval workflow of customer designs
type DesignService struct {
	designs   byom.DesignRepository
	cartLines byom.CartLineRepository
	pricing   *PricingService
	uploader  *GraphicUploader
	guard     shared.IdempotencyStore
	guardTTL  time.Duration
	events    shared.EventPublisher
	metrics   WorkflowMetrics
	logger    *zap.Logger

	composer ProofComposer
	renderer ProofRenderer
	exporter DesignExporter
}

// NewDesignService creates a new DesignService
func NewDesignService(
	designs byom.DesignRepository,
	cartLines byom.CartLineRepository,
	pricing *PricingService,
	uploader *GraphicUploader,
	guard shared.IdempotencyStore,
	events shared.EventPublisher,
	logger *zap.Logger,
) *DesignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesignService{
		designs:   designs,
		cartLines: cartLines,
		pricing:   pricing,
		uploader:  uploader,
		guard:     guard,
		guardTTL:  DefaultSubmitGuardTTL,
		events:    events,
		metrics:   NoopMetrics,
		logger:    logger,
	}
}

// WithMetrics sets the workflow metrics recorder
func (s *DesignService) WithMetrics(m WorkflowMetrics) *DesignService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// WithSubmitGuardTTL sets how long a submission is remembered
func (s *DesignService) WithSubmitGuardTTL(ttl time.Duration) *DesignService {
	if ttl > 0 {
		s.guardTTL = ttl
	}
	return s
}

// WithProofs enables proof sheet rendering
func (s *DesignService) WithProofs(composer ProofComposer, renderer ProofRenderer) *DesignService {
	s.composer = composer
	s.renderer = renderer
	return s
}

// WithExporter enables the spreadsheet export
func (s *DesignService) WithExporter(exporter DesignExporter) *DesignService {
	s.exporter = exporter
	return s
}

// CreateDesign stores the uploads and saves the configuration as a draft
// design. Uploads are validated before anything is stored.
func (s *DesignService) CreateDesign(ctx context.Context, actor Actor, req CreateDesignRequest, uploads []byom.Upload) (*DesignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "create")
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	cfg := byom.ParseConfiguration(req.Configuration)
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	if err = s.uploader.Validate(uploads); err != nil {
		return nil, err
	}
	files, err := s.uploader.Store(ctx, actor.ID, uploads)
	if err != nil {
		return nil, err
	}
	d, err := s.create(ctx, actor, req.Name, cfg, files)
	if err != nil {
		s.uploader.Discard(ctx, files)
		return nil, err
	}
	resp := toDesignResponse(d, s.pricing.Formatter(), s.uploader.storage)
	return &resp, nil
}

func (s *DesignService) create(ctx context.Context, actor Actor, name string, cfg byom.Configuration, files []byom.DesignFile) (*byom.Design, error) {
	d, err := byom.NewDesign(actor.ID, actor.Email, name, cfg)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := d.AttachFile(f); err != nil {
			return nil, err
		}
	}
	if err := s.designs.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save design: %w", err)
	}
	s.metrics.RecordDesignCreated(ctx, cfg.MerchType.String())
	publishPending(ctx, s.events, d, s.logger)

	s.logger.Info("Design created",
		zap.String("design_id", d.ID.String()),
		zap.String("merch_type", cfg.MerchType.String()),
		zap.Int("files", len(files)),
	)
	return d, nil
}

// SubmitForApproval prices the design under the global policy and sends it
// to review. A second submission of the same design version is rejected
// even when it races the first one.
func (s *DesignService) SubmitForApproval(ctx context.Context, actor Actor, id uuid.UUID) (*DesignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "submit",
		attribute.String(telemetry.SpanAttrDesignID, id.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	d, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err = s.submit(ctx, d); err != nil {
		return nil, err
	}
	resp := toDesignResponse(d, s.pricing.Formatter(), s.uploader.storage)
	return &resp, nil
}

func (s *DesignService) submit(ctx context.Context, d *byom.Design) error {
	if err := d.CanSubmit(); err != nil {
		return err
	}

	key := fmt.Sprintf("design:submit:%s:%d", d.ID, d.Version)
	guarded := false
	if s.guard != nil {
		fresh, err := s.guard.MarkProcessed(ctx, key, s.guardTTL)
		switch {
		case err != nil:
			// the optimistic lock still rejects the second writer
			s.logger.Warn("Submit guard unavailable", zap.String("design_id", d.ID.String()), zap.Error(err))
		case !fresh:
			return shared.ErrAlreadySubmitted
		default:
			guarded = true
		}
	}
	release := func() {
		if guarded {
			if err := s.guard.Release(ctx, key); err != nil {
				s.logger.Warn("Failed to release submit guard", zap.String("key", key), zap.Error(err))
			}
		}
	}

	breakdown, _, err := s.pricing.Canonical(ctx, d.Configuration)
	if err != nil {
		release()
		return err
	}
	if err := d.Submit(breakdown); err != nil {
		release()
		return err
	}
	if err := s.designs.SaveWithLock(ctx, d); err != nil {
		release()
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			return shared.ErrAlreadySubmitted
		}
		return fmt.Errorf("failed to save design: %w", err)
	}

	s.metrics.RecordDesignTransition(ctx, d.Status.String())
	publishPending(ctx, s.events, d, s.logger)
	s.logger.Info("Design submitted",
		zap.String("design_id", d.ID.String()),
		zap.String("total", breakdown.Total.String()),
	)
	return nil
}

// ApproveDesign accepts a pending design at the current policy price
func (s *DesignService) ApproveDesign(ctx context.Context, reviewer Actor, id uuid.UUID) (*DesignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "approve",
		attribute.String(telemetry.SpanAttrDesignID, id.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != byom.DesignStatusPendingApproval {
		err = shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve design in %s status", d.Status))
		return nil, err
	}
	breakdown, _, err := s.pricing.Canonical(ctx, d.Configuration)
	if err != nil {
		return nil, err
	}
	if err = d.Approve(reviewer.ID, breakdown); err != nil {
		return nil, err
	}
	if err = s.designs.SaveWithLock(ctx, d); err != nil {
		return nil, err
	}
	s.reviewed(ctx, d)
	resp := toDesignResponse(d, s.pricing.Formatter(), s.uploader.storage)
	return &resp, nil
}

// RejectDesign refuses a pending design with an optional reason
func (s *DesignService) RejectDesign(ctx context.Context, reviewer Actor, id uuid.UUID, reason string) (*DesignResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "reject",
		attribute.String(telemetry.SpanAttrDesignID, id.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = d.Reject(reviewer.ID, reason); err != nil {
		return nil, err
	}
	if err = s.designs.SaveWithLock(ctx, d); err != nil {
		return nil, err
	}
	s.reviewed(ctx, d)
	resp := toDesignResponse(d, s.pricing.Formatter(), s.uploader.storage)
	return &resp, nil
}

func (s *DesignService) reviewed(ctx context.Context, d *byom.Design) {
	s.metrics.RecordDesignTransition(ctx, d.Status.String())
	publishPending(ctx, s.events, d, s.logger)
	reviewer := ""
	if d.ReviewedBy != nil {
		reviewer = d.ReviewedBy.String()
	}
	s.logger.Info("Design reviewed",
		zap.String("design_id", d.ID.String()),
		zap.String("status", d.Status.String()),
		zap.String("reviewer_id", reviewer),
	)
}

// GetDesign returns a design visible to the actor
func (s *DesignService) GetDesign(ctx context.Context, actor Actor, id uuid.UUID) (*DesignResponse, error) {
	d, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := toDesignResponse(d, s.pricing.Formatter(), s.uploader.storage)
	return &resp, nil
}

// ListMyDesigns lists the actor's own designs
func (s *DesignService) ListMyDesigns(ctx context.Context, actor Actor, req ListDesignsRequest) (*shared.Counted[DesignResponse], error) {
	filter := req.ToFilter()
	filter.OwnerID = &actor.ID
	designs, count, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	results := make([]DesignResponse, 0, len(designs))
	for i := range designs {
		results = append(results, toDesignResponse(&designs[i], s.pricing.Formatter(), s.uploader.storage))
	}
	out := shared.NewCounted(results, count)
	return &out, nil
}

// ListDesignsWithOrders lists designs for review together with the cart
// lines created from them
func (s *DesignService) ListDesignsWithOrders(ctx context.Context, req ListDesignsRequest) (*shared.Counted[DesignWithOrdersResponse], error) {
	designs, count, err := s.list(ctx, req.ToFilter())
	if err != nil {
		return nil, err
	}
	lines, err := s.linesByDesign(ctx, designs)
	if err != nil {
		return nil, err
	}
	f := s.pricing.Formatter()
	results := make([]DesignWithOrdersResponse, 0, len(designs))
	for i := range designs {
		d := &designs[i]
		r := DesignWithOrdersResponse{
			DesignResponse: toDesignResponse(d, f, s.uploader.storage),
			CartLines:      []CartLineResponse{},
		}
		for j := range lines[d.ID] {
			r.CartLines = append(r.CartLines, toCartLineResponse(&lines[d.ID][j], f))
		}
		results = append(results, r)
	}
	out := shared.NewCounted(results, count)
	return &out, nil
}

// ReviewBreakdown recomputes the price of a stored design under the
// current global policy and compares it with the submitted price
func (s *DesignService) ReviewBreakdown(ctx context.Context, id uuid.UUID) (*ReviewBreakdownResponse, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	current, policy, err := s.pricing.Canonical(ctx, d.Configuration)
	if err != nil {
		return nil, err
	}
	f := s.pricing.Formatter()
	resp := &ReviewBreakdownResponse{
		DesignID: d.ID,
		PolicyID: policy.ID,
		Current:  toBreakdownResponse(current, f),
	}
	if d.PricingBreakdown != nil {
		submitted := toBreakdownResponse(*d.PricingBreakdown, f)
		resp.Submitted = &submitted
		resp.Changed = !d.PricingBreakdown.Total.Equal(current.Total)
	}
	return resp, nil
}

// AddToCart puts quantity units of an approved design in its owner's cart
func (s *DesignService) AddToCart(ctx context.Context, actor Actor, id uuid.UUID, req AddToCartRequest) (*CartLineResponse, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsOwnedBy(actor.ID) {
		return nil, ErrDesignNotFound
	}
	line, err := d.ToCartLine(req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := s.cartLines.Save(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to save cart line: %w", err)
	}
	s.logger.Info("Design added to cart",
		zap.String("design_id", d.ID.String()),
		zap.Int("quantity", line.Quantity),
		zap.String("total", line.Total.String()),
	)
	resp := toCartLineResponse(line, s.pricing.Formatter())
	return &resp, nil
}

// ProofSheet renders the printable PDF proof of a design
func (s *DesignService) ProofSheet(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if s.composer == nil || s.renderer == nil {
		return nil, shared.NewDomainError("PROOFS_DISABLED", "Proof rendering is not configured")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "design", "proof",
		attribute.String(telemetry.SpanAttrDesignID, id.String()))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var breakdown byom.PriceBreakdown
	if d.PricingBreakdown != nil {
		breakdown = *d.PricingBreakdown
	} else if breakdown, err = s.pricing.Estimate(ctx, d.Configuration); err != nil {
		return nil, err
	}
	html, err := s.composer.Compose(d, breakdown)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, err
	}
	return pdf, nil
}

// ExportDesigns writes the designs matching req as a spreadsheet. Paging
// fields of req are ignored; the export stops after maxExportRows designs.
func (s *DesignService) ExportDesigns(ctx context.Context, req ListDesignsRequest) ([]byte, error) {
	if s.exporter == nil {
		return nil, shared.NewDomainError("EXPORT_DISABLED", "Design export is not configured")
	}
	filter := req.ToFilter()
	filter.PageSize = 200

	var rows []DesignExportRow
	for filter.Page = 1; len(rows) < maxExportRows; filter.Page++ {
		designs, err := s.designs.FindAll(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list designs: %w", err)
		}
		lines, err := s.linesByDesign(ctx, designs)
		if err != nil {
			return nil, err
		}
		for i := range designs {
			rows = append(rows, exportRow(&designs[i], lines[designs[i].ID]))
		}
		if len(designs) < filter.PageSize {
			break
		}
	}
	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}
	return s.exporter.ExportDesigns(rows)
}

func exportRow(d *byom.Design, lines []byom.CartLine) DesignExportRow {
	cfg := d.Configuration
	row := DesignExportRow{
		ID:          d.ID.String(),
		Name:        d.Name,
		OwnerEmail:  d.OwnerEmail,
		Status:      d.Status.String(),
		MerchType:   cfg.MerchType.String(),
		Size:        cfg.Size.String(),
		Color:       cfg.ColorName,
		Texts:       cfg.TextCount(),
		Assets:      cfg.AssetCount(),
		SubmittedAt: d.SubmittedAt,
		ReviewedAt:  d.ReviewedAt,
		CreatedAt:   d.CreatedAt,
	}
	for i, z := range cfg.UsedZones() {
		if i > 0 {
			row.Zones += ", "
		}
		row.Zones += z.String()
	}
	if d.PricingBreakdown != nil {
		row.Total = d.PricingBreakdown.Total
		row.Currency = d.PricingBreakdown.Currency
	}
	for _, l := range lines {
		row.Ordered += l.Quantity
	}
	return row
}

func (s *DesignService) list(ctx context.Context, filter byom.DesignFilter) ([]byom.Design, int64, error) {
	designs, err := s.designs.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list designs: %w", err)
	}
	count, err := s.designs.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count designs: %w", err)
	}
	return designs, count, nil
}

func (s *DesignService) linesByDesign(ctx context.Context, designs []byom.Design) (map[uuid.UUID][]byom.CartLine, error) {
	out := make(map[uuid.UUID][]byom.CartLine)
	if len(designs) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(designs))
	for i := range designs {
		ids[i] = designs[i].ID
	}
	lines, err := s.cartLines.FindByDesignIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	for _, l := range lines {
		out[l.DesignID] = append(out[l.DesignID], l)
	}
	return out, nil
}

func (s *DesignService) load(ctx context.Context, id uuid.UUID) (*byom.Design, error) {
	d, err := s.designs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrDesignNotFound
		}
		return nil, fmt.Errorf("failed to load design: %w", err)
	}
	return d, nil
}

func (s *DesignService) loadOwned(ctx context.Context, actor Actor, id uuid.UUID) (*byom.Design, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(d.OwnerID) {
		return nil, ErrDesignNotFound
	}
	return d, nil
}
