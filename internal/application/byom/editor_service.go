package byom

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultSessionIdleTimeout closes sessions nobody touched for this long
const DefaultSessionIdleTimeout = 30 * time.Minute

// ErrSessionNotFound is returned for unknown, expired or foreign sessions
var ErrSessionNotFound = shared.NewDomainError("NOT_FOUND", "Editor session not found")

type editorSession struct {
	mu       sync.Mutex
	id       uuid.UUID
	owner    Actor
	editor   *byom.Editor
	restored bool
	lastSeen time.Time
	// pending holds the last changed configuration not yet written to the draft store
	pending *byom.Configuration
}

// EditorService hosts the live editor sessions. Each session is guarded by
// its own mutex; every committed change and every scale change is written
// through to the draft store.
type EditorService struct {
	drafts      *DraftService
	pricing     *PricingService
	metrics     WorkflowMetrics
	logger      *zap.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*editorSession

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewEditorService creates a new EditorService
func NewEditorService(drafts *DraftService, pricing *PricingService, idleTimeout time.Duration, logger *zap.Logger) *EditorService {
	if idleTimeout <= 0 {
		idleTimeout = DefaultSessionIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		drafts:      drafts,
		pricing:     pricing,
		metrics:     NoopMetrics,
		logger:      logger,
		idleTimeout: idleTimeout,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*editorSession),
		stopChan:    make(chan struct{}),
	}
}

// WithMetrics sets the workflow metrics recorder
func (s *EditorService) WithMetrics(m WorkflowMetrics) *EditorService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Open starts a session for merchType, restoring the owner's draft when
// one exists. Size and color of the request seed a fresh configuration only.
func (s *EditorService) Open(ctx context.Context, actor Actor, req OpenSessionRequest) (*SessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "editor", "open",
		attribute.String(telemetry.SpanAttrMerchType, req.MerchType))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	merchType := byom.MerchandiseType(req.MerchType)
	if !merchType.IsValid() {
		err = shared.NewDomainError("INVALID_MERCH_TYPE", "Unsupported merchandise type: "+req.MerchType)
		return nil, err
	}

	draft := s.drafts.Load(ctx, actor.OwnerKey(), merchType)
	initial := draft.Configuration
	if !draft.Restored && (req.Size != "" || req.Color != "") {
		seeded, seedErr := byom.NewConfiguration(merchType, sizeOr(req.Size), colorOr(req.Color), colorNameOr(req.ColorName, req.Color))
		if seedErr != nil {
			err = seedErr
			return nil, err
		}
		initial = *seeded
	}

	sess := &editorSession{
		id:       uuid.New(),
		owner:    actor,
		editor:   byom.NewEditor(initial),
		restored: draft.Restored,
		lastSeen: s.now(),
	}
	writeThrough := func(cfg byom.Configuration) {
		sess.pending = &cfg
	}
	sess.editor.OnCommit(writeThrough)
	sess.editor.OnChange(writeThrough)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.RecordEditorSessions(ctx, n)

	s.logger.Debug("Editor session opened",
		zap.String("session_id", sess.id.String()),
		zap.String("merch_type", merchType.String()),
		zap.Bool("restored", draft.Restored),
	)
	return sess.response(), nil
}

// Get returns the state of a session
func (s *EditorService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*SessionResponse, error) {
	var resp *SessionResponse
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		resp = sess.response()
		return nil
	})
	return resp, err
}

// Close ends a session. Committed changes are already in the draft store.
func (s *EditorService) Close(ctx context.Context, actor Actor, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok || sess.owner.ID != actor.ID {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	s.metrics.RecordEditorSessions(ctx, n)
	return nil
}

// AddText adds a text element and commits
func (s *EditorService) AddText(ctx context.Context, actor Actor, id uuid.UUID, req AddTextRequest) (*byom.CustomText, error) {
	var text byom.CustomText
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		var err error
		text, err = sess.editor.AddText(byom.PlacementZone(req.Zone), req.ToInput())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// AddAsset places a graphic and commits
func (s *EditorService) AddAsset(ctx context.Context, actor Actor, id uuid.UUID, req AddAssetRequest) (*byom.CustomAsset, error) {
	var asset byom.CustomAsset
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		var err error
		asset, err = sess.editor.AddAsset(byom.PlacementZone(req.Zone), req.AssetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// RemoveText removes a text element and commits
func (s *EditorService) RemoveText(ctx context.Context, actor Actor, id uuid.UUID, zone byom.PlacementZone, elementID string) error {
	return s.with(ctx, actor, id, func(sess *editorSession) error {
		return sess.editor.RemoveText(zone, elementID)
	})
}

// RemoveAsset removes a graphic and commits
func (s *EditorService) RemoveAsset(ctx context.Context, actor Actor, id uuid.UUID, zone byom.PlacementZone, elementID string) error {
	return s.with(ctx, actor, id, func(sess *editorSession) error {
		return sess.editor.RemoveAsset(zone, elementID)
	})
}

// ScaleAsset changes a graphic's scale. It adds no undo step but is written
// to the draft store like a commit.
func (s *EditorService) ScaleAsset(ctx context.Context, actor Actor, id uuid.UUID, zone byom.PlacementZone, elementID string, delta float64) (*ScaleResponse, error) {
	var scale float64
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		var err error
		scale, err = sess.editor.ScaleAsset(zone, elementID, delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ScaleResponse{Scale: scale}, nil
}

// BeginDrag starts dragging an element, committing any drag in progress
func (s *EditorService) BeginDrag(ctx context.Context, actor Actor, id uuid.UUID, req BeginDragRequest) error {
	return s.with(ctx, actor, id, func(sess *editorSession) error {
		return sess.editor.BeginDrag(
			byom.PlacementZone(req.Zone),
			byom.ElementKind(req.Kind),
			req.ElementID,
			byom.Point{X: req.Pointer.X, Y: req.Pointer.Y},
			byom.Canvas{Left: req.Canvas.Left, Top: req.Canvas.Top, Width: req.Canvas.Width, Height: req.Canvas.Height},
		)
	})
}

// UpdateDrag moves the dragged element. Nothing is committed.
func (s *EditorService) UpdateDrag(ctx context.Context, actor Actor, id uuid.UUID, req UpdateDragRequest) (*PositionResponse, error) {
	var pos byom.Point
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		var err error
		pos, err = sess.editor.UpdateDrag(byom.Point{X: req.Pointer.X, Y: req.Pointer.Y})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &PositionResponse{X: pos.X, Y: pos.Y}, nil
}

// EndDrag commits the drag in progress. It reports false when none was active.
func (s *EditorService) EndDrag(ctx context.Context, actor Actor, id uuid.UUID) (bool, error) {
	var ended bool
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		ended = sess.editor.EndDrag()
		return nil
	})
	return ended, err
}

// Undo restores the previous snapshot. It reports false at the first snapshot.
func (s *EditorService) Undo(ctx context.Context, actor Actor, id uuid.UUID) (bool, error) {
	var undone bool
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		undone = sess.editor.Undo()
		return nil
	})
	return undone, err
}

// Price quotes the live configuration of a session
func (s *EditorService) Price(ctx context.Context, actor Actor, id uuid.UUID) (*QuoteResponse, error) {
	var cfg byom.Configuration
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		cfg = sess.editor.Configuration()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.pricing.Quote(ctx, cfg)
}

// Configuration returns the live configuration of a session
func (s *EditorService) Configuration(ctx context.Context, actor Actor, id uuid.UUID) (byom.Configuration, error) {
	var cfg byom.Configuration
	err := s.with(ctx, actor, id, func(sess *editorSession) error {
		cfg = sess.editor.Configuration()
		return nil
	})
	return cfg, err
}

// Len returns the number of open sessions
func (s *EditorService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns
// how many were closed
func (s *EditorService) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.idleTimeout)
	s.mu.Lock()
	closed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			closed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if closed > 0 {
		s.logger.Info("Idle editor sessions closed", zap.Int("closed", closed), zap.Int("open", n))
	}
	s.metrics.RecordEditorSessions(ctx, n)
	return closed
}

// StartSweeper runs Sweep every interval until ctx is done or Stop is called
func (s *EditorService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop ends the sweeper
func (s *EditorService) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// with runs fn on the actor's session under the session lock, then writes
// a committed configuration through to the draft store
func (s *EditorService) with(ctx context.Context, actor Actor, id uuid.UUID, fn func(*editorSession) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || sess.owner.ID != actor.ID {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()
	if err := fn(sess); err != nil {
		return err
	}
	if sess.pending != nil {
		cfg := *sess.pending
		sess.pending = nil
		if err := s.drafts.Save(ctx, sess.owner.OwnerKey(), cfg); err != nil {
			// the live session keeps the change; the next commit retries the write
			s.logger.Error("Failed to write draft",
				zap.String("session_id", sess.id.String()),
				zap.String("merch_type", cfg.MerchType.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (sess *editorSession) response() *SessionResponse {
	cfg := sess.editor.Configuration()
	h := sess.editor.History()
	resp := &SessionResponse{
		ID:            sess.id,
		MerchType:     cfg.MerchType.String(),
		Configuration: byom.ToTransport(cfg),
		HistoryIndex:  h.Index(),
		HistoryLength: h.Len(),
		CanUndo:       h.CanUndo(),
		Restored:      sess.restored,
		LastSeen:      sess.lastSeen,
	}
	if d := sess.editor.Drag(); d != nil {
		resp.Drag = &DragResponse{Zone: d.Zone.String(), Kind: string(d.Kind), ElementID: d.ElementID}
	}
	return resp
}

func sizeOr(s string) byom.Size {
	if s == "" {
		return byom.DefaultSize
	}
	return byom.Size(s)
}

func colorOr(c string) string {
	if c == "" {
		return byom.DefaultColor
	}
	return c
}

func colorNameOr(name, color string) string {
	switch {
	case name != "":
		return name
	case color != "":
		return color
	}
	return byom.DefaultColorName
}
