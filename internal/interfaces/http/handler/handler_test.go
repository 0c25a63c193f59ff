package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbyom "github.com/merch/byom/internal/application/byom"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/infrastructure/auth"
	"github.com/merch/byom/internal/infrastructure/cache"
	"github.com/merch/byom/internal/infrastructure/config"
	"github.com/merch/byom/internal/infrastructure/storage"
	"github.com/merch/byom/internal/infrastructure/strategy"
	"github.com/merch/byom/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockDesignRepository implements byom.DesignRepository for testing
type MockDesignRepository struct {
	mock.Mock
}

func (m *MockDesignRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.Design), args.Error(1)
}

func (m *MockDesignRepository) FindAll(ctx context.Context, filter byom.DesignFilter) ([]byom.Design, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.Design), args.Error(1)
}

func (m *MockDesignRepository) Count(ctx context.Context, filter byom.DesignFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDesignRepository) Save(ctx context.Context, design *byom.Design) error {
	return m.Called(ctx, design).Error(0)
}

func (m *MockDesignRepository) SaveWithLock(ctx context.Context, design *byom.Design) error {
	return m.Called(ctx, design).Error(0)
}

// MockPricingPolicyRepository implements byom.PricingPolicyRepository for testing
type MockPricingPolicyRepository struct {
	mock.Mock
}

func (m *MockPricingPolicyRepository) FindByID(ctx context.Context, id uuid.UUID) (*byom.PricingPolicy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) FindAll(ctx context.Context) ([]byom.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) FindActive(ctx context.Context) (*byom.PricingPolicy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*byom.PricingPolicy), args.Error(1)
}

func (m *MockPricingPolicyRepository) Save(ctx context.Context, policy *byom.PricingPolicy) error {
	return m.Called(ctx, policy).Error(0)
}

// MockCartLineRepository implements byom.CartLineRepository for testing
type MockCartLineRepository struct {
	mock.Mock
}

func (m *MockCartLineRepository) Save(ctx context.Context, line *byom.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *MockCartLineRepository) FindByDesignIDs(ctx context.Context, ids []uuid.UUID) ([]byom.CartLine, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byom.CartLine), args.Error(1)
}

type proofStub struct{}

func (proofStub) Compose(d *byom.Design, _ byom.PriceBreakdown) (string, error) {
	return "<h1>" + d.Name + "</h1>", nil
}

func (proofStub) RenderPDF(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF-1.4 " + html), nil
}

type exportStub struct{ rows int }

func (e *exportStub) ExportDesigns(rows []appbyom.DesignExportRow) ([]byte, error) {
	e.rows = len(rows)
	return []byte("PK\x03\x04"), nil
}

type testServer struct {
	designs  *MockDesignRepository
	policies *MockPricingPolicyRepository
	carts    *MockCartLineRepository
	storage  *storage.MemoryObjectStorage
	exporter *exportStub
	editor   *appbyom.EditorService
	jwt      *auth.JWTService
	router   *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	s := &testServer{
		designs:  new(MockDesignRepository),
		policies: new(MockPricingPolicyRepository),
		carts:    new(MockCartLineRepository),
		storage:  storage.NewMemoryObjectStorage("https://cdn.example.com"),
		exporter: &exportStub{},
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                "handler-test-secret-of-32-characters",
			AccessTokenExpiration: time.Minute,
			Issuer:                "byom-test",
		}),
	}

	strategies, err := strategy.NewRegistryWithDefaults(nil, "USD")
	require.NoError(t, err)
	guard := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = guard.Close() })

	pricing := appbyom.NewPricingService(s.policies, strategies, nil, nil, logger)
	drafts := appbyom.NewDraftService(cache.NewInMemoryDraftStore(), logger)
	uploader := appbyom.NewGraphicUploader(s.storage, appbyom.UploadConfig{}, logger)
	designs := appbyom.NewDesignService(s.designs, s.carts, pricing, uploader, guard, nil, logger).
		WithProofs(proofStub{}, proofStub{}).
		WithExporter(s.exporter)
	pipeline := appbyom.NewSubmissionPipeline(designs, logger)
	s.editor = appbyom.NewEditorService(drafts, pricing, time.Minute, logger)
	t.Cleanup(s.editor.Stop)

	editorH := NewEditorHandler(s.editor)
	draftH := NewDraftHandler(drafts)
	designH := NewDesignHandler(designs, pipeline, 0)
	pricingH := NewPricingHandler(pricing)
	adminH := NewAdminHandler(designs, pricing)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/health", NewHealthHandler(nil, s.editor).Health)
	api := r.Group("/api/v1", middleware.JWTAuthMiddleware(s.jwt))

	api.POST("/editor/sessions", editorH.Open)
	api.GET("/editor/sessions/:id", editorH.Get)
	api.DELETE("/editor/sessions/:id", editorH.Close)
	api.POST("/editor/sessions/:id/texts", editorH.AddText)
	api.DELETE("/editor/sessions/:id/texts/:zone/:element_id", editorH.RemoveText)
	api.POST("/editor/sessions/:id/assets", editorH.AddAsset)
	api.DELETE("/editor/sessions/:id/assets/:zone/:element_id", editorH.RemoveAsset)
	api.POST("/editor/sessions/:id/assets/:zone/:element_id/scale", editorH.ScaleAsset)
	api.POST("/editor/sessions/:id/drag/begin", editorH.BeginDrag)
	api.POST("/editor/sessions/:id/drag/update", editorH.UpdateDrag)
	api.POST("/editor/sessions/:id/drag/end", editorH.EndDrag)
	api.POST("/editor/sessions/:id/undo", editorH.Undo)
	api.GET("/editor/sessions/:id/price", editorH.Price)

	api.GET("/drafts/:merch_type", draftH.Get)
	api.DELETE("/drafts/:merch_type", draftH.Delete)

	api.POST("/designs", designH.Create)
	api.GET("/designs", designH.List)
	api.POST("/designs/submit-pipeline", designH.SubmitPipeline)
	api.GET("/designs/:id", designH.Get)
	api.POST("/designs/:id/submit", designH.Submit)
	api.POST("/designs/:id/cart", designH.AddToCart)

	api.GET("/pricing/policy", pricingH.GetActivePolicy)
	api.POST("/pricing/quote", pricingH.Quote)

	admin := api.Group("/admin", middleware.RequireRole(auth.RoleAdmin))
	admin.GET("/designs", adminH.ListDesigns)
	admin.GET("/designs/export", adminH.Export)
	admin.GET("/designs/:id/breakdown", adminH.Breakdown)
	admin.GET("/designs/:id/proof", adminH.Proof)
	admin.POST("/designs/:id/approve", adminH.Approve)
	admin.POST("/designs/:id/reject", adminH.Reject)
	admin.POST("/pricing/policies", adminH.CreatePolicy)
	admin.PATCH("/pricing/policies/:id", adminH.PatchPolicy)

	s.router = r
	return s
}

// user returns a token and the actor it authenticates
func (s *testServer) user(t *testing.T, role auth.Role) (string, appbyom.Actor) {
	t.Helper()
	id := uuid.New()
	email := string(role) + "@example.com"
	token, _, err := s.jwt.GenerateAccessToken(auth.GenerateTokenInput{UserID: id, Email: email, Role: role})
	require.NoError(t, err)
	return token, appbyom.Actor{ID: id, Email: email, Admin: role == auth.RoleAdmin}
}

func (s *testServer) do(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) APIResponse[T] {
	t.Helper()
	var resp APIResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func activePolicy(t *testing.T) *byom.PricingPolicy {
	t.Helper()
	p, err := byom.NewPricingPolicy("Standard", byom.PolicyFees{
		BaseFee:               decimal.NewFromInt(20),
		ImageCustomizationFee: decimal.NewFromFloat(4.5),
		TextsCustomizationFee: decimal.NewFromInt(3),
		FrontFee:              decimal.NewFromInt(5),
		BackFee:               decimal.NewFromInt(6),
		SideFee:               decimal.NewFromInt(2),
	}, "USD", 10)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

// frontText returns a t-shirt configuration with one front text
func frontText(t *testing.T) byom.Configuration {
	t.Helper()
	cfg := byom.DefaultConfiguration()
	_, err := byom.AddText(&cfg, byom.ZoneFront, byom.TextInput{Content: "GO TEAM"})
	require.NoError(t, err)
	return cfg
}

func configJSON(t *testing.T, cfg byom.Configuration) json.RawMessage {
	t.Helper()
	raw, err := byom.MarshalConfiguration(cfg)
	require.NoError(t, err)
	return raw
}

func designOf(t *testing.T, owner appbyom.Actor, cfg byom.Configuration) *byom.Design {
	t.Helper()
	d, err := byom.NewDesign(owner.ID, owner.Email, "Team shirt", cfg)
	require.NoError(t, err)
	d.ClearDomainEvents()
	return d
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
