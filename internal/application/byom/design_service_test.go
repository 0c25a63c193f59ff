package byom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type designFixture struct {
	designs  *MockDesignRepository
	policies *MockPricingPolicyRepository
	carts    *MockCartLineRepository
	events   *MockEventPublisher
	guard    *cache.InMemoryIdempotencyStore
	storage  *memoryStorage
	metrics  *recordingMetrics
	svc      *DesignService
}

func newDesignFixture(t *testing.T) *designFixture {
	t.Helper()
	f := &designFixture{
		designs:  new(MockDesignRepository),
		policies: new(MockPricingPolicyRepository),
		carts:    new(MockCartLineRepository),
		events:   new(MockEventPublisher),
		guard:    cache.NewInMemoryIdempotencyStore(time.Minute),
		storage:  newMemoryStorage(),
		metrics:  &recordingMetrics{},
	}
	t.Cleanup(func() { _ = f.guard.Close() })

	logger := zap.NewNop()
	pricing := NewPricingService(f.policies, testStrategies(t), f.events, nil, logger)
	uploader := NewGraphicUploader(f.storage, UploadConfig{}, logger)
	f.svc = NewDesignService(f.designs, f.carts, pricing, uploader, f.guard, f.events, logger).
		WithMetrics(f.metrics)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return f
}

func TestDesignService_CreateDesign(t *testing.T) {
	t.Run("stores uploads and saves a draft", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		f.designs.On("Save", mock.Anything, mock.AnythingOfType("*byom.Design")).Return(nil)

		raw, err := byom.MarshalConfiguration(configWithText(t))
		require.NoError(t, err)
		resp, err := f.svc.CreateDesign(context.Background(), owner, CreateDesignRequest{
			Name:          "Team shirt",
			Configuration: raw,
		}, []byom.Upload{{FileName: "logo.png", ContentType: "image/png", Data: pngData}})

		require.NoError(t, err)
		assert.Equal(t, "Team shirt", resp.Name)
		assert.Equal(t, byom.DesignStatusDraft.String(), resp.Status)
		assert.Equal(t, owner.ID, resp.OwnerID)
		require.Len(t, resp.Files, 1)
		assert.Contains(t, resp.Files[0].URL, "designs/"+owner.ID.String()+"/")
		assert.Equal(t, 1, f.storage.len(), "a 1x1 header-only png yields no thumbnail")
		f.events.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("invalid upload stores nothing", func(t *testing.T) {
		f := newDesignFixture(t)
		_, err := f.svc.CreateDesign(context.Background(), testActor(), CreateDesignRequest{},
			[]byom.Upload{
				{FileName: "ok.png", Data: pngData},
				{FileName: "anim.gif", Data: gifData},
			})

		require.Error(t, err)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_CONTENT_TYPE", de.Code)
		assert.Zero(t, f.storage.len())
		f.designs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("save failure discards stored files", func(t *testing.T) {
		f := newDesignFixture(t)
		f.designs.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		_, err := f.svc.CreateDesign(context.Background(), testActor(), CreateDesignRequest{},
			[]byom.Upload{{FileName: "logo.png", Data: pngData}})

		require.Error(t, err)
		assert.Zero(t, f.storage.len())
	})
}

func TestDesignService_SubmitForApproval(t *testing.T) {
	ctx := context.Background()

	t.Run("prices under the active policy", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := testDesign(t, owner, configWithText(t))
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(nil)

		resp, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		require.NoError(t, err)
		assert.Equal(t, byom.DesignStatusPendingApproval.String(), resp.Status)
		require.NotNil(t, resp.Breakdown)
		assert.True(t, resp.Breakdown.Total.Equal(decimal.NewFromInt(28)), "base 20 + front 5 + text 3")
		assert.False(t, resp.Breakdown.Estimate)
		assert.Equal(t, []string{"pending_approval"}, f.metrics.transitions)
	})

	t.Run("empty design is a validation error before pricing", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := testDesign(t, owner, byom.DefaultConfiguration())
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, byom.DesignStatusDraft, d.Status)
		f.policies.AssertNotCalled(t, "FindActive", mock.Anything)
		processed, _ := f.guard.IsProcessed(ctx, "design:submit:"+d.ID.String()+":1")
		assert.False(t, processed)
	})

	t.Run("foreign design is not found", func(t *testing.T) {
		f := newDesignFixture(t)
		d := testDesign(t, testActor(), configWithText(t))
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.svc.SubmitForApproval(ctx, testActor(), d.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("second submission of the same version is rejected", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		first := testDesign(t, owner, configWithText(t))
		second := *first
		second.Configuration = first.Configuration.Clone()
		f.designs.On("FindByID", mock.Anything, first.ID).Return(first, nil).Once()
		f.designs.On("FindByID", mock.Anything, first.ID).Return(&second, nil).Once()
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)
		f.designs.On("SaveWithLock", mock.Anything, first).Return(nil)

		_, err := f.svc.SubmitForApproval(ctx, owner, first.ID)
		require.NoError(t, err)
		_, err = f.svc.SubmitForApproval(ctx, owner, first.ID)

		assert.ErrorIs(t, err, shared.ErrAlreadySubmitted)
		f.designs.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("pending design is already submitted", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := testDesign(t, owner, configWithText(t))
		d.Status = byom.DesignStatusPendingApproval
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		assert.ErrorIs(t, err, shared.ErrAlreadySubmitted)
	})

	t.Run("lost optimistic lock releases the guard", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := testDesign(t, owner, configWithText(t))
		key := "design:submit:" + d.ID.String() + ":1"
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(shared.ErrConcurrencyConflict)

		_, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		assert.ErrorIs(t, err, shared.ErrAlreadySubmitted)
		processed, _ := f.guard.IsProcessed(ctx, key)
		assert.False(t, processed)
	})

	t.Run("no active policy", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := testDesign(t, owner, configWithText(t))
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(nil, shared.ErrNotFound)

		_, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		assert.ErrorIs(t, err, ErrNoActivePolicy)
		assert.Equal(t, byom.DesignStatusDraft, d.Status)
	})

	t.Run("guard outage still submits", func(t *testing.T) {
		f := newDesignFixture(t)
		guard := new(MockIdempotencyStore)
		guard.On("MarkProcessed", mock.Anything, mock.Anything, DefaultSubmitGuardTTL).Return(false, errors.New("redis down"))
		f.svc.guard = guard
		owner := testActor()
		d := testDesign(t, owner, configWithText(t))
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(nil)

		_, err := f.svc.SubmitForApproval(ctx, owner, d.ID)

		require.NoError(t, err)
		guard.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})
}

func pendingDesign(t *testing.T, owner Actor) *byom.Design {
	t.Helper()
	d := testDesign(t, owner, configWithText(t))
	b, err := byom.NewPriceBreakdown(byom.StrategyPolicy, "USD", false, []byom.PriceLine{
		{Code: "base_fee", Label: "Base fee", Amount: decimal.NewFromInt(25)},
	})
	require.NoError(t, err)
	require.NoError(t, d.Submit(b))
	d.ClearDomainEvents()
	return d
}

func TestDesignService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("approve reprices with the current policy", func(t *testing.T) {
		f := newDesignFixture(t)
		admin := testAdmin()
		d := pendingDesign(t, testActor())
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(nil)

		resp, err := f.svc.ApproveDesign(ctx, admin, d.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		assert.True(t, resp.Breakdown.Total.Equal(decimal.NewFromInt(28)))
		assert.Equal(t, &admin.ID, resp.ReviewedBy)
		f.events.AssertCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("approve outside review is an invalid state", func(t *testing.T) {
		f := newDesignFixture(t)
		d := testDesign(t, testActor(), configWithText(t))
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.svc.ApproveDesign(ctx, testAdmin(), d.ID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.policies.AssertNotCalled(t, "FindActive", mock.Anything)
	})

	t.Run("reject records the reason and resubmission clears it", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := pendingDesign(t, owner)
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(nil)
		f.policies.On("FindActive", mock.Anything).Return(testPolicy(t), nil)

		resp, err := f.svc.RejectDesign(ctx, testAdmin(), d.ID, "  logo is blurry ")
		require.NoError(t, err)
		assert.Equal(t, "rejected", resp.Status)
		assert.Equal(t, "logo is blurry", resp.RejectionReason)

		resp, err = f.svc.SubmitForApproval(ctx, owner, d.ID)
		require.NoError(t, err)
		assert.Equal(t, "pending_approval", resp.Status)
		assert.Empty(t, resp.RejectionReason)
	})
}

func TestDesignService_ReviewBreakdown(t *testing.T) {
	ctx := context.Background()
	f := newDesignFixture(t)
	d := pendingDesign(t, testActor())
	policy := testPolicy(t)
	f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.policies.On("FindActive", mock.Anything).Return(policy, nil)

	resp, err := f.svc.ReviewBreakdown(ctx, d.ID)

	require.NoError(t, err)
	assert.Equal(t, policy.ID, resp.PolicyID)
	assert.True(t, resp.Current.Total.Equal(decimal.NewFromInt(28)))
	require.NotNil(t, resp.Submitted)
	assert.True(t, resp.Submitted.Total.Equal(decimal.NewFromInt(25)))
	assert.True(t, resp.Changed)
}

func TestDesignService_AddToCart(t *testing.T) {
	ctx := context.Background()

	t.Run("approved design", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := pendingDesign(t, owner)
		policy := testPolicy(t)
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		f.policies.On("FindActive", mock.Anything).Return(policy, nil)
		f.designs.On("SaveWithLock", mock.Anything, d).Return(nil)
		f.carts.On("Save", mock.Anything, mock.AnythingOfType("*byom.CartLine")).Return(nil)
		_, err := f.svc.ApproveDesign(ctx, testAdmin(), d.ID)
		require.NoError(t, err)

		line, err := f.svc.AddToCart(ctx, owner, d.ID, AddToCartRequest{Quantity: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, line.Quantity)
		assert.True(t, line.Total.Equal(decimal.NewFromInt(84)))
	})

	t.Run("pending design", func(t *testing.T) {
		f := newDesignFixture(t)
		owner := testActor()
		d := pendingDesign(t, owner)
		f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := f.svc.AddToCart(ctx, owner, d.ID, AddToCartRequest{Quantity: 1})

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestDesignService_ListDesignsWithOrders(t *testing.T) {
	ctx := context.Background()
	f := newDesignFixture(t)
	a := testDesign(t, testActor(), configWithText(t))
	b := testDesign(t, testActor(), configWithText(t))
	line := byom.CartLine{ID: uuid.New(), DesignID: a.ID, Quantity: 2, Total: decimal.NewFromInt(56), Currency: "USD"}

	f.designs.On("FindAll", mock.Anything, mock.Anything).Return([]byom.Design{*a, *b}, nil)
	f.designs.On("Count", mock.Anything, mock.Anything).Return(int64(2), nil)
	f.carts.On("FindByDesignIDs", mock.Anything, []uuid.UUID{a.ID, b.ID}).Return([]byom.CartLine{line}, nil)

	out, err := f.svc.ListDesignsWithOrders(ctx, ListDesignsRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Count)
	require.Len(t, out.Results, 2)
	require.Len(t, out.Results[0].CartLines, 1)
	assert.Equal(t, 2, out.Results[0].CartLines[0].Quantity)
	assert.Empty(t, out.Results[1].CartLines)
}

func TestDesignService_ListMyDesigns_ScopesToOwner(t *testing.T) {
	ctx := context.Background()
	f := newDesignFixture(t)
	owner := testActor()
	f.designs.On("FindAll", mock.Anything, mock.MatchedBy(func(fl byom.DesignFilter) bool {
		return fl.OwnerID != nil && *fl.OwnerID == owner.ID
	})).Return([]byom.Design{}, nil)
	f.designs.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	out, err := f.svc.ListMyDesigns(ctx, owner, ListDesignsRequest{Page: 2})

	require.NoError(t, err)
	assert.Zero(t, out.Count)
	f.designs.AssertExpectations(t)
}

type fakeComposer struct{ html string }

func (c fakeComposer) Compose(*byom.Design, byom.PriceBreakdown) (string, error) {
	return c.html, nil
}

type fakeRenderer struct{ got string }

func (r *fakeRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	r.got = html
	return []byte("%PDF-1.4"), nil
}

type fakeExporter struct{ rows []DesignExportRow }

func (e *fakeExporter) ExportDesigns(rows []DesignExportRow) ([]byte, error) {
	e.rows = rows
	return []byte("xlsx"), nil
}

func TestDesignService_ProofSheet(t *testing.T) {
	ctx := context.Background()
	f := newDesignFixture(t)
	d := testDesign(t, testActor(), configWithText(t))
	f.designs.On("FindByID", mock.Anything, d.ID).Return(d, nil)

	_, err := f.svc.ProofSheet(ctx, d.ID)
	require.Error(t, err, "proofs are disabled until configured")

	renderer := &fakeRenderer{}
	f.svc.WithProofs(fakeComposer{html: "<h1>proof</h1>"}, renderer)
	pdf, err := f.svc.ProofSheet(ctx, d.ID)

	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))
	assert.Equal(t, "<h1>proof</h1>", renderer.got)
}

func TestDesignService_ExportDesigns(t *testing.T) {
	ctx := context.Background()
	f := newDesignFixture(t)
	exporter := &fakeExporter{}
	f.svc.WithExporter(exporter)
	d := pendingDesign(t, testActor())
	f.designs.On("FindAll", mock.Anything, mock.Anything).Return([]byom.Design{*d}, nil).Once()
	f.carts.On("FindByDesignIDs", mock.Anything, []uuid.UUID{d.ID}).
		Return([]byom.CartLine{{DesignID: d.ID, Quantity: 4}}, nil)

	out, err := f.svc.ExportDesigns(ctx, ListDesignsRequest{})

	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(out))
	require.Len(t, exporter.rows, 1)
	row := exporter.rows[0]
	assert.Equal(t, "pending_approval", row.Status)
	assert.Equal(t, 1, row.Texts)
	assert.Equal(t, "front", row.Zones)
	assert.Equal(t, 4, row.Ordered)
	assert.True(t, row.Total.Equal(decimal.NewFromInt(25)))
}
