//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/merch/byom/internal/infrastructure/migration"
	"github.com/merch/byom/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgres starts a PostgreSQL container and applies the embedded migrations
func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("byom_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	m, err := migration.NewEmbedded(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestIntegration_DesignLifecycle(t *testing.T) {
	db := newPostgres(t)
	ctx := context.Background()
	designs := NewGormDesignRepository(db)
	carts := NewGormCartLineRepository(db)

	cfg := byom.DefaultConfiguration()
	_, err := byom.AddText(&cfg, byom.ZoneFront, byom.TextInput{Content: "Launch"})
	require.NoError(t, err)
	d, err := byom.NewDesign(uuid.New(), "owner@example.com", "", cfg)
	require.NoError(t, err)
	require.NoError(t, designs.Save(ctx, d))

	breakdown, err := byom.NewPriceBreakdown(byom.StrategyPolicy, "USD", false, []byom.PriceLine{
		{Code: "base_fee", Label: "Base", Amount: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	require.NoError(t, d.Submit(breakdown))
	require.NoError(t, designs.SaveWithLock(ctx, d))

	stale, err := designs.FindByID(ctx, d.ID)
	require.NoError(t, err)
	require.NoError(t, d.Approve(uuid.New(), breakdown))
	require.NoError(t, designs.SaveWithLock(ctx, d))

	require.NoError(t, stale.Reject(uuid.New(), "late"))
	assert.ErrorIs(t, designs.SaveWithLock(ctx, stale), shared.ErrConcurrencyConflict)

	line, err := d.ToCartLine(2)
	require.NoError(t, err)
	require.NoError(t, carts.Save(ctx, line))

	lines, err := carts.FindByDesignIDs(ctx, []uuid.UUID{d.ID})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Total.Equal(decimal.NewFromInt(40)))

	count, err := designs.Count(ctx, byom.DesignFilter{Status: byom.DesignStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIntegration_DraftUpsert(t *testing.T) {
	db := newPostgres(t)
	ctx := context.Background()
	drafts := NewGormDraftRepository(db)
	key := byom.DraftKey{OwnerKey: "user:1", MerchType: byom.MerchHoodie}

	require.NoError(t, drafts.Save(ctx, &byom.Draft{OwnerKey: key.OwnerKey, MerchType: key.MerchType, Payload: []byte(`{"size":"S"}`)}))
	require.NoError(t, drafts.Save(ctx, &byom.Draft{OwnerKey: key.OwnerKey, MerchType: key.MerchType, Payload: []byte(`{"size":"XL"}`)}))

	got, err := drafts.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, byom.SizeXL, byom.ParseConfiguration(got.Payload).Size)

	require.NoError(t, drafts.Delete(ctx, key))
	_, err = drafts.Load(ctx, key)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
