package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormDraftRepository_Load(t *testing.T) {
	t.Run("returns the stored draft", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormDraftRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "byom_drafts" WHERE owner_key = \$1 AND merch_type = \$2 LIMIT \$3`).
			WithArgs("user:1", "hoodie", 1).
			WillReturnRows(sqlmock.NewRows([]string{"owner_key", "merch_type", "payload", "selected_assets", "updated_at"}).
				AddRow("user:1", "hoodie", `{"merchType":"hoodie"}`, `["s1"]`, time.Now()))

		draft, err := repo.Load(context.Background(), byom.DraftKey{OwnerKey: "user:1", MerchType: byom.MerchHoodie})
		require.NoError(t, err)
		assert.Equal(t, byom.MerchHoodie, draft.MerchType)
		assert.Equal(t, []string{"s1"}, draft.SelectedAssets)
		assert.Equal(t, byom.MerchHoodie, byom.ParseConfiguration(draft.Payload).MerchType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps a missing draft to ErrNotFound", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGorm(t)
		defer mockDB.Close()
		repo := NewGormDraftRepository(gormDB)

		mock.ExpectQuery(`SELECT \* FROM "byom_drafts"`).WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.Load(context.Background(), byom.DraftKey{OwnerKey: "anon:x", MerchType: byom.MerchHat})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormDraftRepository_SaveUpserts(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormDraftRepository(gormDB)

	mock.ExpectExec(`INSERT INTO "byom_drafts" .* ON CONFLICT \("owner_key","merch_type"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Save(context.Background(), &byom.Draft{
		OwnerKey:  "user:1",
		MerchType: byom.MerchTShirt,
		Payload:   []byte(`{"merchType":"tshirt"}`),
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormDraftRepository_Delete(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()
	repo := NewGormDraftRepository(gormDB)

	mock.ExpectExec(`DELETE FROM "byom_drafts" WHERE owner_key = \$1 AND merch_type = \$2`).
		WithArgs("user:1", "tshirt").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), byom.DraftKey{OwnerKey: "user:1", MerchType: byom.MerchTShirt})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
