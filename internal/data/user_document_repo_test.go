package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDocumentRepo_Create_ListByUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		profile := createTestProfile(t, db)

		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewUserDocumentRepoWithTimeProvider(db, tp)

		first, err := repo.Create(ctx, &model.CreateUserDocumentRequest{
			UserID:   profile.ID,
			Filename: "rg.pdf",
			FileType: "application/pdf",
			FileSize: 2048,
			FileURL:  "https://files.example.com/rg.pdf",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, first.ID)
		assert.Equal(t, "rg.pdf", first.Filename)
		assert.Equal(t, int64(2048), first.FileSize)

		tp.AddTime(time.Minute)
		second, err := repo.Create(ctx, &model.CreateUserDocumentRequest{
			UserID:   profile.ID,
			Filename: "comprovante.pdf",
			FileType: "application/pdf",
			FileSize: 4096,
			FileURL:  "https://files.example.com/comprovante.pdf",
		})
		require.NoError(t, err)

		list, err := repo.ListByUser(ctx, profile.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)
	})
}

func TestUserDocumentRepo_Create_UnknownUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserDocumentRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, &model.CreateUserDocumentRequest{
			UserID:   "no-such-user",
			Filename: "x.pdf",
			FileType: "application/pdf",
			FileURL:  "https://files.example.com/x.pdf",
		})
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestUserDocumentRepo_GetByID_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewUserDocumentRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		created, err := repo.Create(ctx, &model.CreateUserDocumentRequest{
			UserID:   profile.ID,
			Filename: "cnh.pdf",
			FileType: "application/pdf",
			FileSize: 1024,
			FileURL:  "https://files.example.com/cnh.pdf",
		})
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)

		ok, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.GetByID(ctx, created.ID)
		require.ErrorIs(t, err, ErrUserDocumentNotFound)
	})
}
