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

func createTestProfile(t *testing.T, db *sql.DB) *model.Profile {
	t.Helper()
	profile, err := NewProfileRepo(db).Create(context.Background(), testutil.NewProfileRequest().Build())
	require.NoError(t, err)
	return profile
}

func TestDebtRepo_Create_GetByID_RoundTrip(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		due := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
		created, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).
			WithCreditor("Banco Azul").
			WithAmountCents(250000).
			WithDueDate(due).
			Build())
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, profile.ID, created.UserID)
		assert.Equal(t, "Banco Azul", created.Creditor)
		assert.Equal(t, int64(250000), created.AmountCents)
		require.NotNil(t, created.DueDate)
		assert.Equal(t, due.Year(), created.DueDate.Year())

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, model.DebtStatusPending, fetched.Status)
	})
}

func TestDebtRepo_Create_UnknownUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, testutil.NewDebtRequest("no-such-user").Build())
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestDebtRepo_ListByUser_NewestFirst(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		ctx := context.Background()
		profile := createTestProfile(t, db)

		tp := NewFixedTimeProvider(testutil.TestTime())
		repo := NewDebtRepoWithTimeProvider(db, tp)

		first, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).WithCreditor("First").Build())
		require.NoError(t, err)
		tp.AddTime(time.Minute)
		second, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).WithCreditor("Second").Build())
		require.NoError(t, err)

		list, err := repo.ListByUser(ctx, profile.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		_, err = repo.ListByUser(ctx, " ")
		require.ErrorIs(t, err, ErrProfileIDRequired)
	})
}

func TestDebtRepo_ListByStatus(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		_, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).
			WithStatus(model.DebtStatusOverdue).Build())
		require.NoError(t, err)
		pending, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).Build())
		require.NoError(t, err)

		// A NULL status counts as pending.
		_, err = db.ExecContext(ctx, `UPDATE debts SET status = NULL WHERE id = $1`, pending.ID)
		require.NoError(t, err)

		list, err := repo.ListByStatus(ctx, model.DebtStatusPending)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pending.ID, list[0].ID)
		assert.Equal(t, model.DebtStatusPending, list[0].Status)
	})
}

func TestDebtRepo_Update(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		created, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).Build())
		require.NoError(t, err)

		negotiating := model.DebtStatusNegotiating
		updated, err := repo.Update(ctx, created.ID, model.UpdateDebtRequest{
			Creditor:    testutil.StringPtr("Banco Verde"),
			AmountCents: testutil.Int64Ptr(99000),
			Status:      &negotiating,
		})
		require.NoError(t, err)
		assert.Equal(t, "Banco Verde", updated.Creditor)
		assert.Equal(t, int64(99000), updated.AmountCents)
		assert.Equal(t, model.DebtStatusNegotiating, updated.Status)

		// Empty update returns the current row.
		same, err := repo.Update(ctx, created.ID, model.UpdateDebtRequest{})
		require.NoError(t, err)
		assert.Equal(t, updated.Creditor, same.Creditor)

		_, err = repo.Update(ctx, "missing", model.UpdateDebtRequest{Creditor: testutil.StringPtr("x")})
		require.ErrorIs(t, err, ErrDebtNotFound)

		bogus := model.DebtStatus("bogus")
		_, err = repo.Update(ctx, created.ID, model.UpdateDebtRequest{Status: &bogus})
		require.Error(t, err)
	})
}

func TestDebtRepo_UpdateStatus_And_Delete(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		created, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).Build())
		require.NoError(t, err)

		updated, err := repo.UpdateStatus(ctx, created.ID, model.DebtStatusSettled)
		require.NoError(t, err)
		assert.Equal(t, model.DebtStatusSettled, updated.Status)

		ok, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDebtRepo_TotalCentsByUser_ExcludesSettled(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewDebtRepo(db)
		ctx := context.Background()
		profile := createTestProfile(t, db)

		_, err := repo.Create(ctx, testutil.NewDebtRequest(profile.ID).WithAmountCents(100000).Build())
		require.NoError(t, err)
		_, err = repo.Create(ctx, testutil.NewDebtRequest(profile.ID).
			WithAmountCents(50000).WithStatus(model.DebtStatusOverdue).Build())
		require.NoError(t, err)
		_, err = repo.Create(ctx, testutil.NewDebtRequest(profile.ID).
			WithAmountCents(999999).WithStatus(model.DebtStatusSettled).Build())
		require.NoError(t, err)

		total, err := repo.TotalCentsByUser(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(150000), total)
	})
}
