package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepo_Create_GetByID_RoundTrip(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		req := testutil.NewProfileRequest().
			WithName("Maria Silva").
			WithPhone("11999990000").
			Build()
		created, err := repo.Create(ctx, req)
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, req.ID, created.ID)
		assert.Equal(t, "Maria Silva", created.Name)
		assert.Equal(t, model.PersonTypeIndividual, created.PersonType)
		assert.Equal(t, model.CaseStatusPending, created.Status)
		assert.False(t, created.CreatedAt.IsZero())

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
		assert.Equal(t, created.Document, fetched.Document)
	})
}

func TestProfileRepo_Create_DuplicateDocument(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		first := testutil.NewProfileRequest().WithDocument("123.456.789-00").Build()
		_, err := repo.Create(ctx, first)
		require.NoError(t, err)

		second := testutil.NewProfileRequest().WithDocument("123.456.789-00").Build()
		_, err = repo.Create(ctx, second)
		require.ErrorIs(t, err, ErrDocumentTaken)
	})
}

func TestProfileRepo_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		_, err := repo.GetByID(ctx, "no-such-user")
		require.ErrorIs(t, err, ErrProfileNotFound)

		_, err = repo.GetByID(ctx, "  ")
		require.ErrorIs(t, err, ErrProfileIDRequired)
	})
}

func TestProfileRepo_NullStatusReadsAsPending(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, testutil.NewProfileRequest().Build())
		require.NoError(t, err)

		// Rows written by the legacy backend can carry a NULL status.
		_, err = db.ExecContext(ctx, `UPDATE profiles SET status = NULL WHERE id = $1`, created.ID)
		require.NoError(t, err)

		fetched, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.CaseStatusPending, fetched.Status)

		pending := model.CaseStatusPending
		list, err := repo.List(ctx, model.ProfilesListOptions{Status: &pending})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})
}

func TestProfileRepo_List_SearchAndFilter(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		maria, err := repo.Create(ctx, testutil.NewProfileRequest().
			WithName("Maria Souza").WithEmail("maria@example.com").Build())
		require.NoError(t, err)
		joao, err := repo.Create(ctx, testutil.NewProfileRequest().
			WithName("João Pereira").WithEmail("joao@example.com").Build())
		require.NoError(t, err)

		_, err = repo.UpdateStatus(ctx, joao.ID, model.CaseStatusUnderReview)
		require.NoError(t, err)

		// Search by name fragment.
		q := "maria"
		list, err := repo.List(ctx, model.ProfilesListOptions{Q: &q})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, maria.ID, list[0].ID)

		// Filter by status.
		underReview := model.CaseStatusUnderReview
		list, err = repo.List(ctx, model.ProfilesListOptions{Status: &underReview})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, joao.ID, list[0].ID)

		count, err := repo.Count(ctx, model.ProfilesListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = repo.Count(ctx, model.ProfilesListOptions{Status: &underReview})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestProfileRepo_UpdateStatus(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, testutil.NewProfileRequest().Build())
		require.NoError(t, err)

		updated, err := repo.UpdateStatus(ctx, created.ID, model.CaseStatusProposalsAvailable)
		require.NoError(t, err)
		assert.Equal(t, model.CaseStatusProposalsAvailable, updated.Status)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

		_, err = repo.UpdateStatus(ctx, created.ID, model.CaseStatus("bogus"))
		require.Error(t, err)

		_, err = repo.UpdateStatus(ctx, "missing", model.CaseStatusPending)
		require.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestProfileRepo_UpdateContact(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewProfileRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, testutil.NewProfileRequest().WithPhone("1111").Build())
		require.NoError(t, err)

		updated, err := repo.UpdateContact(ctx, created.ID, model.UpdateContactRequest{
			Phone: testutil.StringPtr("11988887777"),
			City:  testutil.StringPtr("São Paulo"),
		})
		require.NoError(t, err)
		assert.Equal(t, "11988887777", updated.Phone)
		assert.Equal(t, "São Paulo", updated.City)
		// Untouched fields survive.
		assert.Equal(t, created.Address, updated.Address)

		// No fields set returns the current row unchanged.
		same, err := repo.UpdateContact(ctx, created.ID, model.UpdateContactRequest{})
		require.NoError(t, err)
		assert.Equal(t, updated.Phone, same.Phone)
	})
}

func TestProfileRepo_Delete_Cascades(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		profiles := NewProfileRepo(db)
		debts := NewDebtRepo(db)
		ctx := context.Background()

		created, err := profiles.Create(ctx, testutil.NewProfileRequest().Build())
		require.NoError(t, err)
		_, err = debts.Create(ctx, testutil.NewDebtRequest(created.ID).Build())
		require.NoError(t, err)

		ok, err := profiles.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		remaining, err := debts.ListByUser(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, remaining)

		ok, err = profiles.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
