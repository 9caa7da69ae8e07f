package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/crednova/crednova-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRepo_Grant_HasRole(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRoleRepo(db)
		ctx := context.Background()

		has, err := repo.HasRole(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.False(t, has)

		granted, err := repo.Grant(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, "user-1", granted.UserID)
		assert.Equal(t, RoleAdmin, granted.Role)

		has, err = repo.HasRole(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.True(t, has)

		// Role checks are per role.
		has, err = repo.HasRole(ctx, "user-1", RoleUser)
		require.NoError(t, err)
		assert.False(t, has)
	})
}

func TestRoleRepo_Grant_Idempotent(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRoleRepo(db)
		ctx := context.Background()

		first, err := repo.Grant(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		second, err := repo.Grant(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		roles, err := repo.ListForUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, roles, 1)
	})
}

func TestRoleRepo_Grant_Validation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRoleRepo(db)
		ctx := context.Background()

		_, err := repo.Grant(ctx, " ", RoleAdmin)
		require.ErrorIs(t, err, ErrProfileIDRequired)

		_, err = repo.Grant(ctx, "user-1", "superuser")
		require.Error(t, err)
	})
}

func TestRoleRepo_Revoke(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRoleRepo(db)
		ctx := context.Background()

		_, err := repo.Grant(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)

		ok, err := repo.Revoke(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.True(t, ok)

		has, err := repo.HasRole(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.False(t, has)

		ok, err = repo.Revoke(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRoleRepo_ListForUser(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewRoleRepo(db)
		ctx := context.Background()

		_, err := repo.Grant(ctx, "user-1", RoleUser)
		require.NoError(t, err)
		_, err = repo.Grant(ctx, "user-1", RoleAdmin)
		require.NoError(t, err)
		_, err = repo.Grant(ctx, "user-2", RoleUser)
		require.NoError(t, err)

		roles, err := repo.ListForUser(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, roles, 2)
		assert.Equal(t, RoleAdmin, roles[0].Role)
		assert.Equal(t, RoleUser, roles[1].Role)
	})
}
