package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/crednova/crednova-api/internal/data/pgxutil"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const roleColumns = `id, user_id, role, created_at`

// RoleRepo provides database operations for role assignments. Role checks
// during session resolution go through HasRole; the grant and revoke methods
// exist for the admin CLI.
type RoleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRoleRepo creates a new RoleRepo with real time provider.
func NewRoleRepo(db *sql.DB) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRoleRepoWithTimeProvider creates a new RoleRepo with a custom time provider (useful for tests).
func NewRoleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RoleRepo {
	return &RoleRepo{DB: db, timeProvider: tp}
}

// HasRole reports whether the user holds the given role.
func (r *RoleRepo) HasRole(ctx context.Context, userID, role string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrProfileIDRequired
	}
	var exists bool
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)`,
			userID, role).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}

// Grant assigns a role to a user. Granting an already-held role is a no-op
// and returns the existing assignment.
func (r *RoleRepo) Grant(ctx context.Context, userID, role string) (*model.RoleAssignment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileIDRequired
	}
	if role != RoleAdmin && role != RoleUser {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	var out model.RoleAssignment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_roles (user_id, role, created_at)
			VALUES ($1, $2, $3)
			RETURNING `+roleColumns,
			strings.TrimSpace(userID), role, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RoleAssignment])
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return r.getAssignment(ctx, userID, role)
		}
		return nil, fmt.Errorf("failed to grant role: %w", err)
	}
	return &out, nil
}

// Revoke removes a role from a user. Returns false when the user did not
// hold the role.
func (r *RoleRepo) Revoke(ctx context.Context, userID, role string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to revoke role: %w", err)
	}
	return rows > 0, nil
}

// ListForUser returns the user's role assignments.
func (r *RoleRepo) ListForUser(ctx context.Context, userID string) ([]*model.RoleAssignment, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileIDRequired
	}
	var rowsOut []model.RoleAssignment
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+roleColumns+` FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RoleAssignment])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	res := make([]*model.RoleAssignment, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func (r *RoleRepo) getAssignment(ctx context.Context, userID, role string) (*model.RoleAssignment, error) {
	var out model.RoleAssignment
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+roleColumns+` FROM user_roles WHERE user_id = $1 AND role = $2`, userID, role)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RoleAssignment])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load role assignment: %w", err)
	}
	return &out, nil
}
