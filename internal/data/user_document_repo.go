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

const userDocumentColumns = `id, user_id, filename, file_type, file_size, file_url, created_at`

// UserDocumentRepo provides database operations for uploaded case documents.
type UserDocumentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserDocumentRepo creates a new UserDocumentRepo with real time provider.
func NewUserDocumentRepo(db *sql.DB) *UserDocumentRepo {
	return &UserDocumentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserDocumentRepoWithTimeProvider creates a new UserDocumentRepo with a custom time provider (useful for tests).
func NewUserDocumentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserDocumentRepo {
	return &UserDocumentRepo{DB: db, timeProvider: tp}
}

// Create records an uploaded document for the user's case.
func (r *UserDocumentRepo) Create(ctx context.Context, req *model.CreateUserDocumentRequest) (*model.UserDocument, error) {
	if req == nil {
		return nil, errors.New("create document request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.UserDocument
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_documents (user_id, filename, file_type, file_size, file_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userDocumentColumns,
			strings.TrimSpace(req.UserID),
			strings.TrimSpace(req.Filename),
			strings.TrimSpace(req.FileType),
			req.FileSize,
			strings.TrimSpace(req.FileURL),
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserDocument])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a single document record.
func (r *UserDocumentRepo) GetByID(ctx context.Context, id string) (*model.UserDocument, error) {
	var out model.UserDocument
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+userDocumentColumns+` FROM user_documents WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserDocument])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &out, nil
}

// ListByUser returns the user's uploaded documents, newest first.
func (r *UserDocumentRepo) ListByUser(ctx context.Context, userID string) ([]*model.UserDocument, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileIDRequired
	}
	var rowsOut []model.UserDocument
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+userDocumentColumns+` FROM user_documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.UserDocument])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	res := make([]*model.UserDocument, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Delete removes a document record. The stored object is the caller's problem.
func (r *UserDocumentRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM user_documents WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return rows > 0, nil
}
