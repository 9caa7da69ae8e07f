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

const userMessageColumns = `id, user_id, admin_id, body, from_admin, created_at`

// UserMessageRepo provides database operations for the per-user dashboard
// message thread.
type UserMessageRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserMessageRepo creates a new UserMessageRepo with real time provider.
func NewUserMessageRepo(db *sql.DB) *UserMessageRepo {
	return &UserMessageRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserMessageRepoWithTimeProvider creates a new UserMessageRepo with a custom time provider (useful for tests).
func NewUserMessageRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserMessageRepo {
	return &UserMessageRepo{DB: db, timeProvider: tp}
}

// Append adds a message to the user's thread.
func (r *UserMessageRepo) Append(ctx context.Context, req *model.AppendUserMessageRequest) (*model.UserMessage, error) {
	if req == nil {
		return nil, errors.New("append message request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var adminID *string
	if req.FromAdmin {
		trimmed := strings.TrimSpace(*req.AdminID)
		adminID = &trimmed
	}

	var out model.UserMessage
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO user_messages (user_id, admin_id, body, from_admin, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+userMessageColumns,
			strings.TrimSpace(req.UserID),
			adminID,
			strings.TrimSpace(req.Body),
			req.FromAdmin,
			r.timeProvider.Now().UTC(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.UserMessage])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &out, nil
}

// Thread returns the user's full message thread in chronological order, the
// way the dashboard renders it.
func (r *UserMessageRepo) Thread(ctx context.Context, userID string) ([]*model.UserMessage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileIDRequired
	}
	var rowsOut []model.UserMessage
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+userMessageColumns+` FROM user_messages WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.UserMessage])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to load message thread: %w", err)
	}
	res := make([]*model.UserMessage, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
