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

const debtColumns = `
	id, user_id, document, creditor, amount_cents, due_date,
	COALESCE(status, 'pending') AS status, created_at`

// DebtRepo provides database operations for registered debts.
type DebtRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewDebtRepo creates a new DebtRepo with real time provider.
func NewDebtRepo(db *sql.DB) *DebtRepo {
	return &DebtRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewDebtRepoWithTimeProvider creates a new DebtRepo with a custom time provider (useful for tests).
func NewDebtRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *DebtRepo {
	return &DebtRepo{DB: db, timeProvider: tp}
}

// Create registers a debt for a customer.
func (r *DebtRepo) Create(ctx context.Context, req *model.CreateDebtRequest) (*model.Debt, error) {
	if req == nil {
		return nil, errors.New("create debt request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = model.DebtStatusPending
	}

	var out model.Debt
	if err := r.collectOne(ctx, &out, `
		INSERT INTO debts (user_id, document, creditor, amount_cents, due_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+debtColumns,
		strings.TrimSpace(req.UserID),
		strings.TrimSpace(req.Document),
		strings.TrimSpace(req.Creditor),
		req.AmountCents,
		req.DueDate,
		status,
		r.timeProvider.Now().UTC(),
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to create debt: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a single debt.
func (r *DebtRepo) GetByID(ctx context.Context, id string) (*model.Debt, error) {
	var out model.Debt
	err := r.collectOne(ctx, &out, `SELECT `+debtColumns+` FROM debts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDebtNotFound
		}
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return &out, nil
}

// ListByUser returns every debt registered for the user, newest first.
func (r *DebtRepo) ListByUser(ctx context.Context, userID string) ([]*model.Debt, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrProfileIDRequired
	}
	return r.collect(ctx, `SELECT `+debtColumns+` FROM debts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// ListByStatus returns debts in the given status across all users, oldest
// first, for the admin work queue.
func (r *DebtRepo) ListByStatus(ctx context.Context, status model.DebtStatus) ([]*model.Debt, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid debt status %q", status)
	}
	return r.collect(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE COALESCE(status, 'pending') = $1 ORDER BY created_at ASC`,
		string(status))
}

// Update applies the non-nil fields of req to the debt.
func (r *DebtRepo) Update(ctx context.Context, id string, req model.UpdateDebtRequest) (*model.Debt, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, fmt.Errorf("invalid debt status %q", *req.Status)
	}

	setParts := make([]string, 0, 4)
	args := []any{id}
	appendSet := func(column string, v any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, v)
	}
	if req.Creditor != nil {
		appendSet("creditor", strings.TrimSpace(*req.Creditor))
	}
	if req.AmountCents != nil {
		if *req.AmountCents < 0 {
			return nil, errors.New("amount_cents cannot be negative")
		}
		appendSet("amount_cents", *req.AmountCents)
	}
	if req.DueDate != nil {
		appendSet("due_date", *req.DueDate)
	}
	if req.Status != nil {
		appendSet("status", *req.Status)
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	query := "UPDATE debts SET " + strings.Join(setParts, ", ") +
		" WHERE id = $1 RETURNING " + debtColumns
	var out model.Debt
	if err := r.collectOne(ctx, &out, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDebtNotFound
		}
		return nil, fmt.Errorf("failed to update debt: %w", err)
	}
	return &out, nil
}

// UpdateStatus moves a debt to the given negotiation status.
func (r *DebtRepo) UpdateStatus(ctx context.Context, id string, status model.DebtStatus) (*model.Debt, error) {
	s := status
	return r.Update(ctx, id, model.UpdateDebtRequest{Status: &s})
}

// Delete removes a debt.
func (r *DebtRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM debts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete debt: %w", err)
	}
	return rows > 0, nil
}

// TotalCentsByUser sums the user's outstanding debt amounts, excluding
// settled entries.
func (r *DebtRepo) TotalCentsByUser(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0) FROM debts
			WHERE user_id = $1 AND COALESCE(status, 'pending') <> 'settled'`, userID).Scan(&total)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to total debts: %w", err)
	}
	return total, nil
}

func (r *DebtRepo) collectOne(ctx context.Context, out *model.Debt, query string, args ...any) error {
	return pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		*out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Debt])
		return err
	})
}

func (r *DebtRepo) collect(ctx context.Context, query string, args ...any) ([]*model.Debt, error) {
	var rowsOut []model.Debt
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Debt])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	res := make([]*model.Debt, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}
