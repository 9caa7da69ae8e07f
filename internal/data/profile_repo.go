package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/crednova/crednova-api/internal/data/database"
	"github.com/crednova/crednova-api/internal/data/pgxutil"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// profileColumns selects a profile row. A NULL status reads as pending so a
// freshly provisioned profile (the backend trigger inserts status NULL) is
// indistinguishable from an explicit pending one.
const profileColumns = `
	id, name, document, birth_date, email, phone, address, city, state, zip_code,
	person_type, COALESCE(status, 'pending') AS status, created_at, updated_at`

// ProfileRepo provides database operations for customer profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Create inserts a new profile. The id must be the auth user id.
func (r *ProfileRepo) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, errors.New("create profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	personType := req.PersonType
	if personType == "" {
		personType = model.PersonTypeIndividual
	}
	now := r.timeProvider.Now().UTC()

	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (
				id, name, document, birth_date, email, phone, address, city, state, zip_code,
				person_type, status, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13
			) RETURNING `+profileColumns,
			strings.TrimSpace(req.ID),
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Document),
			req.BirthDate,
			strings.TrimSpace(req.Email),
			req.Phone,
			req.Address,
			req.City,
			req.State,
			req.ZipCode,
			personType,
			model.CaseStatusPending,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a profile by the auth user id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrProfileIDRequired
	}
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &out, nil
}

// List retrieves profiles for the admin user table, newest first, with
// optional search and status filtering.
func (r *ProfileRepo) List(ctx context.Context, opts model.ProfilesListOptions) ([]*model.Profile, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	where, args := buildProfileFilter(opts)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM profiles %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		profileColumns, where, len(args)-1, len(args))

	var rowsOut []model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Profile])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	res := make([]*model.Profile, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count returns the number of profiles matching the filters in opts.
func (r *ProfileRepo) Count(ctx context.Context, opts model.ProfilesListOptions) (int, error) {
	listOpts := []database.ListQueryOption{database.WithCountOnly()}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		pattern := "%" + strings.TrimSpace(*opts.Q) + "%"
		listOpts = append(listOpts, database.WithCondition(database.WhereRawCond(
			"(name ILIKE $1 OR email ILIKE $1 OR document ILIKE $1)", pattern,
		)))
	}
	if opts.Status != nil {
		listOpts = append(listOpts, database.WithCondition(database.WhereRawCond(
			"COALESCE(status, 'pending') = $1", string(*opts.Status),
		)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("profiles", listOpts...))

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}

// UpdateStatus moves a profile's case to the given status.
func (r *ProfileRepo) UpdateStatus(ctx context.Context, id string, status model.CaseStatus) (*model.Profile, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid case status %q", status)
	}
	return r.updateReturning(ctx, `
		UPDATE profiles SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+profileColumns, id, status, r.timeProvider.Now().UTC())
}

// UpdateContact updates the user-editable contact fields.
func (r *ProfileRepo) UpdateContact(ctx context.Context, id string, req model.UpdateContactRequest) (*model.Profile, error) {
	setParts := make([]string, 0, 6)
	args := []any{id}
	nextIdx := func() int { return len(args) + 1 }

	appendField := func(column string, v *string) {
		if v != nil {
			setParts = append(setParts, fmt.Sprintf("%s = $%d", column, nextIdx()))
			args = append(args, strings.TrimSpace(*v))
		}
	}
	appendField("phone", req.Phone)
	appendField("address", req.Address)
	appendField("city", req.City)
	appendField("state", req.State)
	appendField("zip_code", req.ZipCode)

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())

	query := "UPDATE profiles SET " + strings.Join(setParts, ", ") +
		" WHERE id = $1 RETURNING " + profileColumns
	return r.updateReturning(ctx, query, args...)
}

// Delete removes a profile and, through cascades, its debts, documents, and
// message threads.
func (r *ProfileRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete profile: %w", err)
	}
	return rows > 0, nil
}

// --- helpers ---

// buildProfileFilter renders the WHERE clause shared by List. The count path
// goes through database.BuildListQuery with the same conditions.
func buildProfileFilter(opts model.ProfilesListOptions) (string, []any) {
	var parts []string
	var args []any
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		args = append(args, "%"+strings.TrimSpace(*opts.Q)+"%")
		idx := len(args)
		parts = append(parts, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR document ILIKE $%d)", idx, idx, idx))
	}
	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		parts = append(parts, fmt.Sprintf("COALESCE(status, 'pending') = $%d", len(args)))
	}
	if len(parts) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

func (r *ProfileRepo) updateReturning(ctx context.Context, query string, args ...any) (*model.Profile, error) {
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Profile])
		return err
	})
	if err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

func (r *ProfileRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrProfileNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDocumentTaken
	}
	return err
}
