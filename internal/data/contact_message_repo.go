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
	"github.com/jackc/pgx/v5"
)

const contactMessageColumns = `
	id, name, email, phone, message, document_filename, document_url, admin_notes,
	COALESCE(status, 'new') AS status, created_at, updated_at`

// ContactMessageRepo provides database operations for contact-form messages.
type ContactMessageRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContactMessageRepo creates a new ContactMessageRepo with real time provider.
func NewContactMessageRepo(db *sql.DB) *ContactMessageRepo {
	return &ContactMessageRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewContactMessageRepoWithTimeProvider creates a new ContactMessageRepo with a custom time provider (useful for tests).
func NewContactMessageRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ContactMessageRepo {
	return &ContactMessageRepo{DB: db, timeProvider: tp}
}

// Create stores a message submitted through the public contact form. New
// messages always start in the new status.
func (r *ContactMessageRepo) Create(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	if req == nil {
		return nil, errors.New("create contact message request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()

	var out model.ContactMessage
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO contact_messages (
				name, email, phone, message, document_filename, document_url,
				status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING `+contactMessageColumns,
			strings.TrimSpace(req.Name),
			strings.TrimSpace(req.Email),
			req.Phone,
			strings.TrimSpace(req.Message),
			req.DocumentFilename,
			req.DocumentURL,
			model.MessageStatusNew,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to create contact message: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a single contact message.
func (r *ContactMessageRepo) GetByID(ctx context.Context, id string) (*model.ContactMessage, error) {
	var out model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT `+contactMessageColumns+` FROM contact_messages WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactMessageNotFound
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return &out, nil
}

// List returns messages for the admin inbox, newest first.
func (r *ContactMessageRepo) List(ctx context.Context, opts model.MessagesListOptions) ([]*model.ContactMessage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	args := []any{}
	where := ""
	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where = "WHERE COALESCE(status, 'new') = $1"
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM contact_messages %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		contactMessageColumns, where, len(args)-1, len(args))

	var rowsOut []model.ContactMessage
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}

	res := make([]*model.ContactMessage, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count returns the number of messages matching the status filter in opts.
func (r *ContactMessageRepo) Count(ctx context.Context, opts model.MessagesListOptions) (int, error) {
	listOpts := []database.ListQueryOption{database.WithCountOnly()}
	if opts.Status != nil {
		listOpts = append(listOpts, database.WithCondition(database.WhereRawCond(
			"COALESCE(status, 'new') = $1", string(*opts.Status),
		)))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("contact_messages", listOpts...))

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count contact messages: %w", err)
	}
	return count, nil
}

// UpdateStatus moves a message through the admin workflow and optionally
// replaces its admin notes. A nil adminNotes leaves the notes untouched.
func (r *ContactMessageRepo) UpdateStatus(ctx context.Context, id string, status model.MessageStatus, adminNotes *string) (*model.ContactMessage, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid message status %q", status)
	}
	now := r.timeProvider.Now().UTC()

	query := `
		UPDATE contact_messages SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + contactMessageColumns
	args := []any{id, status, now}
	if adminNotes != nil {
		query = `
			UPDATE contact_messages SET status = $2, updated_at = $3, admin_notes = $4
			WHERE id = $1
			RETURNING ` + contactMessageColumns
		args = append(args, strings.TrimSpace(*adminNotes))
	}

	var out model.ContactMessage
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ContactMessage])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactMessageNotFound
		}
		return nil, fmt.Errorf("failed to update contact message: %w", err)
	}
	return &out, nil
}

// Delete removes a contact message.
func (r *ContactMessageRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete contact message: %w", err)
	}
	return rows > 0, nil
}
