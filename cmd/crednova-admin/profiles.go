package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/crednova/crednova-api/internal/data"
	"github.com/crednova/crednova-api/internal/domain/model"
)

const defaultProfileCommandTimeout = 30 * time.Second

type roleOptions struct {
	UserID string
	Yes    bool
}

type listProfilesOptions struct {
	Status string
	Query  string
	Limit  int
	Offset int
}

func runGrantAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleFlags("grant-admin", args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(opts.Yes, "grant the admin role to user "+opts.UserID); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, defaultProfileCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		profile, lookupErr := data.NewProfileRepo(db).GetByID(ctx, opts.UserID)
		if lookupErr != nil {
			if errors.Is(lookupErr, data.ErrProfileNotFound) {
				return fmt.Errorf("no profile with id %s", opts.UserID)
			}
			return fmt.Errorf("look up profile: %w", lookupErr)
		}

		if _, grantErr := data.NewRoleRepo(db).Grant(ctx, opts.UserID, data.RoleAdmin); grantErr != nil {
			return fmt.Errorf("grant admin role: %w", grantErr)
		}

		cmdCtx.Logger.Info("admin role granted", "user_id", opts.UserID, "name", profile.Name, "email", profile.Email)
		return nil
	})
}

func runRevokeAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseRoleFlags("revoke-admin", args)
	if err != nil {
		return err
	}
	if confirmErr := confirmAction(opts.Yes, "revoke the admin role from user "+opts.UserID); confirmErr != nil {
		return confirmErr
	}

	return withDatabase(cmdCtx, defaultProfileCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		revoked, revokeErr := data.NewRoleRepo(db).Revoke(ctx, opts.UserID, data.RoleAdmin)
		if revokeErr != nil {
			return fmt.Errorf("revoke admin role: %w", revokeErr)
		}
		if !revoked {
			cmdCtx.Logger.Info("user did not hold the admin role", "user_id", opts.UserID)
			return nil
		}
		cmdCtx.Logger.Info("admin role revoked", "user_id", opts.UserID)
		return nil
	})
}

func runListProfiles(cmdCtx *commandContext, args []string) error {
	opts, err := parseListProfilesFlags(args)
	if err != nil {
		return err
	}

	listOpts := model.ProfilesListOptions{Limit: opts.Limit, Offset: opts.Offset}
	if opts.Query != "" {
		q := opts.Query
		listOpts.Q = &q
	}
	if opts.Status != "" {
		status, ok := model.ParseCaseStatus(opts.Status)
		if !ok {
			return fmt.Errorf("invalid case status %q", opts.Status)
		}
		listOpts.Status = &status
	}

	return withDatabase(cmdCtx, defaultProfileCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewProfileRepo(db)
		profiles, listErr := repo.List(ctx, listOpts)
		if listErr != nil {
			return fmt.Errorf("list profiles: %w", listErr)
		}
		total, countErr := repo.Count(ctx, listOpts)
		if countErr != nil {
			return fmt.Errorf("count profiles: %w", countErr)
		}

		return renderProfileTable(profiles, total, opts)
	})
}

func renderProfileTable(profiles []*model.Profile, total int, opts listProfilesOptions) error {
	if len(profiles) == 0 {
		return writef(os.Stdout, "No profiles found.\n")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tDOCUMENT\tSTATUS\tCREATED"); err != nil {
		return fmt.Errorf("write table header: %w", err)
	}
	for _, p := range profiles {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			p.Name,
			p.Email,
			p.Document,
			p.Status,
			p.CreatedAt.Format("2006-01-02"),
		); err != nil {
			return fmt.Errorf("write table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}

	return writef(os.Stdout, "\nShowing %d of %d profiles (offset %d)\n", len(profiles), total, opts.Offset)
}

func parseRoleFlags(name string, args []string) (roleOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	userID := fs.String("user", "", "profile id of the user")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return roleOptions{}, err
	}

	id := strings.TrimSpace(*userID)
	if id == "" && fs.NArg() > 0 {
		id = strings.TrimSpace(fs.Arg(0))
	}
	if id == "" {
		return roleOptions{}, fmt.Errorf("%s requires --user <profile id>", name)
	}
	return roleOptions{UserID: id, Yes: *yes}, nil
}

func parseListProfilesFlags(args []string) (listProfilesOptions, error) {
	fs := flag.NewFlagSet("list-profiles", flag.ContinueOnError)
	status := fs.String("status", "", "filter by case status")
	query := fs.String("q", "", "filter by name, email, or document")
	limit := fs.Int("limit", 50, "maximum number of profiles to show")
	offset := fs.Int("offset", 0, "number of profiles to skip")
	if err := fs.Parse(args); err != nil {
		return listProfilesOptions{}, err
	}
	if *limit <= 0 {
		*limit = 50
	}
	if *offset < 0 {
		*offset = 0
	}
	return listProfilesOptions{
		Status: strings.TrimSpace(*status),
		Query:  strings.TrimSpace(*query),
		Limit:  *limit,
		Offset: *offset,
	}, nil
}
