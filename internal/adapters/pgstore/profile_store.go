// Package pgstore adapts the data repositories to the profile lookup port
// used during session resolution.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/crednova/crednova-api/internal/data"
	domainauth "github.com/crednova/crednova-api/internal/domain/auth"
	"github.com/crednova/crednova-api/internal/domain/model"
	"github.com/crednova/crednova-api/internal/ports"
)

// ProfileStore serves profile and role lookups from Postgres.
type ProfileStore struct {
	profiles *data.ProfileRepo
	roles    *data.RoleRepo
}

// NewProfileStore creates a ProfileStore over the given repositories.
func NewProfileStore(profiles *data.ProfileRepo, roles *data.RoleRepo) *ProfileStore {
	return &ProfileStore{profiles: profiles, roles: roles}
}

// GetProfile returns the profile for userID, or ports.ErrProfileNotFound.
func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, data.ErrProfileNotFound) || errors.Is(err, data.ErrProfileIDRequired) {
			return nil, ports.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	return p, nil
}

// HasRole reports membership in the role-assignment table.
func (s *ProfileStore) HasRole(ctx context.Context, userID string, role domainauth.Role) (bool, error) {
	return s.roles.HasRole(ctx, userID, string(role))
}
