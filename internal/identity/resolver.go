// Package identity turns bearer credentials into a caller identity: either
// the trusted service credential or a user session token whose role is read
// from the caller's profile.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"covergen/internal/domain"
)

// Resolver authenticates bearer tokens.
type Resolver struct {
	serviceKey string
	jwtSecret  string
	profiles   domain.ProfileRepository
}

func NewResolver(serviceKey, jwtSecret string, profiles domain.ProfileRepository) *Resolver {
	return &Resolver{serviceKey: serviceKey, jwtSecret: jwtSecret, profiles: profiles}
}

// Authenticate resolves token. Invalid tokens yield domain.ErrUnauthorized.
// A user without a profile resolves with an empty role.
func (r *Resolver) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if r.serviceKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(r.serviceKey)) == 1 {
		return domain.Identity{Service: true, Role: domain.UserRoleAdmin}, nil
	}
	claims, err := VerifyJWT(r.jwtSecret, token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	id := domain.Identity{UserID: claims.Subject}
	if r.profiles == nil {
		return id, nil
	}
	role, err := r.profiles.RoleForUser(ctx, claims.Subject)
	switch {
	case err == nil:
		id.Role = role
	case errors.Is(err, domain.ErrNotFound):
	default:
		return domain.Identity{}, fmt.Errorf("identity: load role: %w", err)
	}
	return id, nil
}
