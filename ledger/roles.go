package ledger

import (
	"context"

	"courtside/models"

	"go.uber.org/zap"
)

// RoleGate decides whether an identity may perform coach-only actions.
// A single profile lookup per check; no caching.
type RoleGate struct {
	profiles ProfileDirectory
	log      *zap.Logger
}

func NewRoleGate(profiles ProfileDirectory, log *zap.Logger) *RoleGate {
	return &RoleGate{profiles: profiles, log: log}
}

// HasCoachRole reports whether the user's profile carries the Coach role.
// A failed lookup denies.
func (g *RoleGate) HasCoachRole(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	role, err := g.profiles.Role(ctx, userID)
	if err != nil {
		g.log.Warn("role lookup failed", zap.String("userId", userID), zap.Error(err))
		return false
	}
	return role == models.RoleCoach
}
