package application

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

const maxConcurrentRoleLookups = 4

// RoleLevel is one caller role after resolution. Found is false when the role
// does not exist in storage. Err holds a lookup failure for this role only.
type RoleLevel struct {
	RoleID int64
	Level  domain.PermissionLevel
	Found  bool
	Err    error
}

type PermissionResolver struct {
	roles ports.RoleStore
}

func NewPermissionResolver(roles ports.RoleStore) *PermissionResolver {
	return &PermissionResolver{roles: roles}
}

func (r *PermissionResolver) Resolve(ctx context.Context, roleID int64) (domain.PermissionLevel, error) {
	role, ok, err := r.roles.GetByID(ctx, roleID)
	if err != nil {
		return "", domain.Reissue("resolve role", err)
	}
	if !ok {
		return "", domain.ErrRoleNotFound
	}
	if !role.Permission.Valid() {
		return "", fmt.Errorf("%w: role %d holds %q", domain.ErrUnknownPermission, roleID, role.Permission)
	}
	return role.Permission, nil
}

// Snapshot resolves every role concurrently and returns the levels in input
// order. Missing roles are kept with Found=false and failed lookups carry
// their error, so Decide can tell which failures precede the first grant.
func (r *PermissionResolver) Snapshot(ctx context.Context, roleIDs []int64) []RoleLevel {
	ids := uniqueRoleIDs(roleIDs)
	levels := make([]RoleLevel, len(ids))
	var g errgroup.Group
	g.SetLimit(maxConcurrentRoleLookups)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			level, err := r.Resolve(ctx, id)
			switch {
			case errors.Is(err, domain.ErrRoleNotFound):
				levels[i] = RoleLevel{RoleID: id}
			case err != nil:
				levels[i] = RoleLevel{RoleID: id, Err: err}
			default:
				levels[i] = RoleLevel{RoleID: id, Level: level, Found: true}
			}
			return nil
		})
	}
	_ = g.Wait()
	return levels
}

func uniqueRoleIDs(roleIDs []int64) []int64 {
	seen := make(map[int64]struct{}, len(roleIDs))
	out := make([]int64, 0, len(roleIDs))
	for _, id := range roleIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Decide walks the resolved roles in order and returns the level of the first
// role that satisfies required. A failed lookup met before any grant is
// returned as the error; failures after the granting role are never reached.
func Decide(levels []RoleLevel, required domain.PermissionLevel) (domain.PermissionLevel, bool, error) {
	for _, rl := range levels {
		if rl.Err != nil {
			return domain.PermissionNone, false, rl.Err
		}
		if !rl.Found {
			continue
		}
		if rl.Level.Satisfies(required) {
			return rl.Level, true, nil
		}
	}
	return domain.PermissionNone, false, nil
}

type AuthorizationGate struct {
	resolver *PermissionResolver
	metrics  ports.Metrics
	logger   ports.Logger
}

func NewAuthorizationGate(resolver *PermissionResolver, metrics ports.Metrics, logger ports.Logger) *AuthorizationGate {
	return &AuthorizationGate{resolver: resolver, metrics: metrics, logger: logger}
}

// Authorize returns the level that granted access, or ErrPermissionDenied.
func (g *AuthorizationGate) Authorize(ctx context.Context, callerRoles []int64, required domain.PermissionLevel) (domain.PermissionLevel, error) {
	if len(callerRoles) == 0 {
		g.observe(required, false)
		return domain.PermissionNone, domain.ErrPermissionDenied
	}
	granted, ok, err := Decide(g.resolver.Snapshot(ctx, callerRoles), required)
	if err != nil {
		g.logger.Error(ctx, "resolve caller roles", "roles", callerRoles, "error", err)
		return domain.PermissionNone, resolutionError(err)
	}
	g.observe(required, ok)
	if !ok {
		g.logger.Debug(ctx, "permission denied", "roles", callerRoles, "required", required.String())
		return domain.PermissionNone, domain.ErrPermissionDenied
	}
	return granted, nil
}

func (g *AuthorizationGate) observe(required domain.PermissionLevel, granted bool) {
	if g.metrics != nil {
		g.metrics.ObserveAuthorization(required, granted)
	}
}

// resolutionError maps every resolver failure, including a stored level
// outside the closed set, onto the gate's own DatabaseError.
func resolutionError(err error) error {
	if errors.Is(err, domain.ErrDatabase) {
		return domain.Reissue("authorize", err)
	}
	return domain.NewDatabaseError("authorize", err)
}
