package application

import (
	"context"
	"fmt"
	"strings"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

type UserService struct {
	users  ports.UserStore
	roles  ports.RoleStore
	hasher ports.PasswordHasher
	logger ports.Logger
}

func NewUserService(users ports.UserStore, roles ports.RoleStore, hasher ports.PasswordHasher, logger ports.Logger) *UserService {
	return &UserService{users: users, roles: roles, hasher: hasher, logger: logger}
}

func (s *UserService) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength || len(password) < minPasswordLength {
		return 0, domain.ErrInvalidInput
	}
	_, exists, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "lookup user", err)
	}
	if exists {
		return 0, fmt.Errorf("%w: username %q is taken", domain.ErrInvalidInput, username)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.Add(ctx, domain.NewUser{Username: username, PasswordHash: hash})
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "register user", err)
	}
	s.logger.Info(ctx, "user registered", "user_id", id)
	return id, nil
}

// Authenticate checks the credentials and returns the user with the ids of
// every role it holds. Unknown users and wrong passwords are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, []int64, error) {
	user, ok, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, nil, storeFailure(ctx, s.logger, "lookup user", err)
	}
	if !ok {
		return domain.User{}, nil, domain.ErrUnauthorized
	}
	match, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn(ctx, "stored password hash rejected", "user_id", user.UserID, "error", err)
		return domain.User{}, nil, domain.ErrUnauthorized
	}
	if !match {
		return domain.User{}, nil, domain.ErrUnauthorized
	}
	roles, _, err := s.roles.ListByUser(ctx, user.UserID)
	if err != nil {
		return domain.User{}, nil, storeFailure(ctx, s.logger, "list user roles", err)
	}
	ids := make([]int64, 0, len(roles))
	for _, role := range roles {
		ids = append(ids, role.RoleID)
	}
	return user, ids, nil
}

type RoleService struct {
	gate   *AuthorizationGate
	users  ports.UserStore
	roles  ports.RoleStore
	logger ports.Logger
}

func NewRoleService(gate *AuthorizationGate, users ports.UserStore, roles ports.RoleStore, logger ports.Logger) *RoleService {
	return &RoleService{gate: gate, users: users, roles: roles, logger: logger}
}

func (s *RoleService) ListForUser(ctx context.Context, callerRoles []int64, userID int64) ([]domain.Role, error) {
	if _, err := s.gate.Authorize(ctx, callerRoles, domain.PermissionAdmin); err != nil {
		return nil, err
	}
	roles, ok, err := s.roles.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list roles", err)
	}
	if !ok {
		return []domain.Role{}, nil
	}
	return roles, nil
}

func (s *RoleService) Grant(ctx context.Context, callerRoles []int64, userID int64, name string, description *string, level string) (int64, error) {
	if _, err := s.gate.Authorize(ctx, callerRoles, domain.PermissionAdmin); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidInput
	}
	permission, err := domain.ParsePermissionLevel(level)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	_, ok, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "lookup user", err)
	}
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	id, err := s.roles.Add(ctx, domain.NewRole{UserID: userID, Name: name, Description: description, Permission: permission})
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "grant role", err)
	}
	s.logger.Info(ctx, "role granted", "role_id", id, "user_id", userID, "permission", permission.String())
	return id, nil
}

func (s *RoleService) Revoke(ctx context.Context, callerRoles []int64, roleID int64) error {
	if _, err := s.gate.Authorize(ctx, callerRoles, domain.PermissionAdmin); err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		return storeFailure(ctx, s.logger, "revoke role", err)
	}
	s.logger.Info(ctx, "role revoked", "role_id", roleID)
	return nil
}
