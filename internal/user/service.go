// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/templates/storefront-auth/internal/auth"
	"github.com/carterperez-dev/templates/storefront-auth/internal/core"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) FindByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) TouchLastLogin(
	ctx context.Context,
	userID int64,
	at time.Time,
) error {
	return s.repo.TouchLastLogin(ctx, userID, at)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

// Create stores a self-registered account: role user, status active.
func (s *Service) Create(
	ctx context.Context,
	name, email, passwordHash string,
) (*auth.UserInfo, error) {
	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		Status:       StatusActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Profile is the non-sensitive projection of the caller's own record.
func (s *Service) Profile(ctx context.Context, userID int64) (*User, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("profile: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

type AddUserParams struct {
	Name     string
	Email    string
	Password string
	Role     string
	Status   string
}

// AddUser is the operator path: any role and status, refusing duplicates.
func (s *Service) AddUser(
	ctx context.Context,
	params AddUserParams,
) (*User, error) {
	if params.Name == "" || params.Email == "" || params.Password == "" {
		return nil, fmt.Errorf(
			"add user: name, email and password are required: %w",
			ErrInvalidInput,
		)
	}
	if params.Role == "" {
		params.Role = RoleUser
	}
	if params.Status == "" {
		params.Status = StatusActive
	}
	if !ValidRole(params.Role) {
		return nil, fmt.Errorf("add user: invalid role %q: %w", params.Role, ErrInvalidInput)
	}
	if !ValidStatus(params.Status) {
		return nil, fmt.Errorf("add user: invalid status %q: %w", params.Status, ErrInvalidInput)
	}

	_, err := s.repo.GetByEmail(ctx, params.Email)
	switch {
	case err == nil:
		return nil, fmt.Errorf("add user: %w", core.ErrDuplicateKey)
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	passwordHash, err := core.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: passwordHash,
		Role:         params.Role,
		Status:       params.Status,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if password == "" {
		return fmt.Errorf("set password: empty password: %w", ErrInvalidInput)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	passwordHash, err := core.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, user.ID, passwordHash)
}

func (s *Service) CheckPassword(
	ctx context.Context,
	email, password string,
) (bool, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	return core.CheckPassword(password, user.PasswordHash), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Status:       u.Status,
	}
}

var _ auth.Directory = (*Service)(nil)
