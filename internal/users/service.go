package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	pkgauth "github.com/fotoclick/backend/pkg/auth"
	"github.com/fotoclick/backend/pkg/config"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
	"github.com/fotoclick/backend/pkg/pagination"
	"github.com/fotoclick/backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// RegisterRequest contains the payload required for account creation.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the minted token plus the user's profile and
// resolved permission names.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	User        *UserDTO `json:"user"`
	Permissions []string `json:"permissions"`
}

// UserListResult is a page of users plus the cursor for the next page.
type UserListResult struct {
	Users      []UserDTO `json:"users"`
	NextCursor *string   `json:"next_cursor,omitempty"`
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateRole(ctx context.Context, id int64, roleID *int64) error
}

// Service defines the identity operations exposed to controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	GetByID(ctx context.Context, id int64) (*UserDTO, error)
	List(ctx context.Context, identity permissions.Identity, params pagination.Params) (*UserListResult, error)
	AssignRole(ctx context.Context, identity permissions.Identity, userID int64, roleID *int64) error
	PermissionSetFor(ctx context.Context, userID int64) (permissions.Set, error)
}

type service struct {
	repo        userRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// NewService constructs the users service.
func NewService(repo userRepository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
	}, nil
}

// Register creates an account. New accounts carry no role until an admin
// assigns one, so they start with an empty permission set.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        req.Phone,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return FromModel(user), nil
}

// Login authenticates the credentials and mints an access token carrying
// the user's role name. Permissions are resolved from the DB per request,
// never baked into the token.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   roleName,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	names := PermissionNames(user)
	permStrings := make([]string, 0, len(names))
	for _, name := range names {
		permStrings = append(permStrings, name.String())
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        FromModel(user),
		Permissions: permStrings,
	}, nil
}

// GetByID loads a user profile.
func (s *service) GetByID(ctx context.Context, id int64) (*UserDTO, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

// List pages through users. Requires the list_users permission.
func (s *service) List(ctx context.Context, identity permissions.Identity, params pagination.Params) (*UserListResult, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionListUsers)); err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	result := &UserListResult{Users: make([]UserDTO, 0, len(rows))}
	for i := range rows {
		if i == limit {
			next := pagination.EncodeCursor(pagination.Cursor{
				CreatedAt: rows[limit-1].CreatedAt,
				ID:        rows[limit-1].ID,
			})
			result.NextCursor = &next
			break
		}
		result.Users = append(result.Users, *FromModel(&rows[i]))
	}
	return result, nil
}

// AssignRole changes a user's role. Requires edit_user_role.
func (s *service) AssignRole(ctx context.Context, identity permissions.Identity, userID int64, roleID *int64) error {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionEditUserRole)); err != nil {
		return err
	}
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	if err := s.repo.UpdateRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user role")
	}
	return nil
}

// PermissionSetFor resolves the current permission set for a user id. The
// auth middleware calls this on every authenticated request so role edits
// take effect without re-login.
func (s *service) PermissionSetFor(ctx context.Context, userID int64) (permissions.Set, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return permissions.NewSet(PermissionNames(user)...), nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
