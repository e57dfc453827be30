package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/internal/permissions"
	"github.com/fotoclick/backend/pkg/db"
	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
	pkgerrors "github.com/fotoclick/backend/pkg/errors"
)

// RoleDTO is the transport shape for a role.
type RoleDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// UpsertRoleInput carries role creation and permission replacement data.
type UpsertRoleInput struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Permissions []string `json:"permissions" validate:"required"`
}

type roleRepository interface {
	WithTx(tx *gorm.DB) *Repository
	List(ctx context.Context) ([]models.Role, error)
	FindByID(ctx context.Context, id int64) (*models.Role, error)
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
	ReplacePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error
	Delete(ctx context.Context, id int64) error
	FindPermissionsByNames(ctx context.Context, names []enums.Permission) ([]models.Permission, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes role administration. Every mutation requires
// manage_roles.
type Service interface {
	List(ctx context.Context, identity permissions.Identity) ([]RoleDTO, error)
	Create(ctx context.Context, identity permissions.Identity, input UpsertRoleInput) (*RoleDTO, error)
	SetPermissions(ctx context.Context, identity permissions.Identity, roleID int64, names []string) (*RoleDTO, error)
	Delete(ctx context.Context, identity permissions.Identity, roleID int64) error
}

type service struct {
	repo roleRepository
	tx   txRunner
}

// NewService constructs the roles service.
func NewService(repo roleRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("roles repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

var _ txRunner = (*db.Client)(nil)

func (s *service) List(ctx context.Context, identity permissions.Identity) ([]RoleDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionManageRoles)); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *fromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, identity permissions.Identity, input UpsertRoleInput) (*RoleDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionManageRoles)); err != nil {
		return nil, err
	}
	name := strings.ToLower(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role name is required")
	}
	parsed, err := parsePermissionNames(input.Permissions)
	if err != nil {
		return nil, err
	}

	var created *models.Role
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByName(ctx, name); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		perms, err := repo.FindPermissionsByNames(ctx, parsed)
		if err != nil {
			return err
		}
		if len(perms) != len(parsed) {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown permission name")
		}

		created, err = repo.Create(ctx, &models.Role{
			Name:        name,
			Description: input.Description,
			Permissions: perms,
		})
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create role")
	}
	return fromModel(created), nil
}

func (s *service) SetPermissions(ctx context.Context, identity permissions.Identity, roleID int64, names []string) (*RoleDTO, error) {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionManageRoles)); err != nil {
		return nil, err
	}
	if roleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role id is required")
	}
	parsed, err := parsePermissionNames(names)
	if err != nil {
		return nil, err
	}

	var updated *models.Role
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		role, err := repo.FindByID(ctx, roleID)
		if err != nil {
			return err
		}

		perms, err := repo.FindPermissionsByNames(ctx, parsed)
		if err != nil {
			return err
		}
		if len(perms) != len(parsed) {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown permission name")
		}

		if err := repo.ReplacePermissions(ctx, role, perms); err != nil {
			return err
		}
		role.Permissions = perms
		updated = role
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role permissions")
	}
	return fromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, identity permissions.Identity, roleID int64) error {
	if err := permissions.Require(identity.Set, permissions.RequireAll(enums.PermissionManageRoles)); err != nil {
		return err
	}
	if roleID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "role id is required")
	}
	if err := s.repo.Delete(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "role not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete role")
	}
	return nil
}

func parsePermissionNames(raw []string) ([]enums.Permission, error) {
	if len(raw) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one permission is required")
	}
	seen := make(map[enums.Permission]struct{}, len(raw))
	parsed := make([]enums.Permission, 0, len(raw))
	for _, value := range raw {
		perm, err := enums.ParsePermission(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		if _, dup := seen[perm]; dup {
			continue
		}
		seen[perm] = struct{}{}
		parsed = append(parsed, perm)
	}
	return parsed, nil
}

func fromModel(role *models.Role) *RoleDTO {
	if role == nil {
		return nil
	}
	perms := make([]string, 0, len(role.Permissions))
	for _, perm := range role.Permissions {
		perms = append(perms, perm.Name.String())
	}
	return &RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: perms,
	}
}
