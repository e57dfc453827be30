package roles

import (
	"context"

	"gorm.io/gorm"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
)

// Repository exposes role and permission persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a roles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// List returns every role with its permissions.
func (r *Repository) List(ctx context.Context) ([]models.Role, error) {
	var rows []models.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByID loads a role with its permissions.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByName loads a role by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("name = ?", name).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// Create inserts a role with the provided permission rows attached.
func (r *Repository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// ReplacePermissions rewrites the role's permission associations.
func (r *Repository) ReplacePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error {
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Replace(perms)
}

// Delete removes a role. Users referencing it keep a dangling role_id of
// nil via the FK's ON DELETE SET NULL.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindPermissionsByNames resolves permission rows for the given names.
func (r *Repository) FindPermissionsByNames(ctx context.Context, names []enums.Permission) ([]models.Permission, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var rows []models.Permission
	err := r.db.WithContext(ctx).
		Where("name IN ?", names).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
