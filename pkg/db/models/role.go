package models

import "time"

// Role groups a named set of permissions assignable to users.
type Role struct {
	ID          int64        `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string       `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description *string      `gorm:"column:description"`
	Permissions []Permission `gorm:"many2many:role_permissions;"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
