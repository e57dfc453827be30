package models

import "github.com/fotoclick/backend/pkg/enums"

// Permission is a named capability referenced by roles.
type Permission struct {
	ID   int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name enums.Permission `gorm:"column:name;type:text;not null;uniqueIndex"`
}
