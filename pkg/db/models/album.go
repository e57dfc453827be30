package models

import "time"

// Album groups a photographer's photos for browsing. Membership lives on
// the photo row; a photo belongs to at most one album.
type Album struct {
	ID             int64         `gorm:"column:id;primaryKey;autoIncrement"`
	PhotographerID int64         `gorm:"column:photographer_id;not null;index"`
	Photographer   *Photographer `gorm:"foreignKey:PhotographerID"`
	Name           string        `gorm:"column:name;not null"`
	Description    *string       `gorm:"column:description"`
	Photos         []Photo       `gorm:"foreignKey:AlbumID"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
