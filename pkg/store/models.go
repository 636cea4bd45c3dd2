package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence. Uniqueness of per-user names is enforced
// by functional indexes on lower(name), created in ensureConstraints.
type CategoryModel struct {
	ID     int64  `gorm:"primaryKey"`
	UserID string `gorm:"not null;index"`
	Name   string `gorm:"not null"`
}

func (CategoryModel) TableName() string { return "categories" }

type TagModel struct {
	ID     int64  `gorm:"primaryKey"`
	UserID string `gorm:"not null;index"`
	Name   string `gorm:"not null"`
}

func (TagModel) TableName() string { return "tags" }

type ItemModel struct {
	ID              int64          `gorm:"primaryKey"`
	UserID          string         `gorm:"not null;index"`
	Name            string         `gorm:"not null"`
	Seasons         datatypes.JSON `gorm:"type:jsonb;not null"`
	PrimaryColor    string         `gorm:"not null"`
	SecondaryColors datatypes.JSON `gorm:"type:jsonb"`
	Brand           string
	ImageKeys       datatypes.JSON `gorm:"type:jsonb;not null"`
	CategoryID      *int64         `gorm:"index"`
	CreatedAt       time.Time      `gorm:"not null;index"`
}

func (ItemModel) TableName() string { return "items" }

type ItemTagModel struct {
	ItemID int64 `gorm:"primaryKey"`
	TagID  int64 `gorm:"primaryKey"`
}

func (ItemTagModel) TableName() string { return "item_tags" }

type OutfitModel struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    string `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Note      string
	CreatedAt time.Time `gorm:"not null;index"`
}

func (OutfitModel) TableName() string { return "outfits" }

type OutfitItemModel struct {
	OutfitID int64 `gorm:"primaryKey"`
	ItemID   int64 `gorm:"primaryKey"`
}

func (OutfitItemModel) TableName() string { return "outfit_items" }
