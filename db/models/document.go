package models

import "gorm.io/gorm"

func init() {
	registerModel(&Document{})
}

// Document is an entry of the user's document library. The content lives in
// object storage under StorageKey.
type Document struct {
	gorm.Model
	UserID      uint   `gorm:"index;not null"`
	Name        string `gorm:"size:255"`
	StorageKey  string `gorm:"size:512;not null"`
	ContentType string `gorm:"size:128"`
	Size        int64
}
