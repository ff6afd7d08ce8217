package models

import (
	"time"

	"gorm.io/gorm"
)

func init() {
	registerModel(&CalendarReminder{})
}

type CalendarReminder struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	Title    string `gorm:"size:255"`
	DueDate  time.Time
	Notified bool `gorm:"default:false;"`
}
