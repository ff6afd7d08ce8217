package models

import "gorm.io/gorm"

func init() {
	registerModel(&AdvisoryMessage{})
}

// AdvisoryMessage is one turn of the user's advisory chat history.
type AdvisoryMessage struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Role    string `gorm:"size:16"`
	Content string `gorm:"type:text"`
}
