package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	registerModel(&CronRun{})
}

type CronRunFailure struct {
	RequestID string `json:"requestId"`
	Error     string `json:"error"`
}

// CronRun records one invocation of a periodic job, skipped ones included.
type CronRun struct {
	gorm.Model
	Job        string    `gorm:"size:64;index"`
	StartedAt  time.Time `gorm:"index"`
	DurationMs int64
	Skipped    bool
	Total      int
	Succeeded  int
	Failed     int
	Failures   datatypes.JSONType[[]CronRunFailure]
}
