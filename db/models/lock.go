package models

import "time"

func init() {
	registerModel(&DistributedLock{})
}

// DistributedLock is a named mutual exclusion row. A row whose ExpiresAt has
// passed is free for the next acquirer.
type DistributedLock struct {
	Name       string    `gorm:"primaryKey;size:191"`
	Holder     string    `gorm:"size:64;not null"`
	AcquiredAt time.Time `gorm:"not null"`
	ExpiresAt  time.Time `gorm:"index;not null"`
}

func (DistributedLock) TableName() string {
	return "distributed_locks"
}
