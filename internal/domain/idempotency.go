package domain

import "time"

// Idempotency records a completed dashboard write keyed by
// (user_id, resource, key). A replay with the same key returns the stored
// outcome without consuming the caller's daily automation quota again.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:1"`
	Resource  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_resource_key,priority:3"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
