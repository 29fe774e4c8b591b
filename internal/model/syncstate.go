package model

import "time"

// Watermark keys persisted by the edge sync agent.
const (
	SyncStateLastPull = "last_pull"
	SyncStateLastPush = "last_push"
)

// SyncState is a key/value row holding a sync watermark (RFC3339 timestamp).
type SyncState struct {
	Key       string    `json:"key" gorm:"primaryKey;size:32"`
	Value     string    `json:"value" gorm:"size:64"`
	UpdatedAt time.Time `json:"updated_at"`
}
