package model

import "time"

// LoginLog records one operator shift check-in, optionally closed by a
// check-out. The pair (OperatorID, LoginTime) is the event's natural key and
// the sole deduplication key during merge; once created the event is never
// updated by merge, only the owning peer sets LogoutTime.
type LoginLog struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	OperatorID string     `json:"operator_id" gorm:"size:50;index;uniqueIndex:idx_login_key"`
	LoginTime  time.Time  `json:"login_time" gorm:"uniqueIndex:idx_login_key"`
	LogoutTime *time.Time `json:"logout_time"`
	Shift      string     `json:"shift" gorm:"size:10"`
	Date       string     `json:"date" gorm:"size:10"` // YYYY-MM-DD
	CreatedAt  time.Time  `json:"created_at"`
	Deleted    bool       `json:"deleted" gorm:"default:false"`
	DeletedAt  *time.Time `json:"deleted_at"`
	// 同步跟踪字段
	SyncedToCloud bool       `json:"synced_to_cloud" gorm:"default:false"`
	SyncedAt      *time.Time `json:"synced_at"`
}
