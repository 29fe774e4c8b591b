package model

import "time"

// Admin is an administrator account used by the management UI.
// Admins replicate read-mostly: merge only ever creates missing usernames,
// it never updates an existing account (password changes stay local).
type Admin struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;size:50"`
	HashedPassword string    `json:"-" gorm:"size:100"`
	CreatedAt      time.Time `json:"created_at"`
}
