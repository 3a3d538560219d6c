package models

import "time"

// UserEmail is one of possibly several addresses owned by a user.
type UserEmail struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Primary   bool      `gorm:"not null;default:false" json:"primary"`
	CreatedAt time.Time `json:"created_at"`
}
