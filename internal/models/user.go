package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name         string         `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string         `gorm:"type:varchar(255)" json:"-"`
	SignupIP     string         `gorm:"type:varchar(45)" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Emails      []UserEmail  `gorm:"foreignKey:UserID" json:"emails,omitempty"`
	Memberships []Membership `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PrimaryEmail returns the primary address, or the first known one.
func (u User) PrimaryEmail() string {
	for _, e := range u.Emails {
		if e.Primary {
			return e.Email
		}
	}
	if len(u.Emails) > 0 {
		return u.Emails[0].Email
	}
	return ""
}
