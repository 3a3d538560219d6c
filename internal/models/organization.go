package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organization struct {
	ID                string         `gorm:"type:varchar(36);primarykey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	ProfilePictureURL string         `gorm:"type:varchar(1024)" json:"profile_picture_url"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:OrganizationID" json:"memberships,omitempty"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
