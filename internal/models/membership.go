package models

import "time"

type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// DefaultRole is assigned to invited members when no role is requested.
const DefaultRole = RoleMember

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may administer the organization.
func (r Role) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership binds a user to an organization with a role.
// IDs are global, not namespaced per organization.
type Membership struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	OrganizationID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_org_user" json:"organization_id"`
	UserID         string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_memberships_org_user" json:"user_id"`
	Role           Role      `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
