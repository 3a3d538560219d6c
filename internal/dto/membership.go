package dto

import (
	"time"

	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/utils"
)

// MembershipDTO represents a membership in API responses
type MembershipDTO struct {
	ID             uint64           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	UserID         string           `json:"user_id"`
	Role           models.Role      `json:"role"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Organization   *OrganizationDTO `json:"organization,omitempty"`
	User           *UserDTO         `json:"user,omitempty"`
}

// MembershipListResponse represents a paginated list of memberships
type MembershipListResponse struct {
	Records    []MembershipDTO          `json:"records"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToMembershipDTO converts a Membership model to MembershipDTO
func ToMembershipDTO(membership models.Membership) MembershipDTO {
	dto := MembershipDTO{
		ID:             membership.ID,
		OrganizationID: membership.OrganizationID,
		UserID:         membership.UserID,
		Role:           membership.Role,
		CreatedAt:      membership.CreatedAt,
		UpdatedAt:      membership.UpdatedAt,
	}

	// Include organization if preloaded; its own memberships are not repeated
	if membership.Organization != nil {
		org := *membership.Organization
		org.Memberships = nil
		orgDTO := ToOrganizationDTO(org)
		dto.Organization = &orgDTO
	}

	// Include user if preloaded
	if membership.User != nil {
		user := ToUserDTO(*membership.User)
		dto.User = &user
	}

	return dto
}

// ToMembershipListResponse converts a page of memberships to MembershipListResponse
func ToMembershipListResponse(memberships []models.Membership, params utils.PaginationParams, total int64) MembershipListResponse {
	items := make([]MembershipDTO, len(memberships))
	for i, membership := range memberships {
		items[i] = ToMembershipDTO(membership)
	}

	return MembershipListResponse{
		Records:    items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
