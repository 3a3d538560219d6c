package dto

import (
	"time"

	"github.com/yukikurage/org-membership-api/internal/models"
)

// OrganizationDTO is the public view of an organization. Fields left empty by
// a projection are omitted.
type OrganizationDTO struct {
	ID                string          `json:"id,omitempty"`
	Name              string          `json:"name,omitempty"`
	ProfilePictureURL string          `json:"profile_picture_url,omitempty"`
	CreatedAt         *time.Time      `json:"created_at,omitempty"`
	UpdatedAt         *time.Time      `json:"updated_at,omitempty"`
	Memberships       []MembershipDTO `json:"memberships,omitempty"`
}

// OrganizationListResponse represents a list of organizations
type OrganizationListResponse struct {
	Organizations []OrganizationDTO `json:"organizations"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO,
// including memberships if preloaded
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	dto := OrganizationDTO{
		ID:                org.ID,
		Name:              org.Name,
		ProfilePictureURL: org.ProfilePictureURL,
		CreatedAt:         timePtr(org.CreatedAt),
		UpdatedAt:         timePtr(org.UpdatedAt),
	}

	if len(org.Memberships) > 0 {
		dto.Memberships = make([]MembershipDTO, len(org.Memberships))
		for i, membership := range org.Memberships {
			dto.Memberships[i] = ToMembershipDTO(membership)
		}
	}

	return dto
}

// ToOrganizationListResponse converts organizations to a list response
func ToOrganizationListResponse(orgs []models.Organization) OrganizationListResponse {
	items := make([]OrganizationDTO, len(orgs))
	for i, org := range orgs {
		items[i] = ToOrganizationDTO(org)
	}
	return OrganizationListResponse{Organizations: items}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
