package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound     = errors.New("organization not found")
	ErrInvalidOrganizationName  = errors.New("organization name cannot be empty")
	ErrInvalidOrganizationQuery = errors.New("unknown organization field")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
	log     *log.Logger

	// avatarColor picks the background of generated profile pictures.
	avatarColor func() string
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, logger *log.Logger) *OrganizationService {
	return &OrganizationService{
		orgRepo:     orgRepo,
		log:         logger,
		avatarColor: utils.RandomLightColor,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name              string
	ProfilePictureURL *string
}

// UpdateOrganizationInput holds the fields to change; nil fields are left untouched.
type UpdateOrganizationInput struct {
	Name              *string
	ProfilePictureURL *string
}

// ReplaceOrganizationInput carries a full organization body. Omitted optional
// fields keep their stored value.
type ReplaceOrganizationInput struct {
	Name              string
	ProfilePictureURL *string
}

// Create creates a new organization with the owner as its first membership.
func (s *OrganizationService) Create(ctx context.Context, ownerUserID string, input CreateOrganizationInput) (*models.Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidOrganizationName
	}

	org := &models.Organization{
		Name: input.Name,
		Memberships: []models.Membership{
			{UserID: ownerUserID, Role: models.RoleOwner},
		},
	}

	if input.ProfilePictureURL != nil {
		org.ProfilePictureURL = *input.ProfilePictureURL
	} else {
		org.ProfilePictureURL = utils.AvatarURL(utils.Initials(input.Name), s.avatarColor())
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	created, err := s.orgRepo.FindByID(ctx, org.ID, "Memberships", "Memberships.Organization")
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	s.log.Info("organization created", "organization_id", created.ID, "owner_id", ownerUserID)
	return created, nil
}

// GetOrganizations lists organizations. Listing is fail-soft: persistence
// errors are logged and an empty list is returned.
func (s *OrganizationService) GetOrganizations(ctx context.Context, filter repository.OrganizationFilter) []models.Organization {
	orgs, err := s.orgRepo.List(ctx, filter)
	if err != nil {
		s.log.Warn("failed to list organizations", "err", err)
		return []models.Organization{}
	}
	return orgs
}

// GetOrganization returns an organization, optionally restricted to selected
// columns and extended with included relations.
func (s *OrganizationService) GetOrganization(ctx context.Context, id string, query repository.OrganizationQuery) (*models.Organization, error) {
	for _, field := range query.Select {
		if !slices.Contains(repository.OrganizationColumns, field) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrganizationQuery, field)
		}
	}
	for _, rel := range query.Include {
		if _, ok := repository.OrganizationRelations[rel]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOrganizationQuery, rel)
		}
	}

	org, err := s.orgRepo.FindProjected(ctx, id, query)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// UpdateOrganization applies a partial update.
func (s *OrganizationService) UpdateOrganization(ctx context.Context, id string, input UpdateOrganizationInput) (*models.Organization, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidOrganizationName
		}
		fields["name"] = *input.Name
	}
	if input.ProfilePictureURL != nil {
		fields["profile_picture_url"] = *input.ProfilePictureURL
	}

	org, err := s.orgRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

// ReplaceOrganization behaves like UpdateOrganization: fields missing from
// the body are not cleared.
func (s *OrganizationService) ReplaceOrganization(ctx context.Context, id string, input ReplaceOrganizationInput) (*models.Organization, error) {
	return s.UpdateOrganization(ctx, id, UpdateOrganizationInput{
		Name:              &input.Name,
		ProfilePictureURL: input.ProfilePictureURL,
	})
}

// DeleteOrganization removes an organization and its memberships, returning
// the organization as it was before deletion.
func (s *OrganizationService) DeleteOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete organization: %w", err)
	}

	s.log.Info("organization deleted", "organization_id", id)
	return org, nil
}

func (s *OrganizationService) ensureExists(ctx context.Context, id string) error {
	if _, err := s.orgRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}
	return nil
}
