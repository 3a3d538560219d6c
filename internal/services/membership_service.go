package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/mailer"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"github.com/yukikurage/org-membership-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrMembershipNotFound        = errors.New("membership not found")
	ErrUnauthorizedResource      = errors.New("membership belongs to another organization")
	ErrAlreadyOrganizationMember = errors.New("user is already a member of this organization")
	ErrInvalidRole               = errors.New("invalid membership role")
	ErrCannotDeleteSoleMember    = errors.New("cannot delete the sole member of an organization")
	ErrCannotDeleteSoleOwner     = errors.New("cannot delete the sole owner of an organization")
	ErrCannotUpdateRoleSoleOwner = errors.New("cannot change the role of the sole owner of an organization")
	ErrOwnerRoleRequired         = errors.New("only owners can grant the owner role or change an owner's membership")
)

// UserProvisioner creates accounts for invited email addresses.
type UserProvisioner interface {
	SignupByEmail(ctx context.Context, ipAddress, email string) (*models.User, error)
}

// EmailQueue accepts outgoing email without blocking.
type EmailQueue interface {
	Enqueue(msg mailer.Message) bool
}

// MembershipService provides business logic for memberships and guards the
// organization invariants: at least one member and at least one owner.
type MembershipService struct {
	membershipRepo repository.MembershipRepository
	orgRepo        repository.OrganizationRepository
	userRepo       repository.UserRepository
	users          UserProvisioner
	emails         EmailQueue
	frontendURL    string
	log            *log.Logger
}

// MembershipServiceDeps groups the collaborators of MembershipService.
type MembershipServiceDeps struct {
	MembershipRepo repository.MembershipRepository
	OrgRepo        repository.OrganizationRepository
	UserRepo       repository.UserRepository
	Users          UserProvisioner
	Emails         EmailQueue
	FrontendURL    string
	Logger         *log.Logger
}

// NewMembershipService creates a new MembershipService.
func NewMembershipService(deps MembershipServiceDeps) *MembershipService {
	return &MembershipService{
		membershipRepo: deps.MembershipRepo,
		orgRepo:        deps.OrgRepo,
		userRepo:       deps.UserRepo,
		users:          deps.Users,
		emails:         deps.Emails,
		frontendURL:    deps.FrontendURL,
		log:            deps.Logger,
	}
}

// CreateMembershipInput represents an invitation of an email address.
// ActorRole is the role of the inviting member.
type CreateMembershipInput struct {
	OrganizationID string
	IPAddress      string
	Email          string
	Role           *models.Role
	ActorRole      models.Role
}

// UpdateMembershipInput holds the fields to change; nil fields are left untouched.
// ActorRole is the role of the member making the change.
type UpdateMembershipInput struct {
	Role      *models.Role
	ActorRole models.Role
}

// Create invites an email address to an organization. Unknown addresses get a
// new account. The invitation email is queued and never fails the call.
func (s *MembershipService) Create(ctx context.Context, input CreateMembershipInput) (*models.Membership, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	role := models.DefaultRole
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidRole
		}
		role = *input.Role
	}
	if role == models.RoleOwner && input.ActorRole != models.RoleOwner {
		return nil, ErrOwnerRoleRequired
	}

	org, err := s.orgRepo.FindByID(ctx, input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user, err = s.users.SignupByEmail(ctx, input.IPAddress, email)
		if err != nil {
			return nil, fmt.Errorf("failed to register invited user: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.membershipRepo.FindByOrganizationAndUser(ctx, org.ID, user.ID); err == nil {
		return nil, ErrAlreadyOrganizationMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	membership := &models.Membership{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	membership.Organization = org

	s.sendInvitation(org, user, email)
	return membership, nil
}

func (s *MembershipService) sendInvitation(org *models.Organization, user *models.User, email string) {
	msg := mailer.Message{
		ToAddress: mailer.FormatAddress(user.Name, email),
		Template:  constants.TemplateOrganizationInvitation,
		Variables: map[string]string{
			"organizationName": org.Name,
			"link":             fmt.Sprintf("%s/organization/%s", s.frontendURL, org.ID),
		},
	}
	if s.emails.Enqueue(msg) {
		s.log.Info("invitation queued", "organization_id", org.ID, "user_id", user.ID)
	}
}

// List returns a page of memberships of an organization, newest first.
func (s *MembershipService) List(ctx context.Context, organizationID string, params utils.PaginationParams) ([]models.Membership, int64, error) {
	memberships, total, err := s.membershipRepo.Page(ctx, organizationID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memberships: %w", err)
	}
	return memberships, total, nil
}

// Get returns a membership of the given organization.
func (s *MembershipService) Get(ctx context.Context, organizationID string, id uint64) (*models.Membership, error) {
	return findInOrganization(ctx, s.membershipRepo, organizationID, id)
}

// Update changes a membership. Demoting the organization's last owner is rejected.
func (s *MembershipService) Update(ctx context.Context, organizationID string, id uint64, input UpdateMembershipInput) (*models.Membership, error) {
	if input.Role != nil && !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	var updated *models.Membership
	err := s.membershipRepo.Transaction(ctx, func(repo repository.MembershipRepository) error {
		memberships, err := repo.LockByOrganization(ctx, organizationID)
		if err != nil {
			return fmt.Errorf("failed to list memberships: %w", err)
		}

		current, err := findInOrganization(ctx, repo, organizationID, id)
		if err != nil {
			return err
		}

		if input.Role == nil {
			updated = current
			return nil
		}

		if (current.Role == models.RoleOwner || *input.Role == models.RoleOwner) && input.ActorRole != models.RoleOwner {
			return ErrOwnerRoleRequired
		}

		if current.Role == models.RoleOwner && *input.Role != models.RoleOwner {
			otherOwners := 0
			for _, m := range memberships {
				if m.ID != id && m.Role == models.RoleOwner {
					otherOwners++
				}
			}
			if otherOwners == 0 {
				return ErrCannotUpdateRoleSoleOwner
			}
		}

		updated, err = repo.UpdateRole(ctx, id, *input.Role)
		if err != nil {
			return fmt.Errorf("failed to update membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a membership unless it is the organization's last member or
// last owner. Owner memberships can only be removed by an owner.
func (s *MembershipService) Delete(ctx context.Context, organizationID string, id uint64, actorRole models.Role) (*models.Membership, error) {
	var deleted *models.Membership
	err := s.membershipRepo.Transaction(ctx, func(repo repository.MembershipRepository) error {
		membership, err := findInOrganization(ctx, repo, organizationID, id)
		if err != nil {
			return err
		}

		if membership.Role == models.RoleOwner && actorRole != models.RoleOwner {
			return ErrOwnerRoleRequired
		}

		if err := verifyDeleteMembership(ctx, repo, membership.OrganizationID, id); err != nil {
			return err
		}

		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		deleted = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("membership deleted", "organization_id", organizationID, "membership_id", id)
	return deleted, nil
}

// verifyDeleteMembership checks whether a membership can be deleted. A
// non-owner can always be removed unless it is the organization's only member.
func verifyDeleteMembership(ctx context.Context, repo repository.MembershipRepository, organizationID string, membershipID uint64) error {
	memberships, err := repo.LockByOrganization(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(memberships) == 1 {
		return ErrCannotDeleteSoleMember
	}

	membership, err := repo.FindByID(ctx, membershipID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if membership.Role == models.RoleOwner {
		owners := 0
		for _, m := range memberships {
			if m.Role == models.RoleOwner {
				owners++
			}
		}
		if owners == 1 {
			return ErrCannotDeleteSoleOwner
		}
	}

	return nil
}

// findInOrganization loads a membership and rejects ids of other organizations.
// Membership ids are global, so this guards against probing by id.
func findInOrganization(ctx context.Context, repo repository.MembershipRepository, organizationID string, id uint64) (*models.Membership, error) {
	membership, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	if membership.OrganizationID != organizationID {
		return nil, ErrUnauthorizedResource
	}
	return membership, nil
}
