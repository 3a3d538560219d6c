package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/yukikurage/org-membership-api/internal/constants"
	"github.com/yukikurage/org-membership-api/internal/models"
	"github.com/yukikurage/org-membership-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Name      string
	Email     string
	Password  string
	IPAddress string
}

// Signup creates a new user with a password and a primary email address.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	return s.register(ctx, &models.User{
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hashedPassword),
		SignupIP:     input.IPAddress,
	}, input.Email)
}

// SignupByEmail provisions a passwordless account for an invited address.
func (s *AuthService) SignupByEmail(ctx context.Context, ipAddress, email string) (*models.User, error) {
	return s.register(ctx, &models.User{SignupIP: ipAddress}, email)
}

func (s *AuthService) register(ctx context.Context, user *models.User, email string) (*models.User, error) {
	email = NormalizeEmail(email)
	if !isBareAddress(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	userEmail := &models.UserEmail{
		Email:   email,
		Primary: true,
	}

	if err := s.userRepo.CreateWithEmail(ctx, user, userEmail); err != nil {
		if errors.Is(err, repository.ErrCreateUser) || errors.Is(err, repository.ErrCreateUserEmail) {
			return nil, fmt.Errorf("%w: %v", ErrFailedToCreateUser, err)
		}
		return nil, fmt.Errorf("failed to complete signup: %w", err)
	}

	return user, nil
}

// isBareAddress reports whether email is a plain addr-spec, without a display
// name or angle brackets.
func isBareAddress(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
// Invited users without a password cannot log in.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
