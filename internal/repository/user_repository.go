package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/org-membership-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrCreateUserEmail is returned when creating the user's email fails inside the signup transaction.
	ErrCreateUserEmail = errors.New("user repository: create user email failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// CreateWithEmail creates a user and its email address atomically.
func (r *GormUserRepository) CreateWithEmail(ctx context.Context, user *models.User, email *models.UserEmail) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Emails").Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		email.UserID = user.ID

		if err := tx.Create(email).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUserEmail, err)
		}

		user.Emails = []models.UserEmail{*email}
		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Emails").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds the user owning any address equal to email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	owners := r.db.Model(&models.UserEmail{}).Select("user_id").Where("email = ?", email)
	if err := r.db.WithContext(ctx).
		Preload("Emails").
		Where("id IN (?)", owners).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
