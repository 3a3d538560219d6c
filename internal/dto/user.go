package dto

import "github.com/yukikurage/org-membership-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.PrimaryEmail(),
	}
}
