package auth

import (
	"time"

	"fvivu/internal/users"
)

// represents the authentication response
type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

// user data without sensitive fields
type UserResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Active         bool      `json:"active"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	Photo          string    `json:"photo,omitempty"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func ToUserResponse(u *users.User) UserResponse {
	return UserResponse{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		Active:         u.Active,
		EmailConfirmed: u.EmailConfirmed,
		Photo:          u.Photo,
		Description:    u.Description,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
