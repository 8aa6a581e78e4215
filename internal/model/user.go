package model

import "time"

// Profile defaults applied when a user is created.
const (
	DefaultPhoto = "https://i1.sndcdn.com/artworks-KEAAcFjhG8By45IJ-F8Xh6g-t500x500.jpg"
	DefaultPhone = "+1"
	DefaultBio   = "bio"

	MaxNameLength  = 255
	MaxPhoneLength = 32
	MaxBioLength   = 250
)

// User represents a user in the database.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Photo        string
	Phone        string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the public view of the user.
func (u *User) Profile() UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Phone: u.Phone,
		Bio:   u.Bio,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest carries a partial profile update. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// ChangePasswordRequest represents a password change for the logged-in user.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// AuthResponse is the public profile plus the issued session token.
type AuthResponse struct {
	UserResponse
	Token string `json:"token"`

	ExpiresAt time.Time `json:"-"`
}

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// SuccessResponse is returned by operations that hand work to the mail relay.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
