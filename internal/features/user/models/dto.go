package models

import (
	"time"

	"github.com/google/uuid"
)

// UserCreate is the payload for registration and staff-created accounts.
type UserCreate struct {
	Email              string  `json:"email" validate:"required,email,max=255" example:"john.doe@example.com"`
	Password           string  `json:"password" validate:"required,password" example:"Secure*1234"`
	Nickname           *string `json:"nickname,omitempty" validate:"omitempty,min=3,max=50,nickname" example:"clever_fox_123"`
	FirstName          *string `json:"first_name,omitempty" validate:"omitempty,max=100" example:"John"`
	LastName           *string `json:"last_name,omitempty" validate:"omitempty,max=100" example:"Doe"`
	Bio                *string `json:"bio,omitempty" validate:"omitempty,max=500" example:"Experienced software developer specializing in web applications."`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=255" example:"New Jersey, USA"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty" validate:"omitempty,max=255,httpurl" example:"https://example.com/profiles/john.jpg"`
	LinkedInProfileURL *string `json:"linkedin_profile_url,omitempty" validate:"omitempty,max=255,httpurl" example:"https://linkedin.com/in/johndoe"`
	GitHubProfileURL   *string `json:"github_profile_url,omitempty" validate:"omitempty,max=255,httpurl" example:"https://github.com/johndoe"`
	TelegramID         *int64  `json:"telegram_id,omitempty" validate:"omitempty,gt=0"`
	Role               *Role   `json:"role,omitempty" validate:"omitempty,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN" example:"AUTHENTICATED"`
}

// UserUpdate is a partial update applied by staff. Nil fields are left untouched.
type UserUpdate struct {
	Email              *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Nickname           *string `json:"nickname,omitempty" validate:"omitempty,min=3,max=50,nickname"`
	FirstName          *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName           *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Bio                *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=255"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty" validate:"omitempty,max=255,httpurl"`
	LinkedInProfileURL *string `json:"linkedin_profile_url,omitempty" validate:"omitempty,max=255,httpurl"`
	GitHubProfileURL   *string `json:"github_profile_url,omitempty" validate:"omitempty,max=255,httpurl"`
	TelegramID         *int64  `json:"telegram_id,omitempty" validate:"omitempty,gt=0"`
	Password           *string `json:"password,omitempty" validate:"omitempty,password"`
	Role               *Role   `json:"role,omitempty" validate:"omitempty,oneof=ANONYMOUS AUTHENTICATED MANAGER ADMIN"`
	IsProfessional     *bool   `json:"is_professional,omitempty"`
}

func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Nickname == nil && u.FirstName == nil && u.LastName == nil &&
		u.Bio == nil && u.Location == nil && u.ProfilePictureURL == nil &&
		u.LinkedInProfileURL == nil && u.GitHubProfileURL == nil && u.TelegramID == nil &&
		u.Password == nil && u.Role == nil && u.IsProfessional == nil
}

// ProfileUpdate is the self-service subset of UserUpdate. Telegram accounts
// are linked through signed init data, never from here.
type ProfileUpdate struct {
	Nickname           *string `json:"nickname,omitempty" validate:"omitempty,min=3,max=50,nickname"`
	FirstName          *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName           *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Bio                *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Location           *string `json:"location,omitempty" validate:"omitempty,max=255"`
	ProfilePictureURL  *string `json:"profile_picture_url,omitempty" validate:"omitempty,max=255,httpurl"`
	LinkedInProfileURL *string `json:"linkedin_profile_url,omitempty" validate:"omitempty,max=255,httpurl"`
	GitHubProfileURL   *string `json:"github_profile_url,omitempty" validate:"omitempty,max=255,httpurl"`
	Password           *string `json:"password,omitempty" validate:"omitempty,password"`
}

// AsUserUpdate lifts a profile update into the staff update shape.
func (p ProfileUpdate) AsUserUpdate() UserUpdate {
	return UserUpdate{
		Nickname:           p.Nickname,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Bio:                p.Bio,
		Location:           p.Location,
		ProfilePictureURL:  p.ProfilePictureURL,
		LinkedInProfileURL: p.LinkedInProfileURL,
		GitHubProfileURL:   p.GitHubProfileURL,
		Password:           p.Password,
	}
}

// UserResponse is the public view of a user.
// @Description Public user information
type UserResponse struct {
	ID                          uuid.UUID  `json:"id" example:"5f2b7c1e-8a49-4c55-9a6e-0d1b0c3e6c11"`
	Nickname                    string     `json:"nickname" example:"clever_fox_123"`
	Email                       string     `json:"email" example:"john.doe@example.com"`
	FirstName                   *string    `json:"first_name,omitempty" example:"John"`
	LastName                    *string    `json:"last_name,omitempty" example:"Doe"`
	Bio                         *string    `json:"bio,omitempty"`
	Location                    *string    `json:"location,omitempty"`
	ProfilePictureURL           *string    `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL          *string    `json:"linkedin_profile_url,omitempty"`
	GitHubProfileURL            *string    `json:"github_profile_url,omitempty"`
	Role                        Role       `json:"role" example:"AUTHENTICATED" enums:"ANONYMOUS,AUTHENTICATED,MANAGER,ADMIN"`
	IsProfessional              bool       `json:"is_professional" example:"false"`
	ProfessionalStatusUpdatedAt *time.Time `json:"professional_status_updated_at,omitempty"`
	EmailVerified               bool       `json:"email_verified"`
	IsLocked                    bool       `json:"is_locked"`
	LastLoginAt                 *time.Time `json:"last_login_at,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

// PaginationLinks are navigation links for list responses.
type PaginationLinks struct {
	Self  string `json:"self"`
	First string `json:"first"`
	Last  string `json:"last"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Items []*UserResponse  `json:"items"`
	Total int              `json:"total" example:"100"`
	Page  int              `json:"page" example:"1"`
	Size  int              `json:"size" example:"10"`
	Links *PaginationLinks `json:"links,omitempty"`
}

type ProfessionalStatusUpdate struct {
	IsProfessional *bool `json:"is_professional" binding:"required" example:"true"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required" example:"SecureNewPass!99"`
}

// ErrorBody documents the error object inside ErrorResponse.
type ErrorBody struct {
	Code    string                 `json:"code" example:"USER_NOT_FOUND"`
	Message string                 `json:"message" example:"User not found"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse documents the error envelope rendered by the error middleware.
type ErrorResponse struct {
	Success   bool      `json:"success" example:"false"`
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id" example:"0b9c7a52-4a0e-4f53-8d5e-0e3c6f7d1a2b"`
}

// MessageResponse is returned by endpoints without a resource body.
type MessageResponse struct {
	Message string `json:"message" example:"Email verified successfully"`
}
