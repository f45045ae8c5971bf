package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a user's access level.
type Role string

const (
	RoleAnonymous     Role = "ANONYMOUS"
	RoleAuthenticated Role = "AUTHENTICATED"
	RoleManager       Role = "MANAGER"
	RoleAdmin         Role = "ADMIN"
)

var roles = []Role{RoleAnonymous, RoleAuthenticated, RoleManager, RoleAdmin}

func (r Role) IsValid() bool {
	for _, known := range roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts a role name to Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// IsStaff reports whether the role may manage other users.
func (r Role) IsStaff() bool {
	return r == RoleManager || r == RoleAdmin
}

// User is the persisted user account.
type User struct {
	ID                          uuid.UUID  `json:"id"`
	Nickname                    string     `json:"nickname"`
	Email                       string     `json:"email"`
	FirstName                   *string    `json:"first_name,omitempty"`
	LastName                    *string    `json:"last_name,omitempty"`
	Bio                         *string    `json:"bio,omitempty"`
	Location                    *string    `json:"location,omitempty"`
	ProfilePictureURL           *string    `json:"profile_picture_url,omitempty"`
	LinkedInProfileURL          *string    `json:"linkedin_profile_url,omitempty"`
	GitHubProfileURL            *string    `json:"github_profile_url,omitempty"`
	TelegramID                  *int64     `json:"telegram_id,omitempty"`
	Role                        Role       `json:"role"`
	IsProfessional              bool       `json:"is_professional"`
	ProfessionalStatusUpdatedAt *time.Time `json:"professional_status_updated_at,omitempty"`
	LastLoginAt                 *time.Time `json:"last_login_at,omitempty"`
	FailedLoginAttempts         int        `json:"failed_login_attempts"`
	IsLocked                    bool       `json:"is_locked"`
	EmailVerified               bool       `json:"email_verified"`
	VerificationToken           *string    `json:"-"`
	HashedPassword              string     `json:"-"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`
}

func (u *User) String() string {
	return fmt.Sprintf("<User %s, Role: %s>", u.Nickname, u.Role)
}

func (u *User) LockAccount() {
	u.IsLocked = true
}

func (u *User) UnlockAccount() {
	u.IsLocked = false
	u.FailedLoginAttempts = 0
}

func (u *User) VerifyEmail() {
	u.EmailVerified = true
	u.VerificationToken = nil
	if u.Role == RoleAnonymous {
		u.Role = RoleAuthenticated
	}
}

func (u *User) HasRole(role Role) bool {
	return u.Role == role
}

// UpdateProfessionalStatus sets the flag and stamps the change time, even when
// the value does not change.
func (u *User) UpdateProfessionalStatus(status bool) {
	now := time.Now().UTC()
	u.IsProfessional = status
	u.ProfessionalStatusUpdatedAt = &now
}

// DisplayName returns the first name when known, otherwise the nickname.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return u.Nickname
}
