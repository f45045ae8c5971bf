package mapper

import (
	"fmt"

	"user-management-backend/internal/features/user/models"
)

// ToUserResponse maps User model to UserResponse DTO
func ToUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:                          user.ID,
		Nickname:                    user.Nickname,
		Email:                       user.Email,
		FirstName:                   user.FirstName,
		LastName:                    user.LastName,
		Bio:                         user.Bio,
		Location:                    user.Location,
		ProfilePictureURL:           user.ProfilePictureURL,
		LinkedInProfileURL:          user.LinkedInProfileURL,
		GitHubProfileURL:            user.GitHubProfileURL,
		Role:                        user.Role,
		IsProfessional:              user.IsProfessional,
		ProfessionalStatusUpdatedAt: user.ProfessionalStatusUpdatedAt,
		EmailVerified:               user.EmailVerified,
		IsLocked:                    user.IsLocked,
		LastLoginAt:                 user.LastLoginAt,
		CreatedAt:                   user.CreatedAt,
		UpdatedAt:                   user.UpdatedAt,
	}
}

func ToUserResponses(users []*models.User) []*models.UserResponse {
	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

// ToPaginationLinks builds skip/limit navigation links for a collection at basePath.
func ToPaginationLinks(basePath string, skip, limit, total int) *models.PaginationLinks {
	link := func(s int) string {
		return fmt.Sprintf("%s?skip=%d&limit=%d", basePath, s, limit)
	}

	lastSkip := 0
	if total > 0 {
		lastSkip = ((total - 1) / limit) * limit
	}

	links := &models.PaginationLinks{
		Self:  link(skip),
		First: link(0),
		Last:  link(lastSkip),
	}
	if skip+limit < total {
		links.Next = link(skip + limit)
	}
	if skip > 0 {
		prev := skip - limit
		if prev < 0 {
			prev = 0
		}
		links.Prev = link(prev)
	}
	return links
}

// ToUserListResponse assembles a page of users.
func ToUserListResponse(users []*models.User, basePath string, skip, limit, total int) *models.UserListResponse {
	return &models.UserListResponse{
		Items: ToUserResponses(users),
		Total: total,
		Page:  skip/limit + 1,
		Size:  len(users),
		Links: ToPaginationLinks(basePath, skip, limit, total),
	}
}
