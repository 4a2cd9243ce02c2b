package handler

import (
	"fmt"
	"time"

	"github.com/ymiyake/userboard/internal/domain"
)

// UserDTO is the JSON representation of a user. Field names follow the
// snake_case wire contract of the admin API; the password hash is never
// serialized.
type UserDTO struct {
	ID        int64  `json:"id"`
	UserName  string `json:"user_name"`
	Email     string `json:"email"`
	Admin     bool   `json:"admin"`
	Guest     bool   `json:"guest"`
	Profile   string `json:"user_profile"`
	AvatarURL string `json:"avatar_url,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toUserDTO(u *domain.User) UserDTO {
	dto := UserDTO{
		ID:        u.ID,
		UserName:  u.UserName,
		Email:     u.Email,
		Admin:     u.Admin,
		Guest:     u.Guest,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
	if u.AvatarKey != "" {
		dto.AvatarURL = fmt.Sprintf("/api/v1/admin/users/%d/avatar", u.ID)
	}
	return dto
}

func toUserDTOs(users []domain.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i := range users {
		dtos[i] = toUserDTO(&users[i])
	}
	return dtos
}
