package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет профиль пользователя в системе
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	JoinDate     time.Time `json:"join_date"`
	Rating       float64   `json:"rating,omitempty"` // 0–5
	Bio          string    `json:"bio,omitempty"`
	Location     string    `json:"location,omitempty"`
	Phone        string    `json:"phone,omitempty"`
}

// UserInfo представляет минимальную информацию о пользователе для API
type UserInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
}

// ProfileUpdate описывает частичное обновление профиля.
// nil-поля не изменяются
type ProfileUpdate struct {
	Name         *string  `json:"name,omitempty"`
	ProfileImage *string  `json:"profile_image,omitempty"`
	Bio          *string  `json:"bio,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Phone        *string  `json:"phone,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
}

// Apply накладывает заполненные поля обновления на профиль
func (u *ProfileUpdate) Apply(user *User) {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.ProfileImage != nil {
		user.ProfileImage = *u.ProfileImage
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.Location != nil {
		user.Location = *u.Location
	}
	if u.Phone != nil {
		user.Phone = *u.Phone
	}
	if u.Rating != nil {
		user.Rating = *u.Rating
	}
}
