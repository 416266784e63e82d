package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы сохраненных объявлений
const (
	SavedTypeFavorite = "favorite"
	SavedTypeWishlist = "wishlist"
)

// ValidSavedType проверяет допустимость типа сохраненного объявления
func ValidSavedType(t string) bool {
	return t == SavedTypeFavorite || t == SavedTypeWishlist
}

// SavedItem представляет связь пользователя с сохраненным объявлением.
// Пара (user_id, listing_id) уникальна в рамках одного типа
type SavedItem struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ListingID uuid.UUID `json:"listing_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
