package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation представляет переписку покупателя и продавца по объявлению.
// Тройка (listing_id, buyer_id, seller_id) идентифицирует активную переписку
type Conversation struct {
	ID            uuid.UUID `json:"id"`
	ListingID     uuid.UUID `json:"listing_id"`
	BuyerID       uuid.UUID `json:"buyer_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
	IsActive      bool      `json:"is_active"`
}

// ConversationPreview представляет переписку в списке чатов,
// обогащенную данными для отображения
type ConversationPreview struct {
	Conversation
	UnreadCount int          `json:"unread_count"`
	LastMessage string       `json:"last_message,omitempty"`
	OtherUser   *UserInfo    `json:"other_user,omitempty"`
	Listing     *ListingInfo `json:"listing,omitempty"`
}

// Message представляет сообщение в переписке
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	ReceiverID     uuid.UUID `json:"receiver_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
