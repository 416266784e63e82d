package mockdata

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

func newTestStore() *Store {
	return NewStore(0)
}

func TestSeedUsers(t *testing.T) {
	s := newTestStore()

	emma, ok := s.UserByID(UserEmma)
	require.True(t, ok)
	assert.Equal(t, "Emma Wilson", emma.Name)
	assert.Equal(t, "emma@bookswap.demo", emma.Email)

	// Демо-пароль одинаков для всех посевных пользователей
	hash, ok := s.PasswordHashByEmail(emma.Email)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(DemoPassword)))
}

func TestSeedListingsOrder(t *testing.T) {
	s := newTestStore()

	listings := s.Listings()
	require.Len(t, listings, 6)

	// Новые объявления первыми
	for i := 1; i < len(listings); i++ {
		assert.False(t, listings[i-1].CreatedAt.Before(listings[i].CreatedAt))
	}
	assert.Equal(t, ListingAusten, listings[0].ID)
}

func TestUserCopiesDoNotAlias(t *testing.T) {
	s := newTestStore()

	u1, _ := s.UserByID(UserEmma)
	u1.Name = "Changed"

	u2, _ := s.UserByID(UserEmma)
	assert.Equal(t, "Emma Wilson", u2.Name)
}

func TestAddUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestStore()

	err := s.AddUser(models.User{
		ID:    uuid.New(),
		Email: "emma@bookswap.demo",
		Name:  "Imposter",
	}, "hash")
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestSavedItemsIdempotent(t *testing.T) {
	s := newTestStore()

	first := s.AddSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite)
	second := s.AddSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite)
	assert.Equal(t, first.ID, second.ID)

	ids := s.SavedListingIDs(UserEmma, models.SavedTypeFavorite)
	assert.Len(t, ids, 1)

	// Удаление несохраненного — no-op
	s.RemoveSaved(UserEmma, ListingGatsby, models.SavedTypeFavorite)
	assert.True(t, s.IsSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite))

	s.RemoveSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite)
	assert.False(t, s.IsSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite))
}

func TestSavedTypesAreIndependent(t *testing.T) {
	s := newTestStore()

	s.AddSaved(UserEmma, ListingOrwell, models.SavedTypeFavorite)
	assert.False(t, s.IsSaved(UserEmma, ListingOrwell, models.SavedTypeWishlist))
}

func TestSeedConversations(t *testing.T) {
	s := newTestStore()

	convs := s.ConversationsForUser(UserEmma)
	require.Len(t, convs, 2)

	// Свежая переписка про «Гэтсби» первая
	assert.Equal(t, ConvGatsby, convs[0].ID)
	assert.Equal(t, ConvAusten, convs[1].ID)

	// Последнее сообщение Лиама Эмма еще не прочитала
	assert.Equal(t, 1, s.UnreadCount(ConvGatsby, UserEmma))
	assert.Equal(t, 0, s.UnreadCount(ConvGatsby, UserLiam))
	assert.Equal(t, 2, s.TotalUnread(UserEmma))

	last, ok := s.LastMessage(ConvGatsby)
	require.True(t, ok)
	assert.Equal(t, "I could also do 7 euros if you pick it up today.", last.Content)
}

func TestMarkMessagesRead(t *testing.T) {
	s := newTestStore()

	updated := s.MarkMessagesRead(ConvGatsby, UserEmma)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 0, s.UnreadCount(ConvGatsby, UserEmma))

	// Повторная отметка — no-op
	updated = s.MarkMessagesRead(ConvGatsby, UserEmma)
	assert.Equal(t, 0, updated)
}

func TestMessagesChronologicalOrder(t *testing.T) {
	s := newTestStore()

	messages := s.MessagesForConversation(ConvGatsby)
	require.Len(t, messages, 3)
	for i := 1; i < len(messages); i++ {
		assert.True(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt))
	}
}

func TestFindActiveConversation(t *testing.T) {
	s := newTestStore()

	conv, ok := s.FindActiveConversation(ListingGatsby, UserEmma, UserLiam)
	require.True(t, ok)
	assert.Equal(t, ConvGatsby, conv.ID)

	// Тройка с другим покупателем — отдельная переписка, ее нет
	_, ok = s.FindActiveConversation(ListingGatsby, UserSophia, UserLiam)
	assert.False(t, ok)
}

func TestTouchConversation(t *testing.T) {
	s := newTestStore()

	at := time.Now().Add(time.Hour)
	s.TouchConversation(ConvAusten, at)

	conv, ok := s.ConversationByID(ConvAusten)
	require.True(t, ok)
	assert.Equal(t, at, conv.LastMessageAt)
}

func TestSimulatedLatency(t *testing.T) {
	s := NewStore(30 * time.Millisecond)

	start := time.Now()
	s.Listings()
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}
