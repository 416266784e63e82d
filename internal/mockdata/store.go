package mockdata

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// Store — демо-хранилище, схемно эквивалентное таблицам в Postgres.
// Сервисы переключаются на него, когда их таблицы отсутствуют в базе.
// Все коллекции защищены общим мьютексом: HTTP-запросы заходят сюда
// из разных горутин
type Store struct {
	mu      sync.Mutex
	latency time.Duration

	users      []models.User
	passwords  map[string]string // email -> bcrypt-хеш
	listings   []models.BookListing
	savedItems []models.SavedItem
	convs      []models.Conversation
	messages   []models.Message
}

// NewStore создает демо-хранилище с посевными данными.
// latency — задержка каждой операции, чтобы клиент не отличал
// демо-режим от сетевого обращения к базе
func NewStore(latency time.Duration) *Store {
	s := &Store{
		latency:   latency,
		passwords: make(map[string]string),
	}
	s.seed()
	return s
}

// simulate имитирует сетевую задержку обращения к базе
func (s *Store) simulate() {
	if s.latency > 0 {
		time.Sleep(s.latency)
	}
}

// --- Пользователи ---

// UserByID возвращает копию профиля по ID
func (s *Store) UserByID(id uuid.UUID) (*models.User, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, true
		}
	}
	return nil, false
}

// UserByEmail возвращает копию профиля по email
func (s *Store) UserByEmail(email string) (*models.User, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, true
		}
	}
	return nil, false
}

// PasswordHashByEmail возвращает хеш пароля пользователя
func (s *Store) PasswordHashByEmail(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.passwords[email]
	return hash, ok
}

// AddUser добавляет нового пользователя
func (s *Store) AddUser(user models.User, passwordHash string) error {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].Email == user.Email {
			return models.ErrEmailTaken
		}
	}
	s.users = append(s.users, user)
	s.passwords[user.Email] = passwordHash
	return nil
}

// UpdateUser применяет частичное обновление профиля
func (s *Store) UpdateUser(id uuid.UUID, upd models.ProfileUpdate) (*models.User, error) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			upd.Apply(&s.users[i])
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

// --- Объявления ---

// Listings возвращает все объявления, новые первыми
func (s *Store) Listings() []models.BookListing {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedListings(s.listings)
}

// ListingByID возвращает копию объявления по ID
func (s *Store) ListingByID(id uuid.UUID) (*models.BookListing, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			l := s.listings[i]
			return &l, true
		}
	}
	return nil, false
}

// ListingsBySeller возвращает объявления продавца, новые первыми
func (s *Store) ListingsBySeller(sellerID uuid.UUID) []models.BookListing {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.BookListing
	for i := range s.listings {
		if s.listings[i].SellerID == sellerID {
			result = append(result, s.listings[i])
		}
	}
	return sortedListings(result)
}

// AddListing добавляет объявление
func (s *Store) AddListing(listing models.BookListing) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listings = append(s.listings, listing)
}

// UpdateListing применяет частичное обновление объявления
func (s *Store) UpdateListing(id uuid.UUID, upd models.ListingUpdate) (*models.BookListing, error) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			upd.Apply(&s.listings[i])
			l := s.listings[i]
			return &l, nil
		}
	}
	return nil, models.ErrNotFound
}

// DeleteListing удаляет объявление
func (s *Store) DeleteListing(id uuid.UUID) error {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.listings {
		if s.listings[i].ID == id {
			s.listings = append(s.listings[:i], s.listings[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func sortedListings(listings []models.BookListing) []models.BookListing {
	result := make([]models.BookListing, len(listings))
	copy(result, listings)
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// --- Сохраненные объявления ---

// IsSaved проверяет, сохранено ли объявление у пользователя
func (s *Store) IsSaved(userID, listingID uuid.UUID, savedType string) bool {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findSaved(userID, listingID, savedType) >= 0
}

// AddSaved сохраняет объявление у пользователя. Повторное сохранение
// той же пары — no-op
func (s *Store) AddSaved(userID, listingID uuid.UUID, savedType string) models.SavedItem {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findSaved(userID, listingID, savedType); i >= 0 {
		return s.savedItems[i]
	}

	item := models.SavedItem{
		ID:        uuid.New(),
		UserID:    userID,
		ListingID: listingID,
		Type:      savedType,
		CreatedAt: time.Now(),
	}
	s.savedItems = append(s.savedItems, item)
	return item
}

// RemoveSaved удаляет сохраненное объявление. Удаление несохраненного — no-op
func (s *Store) RemoveSaved(userID, listingID uuid.UUID, savedType string) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findSaved(userID, listingID, savedType); i >= 0 {
		s.savedItems = append(s.savedItems[:i], s.savedItems[i+1:]...)
	}
}

// SavedListingIDs возвращает ID сохраненных объявлений, свежие первыми
func (s *Store) SavedListingIDs(userID uuid.UUID, savedType string) []uuid.UUID {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.SavedItem, 0)
	for i := range s.savedItems {
		if s.savedItems[i].UserID == userID && s.savedItems[i].Type == savedType {
			items = append(items, s.savedItems[i])
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ListingID
	}
	return ids
}

func (s *Store) findSaved(userID, listingID uuid.UUID, savedType string) int {
	for i := range s.savedItems {
		if s.savedItems[i].UserID == userID &&
			s.savedItems[i].ListingID == listingID &&
			s.savedItems[i].Type == savedType {
			return i
		}
	}
	return -1
}

// --- Переписки и сообщения ---

// ConversationsForUser возвращает активные переписки пользователя,
// отсортированные по времени последнего сообщения
func (s *Store) ConversationsForUser(userID uuid.UUID) []models.Conversation {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Conversation
	for i := range s.convs {
		c := s.convs[i]
		if c.IsActive && (c.BuyerID == userID || c.SellerID == userID) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastMessageAt.After(result[j].LastMessageAt)
	})
	return result
}

// ConversationByID возвращает копию переписки по ID
func (s *Store) ConversationByID(id uuid.UUID) (*models.Conversation, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.convs {
		if s.convs[i].ID == id {
			c := s.convs[i]
			return &c, true
		}
	}
	return nil, false
}

// FindActiveConversation ищет активную переписку по тройке
// (объявление, покупатель, продавец)
func (s *Store) FindActiveConversation(listingID, buyerID, sellerID uuid.UUID) (*models.Conversation, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.convs {
		c := s.convs[i]
		if c.IsActive && c.ListingID == listingID && c.BuyerID == buyerID && c.SellerID == sellerID {
			return &c, true
		}
	}
	return nil, false
}

// AddConversation добавляет переписку
func (s *Store) AddConversation(conv models.Conversation) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs = append(s.convs, conv)
}

// TouchConversation обновляет время последнего сообщения переписки
func (s *Store) TouchConversation(id uuid.UUID, at time.Time) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.convs {
		if s.convs[i].ID == id {
			s.convs[i].LastMessageAt = at
			return
		}
	}
}

// MessagesForConversation возвращает сообщения переписки
// в хронологическом порядке
func (s *Store) MessagesForConversation(convID uuid.UUID) []models.Message {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.Message
	for i := range s.messages {
		if s.messages[i].ConversationID == convID {
			result = append(result, s.messages[i])
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// LastMessage возвращает последнее по времени сообщение переписки
func (s *Store) LastMessage(convID uuid.UUID) (*models.Message, bool) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	var last *models.Message
	for i := range s.messages {
		m := s.messages[i]
		if m.ConversationID != convID {
			continue
		}
		if last == nil || m.CreatedAt.After(last.CreatedAt) {
			last = &s.messages[i]
		}
	}
	if last == nil {
		return nil, false
	}
	m := *last
	return &m, true
}

// AddMessage добавляет сообщение
func (s *Store) AddMessage(msg models.Message) {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, msg)
}

// MarkMessagesRead отмечает прочитанными все сообщения переписки,
// адресованные получателю. Повторный вызов — no-op
func (s *Store) MarkMessagesRead(convID, receiverID uuid.UUID) int {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for i := range s.messages {
		m := &s.messages[i]
		if m.ConversationID == convID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			updated++
		}
	}
	return updated
}

// UnreadCount возвращает число непрочитанных сообщений переписки
// с точки зрения пользователя
func (s *Store) UnreadCount(convID, userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := range s.messages {
		m := s.messages[i]
		if m.ConversationID == convID && m.ReceiverID == userID && !m.Read {
			count++
		}
	}
	return count
}

// TotalUnread возвращает число непрочитанных сообщений пользователя
// по всем перепискам
func (s *Store) TotalUnread(userID uuid.UUID) int {
	s.simulate()
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := range s.messages {
		m := s.messages[i]
		if m.ReceiverID == userID && !m.Read {
			count++
		}
	}
	return count
}

// hashPassword возвращает bcrypt-хеш пароля для посевных пользователей
func hashPassword(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		// GenerateFromPassword с дефолтной стоимостью не возвращает ошибок
		panic(err)
	}
	return string(hash)
}
