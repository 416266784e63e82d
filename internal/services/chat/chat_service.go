package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/fallback"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
	"github.com/rajivgeraev/bookswap-api/internal/websocket"
)

// ChatService представляет сервис для работы с перепиской.
// Работает с таблицами conversations и messages: отсутствие любой из них
// переводит весь сервис на демо-данные, частичный переход непредставим
type ChatService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	db         db.Querier
	mock       *mockdata.Store
	ws         *websocket.Manager
	flag       fallback.Flag
}

// NewChatService создает новый экземпляр ChatService.
// wsManager может быть nil — тогда события в реальном времени не шлются
func NewChatService(cfg *config.Config, querier db.Querier, mock *mockdata.Store, wsManager *websocket.Manager) *ChatService {
	return &ChatService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		db:         querier,
		mock:       mock,
		ws:         wsManager,
	}
}

// GetConversations возвращает активные переписки пользователя,
// обогащенные данными для списка чатов, по убыванию времени
// последнего сообщения
func (s *ChatService) GetConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationPreview, error) {
	if s.flag.Tripped() {
		return s.mockConversations(userID), nil
	}

	previews, err := s.remoteConversations(ctx, userID)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockConversations(userID), nil
		}
		return nil, err
	}
	return previews, nil
}

func (s *ChatService) remoteConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationPreview, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, created_at, last_message_at, is_active
		FROM conversations
		WHERE is_active = true AND (buyer_id = $1 OR seller_id = $1)
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.ListingID,
			&conv.BuyerID,
			&conv.SellerID,
			&conv.CreatedAt,
			&conv.LastMessageAt,
			&conv.IsActive,
		); err != nil {
			log.Printf("Ошибка сканирования переписки: %v", err)
			continue
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Обогащаем каждую переписку независимыми запросами.
	// Недоступный собеседник или объявление подменяются заглушкой,
	// а не валят весь список
	previews := make([]models.ConversationPreview, 0, len(convs))
	for _, conv := range convs {
		preview := models.ConversationPreview{Conversation: conv}

		var unread int
		err = s.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM messages
			WHERE conversation_id = $1 AND receiver_id = $2 AND read = false
		`, conv.ID, userID).Scan(&unread)
		if err != nil {
			return nil, err
		}
		preview.UnreadCount = unread

		var lastMessage pgtype.Text
		err = s.db.QueryRow(ctx, `
			SELECT content FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		`, conv.ID).Scan(&lastMessage)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if lastMessage.Valid {
			preview.LastMessage = lastMessage.String
		}

		preview.OtherUser = s.getUserInfo(ctx, otherParticipant(&conv, userID))
		preview.Listing = s.getListingInfo(ctx, conv.ListingID)

		previews = append(previews, preview)
	}

	return previews, nil
}

func (s *ChatService) mockConversations(userID uuid.UUID) []models.ConversationPreview {
	convs := s.mock.ConversationsForUser(userID)

	previews := make([]models.ConversationPreview, 0, len(convs))
	for _, conv := range convs {
		preview := models.ConversationPreview{Conversation: conv}
		preview.UnreadCount = s.mock.UnreadCount(conv.ID, userID)

		if last, ok := s.mock.LastMessage(conv.ID); ok {
			preview.LastMessage = last.Content
		}

		otherID := otherParticipant(&conv, userID)
		if other, ok := s.mock.UserByID(otherID); ok {
			preview.OtherUser = &models.UserInfo{
				ID:           other.ID,
				Name:         other.Name,
				ProfileImage: other.ProfileImage,
			}
		} else {
			preview.OtherUser = unknownUser(otherID)
		}

		if l, ok := s.mock.ListingByID(conv.ListingID); ok {
			preview.Listing = &models.ListingInfo{
				ID:       l.ID,
				Title:    l.Title,
				ImageURL: l.ImageURL,
				Price:    l.Price,
			}
		} else {
			preview.Listing = unknownListing(conv.ListingID)
		}

		previews = append(previews, preview)
	}
	return previews
}

// GetMessages возвращает сообщения переписки в хронологическом порядке
func (s *ChatService) GetMessages(ctx context.Context, convID, userID uuid.UUID) ([]models.Message, error) {
	if s.flag.Tripped() {
		if _, err := s.mockConversationForUser(convID, userID); err != nil {
			return nil, err
		}
		return s.mock.MessagesForConversation(convID), nil
	}

	messages, err := s.remoteMessages(ctx, convID, userID)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			if _, mockErr := s.mockConversationForUser(convID, userID); mockErr != nil {
				return nil, mockErr
			}
			return s.mock.MessagesForConversation(convID), nil
		}
		return nil, err
	}
	return messages, nil
}

func (s *ChatService) remoteMessages(ctx context.Context, convID, userID uuid.UUID) ([]models.Message, error) {
	if _, err := s.remoteConversationForUser(ctx, convID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, content, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`, convID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Content,
			&msg.Read,
			&msg.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования сообщения: %v", err)
			continue
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage отправляет сообщение в переписку от имени пользователя.
// Получатель — второй участник переписки
func (s *ChatService) SendMessage(ctx context.Context, convID, senderID uuid.UUID, content string) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: текст сообщения не может быть пустым", models.ErrValidation)
	}

	if s.flag.Tripped() {
		return s.mockSendMessage(convID, senderID, content)
	}

	msg, err := s.remoteSendMessage(ctx, convID, senderID, content)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockSendMessage(convID, senderID, content)
		}
		return nil, err
	}

	s.notifyNewMessage(msg)
	return msg, nil
}

func (s *ChatService) remoteSendMessage(ctx context.Context, convID, senderID uuid.UUID, content string) (*models.Message, error) {
	conv, err := s.remoteConversationForUser(ctx, convID, senderID)
	if err != nil {
		return nil, err
	}

	msg := newMessage(conv, senderID, content)

	_, err = s.db.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Read, msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE conversations SET last_message_at = $1 WHERE id = $2
	`, msg.CreatedAt, convID)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *ChatService) mockSendMessage(convID, senderID uuid.UUID, content string) (*models.Message, error) {
	conv, err := s.mockConversationForUser(convID, senderID)
	if err != nil {
		return nil, err
	}

	msg := newMessage(conv, senderID, content)
	s.mock.AddMessage(*msg)
	s.mock.TouchConversation(convID, msg.CreatedAt)

	s.notifyNewMessage(msg)
	return msg, nil
}

// newMessage строит сообщение от участника переписки второму участнику
func newMessage(conv *models.Conversation, senderID uuid.UUID, content string) *models.Message {
	return &models.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		ReceiverID:     otherParticipant(conv, senderID),
		Content:        content,
		Read:           false,
		CreatedAt:      time.Now(),
	}
}

// MarkMessagesAsRead отмечает прочитанными все адресованные пользователю
// сообщения переписки. Повторный вызов — no-op
func (s *ChatService) MarkMessagesAsRead(ctx context.Context, convID, userID uuid.UUID) error {
	if s.flag.Tripped() {
		s.mock.MarkMessagesRead(convID, userID)
		return nil
	}

	_, err := s.db.Exec(ctx, `
		UPDATE messages SET read = true
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = false
	`, convID, userID)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			s.mock.MarkMessagesRead(convID, userID)
			return nil
		}
		return err
	}
	return nil
}

// StartConversation открывает переписку покупателя с продавцом
// по объявлению. Если активная переписка по тройке (объявление,
// покупатель, продавец) уже есть, сообщение добавляется в нее:
// дубликаты переписок не создаются
func (s *ChatService) StartConversation(ctx context.Context, listingID, sellerID, buyerID uuid.UUID, content string) (*models.Conversation, error) {
	if buyerID == sellerID {
		return nil, fmt.Errorf("%w: нельзя начать переписку с самим собой", models.ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("%w: текст сообщения не может быть пустым", models.ErrValidation)
	}

	if s.flag.Tripped() {
		return s.mockStartConversation(listingID, sellerID, buyerID, content)
	}

	conv, err := s.remoteStartConversation(ctx, listingID, sellerID, buyerID, content)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockStartConversation(listingID, sellerID, buyerID, content)
		}
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) remoteStartConversation(ctx context.Context, listingID, sellerID, buyerID uuid.UUID, content string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, created_at, last_message_at, is_active
		FROM conversations
		WHERE listing_id = $1 AND buyer_id = $2 AND seller_id = $3 AND is_active = true
	`, listingID, buyerID, sellerID).Scan(
		&conv.ID,
		&conv.ListingID,
		&conv.BuyerID,
		&conv.SellerID,
		&conv.CreatedAt,
		&conv.LastMessageAt,
		&conv.IsActive,
	)

	if err == nil {
		msg, sendErr := s.remoteSendMessage(ctx, conv.ID, buyerID, content)
		if sendErr != nil {
			return nil, sendErr
		}
		conv.LastMessageAt = msg.CreatedAt
		s.notifyNewMessage(msg)
		return &conv, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	conv = models.Conversation{
		ID:            uuid.New(),
		ListingID:     listingID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		CreatedAt:     now,
		LastMessageAt: now,
		IsActive:      true,
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO conversations (id, listing_id, buyer_id, seller_id, created_at, last_message_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, conv.ID, conv.ListingID, conv.BuyerID, conv.SellerID, conv.CreatedAt, conv.LastMessageAt, conv.IsActive)
	if err != nil {
		return nil, err
	}

	msg := newMessage(&conv, buyerID, content)
	msg.CreatedAt = now

	_, err = s.db.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Read, msg.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.notifyNewMessage(msg)
	return &conv, nil
}

func (s *ChatService) mockStartConversation(listingID, sellerID, buyerID uuid.UUID, content string) (*models.Conversation, error) {
	if conv, ok := s.mock.FindActiveConversation(listingID, buyerID, sellerID); ok {
		msg := newMessage(conv, buyerID, content)
		s.mock.AddMessage(*msg)
		s.mock.TouchConversation(conv.ID, msg.CreatedAt)
		conv.LastMessageAt = msg.CreatedAt
		s.notifyNewMessage(msg)
		return conv, nil
	}

	now := time.Now()
	conv := models.Conversation{
		ID:            uuid.New(),
		ListingID:     listingID,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		CreatedAt:     now,
		LastMessageAt: now,
		IsActive:      true,
	}
	s.mock.AddConversation(conv)

	msg := newMessage(&conv, buyerID, content)
	msg.CreatedAt = now
	s.mock.AddMessage(*msg)

	s.notifyNewMessage(msg)
	return &conv, nil
}

// GetUnreadCount возвращает общее число непрочитанных сообщений
// пользователя. Для анонимного пользователя всегда 0
func (s *ChatService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}

	if s.flag.Tripped() {
		return s.mock.TotalUnread(userID), nil
	}

	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND read = false
	`, userID).Scan(&count)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.TotalUnread(userID), nil
		}
		return 0, err
	}
	return count, nil
}

// remoteConversationForUser читает переписку и проверяет,
// что пользователь — ее участник
func (s *ChatService) remoteConversationForUser(ctx context.Context, convID, userID uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.QueryRow(ctx, `
		SELECT id, listing_id, buyer_id, seller_id, created_at, last_message_at, is_active
		FROM conversations
		WHERE id = $1
	`, convID).Scan(
		&conv.ID,
		&conv.ListingID,
		&conv.BuyerID,
		&conv.SellerID,
		&conv.CreatedAt,
		&conv.LastMessageAt,
		&conv.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	if conv.BuyerID != userID && conv.SellerID != userID {
		return nil, models.ErrForbidden
	}
	return &conv, nil
}

// mockConversationForUser — демо-аналог remoteConversationForUser
func (s *ChatService) mockConversationForUser(convID, userID uuid.UUID) (*models.Conversation, error) {
	conv, ok := s.mock.ConversationByID(convID)
	if !ok {
		return nil, models.ErrNotFound
	}
	if conv.BuyerID != userID && conv.SellerID != userID {
		return nil, models.ErrForbidden
	}
	return conv, nil
}

// otherParticipant возвращает второго участника переписки
func otherParticipant(conv *models.Conversation, userID uuid.UUID) uuid.UUID {
	if conv.BuyerID == userID {
		return conv.SellerID
	}
	return conv.BuyerID
}

// getUserInfo получает данные собеседника, при недоступности — заглушку
func (s *ChatService) getUserInfo(ctx context.Context, userID uuid.UUID) *models.UserInfo {
	var info models.UserInfo
	var profileImage pgtype.Text

	err := s.db.QueryRow(ctx, `
		SELECT id, name, profile_image FROM profiles WHERE id = $1
	`, userID).Scan(&info.ID, &info.Name, &profileImage)
	if err != nil {
		log.Printf("Ошибка получения данных пользователя %s: %v", userID, err)
		return unknownUser(userID)
	}

	if profileImage.Valid {
		info.ProfileImage = profileImage.String
	}
	return &info
}

// getListingInfo получает данные объявления, при недоступности — заглушку
func (s *ChatService) getListingInfo(ctx context.Context, listingID uuid.UUID) *models.ListingInfo {
	var info models.ListingInfo
	var imageURL pgtype.Text

	err := s.db.QueryRow(ctx, `
		SELECT id, title, image_url, price FROM listings WHERE id = $1
	`, listingID).Scan(&info.ID, &info.Title, &imageURL, &info.Price)
	if err != nil {
		log.Printf("Ошибка получения данных объявления %s: %v", listingID, err)
		return unknownListing(listingID)
	}

	if imageURL.Valid {
		info.ImageURL = imageURL.String
	}
	return &info
}

func unknownUser(userID uuid.UUID) *models.UserInfo {
	return &models.UserInfo{ID: userID, Name: "Unknown User"}
}

func unknownListing(listingID uuid.UUID) *models.ListingInfo {
	return &models.ListingInfo{ID: listingID, Title: "Unknown Book", Price: 0}
}

// notifyNewMessage шлет получателю событие о новом сообщении и обновленный
// счетчик непрочитанных. Доставка best-effort: недоступный менеджер или
// офлайн-получатель не мешают отправке
func (s *ChatService) notifyNewMessage(msg *models.Message) {
	if s.ws == nil {
		return
	}
	s.ws.NotifyNewMessage(msg)

	go func() {
		ctx, cancel := db.GetContext()
		defer cancel()

		count, err := s.GetUnreadCount(ctx, msg.ReceiverID)
		if err != nil {
			log.Printf("Ошибка подсчета непрочитанных для %s: %v", msg.ReceiverID, err)
			return
		}
		s.ws.BroadcastUnreadCount(msg.ReceiverID.String(), count)
	}()
}

// tripToMock фиксирует переход сервиса переписки на демо-данные
func (s *ChatService) tripToMock(err error) {
	log.Printf("Таблицы переписки отсутствуют, переходим на демо-данные: %v", err)
	s.flag.Trip()
}
