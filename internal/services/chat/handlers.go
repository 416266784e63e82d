package chat

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// GetConversationsHandler возвращает список переписок пользователя
func (s *ChatService) GetConversationsHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conversations, err := s.GetConversations(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения переписок")
	}

	return c.JSON(fiber.Map{
		"conversations": conversations,
		"count":         len(conversations),
	})
}

// StartConversationHandler открывает переписку по объявлению
func (s *ChatService) StartConversationHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var payload struct {
		ListingID string `json:"listing_id"`
		SellerID  string `json:"seller_id"`
		Message   string `json:"message"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	listingUUID, err := uuid.Parse(payload.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}
	sellerUUID, err := uuid.Parse(payload.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID продавца"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	conv, err := s.StartConversation(ctx, listingUUID, sellerUUID, userUUID, payload.Message)
	if err != nil {
		return respondError(c, err, "Ошибка создания переписки")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conv})
}

// GetMessagesHandler возвращает сообщения переписки
func (s *ChatService) GetMessagesHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID переписки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	messages, err := s.GetMessages(ctx, convUUID, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения сообщений")
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessageHandler отправляет сообщение в переписку
func (s *ChatService) SendMessageHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID переписки"})
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	msg, err := s.SendMessage(ctx, convUUID, userUUID, payload.Content)
	if err != nil {
		return respondError(c, err, "Ошибка отправки сообщения")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": msg})
}

// MarkReadHandler отмечает сообщения переписки прочитанными
func (s *ChatService) MarkReadHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID переписки"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.MarkMessagesAsRead(ctx, convUUID, userUUID); err != nil {
		return respondError(c, err, "Ошибка отметки сообщений")
	}

	return c.JSON(fiber.Map{"success": true})
}

// UnreadCountHandler возвращает общее число непрочитанных сообщений.
// Для анонимного пользователя возвращает 0
func (s *ChatService) UnreadCountHandler(c fiber.Ctx) error {
	userUUID := optionalUserID(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	count, err := s.GetUnreadCount(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения числа непрочитанных")
	}

	return c.JSON(fiber.Map{"unread_count": count})
}

// requiredUserID достает ID авторизованного пользователя из контекста
func requiredUserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, models.ErrUnauthorized
	}
	return uuid.Parse(userID)
}

// optionalUserID достает ID пользователя, допускается анонимный вызов
func optionalUserID(c fiber.Ctx) uuid.UUID {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil
	}
	return userUUID
}

// respondError переводит доменную ошибку в HTTP-ответ
func respondError(c fiber.Ctx, err error, fallbackMsg string) error {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет доступа к этой переписке"})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Переписка не найдена"})
	default:
		log.Printf("%s: %v", fallbackMsg, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallbackMsg})
	}
}
