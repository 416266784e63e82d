package chat

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API переписки
func (s *ChatService) SetupRoutes(app *fiber.App) {
	authMW := middleware.AuthMiddleware(s.jwtService)
	optionalMW := middleware.OptionalAuthMiddleware(s.jwtService)

	api := app.Group("/api/chats")

	// Счетчик непрочитанных деградирует для анонимных пользователей
	api.Get("/unread", s.UnreadCountHandler, optionalMW)

	// Остальные маршруты требуют авторизации
	api.Get("/", s.GetConversationsHandler, authMW)
	api.Post("/", s.StartConversationHandler, authMW)
	api.Get("/:id/messages", s.GetMessagesHandler, authMW)
	api.Post("/:id/messages", s.SendMessageHandler, authMW)
	api.Post("/:id/read", s.MarkReadHandler, authMW)
}
