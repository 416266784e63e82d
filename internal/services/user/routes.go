package user

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API пользователей
func (s *UserService) SetupRoutes(app *fiber.App) {
	authMW := middleware.AuthMiddleware(s.jwtService)

	// Публичные маршруты авторизации
	auth := app.Group("/api/auth")
	auth.Post("/signup", s.SignUpHandler)
	auth.Post("/signin", s.SignInHandler)
	auth.Post("/telegram", s.TelegramAuthHandler)
	auth.Post("/signout", s.SignOutHandler, authMW)

	// Профили (требуют авторизации)
	users := app.Group("/api/users")
	users.Use(authMW)
	users.Get("/me", s.MeHandler)
	users.Put("/me", s.UpdateProfileHandler)
	users.Get("/:id", s.GetUserHandler)
}
