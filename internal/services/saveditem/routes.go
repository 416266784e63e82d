package saveditem

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сохраненных объявлений
func (s *SavedItemService) SetupRoutes(app *fiber.App) {
	authMW := middleware.AuthMiddleware(s.jwtService)
	optionalMW := middleware.OptionalAuthMiddleware(s.jwtService)

	api := app.Group("/api/saved")

	// Чтение деградирует для анонимных пользователей
	api.Get("/", s.ListHandler, optionalMW)
	api.Get("/favorites", s.FavoritesHandler, optionalMW)
	api.Get("/wishlist", s.WishlistHandler, optionalMW)
	api.Get("/:id/check", s.CheckHandler, optionalMW)

	// Изменения требуют авторизации
	api.Post("/", s.AddHandler, authMW)
	api.Delete("/:id", s.RemoveHandler, authMW)
	api.Post("/:id/toggle", s.ToggleHandler, authMW)
}
