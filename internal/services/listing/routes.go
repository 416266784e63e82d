package listing

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений
func (s *ListingService) SetupRoutes(app *fiber.App) {
	authMW := middleware.AuthMiddleware(s.jwtService)

	api := app.Group("/api/listings")

	// Публичные маршруты каталога
	api.Get("/", s.GetListingsHandler)
	api.Get("/seller/:id", s.GetSellerListingsHandler)
	api.Get("/:id", s.GetListingHandler)

	// Защищенные маршруты (требуют авторизации)
	api.Post("/", s.CreateListingHandler, authMW)
	api.Put("/:id", s.UpdateListingHandler, authMW)
	api.Delete("/:id", s.DeleteListingHandler, authMW)
}
