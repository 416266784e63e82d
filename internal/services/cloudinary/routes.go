package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/bookswap-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API загрузки изображений
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	authMW := middleware.AuthMiddleware(s.jwtService)

	api := app.Group("/api/upload")

	api.Get("/params", s.GenerateUploadParams, authMW)
	api.Delete("/asset", s.DestroyAssetHandler, authMW)
}
