package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, err := userIDFromHeader(c, jwtService)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		// Добавляем userID в контекст
		c.Locals("userID", userID)

		return c.Next()
	}
}

// OptionalAuthMiddleware пропускает запрос и без токена: userID остается
// пустым, а обработчик сам решает, как деградировать для анонима
func OptionalAuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, err := userIDFromHeader(c, jwtService)
		if err != nil {
			userID = ""
		}

		c.Locals("userID", userID)

		return c.Next()
	}
}

// userIDFromHeader разбирает Bearer-токен и возвращает валидный userID
func userIDFromHeader(c fiber.Ctx, jwtService *utils.JWTService) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Missing authorization header")
	}

	// Проверяем Bearer токен
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	userID, err := jwtService.ExtractUserID(parts[1])
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	// Проверяем, что userID является валидным UUID
	if _, err = uuid.Parse(userID); err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}

	return userID, nil
}
