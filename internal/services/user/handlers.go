package user

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// SignUpHandler обрабатывает регистрацию нового пользователя
func (s *UserService) SignUpHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.SignUp(ctx, payload.Email, payload.Password, payload.Name)
	if err != nil {
		return respondError(c, err, "Ошибка регистрации")
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// SignInHandler обрабатывает вход по email и паролю
func (s *UserService) SignInHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.SignIn(ctx, payload.Email, payload.Password)
	if err != nil {
		return respondError(c, err, "Ошибка входа")
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка генерации токена"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// TelegramAuthHandler проверяет initData, создает JWT и возвращает его
func (s *UserService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.TelegramSignIn(ctx, payload.InitData)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Telegram data"})
		}
		return respondError(c, err, "Ошибка входа через Telegram")
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate JWT"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// SignOutHandler закрывает сессию пользователя
func (s *UserService) SignOutHandler(c fiber.Ctx) error {
	userUUID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.SignOut(ctx, userUUID); err != nil {
		return respondError(c, err, "Ошибка выхода")
	}

	return c.JSON(fiber.Map{"success": true})
}

// MeHandler возвращает профиль текущего пользователя
func (s *UserService) MeHandler(c fiber.Ctx) error {
	userUUID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.GetCurrentUser(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения профиля")
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Профиль не найден"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// GetUserHandler возвращает публичный профиль по ID
func (s *UserService) GetUserHandler(c fiber.Ctx) error {
	userUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.GetUserByID(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения профиля")
	}
	if user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfileHandler применяет частичное обновление профиля
func (s *UserService) UpdateProfileHandler(c fiber.Ctx) error {
	userUUID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var upd models.ProfileUpdate
	if err := c.Bind().Body(&upd); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	user, err := s.UpdateProfile(ctx, userUUID, upd)
	if err != nil {
		return respondError(c, err, "Ошибка обновления профиля")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// currentUserID достает ID авторизованного пользователя из контекста
func currentUserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, models.ErrUnauthorized
	}
	return uuid.Parse(userID)
}

// respondError переводит доменную ошибку в HTTP-ответ
func respondError(c fiber.Ctx, err error, fallbackMsg string) error {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	case errors.Is(err, models.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email уже зарегистрирован"})
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallbackMsg, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallbackMsg})
	}
}
