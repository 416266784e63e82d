package saveditem

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// AddHandler сохраняет объявление у текущего пользователя
func (s *SavedItemService) AddHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var payload struct {
		ListingID string `json:"listing_id"`
		Type      string `json:"type"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	listingUUID, err := uuid.Parse(payload.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.AddSavedItem(ctx, userUUID, listingUUID, payload.Type); err != nil {
		return respondError(c, err, "Ошибка добавления в сохраненное")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// RemoveHandler удаляет сохраненное объявление
func (s *SavedItemService) RemoveHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.RemoveSavedItem(ctx, userUUID, listingUUID, savedTypeFromQuery(c)); err != nil {
		return respondError(c, err, "Ошибка удаления из сохраненного")
	}

	return c.JSON(fiber.Map{"success": true})
}

// CheckHandler проверяет, сохранено ли объявление. Для анонимного
// пользователя возвращает false вместо ошибки
func (s *SavedItemService) CheckHandler(c fiber.Ctx) error {
	userUUID := optionalUserID(c)

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	saved, err := s.IsSavedItem(ctx, userUUID, listingUUID, savedTypeFromQuery(c))
	if err != nil {
		return respondError(c, err, "Ошибка проверки сохраненного")
	}

	return c.JSON(fiber.Map{"is_saved": saved})
}

// ToggleHandler переключает сохранение объявления
func (s *SavedItemService) ToggleHandler(c fiber.Ctx) error {
	userUUID, err := requiredUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	saved, err := s.ToggleSavedItem(ctx, userUUID, listingUUID, savedTypeFromQuery(c))
	if err != nil {
		return respondError(c, err, "Ошибка переключения сохраненного")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"is_saved": saved,
	})
}

// ListHandler возвращает сохраненные объявления пользователя.
// Для анонимного пользователя возвращает пустой список
func (s *SavedItemService) ListHandler(c fiber.Ctx) error {
	userUUID := optionalUserID(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.GetSavedItems(ctx, userUUID, savedTypeFromQuery(c))
	if err != nil {
		return respondError(c, err, "Ошибка получения сохраненных объявлений")
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// FavoritesHandler возвращает избранные объявления пользователя
func (s *SavedItemService) FavoritesHandler(c fiber.Ctx) error {
	userUUID := optionalUserID(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.GetFavorites(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения избранного")
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// WishlistHandler возвращает список желаний пользователя
func (s *SavedItemService) WishlistHandler(c fiber.Ctx) error {
	userUUID := optionalUserID(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.GetWishlist(ctx, userUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения списка желаний")
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// savedTypeFromQuery возвращает тип сохранения из query-параметра,
// по умолчанию избранное
func savedTypeFromQuery(c fiber.Ctx) string {
	savedType := c.Query("type", models.SavedTypeFavorite)
	return savedType
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
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
	default:
		log.Printf("%s: %v", fallbackMsg, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallbackMsg})
	}
}
