package listing

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// GetListingsHandler возвращает каталог объявлений. Поддерживает поиск,
// фильтр по категории и составные фильтры через query-параметры
func (s *ListingService) GetListingsHandler(c fiber.Ctx) error {
	ctx, cancel := db.GetContext()
	defer cancel()

	var listings []models.BookListing
	var err error

	switch {
	case c.Query("search") != "":
		listings, err = s.SearchListings(ctx, c.Query("search"))
	case hasFilterParams(c):
		listings, err = s.GetFilteredListings(ctx, filtersFromQuery(c))
	case c.Query("category") != "":
		listings, err = s.GetListingsByCategory(ctx, c.Query("category"))
	default:
		listings, err = s.GetListings(ctx)
	}

	if err != nil {
		return respondError(c, err, "Ошибка получения объявлений")
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// hasFilterParams проверяет, заданы ли составные фильтры каталога
func hasFilterParams(c fiber.Ctx) bool {
	return c.Query("categories") != "" || c.Query("conditions") != "" ||
		c.Query("min_price") != "" || c.Query("max_price") != "" ||
		c.Query("negotiable") != "" || c.Query("exchange") != ""
}

// filtersFromQuery собирает фильтры каталога из query-параметров
func filtersFromQuery(c fiber.Ctx) models.ListingFilters {
	var filters models.ListingFilters

	if v := c.Query("categories"); v != "" {
		filters.Categories = strings.Split(v, ",")
	} else if v := c.Query("category"); v != "" {
		filters.Categories = []string{v}
	}
	if v := c.Query("conditions"); v != "" {
		filters.Conditions = strings.Split(v, ",")
	}
	if v := c.Query("min_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MinPrice = &price
		}
	}
	if v := c.Query("max_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			filters.MaxPrice = &price
		}
	}
	if v := c.Query("negotiable"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filters.IsNegotiable = &b
		}
	}
	if v := c.Query("exchange"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filters.ExchangeOption = &b
		}
	}

	return filters
}

// GetListingHandler возвращает одно объявление по ID
func (s *ListingService) GetListingHandler(c fiber.Ctx) error {
	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := s.GetListingByID(ctx, listingUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения объявления")
	}

	return c.JSON(fiber.Map{"listing": listing})
}

// GetSellerListingsHandler возвращает объявления продавца
func (s *ListingService) GetSellerListingsHandler(c fiber.Ctx) error {
	sellerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID продавца"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listings, err := s.GetListingsBySeller(ctx, sellerUUID)
	if err != nil {
		return respondError(c, err, "Ошибка получения объявлений")
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"count":    len(listings),
	})
}

// CreateListingHandler создает новое объявление
func (s *ListingService) CreateListingHandler(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var listing models.BookListing
	if err := c.Bind().Body(&listing); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	created, err := s.CreateListing(ctx, userUUID, listing)
	if err != nil {
		return respondError(c, err, "Ошибка создания объявления")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"listing": created,
	})
}

// UpdateListingHandler применяет частичное обновление объявления
func (s *ListingService) UpdateListingHandler(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	var upd models.ListingUpdate
	if err := c.Bind().Body(&upd); err != nil {
		log.Printf("Ошибка чтения тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	listing, err := s.UpdateListing(ctx, listingUUID, userUUID, upd)
	if err != nil {
		return respondError(c, err, "Ошибка обновления объявления")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"listing": listing,
	})
}

// DeleteListingHandler удаляет объявление
func (s *ListingService) DeleteListingHandler(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.DeleteListing(ctx, listingUUID, userUUID); err != nil {
		return respondError(c, err, "Ошибка удаления объявления")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно удалено",
	})
}

// respondError переводит доменную ошибку в HTTP-ответ
func respondError(c fiber.Ctx, err error, fallbackMsg string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
	case errors.Is(err, models.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "У вас нет доступа к этому объявлению"})
	case errors.Is(err, models.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("%s: %v", fallbackMsg, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": fallbackMsg})
	}
}
