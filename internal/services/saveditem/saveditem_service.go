package saveditem

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/fallback"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/services/listing"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// SavedItemService представляет сервис избранного и списка желаний.
// Работает с таблицей saved_items; при ее отсутствии переходит
// на демо-данные. Полные карточки объявлений собирает через
// сервис объявлений
type SavedItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	db         db.Querier
	mock       *mockdata.Store
	listings   *listing.ListingService
	flag       fallback.Flag
}

// NewSavedItemService создает новый экземпляр SavedItemService
func NewSavedItemService(cfg *config.Config, querier db.Querier, mock *mockdata.Store, listings *listing.ListingService) *SavedItemService {
	return &SavedItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		db:         querier,
		mock:       mock,
		listings:   listings,
	}
}

// AddSavedItem сохраняет объявление у пользователя. Повторное сохранение
// той же пары — no-op
func (s *SavedItemService) AddSavedItem(ctx context.Context, userID, listingID uuid.UUID, savedType string) error {
	if userID == uuid.Nil {
		return models.ErrUnauthorized
	}
	if !models.ValidSavedType(savedType) {
		return fmt.Errorf("%w: недопустимый тип сохранения", models.ErrValidation)
	}

	if s.flag.Tripped() {
		s.mock.AddSaved(userID, listingID, savedType)
		return nil
	}

	err := s.remoteAdd(ctx, userID, listingID, savedType)
	if err != nil && db.IsUndefinedTable(err) {
		s.tripToMock(err)
		s.mock.AddSaved(userID, listingID, savedType)
		return nil
	}
	return err
}

func (s *SavedItemService) remoteAdd(ctx context.Context, userID, listingID uuid.UUID, savedType string) error {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM saved_items WHERE user_id = $1 AND listing_id = $2 AND type = $3)
	`, userID, listingID, savedType).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO saved_items (id, user_id, listing_id, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), userID, listingID, savedType, time.Now())
	return err
}

// RemoveSavedItem удаляет сохраненное объявление. Удаление
// несохраненного — no-op
func (s *SavedItemService) RemoveSavedItem(ctx context.Context, userID, listingID uuid.UUID, savedType string) error {
	if userID == uuid.Nil {
		return models.ErrUnauthorized
	}
	if !models.ValidSavedType(savedType) {
		return fmt.Errorf("%w: недопустимый тип сохранения", models.ErrValidation)
	}

	if s.flag.Tripped() {
		s.mock.RemoveSaved(userID, listingID, savedType)
		return nil
	}

	_, err := s.db.Exec(ctx, `
		DELETE FROM saved_items WHERE user_id = $1 AND listing_id = $2 AND type = $3
	`, userID, listingID, savedType)
	if err != nil && db.IsUndefinedTable(err) {
		s.tripToMock(err)
		s.mock.RemoveSaved(userID, listingID, savedType)
		return nil
	}
	return err
}

// IsSavedItem проверяет, сохранено ли объявление.
// Для анонимного пользователя всегда false
func (s *SavedItemService) IsSavedItem(ctx context.Context, userID, listingID uuid.UUID, savedType string) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}

	if s.flag.Tripped() {
		return s.mock.IsSaved(userID, listingID, savedType), nil
	}

	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM saved_items WHERE user_id = $1 AND listing_id = $2 AND type = $3)
	`, userID, listingID, savedType).Scan(&exists)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.IsSaved(userID, listingID, savedType), nil
		}
		return false, err
	}
	return exists, nil
}

// ToggleSavedItem переключает сохранение объявления и возвращает
// новое состояние. Реализован как чтение-затем-запись: гонка двух
// одновременных переключений одной пары допускается
func (s *SavedItemService) ToggleSavedItem(ctx context.Context, userID, listingID uuid.UUID, savedType string) (bool, error) {
	if userID == uuid.Nil {
		return false, models.ErrUnauthorized
	}

	saved, err := s.IsSavedItem(ctx, userID, listingID, savedType)
	if err != nil {
		return false, err
	}

	if saved {
		if err := s.RemoveSavedItem(ctx, userID, listingID, savedType); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.AddSavedItem(ctx, userID, listingID, savedType); err != nil {
		return false, err
	}
	return true, nil
}

// GetSavedItems возвращает полные карточки сохраненных объявлений.
// Для анонимного пользователя возвращает пустой список. Объявления,
// которые уже не находятся, молча пропускаются
func (s *SavedItemService) GetSavedItems(ctx context.Context, userID uuid.UUID, savedType string) ([]models.BookListing, error) {
	if userID == uuid.Nil {
		return []models.BookListing{}, nil
	}
	if !models.ValidSavedType(savedType) {
		return nil, fmt.Errorf("%w: недопустимый тип сохранения", models.ErrValidation)
	}

	ids, err := s.savedListingIDs(ctx, userID, savedType)
	if err != nil {
		return nil, err
	}

	result := make([]models.BookListing, 0, len(ids))
	for _, id := range ids {
		l, err := s.listings.GetListingByID(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		result = append(result, *l)
	}
	return result, nil
}

func (s *SavedItemService) savedListingIDs(ctx context.Context, userID uuid.UUID, savedType string) ([]uuid.UUID, error) {
	if s.flag.Tripped() {
		return s.mock.SavedListingIDs(userID, savedType), nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT listing_id FROM saved_items
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC
	`, userID, savedType)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.SavedListingIDs(userID, savedType), nil
		}
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			log.Printf("Ошибка сканирования сохраненного объявления: %v", err)
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.SavedListingIDs(userID, savedType), nil
		}
		return nil, err
	}
	return ids, nil
}

// GetFavorites возвращает избранные объявления пользователя
func (s *SavedItemService) GetFavorites(ctx context.Context, userID uuid.UUID) ([]models.BookListing, error) {
	return s.GetSavedItems(ctx, userID, models.SavedTypeFavorite)
}

// GetWishlist возвращает список желаний пользователя
func (s *SavedItemService) GetWishlist(ctx context.Context, userID uuid.UUID) ([]models.BookListing, error) {
	return s.GetSavedItems(ctx, userID, models.SavedTypeWishlist)
}

// tripToMock фиксирует переход сервиса избранного на демо-данные
func (s *SavedItemService) tripToMock(err error) {
	log.Printf("Таблица избранного отсутствует, переходим на демо-данные: %v", err)
	s.flag.Trip()
}
