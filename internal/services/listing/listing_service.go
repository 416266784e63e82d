package listing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/db"
	"github.com/rajivgeraev/bookswap-api/internal/fallback"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/models"
	"github.com/rajivgeraev/bookswap-api/internal/utils"
)

// ListingService представляет сервис для работы с объявлениями.
// Работает с таблицей listings; при ее отсутствии переходит на демо-данные
type ListingService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	db         db.Querier
	mock       *mockdata.Store
	flag       fallback.Flag
}

// NewListingService создает новый экземпляр ListingService
func NewListingService(cfg *config.Config, querier db.Querier, mock *mockdata.Store) *ListingService {
	return &ListingService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		db:         querier,
		mock:       mock,
	}
}

const listingColumns = `id, seller_id, title, author, price, condition, description, image_url,
	category, edition, isbn, publisher, publication_year, is_negotiable, exchange_option, created_at`

// GetListings возвращает все объявления, новые первыми
func (s *ListingService) GetListings(ctx context.Context) ([]models.BookListing, error) {
	if s.flag.Tripped() {
		return s.mock.Listings(), nil
	}

	listings, err := s.queryListings(ctx, `
		SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC
	`)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.Listings(), nil
		}
		return nil, err
	}
	return listings, nil
}

// SearchListings ищет по подстроке в названии, авторе и описании
// без учета регистра
func (s *ListingService) SearchListings(ctx context.Context, term string) ([]models.BookListing, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.GetListings(ctx)
	}

	if s.flag.Tripped() {
		return s.mockSearch(term), nil
	}

	listings, err := s.queryListings(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE title ILIKE '%' || $1 || '%'
		   OR author ILIKE '%' || $1 || '%'
		   OR description ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
	`, term)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockSearch(term), nil
		}
		return nil, err
	}
	return listings, nil
}

func (s *ListingService) mockSearch(term string) []models.BookListing {
	needle := strings.ToLower(term)
	var result []models.BookListing
	for _, l := range s.mock.Listings() {
		if strings.Contains(strings.ToLower(l.Title), needle) ||
			strings.Contains(strings.ToLower(l.Author), needle) ||
			strings.Contains(strings.ToLower(l.Description), needle) {
			result = append(result, l)
		}
	}
	return result
}

// GetListingsByCategory возвращает объявления одной категории
func (s *ListingService) GetListingsByCategory(ctx context.Context, category string) ([]models.BookListing, error) {
	if s.flag.Tripped() {
		return s.mockByCategory(category), nil
	}

	listings, err := s.queryListings(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE category = $1
		ORDER BY created_at DESC
	`, category)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockByCategory(category), nil
		}
		return nil, err
	}
	return listings, nil
}

func (s *ListingService) mockByCategory(category string) []models.BookListing {
	var result []models.BookListing
	for _, l := range s.mock.Listings() {
		if l.Category == category {
			result = append(result, l)
		}
	}
	return result
}

// GetListingByID возвращает объявление по ID
func (s *ListingService) GetListingByID(ctx context.Context, id uuid.UUID) (*models.BookListing, error) {
	if s.flag.Tripped() {
		listing, ok := s.mock.ListingByID(id)
		if !ok {
			return nil, models.ErrNotFound
		}
		return listing, nil
	}

	listing, err := s.queryListing(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			mockListing, ok := s.mock.ListingByID(id)
			if !ok {
				return nil, models.ErrNotFound
			}
			return mockListing, nil
		}
		return nil, err
	}
	return listing, nil
}

// CreateListing создает объявление от имени продавца
func (s *ListingService) CreateListing(ctx context.Context, sellerID uuid.UUID, listing models.BookListing) (*models.BookListing, error) {
	if listing.SellerID != sellerID {
		return nil, fmt.Errorf("%w: seller_id не совпадает с автором запроса", models.ErrValidation)
	}
	if listing.Title == "" {
		return nil, fmt.Errorf("%w: название обязательно", models.ErrValidation)
	}
	if listing.Author == "" {
		return nil, fmt.Errorf("%w: автор обязателен", models.ErrValidation)
	}
	if listing.Price <= 0 {
		return nil, fmt.Errorf("%w: цена должна быть больше нуля", models.ErrValidation)
	}
	if !models.ValidConditions[listing.Condition] {
		return nil, fmt.Errorf("%w: недопустимое состояние книги", models.ErrValidation)
	}

	listing.ID = uuid.New()
	listing.CreatedAt = time.Now()

	if s.flag.Tripped() {
		s.mock.AddListing(listing)
		return &listing, nil
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`, listing.ID, listing.SellerID, listing.Title, listing.Author, listing.Price,
		listing.Condition, listing.Description, listing.ImageURL, listing.Category,
		listing.Edition, listing.ISBN, listing.Publisher, listing.PublicationYear,
		listing.IsNegotiable, listing.ExchangeOption, listing.CreatedAt)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			s.mock.AddListing(listing)
			return &listing, nil
		}
		return nil, err
	}
	return &listing, nil
}

// UpdateListing применяет частичное обновление объявления.
// Обновлять объявление может только его продавец
func (s *ListingService) UpdateListing(ctx context.Context, id, callerID uuid.UUID, upd models.ListingUpdate) (*models.BookListing, error) {
	if upd.Price != nil && *upd.Price <= 0 {
		return nil, fmt.Errorf("%w: цена должна быть больше нуля", models.ErrValidation)
	}
	if upd.Condition != nil && !models.ValidConditions[*upd.Condition] {
		return nil, fmt.Errorf("%w: недопустимое состояние книги", models.ErrValidation)
	}

	if s.flag.Tripped() {
		return s.mockUpdate(id, callerID, upd)
	}

	listing, err := s.remoteUpdate(ctx, id, callerID, upd)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockUpdate(id, callerID, upd)
		}
		return nil, err
	}
	return listing, nil
}

func (s *ListingService) mockUpdate(id, callerID uuid.UUID, upd models.ListingUpdate) (*models.BookListing, error) {
	current, ok := s.mock.ListingByID(id)
	if !ok {
		return nil, models.ErrNotFound
	}
	if current.SellerID != callerID {
		return nil, models.ErrForbidden
	}
	return s.mock.UpdateListing(id, upd)
}

func (s *ListingService) remoteUpdate(ctx context.Context, id, callerID uuid.UUID, upd models.ListingUpdate) (*models.BookListing, error) {
	if err := s.checkOwnership(ctx, id, callerID); err != nil {
		return nil, err
	}

	// Собираем UPDATE только из заполненных полей
	set := make([]string, 0, 13)
	args := make([]any, 0, 14)

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		appendSet("title", *upd.Title)
	}
	if upd.Author != nil {
		appendSet("author", *upd.Author)
	}
	if upd.Price != nil {
		appendSet("price", *upd.Price)
	}
	if upd.Condition != nil {
		appendSet("condition", *upd.Condition)
	}
	if upd.Description != nil {
		appendSet("description", *upd.Description)
	}
	if upd.ImageURL != nil {
		appendSet("image_url", *upd.ImageURL)
	}
	if upd.Category != nil {
		appendSet("category", *upd.Category)
	}
	if upd.Edition != nil {
		appendSet("edition", *upd.Edition)
	}
	if upd.ISBN != nil {
		appendSet("isbn", *upd.ISBN)
	}
	if upd.Publisher != nil {
		appendSet("publisher", *upd.Publisher)
	}
	if upd.PublicationYear != nil {
		appendSet("publication_year", *upd.PublicationYear)
	}
	if upd.IsNegotiable != nil {
		appendSet("is_negotiable", *upd.IsNegotiable)
	}
	if upd.ExchangeOption != nil {
		appendSet("exchange_option", *upd.ExchangeOption)
	}

	if len(set) == 0 {
		return s.GetListingByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE listings SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(set, ", "), len(args), listingColumns)

	listing, err := s.queryListing(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return listing, err
}

// DeleteListing удаляет объявление. Удалять объявление может
// только его продавец
func (s *ListingService) DeleteListing(ctx context.Context, id, callerID uuid.UUID) error {
	if s.flag.Tripped() {
		return s.mockDelete(id, callerID)
	}

	err := s.remoteDelete(ctx, id, callerID)
	if err != nil && db.IsUndefinedTable(err) {
		s.tripToMock(err)
		return s.mockDelete(id, callerID)
	}
	return err
}

func (s *ListingService) mockDelete(id, callerID uuid.UUID) error {
	current, ok := s.mock.ListingByID(id)
	if !ok {
		return models.ErrNotFound
	}
	if current.SellerID != callerID {
		return models.ErrForbidden
	}
	return s.mock.DeleteListing(id)
}

func (s *ListingService) remoteDelete(ctx context.Context, id, callerID uuid.UUID) error {
	if err := s.checkOwnership(ctx, id, callerID); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	return err
}

// checkOwnership проверяет, что объявление принадлежит вызывающему
func (s *ListingService) checkOwnership(ctx context.Context, id, callerID uuid.UUID) error {
	var sellerID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT seller_id FROM listings WHERE id = $1`, id).Scan(&sellerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return err
	}
	if sellerID != callerID {
		return models.ErrForbidden
	}
	return nil
}

// GetListingsBySeller возвращает объявления продавца, новые первыми
func (s *ListingService) GetListingsBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.BookListing, error) {
	if s.flag.Tripped() {
		return s.mock.ListingsBySeller(sellerID), nil
	}

	listings, err := s.queryListings(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mock.ListingsBySeller(sellerID), nil
		}
		return nil, err
	}
	return listings, nil
}

// GetFilteredListings возвращает объявления, проходящие все заданные
// фильтры. Пустой фильтр не накладывает ограничений
func (s *ListingService) GetFilteredListings(ctx context.Context, filters models.ListingFilters) ([]models.BookListing, error) {
	if s.flag.Tripped() {
		return s.mockFiltered(filters), nil
	}

	// Собираем WHERE только из заданных фильтров
	where := make([]string, 0, 6)
	args := make([]any, 0, 6)

	appendWhere := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if len(filters.Categories) > 0 {
		appendWhere("category = ANY($%d)", filters.Categories)
	}
	if len(filters.Conditions) > 0 {
		appendWhere("condition = ANY($%d)", filters.Conditions)
	}
	if filters.MinPrice != nil {
		appendWhere("price >= $%d", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		appendWhere("price <= $%d", *filters.MaxPrice)
	}
	if filters.IsNegotiable != nil {
		appendWhere("is_negotiable = $%d", *filters.IsNegotiable)
	}
	if filters.ExchangeOption != nil {
		appendWhere("exchange_option = $%d", *filters.ExchangeOption)
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	listings, err := s.queryListings(ctx, query, args...)
	if err != nil {
		if db.IsUndefinedTable(err) {
			s.tripToMock(err)
			return s.mockFiltered(filters), nil
		}
		return nil, err
	}
	return listings, nil
}

func (s *ListingService) mockFiltered(filters models.ListingFilters) []models.BookListing {
	var result []models.BookListing
	for _, l := range s.mock.Listings() {
		if filters.Matches(&l) {
			result = append(result, l)
		}
	}
	return result
}

// tripToMock фиксирует переход сервиса объявлений на демо-данные
func (s *ListingService) tripToMock(err error) {
	log.Printf("Таблица объявлений отсутствует, переходим на демо-данные: %v", err)
	s.flag.Trip()
}

// queryListings выполняет запрос списка объявлений
func (s *ListingService) queryListings(ctx context.Context, query string, args ...any) ([]models.BookListing, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.BookListing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			log.Printf("Ошибка сканирования объявления: %v", err)
			continue
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return listings, nil
}

// queryListing выполняет запрос одного объявления
func (s *ListingService) queryListing(ctx context.Context, query string, args ...any) (*models.BookListing, error) {
	return scanListing(s.db.QueryRow(ctx, query, args...))
}

// rowScanner объединяет pgx.Row и pgx.Rows для общего сканирования
type rowScanner interface {
	Scan(dest ...any) error
}

// scanListing разбирает строку объявления с nullable-полями
func scanListing(row rowScanner) (*models.BookListing, error) {
	var listing models.BookListing
	var description, imageURL, category, edition, isbn, publisher pgtype.Text
	var publicationYear pgtype.Int4

	err := row.Scan(
		&listing.ID,
		&listing.SellerID,
		&listing.Title,
		&listing.Author,
		&listing.Price,
		&listing.Condition,
		&description,
		&imageURL,
		&category,
		&edition,
		&isbn,
		&publisher,
		&publicationYear,
		&listing.IsNegotiable,
		&listing.ExchangeOption,
		&listing.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		listing.Description = description.String
	}
	if imageURL.Valid {
		listing.ImageURL = imageURL.String
	}
	if category.Valid {
		listing.Category = category.String
	}
	if edition.Valid {
		listing.Edition = edition.String
	}
	if isbn.Valid {
		listing.ISBN = isbn.String
	}
	if publisher.Valid {
		listing.Publisher = publisher.String
	}
	if publicationYear.Valid {
		listing.PublicationYear = int(publicationYear.Int32)
	}

	return &listing, nil
}
