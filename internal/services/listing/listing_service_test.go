package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/bookswap-api/internal/config"
	"github.com/rajivgeraev/bookswap-api/internal/mockdata"
	"github.com/rajivgeraev/bookswap-api/internal/models"
)

// stubQuerier возвращает заданную ошибку на любой запрос и считает
// обращения к базе
type stubQuerier struct {
	err   error
	calls int
}

func (q *stubQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.calls++
	return nil, q.err
}

func (q *stubQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.calls++
	return stubRow{err: q.err}
}

func (q *stubQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls++
	return pgconn.CommandTag{}, q.err
}

type stubRow struct{ err error }

func (r stubRow) Scan(dest ...any) error { return r.err }

var errMissingTable = &pgconn.PgError{Code: "42P01", Message: `relation "listings" does not exist`}

func newTestService(q *stubQuerier) *ListingService {
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewListingService(cfg, q, mockdata.NewStore(0))
}

func TestGetListingsFallsBackWhenTableMissing(t *testing.T) {
	q := &stubQuerier{err: errMissingTable}
	s := newTestService(q)

	listings, err := s.GetListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 6)
	assert.Equal(t, 1, q.calls)

	// Переключение липкое: повторный вызов в базу уже не ходит
	listings, err = s.GetListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 6)
	assert.Equal(t, 1, q.calls)
}

func TestGetListingsPropagatesOtherErrors(t *testing.T) {
	q := &stubQuerier{err: errors.New("connection refused")}
	s := newTestService(q)

	_, err := s.GetListings(context.Background())
	require.Error(t, err)

	// Обычная ошибка не переключает на демо-данные
	_, err = s.GetListings(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, q.calls)
}

func TestSearchListingsMock(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	results, err := s.SearchListings(context.Background(), "gatsby")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mockdata.ListingGatsby, results[0].ID)

	// Поиск работает и по автору
	results, err = s.SearchListings(context.Background(), "orwell")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mockdata.ListingOrwell, results[0].ID)
}

func TestGetListingByIDNotFoundInMock(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	_, err := s.GetListingByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateListingValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	seller := mockdata.UserEmma

	valid := models.BookListing{
		SellerID:  seller,
		Title:     "Dune",
		Author:    "Frank Herbert",
		Price:     10,
		Condition: models.ConditionGood,
	}

	cases := []struct {
		name   string
		mutate func(l *models.BookListing)
	}{
		{"без названия", func(l *models.BookListing) { l.Title = "" }},
		{"без автора", func(l *models.BookListing) { l.Author = "" }},
		{"нулевая цена", func(l *models.BookListing) { l.Price = 0 }},
		{"неизвестное состояние", func(l *models.BookListing) { l.Condition = "Mint" }},
		{"чужой seller_id", func(l *models.BookListing) { l.SellerID = mockdata.UserLiam }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := valid
			tc.mutate(&l)
			_, err := s.CreateListing(context.Background(), seller, l)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreateListingFallsBack(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	created, err := s.CreateListing(context.Background(), mockdata.UserEmma, models.BookListing{
		SellerID:  mockdata.UserEmma,
		Title:     "Dune",
		Author:    "Frank Herbert",
		Price:     10,
		Condition: models.ConditionGood,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEqual(t, uuid.Nil, created.ID)

	// Созданное объявление читается из демо-хранилища
	got, err := s.GetListingByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}

func TestUpdateListingOwnership(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	price := 9.0

	// Объявление про «Гэтсби» принадлежит Лиаму
	_, err := s.UpdateListing(context.Background(), mockdata.ListingGatsby, mockdata.UserEmma,
		models.ListingUpdate{Price: &price})
	assert.ErrorIs(t, err, models.ErrForbidden)

	updated, err := s.UpdateListing(context.Background(), mockdata.ListingGatsby, mockdata.UserLiam,
		models.ListingUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 9.0, updated.Price)
}

func TestUpdateListingValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	badPrice := -1.0
	_, err := s.UpdateListing(context.Background(), mockdata.ListingGatsby, mockdata.UserLiam,
		models.ListingUpdate{Price: &badPrice})
	assert.ErrorIs(t, err, models.ErrValidation)

	badCondition := "Mint"
	_, err = s.UpdateListing(context.Background(), mockdata.ListingGatsby, mockdata.UserLiam,
		models.ListingUpdate{Condition: &badCondition})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDeleteListingOwnership(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	err := s.DeleteListing(context.Background(), mockdata.ListingSapiens, mockdata.UserEmma)
	assert.ErrorIs(t, err, models.ErrForbidden)

	err = s.DeleteListing(context.Background(), mockdata.ListingSapiens, mockdata.UserLiam)
	require.NoError(t, err)

	_, err = s.GetListingByID(context.Background(), mockdata.ListingSapiens)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetListingsBySellerMock(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	listings, err := s.GetListingsBySeller(context.Background(), mockdata.UserLiam)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
	for _, l := range listings {
		assert.Equal(t, mockdata.UserLiam, l.SellerID)
	}
}

func TestGetFilteredListingsMock(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	maxPrice := 10.0
	listings, err := s.GetFilteredListings(context.Background(), models.ListingFilters{
		Categories: []string{"Fiction"},
		MaxPrice:   &maxPrice,
	})
	require.NoError(t, err)
	require.NotEmpty(t, listings)
	for _, l := range listings {
		assert.Equal(t, "Fiction", l.Category)
		assert.LessOrEqual(t, l.Price, maxPrice)
	}
}
