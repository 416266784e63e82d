package saveditem

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
	"github.com/rajivgeraev/bookswap-api/internal/services/listing"
)

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

var errMissingTable = &pgconn.PgError{Code: "42P01", Message: `relation "saved_items" does not exist`}

func newTestService(q *stubQuerier) *SavedItemService {
	cfg := &config.Config{JWTSecret: "test-secret"}
	mock := mockdata.NewStore(0)
	listings := listing.NewListingService(cfg, q, mock)
	return NewSavedItemService(cfg, q, mock, listings)
}

func TestAddSavedItemIdempotent(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	err := s.AddSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)

	// Повторное сохранение той же пары — no-op
	err = s.AddSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)

	listings, err := s.GetFavorites(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestAddSavedItemValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	err := s.AddSavedItem(ctx, uuid.Nil, mockdata.ListingOrwell, models.SavedTypeFavorite)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	err = s.AddSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, "bookmarks")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRemoveSavedItemNoop(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	// Удаление несохраненного объявления не ошибка
	err := s.RemoveSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	assert.NoError(t, err)
}

func TestToggleSavedItem(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	saved, err := s.ToggleSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = s.ToggleSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)
	assert.False(t, saved)

	is, err := s.IsSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestToggleRequiresAuth(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	_, err := s.ToggleSavedItem(context.Background(), uuid.Nil, mockdata.ListingOrwell, models.SavedTypeFavorite)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAnonymousReadsDegrade(t *testing.T) {
	q := &stubQuerier{err: errMissingTable}
	s := newTestService(q)
	ctx := context.Background()

	// Анонимные чтения не трогают базу и возвращают пустые значения
	is, err := s.IsSavedItem(ctx, uuid.Nil, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.NoError(t, err)
	assert.False(t, is)

	listings, err := s.GetSavedItems(ctx, uuid.Nil, models.SavedTypeFavorite)
	require.NoError(t, err)
	assert.Empty(t, listings)

	assert.Equal(t, 0, q.calls)
}

func TestSavedTypesIndependent(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	require.NoError(t, s.AddSavedItem(ctx, mockdata.UserEmma, mockdata.ListingCleanCode, models.SavedTypeWishlist))

	favorites, err := s.GetFavorites(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Empty(t, favorites)

	wishlist, err := s.GetWishlist(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	require.Len(t, wishlist, 1)
	assert.Equal(t, mockdata.ListingCleanCode, wishlist[0].ID)
}

func TestOtherErrorsPropagate(t *testing.T) {
	s := newTestService(&stubQuerier{err: errors.New("connection refused")})

	err := s.AddSavedItem(context.Background(), mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite)
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrValidation))
}

func TestGetSavedItemsSkipsMissingListings(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	// Сохраняем объявление, которого нет в каталоге
	ghost := uuid.New()
	require.NoError(t, s.AddSavedItem(ctx, mockdata.UserEmma, ghost, models.SavedTypeFavorite))
	require.NoError(t, s.AddSavedItem(ctx, mockdata.UserEmma, mockdata.ListingOrwell, models.SavedTypeFavorite))

	listings, err := s.GetSavedItems(ctx, mockdata.UserEmma, models.SavedTypeFavorite)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, mockdata.ListingOrwell, listings[0].ID)
}
