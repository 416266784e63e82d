package user

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

var errMissingTable = &pgconn.PgError{Code: "42P01", Message: `relation "auth_accounts" does not exist`}

func newTestService(q *stubQuerier) *UserService {
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewUserService(cfg, q, mockdata.NewStore(0))
}

func TestSignInWithDemoCredentials(t *testing.T) {
	q := &stubQuerier{err: errMissingTable}
	s := newTestService(q)
	ctx := context.Background()

	user, err := s.SignIn(ctx, "emma@bookswap.demo", mockdata.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, mockdata.UserEmma, user.ID)
	assert.Equal(t, "Emma Wilson", user.Name)

	// Переключение липкое
	calls := q.calls
	_, err = s.SignIn(ctx, "liam@bookswap.demo", mockdata.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, calls, q.calls)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	_, err := s.SignIn(ctx, "emma@bookswap.demo", "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "nobody@bookswap.demo", mockdata.DemoPassword)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "", "")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestSignInPropagatesOtherErrors(t *testing.T) {
	q := &stubQuerier{err: errors.New("connection refused")}
	s := newTestService(q)

	_, err := s.SignIn(context.Background(), "emma@bookswap.demo", mockdata.DemoPassword)
	require.Error(t, err)

	// Обычная ошибка не переключает на демо-данные
	_, err = s.SignIn(context.Background(), "emma@bookswap.demo", mockdata.DemoPassword)
	require.Error(t, err)
	assert.Equal(t, 2, q.calls)
}

func TestSignUpFallsBack(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	user, err := s.SignUp(ctx, "Marco@Example.com", "secret123", "Marco")
	require.NoError(t, err)

	// Email нормализуется
	assert.Equal(t, "marco@example.com", user.Email)
	assert.Equal(t, "Marco", user.Name)

	// Новый пользователь сразу может войти
	signedIn, err := s.SignIn(ctx, "marco@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
}

func TestSignUpValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	_, err := s.SignUp(ctx, "not-an-email", "secret123", "X")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.SignUp(ctx, "x@example.com", "short", "X")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSignUpRejectsTakenEmail(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	_, err := s.SignUp(context.Background(), "emma@bookswap.demo", "secret123", "Fake Emma")
	assert.ErrorIs(t, err, models.ErrEmailTaken)
}

func TestSignUpDerivesNameFromEmail(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	user, err := s.SignUp(context.Background(), "reader@example.com", "secret123", "")
	require.NoError(t, err)
	assert.Equal(t, "reader", user.Name)
}

func TestGetUserByID(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	user, err := s.GetUserByID(ctx, mockdata.UserSophia)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Sophia Nguyen", user.Name)

	// Отсутствующий профиль — nil без ошибки
	missing, err := s.GetUserByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateProfile(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	bio := "Swapping paperbacks since 2019."
	location := "Dresden"
	updated, err := s.UpdateProfile(ctx, mockdata.UserNoah, models.ProfileUpdate{
		Bio:      &bio,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
	assert.Equal(t, location, updated.Location)

	// Незаполненные поля не изменились
	assert.Equal(t, "Noah Petrov", updated.Name)

	// Обновление видно при последующем чтении
	got, err := s.GetUserByID(ctx, mockdata.UserNoah)
	require.NoError(t, err)
	assert.Equal(t, bio, got.Bio)
}

func TestUpdateProfileValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	rating := 6.0
	_, err := s.UpdateProfile(context.Background(), mockdata.UserNoah, models.ProfileUpdate{Rating: &rating})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSignOutNeverFails(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})

	// Отсутствие таблицы сессий не мешает выходу
	assert.NoError(t, s.SignOut(context.Background(), mockdata.UserEmma))
	assert.NoError(t, s.SignOut(context.Background(), mockdata.UserEmma))
}
