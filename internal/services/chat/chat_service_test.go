package chat

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

var errMissingTable = &pgconn.PgError{Code: "42P01", Message: `relation "conversations" does not exist`}

func newTestService(q *stubQuerier) *ChatService {
	cfg := &config.Config{JWTSecret: "test-secret"}
	return NewChatService(cfg, q, mockdata.NewStore(0), nil)
}

func TestGetConversationsFallsBack(t *testing.T) {
	q := &stubQuerier{err: errMissingTable}
	s := newTestService(q)
	ctx := context.Background()

	convs, err := s.GetConversations(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	// Свежая переписка первая
	assert.Equal(t, mockdata.ConvGatsby, convs[0].ID)
	assert.Equal(t, 1, convs[0].UnreadCount)
	assert.Equal(t, "I could also do 7 euros if you pick it up today.", convs[0].LastMessage)

	// Собеседник и объявление подставлены из демо-данных
	require.NotNil(t, convs[0].OtherUser)
	assert.Equal(t, "Liam Carter", convs[0].OtherUser.Name)
	require.NotNil(t, convs[0].Listing)
	assert.Equal(t, "The Great Gatsby", convs[0].Listing.Title)

	// Переключение липкое
	calls := q.calls
	_, err = s.GetConversations(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Equal(t, calls, q.calls)
}

func TestGetConversationsOtherErrorPropagates(t *testing.T) {
	s := newTestService(&stubQuerier{err: errors.New("connection refused")})

	_, err := s.GetConversations(context.Background(), mockdata.UserEmma)
	assert.Error(t, err)
}

func TestGetMessagesAccessControl(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	messages, err := s.GetMessages(ctx, mockdata.ConvGatsby, mockdata.UserEmma)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// Хронологический порядок
	for i := 1; i < len(messages); i++ {
		assert.True(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt))
	}

	// София не участница переписки
	_, err = s.GetMessages(ctx, mockdata.ConvGatsby, mockdata.UserSophia)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = s.GetMessages(ctx, uuid.New(), mockdata.UserEmma)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSendMessage(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	msg, err := s.SendMessage(ctx, mockdata.ConvGatsby, mockdata.UserEmma, "Deal, see you at five.")
	require.NoError(t, err)

	// Получатель — второй участник, сообщение не прочитано
	assert.Equal(t, mockdata.UserLiam, msg.ReceiverID)
	assert.False(t, msg.Read)

	messages, err := s.GetMessages(ctx, mockdata.ConvGatsby, mockdata.UserEmma)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "Deal, see you at five.", messages[3].Content)

	// Переписка поднялась наверх списка у обоих участников
	convs, err := s.GetConversations(ctx, mockdata.UserLiam)
	require.NoError(t, err)
	require.NotEmpty(t, convs)
	assert.Equal(t, mockdata.ConvGatsby, convs[0].ID)
	assert.Equal(t, 1, convs[0].UnreadCount)
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	_, err := s.SendMessage(ctx, mockdata.ConvGatsby, mockdata.UserEmma, "")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.SendMessage(ctx, mockdata.ConvGatsby, mockdata.UserSophia, "hi")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestMarkMessagesAsRead(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	count, err := s.GetUnreadCount(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.MarkMessagesAsRead(ctx, mockdata.ConvGatsby, mockdata.UserEmma))

	count, err = s.GetUnreadCount(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Повторная отметка — no-op
	require.NoError(t, s.MarkMessagesAsRead(ctx, mockdata.ConvGatsby, mockdata.UserEmma))
	count, err = s.GetUnreadCount(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnreadCountAnonymous(t *testing.T) {
	q := &stubQuerier{err: errMissingTable}
	s := newTestService(q)

	count, err := s.GetUnreadCount(context.Background(), uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, q.calls)
}

func TestStartConversationDeduplicates(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	// Переписка Эммы с Лиамом про «Гэтсби» уже существует
	conv, err := s.StartConversation(ctx, mockdata.ListingGatsby, mockdata.UserLiam, mockdata.UserEmma, "Still interested!")
	require.NoError(t, err)
	assert.Equal(t, mockdata.ConvGatsby, conv.ID)

	messages, err := s.GetMessages(ctx, mockdata.ConvGatsby, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Len(t, messages, 4)

	convs, err := s.GetConversations(ctx, mockdata.UserEmma)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}

func TestStartConversationCreatesNew(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	conv, err := s.StartConversation(ctx, mockdata.ListingCleanCode, mockdata.UserSophia, mockdata.UserEmma, "Is the book still available?")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.True(t, conv.IsActive)
	assert.Equal(t, mockdata.UserEmma, conv.BuyerID)
	assert.Equal(t, mockdata.UserSophia, conv.SellerID)

	messages, err := s.GetMessages(ctx, conv.ID, mockdata.UserSophia)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Is the book still available?", messages[0].Content)
	assert.Equal(t, mockdata.UserSophia, messages[0].ReceiverID)
}

func TestStartConversationValidation(t *testing.T) {
	s := newTestService(&stubQuerier{err: errMissingTable})
	ctx := context.Background()

	// Нельзя писать самому себе
	_, err := s.StartConversation(ctx, mockdata.ListingAusten, mockdata.UserEmma, mockdata.UserEmma, "hello me")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.StartConversation(ctx, mockdata.ListingCleanCode, mockdata.UserSophia, mockdata.UserEmma, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}
