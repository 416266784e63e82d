package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUndefinedTable(t *testing.T) {
	undefined := &pgconn.PgError{Code: "42P01", Message: `relation "listings" does not exist`}
	assert.True(t, IsUndefinedTable(undefined))

	// Ошибка должна распознаваться и через цепочку оберток
	wrapped := fmt.Errorf("запрос объявлений: %w", undefined)
	assert.True(t, IsUndefinedTable(wrapped))
}

func TestIsUndefinedTableOtherErrors(t *testing.T) {
	assert.False(t, IsUndefinedTable(nil))
	assert.False(t, IsUndefinedTable(errors.New("connection refused")))

	// Другие коды Postgres не переключают на демо-данные
	duplicate := &pgconn.PgError{Code: "23505"}
	assert.False(t, IsUndefinedTable(duplicate))

	permission := &pgconn.PgError{Code: "42501"}
	assert.False(t, IsUndefinedTable(permission))
}
