package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewJWTService("test-secret")
	userID := uuid.New().String()

	token, err := s.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	extracted, err := s.ExtractUserID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, extracted)
}

func TestTokenWithWrongSecret(t *testing.T) {
	s := NewJWTService("test-secret")
	token, err := s.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	other := NewJWTService("other-secret")
	_, err = other.ExtractUserID(token)
	assert.Error(t, err)
}

func TestGarbageToken(t *testing.T) {
	s := NewJWTService("test-secret")

	_, err := s.ExtractUserID("not.a.token")
	assert.Error(t, err)

	_, err = s.ExtractUserID("")
	assert.Error(t, err)
}
