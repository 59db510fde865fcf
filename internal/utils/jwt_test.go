package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	token, err := GenerateSessionToken(id, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.SessionID)
}

func TestSessionTokenRejectsExpiredAndForeignSecret(t *testing.T) {
	SetJWTSecret("test-secret")
	id := uuid.New()

	expired, err := GenerateSessionToken(id, -time.Minute)
	require.NoError(t, err)
	_, err = ValidateSessionToken(expired)
	assert.Error(t, err)

	token, err := GenerateSessionToken(id, time.Hour)
	require.NoError(t, err)
	SetJWTSecret("other-secret")
	_, err = ValidateSessionToken(token)
	assert.Error(t, err)
	SetJWTSecret("test-secret")
}

func TestFileChecksum(t *testing.T) {
	data := []byte("%PDF-1.4 procuracao")
	sum := FileChecksum(data)
	assert.Len(t, sum, 64)
	assert.True(t, ValidateFileChecksum(data, sum))
	assert.False(t, ValidateFileChecksum([]byte("other"), sum))
}
