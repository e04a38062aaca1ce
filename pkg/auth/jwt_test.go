package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "agent@homenest.test", "Agent", "agent")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "agent", claims.Role)
	assert.NotEmpty(t, claims.ID)

	ttl := m.RemainingTTL(claims)
	assert.True(t, ttl > 59*time.Minute && ttl <= time.Hour)
}

func TestValidateRejectsWrongSecretAndExpired(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "a@b.com", "A", "client")
	require.NoError(t, err)

	_, err = NewJWTManager("other", time.Hour).ValidateToken(token)
	assert.Error(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
