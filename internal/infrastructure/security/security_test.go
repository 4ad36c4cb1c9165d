package security

import (
	"testing"
	"time"

	"github.com/Sarrabentardeit/Auditalex/internal/domain/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "this-is-a-very-long-jwt-secret-for-testing-32+"

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, "auditalex", time.Hour)
	u := entities.User{ID: uuid.NewString(), Email: "a@b.fr", Role: entities.RoleAdmin}

	token, err := m.Generate(u)
	require.NoError(t, err)

	id, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.ID)
	assert.Equal(t, entities.RoleAdmin, id.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager(testSecret, "auditalex", time.Hour)
	u := entities.User{ID: uuid.NewString(), Role: entities.RoleAuditor}

	t.Run("empty", func(t *testing.T) {
		_, err := m.Validate("")
		assert.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewJWTManager("another-very-long-secret-for-testing-purposes", "auditalex", time.Hour)
		token, err := other.Generate(u)
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.Error(t, err)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewJWTManager(testSecret, "someone-else", time.Hour)
		token, err := other.Generate(u)
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager(testSecret, "auditalex", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Generate(u)
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.Error(t, err)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		token, err := m.Generate(entities.User{ID: "not-a-uuid"})
		require.NoError(t, err)
		_, err = m.Validate(token)
		assert.Error(t, err)
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	ok, err := h.Compare(hash, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Compare("not-a-hash", "secret123")
	assert.Error(t, err)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(100).cost)
	assert.Equal(t, 10, NewBcryptHasher(10).cost)
}
