package jwt

import (
	"strings"
	"testing"
	"time"

	b64 "encoding/base64"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osit-platform/osit-backend/pkg/types"
)

var testKey = []byte(strings.Repeat("k", 32))

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(testKey, 0)
	id := primitive.NewObjectID()

	token, err := issuer.Issue(id, types.ROLE_THERAPIST)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id.Hex(), claims.ID)
	assert.Equal(t, types.ROLE_THERAPIST, claims.Role)

	pid, err := claims.PrincipalID()
	require.NoError(t, err)
	assert.Equal(t, id, pid)

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, DefaultExpiresIn, lifetime)
}

func TestVerifyRejects(t *testing.T) {
	issuer := NewTokenIssuer(testKey, time.Hour)
	id := primitive.NewObjectID()

	t.Run("expired", func(t *testing.T) {
		old := NewTokenIssuer(testKey, time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.Issue(id, types.ROLE_PARTICIPANT)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer([]byte(strings.Repeat("x", 32)), time.Hour)
		token, err := other.Issue(id, types.ROLE_PARTICIPANT)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := UserClaims{ID: id.Hex(), Role: types.ROLE_THERAPIST}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("subject is not an object id", func(t *testing.T) {
		claims := UserClaims{
			ID:               "someone",
			Role:             types.ROLE_THERAPIST,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestDecodeSecretKey(t *testing.T) {
	key, err := DecodeSecretKey(b64.StdEncoding.EncodeToString(testKey))
	require.NoError(t, err)
	assert.Equal(t, testKey, key)

	_, err = DecodeSecretKey("")
	assert.Error(t, err)

	_, err = DecodeSecretKey(b64.StdEncoding.EncodeToString([]byte("short")))
	assert.Error(t, err)

	_, err = DecodeSecretKey("%%%")
	assert.Error(t, err)
}
