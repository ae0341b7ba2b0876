package jwt

import (
	"errors"
	"fmt"
	"time"

	b64 "encoding/base64"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/osit-platform/osit-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minSecretKeyLength = 32
	DefaultExpiresIn   = 30 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

// UserClaims - Information a token encodes
type UserClaims struct {
	ID   string     `json:"id"`
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// PrincipalID returns the ObjectID the token was issued for
func (c UserClaims) PrincipalID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(c.ID)
}

// DecodeSecretKey reads a base64 encoded HMAC key
func DecodeSecretKey(enc string) ([]byte, error) {
	if enc == "" {
		return nil, errors.New("secret key is empty")
	}
	key, err := b64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}
	if len(key) < minSecretKeyLength {
		return nil, fmt.Errorf("secret key must be at least %d bytes", minSecretKeyLength)
	}
	return key, nil
}

// TokenIssuer signs and verifies HS256 bearer tokens with a fixed secret
type TokenIssuer struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenIssuer(secretKey []byte, expiresIn time.Duration) *TokenIssuer {
	if expiresIn <= 0 {
		expiresIn = DefaultExpiresIn
	}
	return &TokenIssuer{
		secretKey: secretKey,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// Issue creates and signs a new token for the principal
func (ti *TokenIssuer) Issue(principalID primitive.ObjectID, role types.Role) (string, error) {
	now := ti.now()
	claims := UserClaims{
		ID:   principalID.Hex(),
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secretKey)
}

// Verify parses and validates the token string
func (ti *TokenIssuer) Verify(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, fmt.Errorf("%w: bad subject id", ErrInvalidToken)
	}
	return claims, nil
}
