package userservice

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID int            `json:"id"`
	Role   string         `json:"role"`
	Kind   TokenKind      `json:"kind"`
	Extra  map[string]any `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenManager signs and verifies the access, refresh and reset tokens, each kind with its
// own secret and lifetime.
type TokenManager struct {
	keys map[TokenKind]TokenConfig
}

func NewTokenManager(access, refresh, reset TokenConfig) *TokenManager {
	return &TokenManager{keys: map[TokenKind]TokenConfig{
		AccessToken:  access,
		RefreshToken: refresh,
		ResetToken:   reset,
	}}
}

func (m *TokenManager) TTL(kind TokenKind) time.Duration {
	return m.keys[kind].TTL
}

func (m *TokenManager) Generate(kind TokenKind, id int, role string, extra map[string]any) (string, error) {
	key, ok := m.keys[kind]
	if !ok || key.Secret == "" {
		return "", fmt.Errorf("no signing key for %s tokens", kind)
	}

	now := time.Now()
	claims := &Claims{
		UserID: id,
		Role:   role,
		Kind:   kind,
		Extra:  extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(id),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(key.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key.Secret))
}

func (m *TokenManager) Verify(kind TokenKind, tokenString string) (*Claims, error) {
	key, ok := m.keys[kind]
	if !ok || key.Secret == "" || tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(key.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Kind != kind || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
