package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"skin-advisor/internal/domain/port"
)

// Клеймы, в которых ищется идентификатор пользователя
const (
	claimSubject = "sub"
	claimUserID  = "user_id"
)

// JWTVerifier проверяет HMAC-подписанные токены доступа
type JWTVerifier struct {
	secretKey []byte
	ttl       time.Duration
}

// NewJWTVerifier создаёт проверку по общему секрету
func NewJWTVerifier(secretKey string) (*JWTVerifier, error) {
	if secretKey == "" {
		return nil, errors.New("auth token secret is empty")
	}
	return &JWTVerifier{secretKey: []byte(secretKey), ttl: time.Hour}, nil
}

// WithTTL меняет срок жизни выпускаемых токенов
func (v *JWTVerifier) WithTTL(ttl time.Duration) *JWTVerifier {
	if ttl > 0 {
		v.ttl = ttl
	}
	return v
}

// Issue выпускает токен для пользователя
func (v *JWTVerifier) Issue(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		claimSubject: userID,
		"exp":        now.Add(v.ttl).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок токена и возвращает user id из sub
// или user_id.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	for _, name := range []string{claimSubject, claimUserID} {
		if id, ok := claims[name].(string); ok && id != "" {
			return id, nil
		}
	}
	return "", errors.New("token has no user id")
}

var _ port.AuthVerifier = (*JWTVerifier)(nil)
