package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/discounts/internal/pkg/constants"
)

const tokenIssuer = "discounts"

// SecretToken carries the admin secret signed with the same secret.
type SecretToken struct {
	Secret string `json:"secret"`
	jwt.StandardClaims
}

func NewAuthToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SecretToken{
		Secret: secret,
		StandardClaims: jwt.StandardClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("jwt.SignedString: %w", err)
	}
	return signed, nil
}

func ParseAuthToken(tokenString, secret string) (*SecretToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SecretToken{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constants.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*SecretToken)
	if !ok || !token.Valid {
		return nil, constants.ErrUnauthorized
	}
	return claims, nil
}
