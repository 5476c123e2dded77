package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSecret is returned when token signing is not configured
var ErrNoSecret = errors.New("JWT_SECRET is not set")

// TokenTTL is how long a dashboard session token stays valid
const TokenTTL = 24 * time.Hour

// GenerateToken generates a JWT token for a dashboard session
func GenerateToken(secret, subject string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}

	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken parses and validates the token
func ValidateToken(secret, tokenString string) (*jwt.Token, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}
