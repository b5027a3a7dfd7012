// Package security provides JWT and secure random utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateAdminToken creates a signed admin session token.
func GenerateAdminToken(role, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"role": role,
		"type": "admin_auth",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// RoleFromClaims extracts the admin role from token claims. Tokens that are
// not admin session tokens return an empty role.
func RoleFromClaims(claims jwt.MapClaims) string {
	if claims["type"] != "admin_auth" {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}
