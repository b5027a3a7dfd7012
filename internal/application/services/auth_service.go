package services

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/security"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// AuthService validates admin credentials and manages session tokens for
// the mutating API endpoints.
type AuthService struct {
	logger    *logging.ChanneledLogger
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService creates the auth service. When no JWT secret is configured
// an ephemeral one is generated, so sessions do not survive restarts.
func NewAuthService(logger *logging.ChanneledLogger) (*AuthService, error) {
	secret := config.JWTSecret
	if secret == "" {
		generated, err := security.GenerateSecureKey(64)
		if err != nil {
			return nil, err
		}
		secret = generated
		logger.System().Warn("JWT_SECRET not set, generated an ephemeral secret for this run")
	}

	return &AuthService{
		logger:    logger,
		jwtSecret: secret,
		tokenTTL:  config.TokenTTL,
	}, nil
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Authenticate validates the admin password and returns a session token.
// The configured password is a bcrypt hash; a plaintext match is accepted
// as a fallback for hand-edited configurations.
func (a *AuthService) Authenticate(password string) *AuthResult {
	var role string

	if config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(config.AdminPassword), []byte(password)); err == nil {
			role = "admin"
		}
	}

	if role == "" && config.AdminPassword != "" && password == config.AdminPassword {
		role = "admin"
	}

	if role == "" {
		a.logger.API().Warn("Admin authentication failed")
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateAdminToken(role, a.jwtSecret, a.tokenTTL)
	if err != nil {
		a.logger.API().Error("Token generation failed", "error", err.Error())
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.API().Info("Admin authenticated", "role", role, "tokenTTL", a.tokenTTL.String())
	return &AuthResult{Token: token, Role: role, Success: true}
}

// ValidateToken checks a bearer token and returns the session role.
func (a *AuthService) ValidateToken(tokenString string) (string, error) {
	claims, err := security.ValidateJWT(tokenString, a.jwtSecret)
	if err != nil {
		return "", err
	}

	role := security.RoleFromClaims(claims)
	if role == "" {
		return "", errors.New("not an admin session token")
	}
	return role, nil
}
