// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/application/services"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

const adminCookieName = "admin_auth"

// AuthHandlers contains authentication endpoints and the admin middleware.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies.
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login.
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	start := time.Now()

	var loginReq struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		h.logger.API().Error("Login request JSON binding failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.authService.Authenticate(loginReq.Password)
	if !result.Success {
		h.logger.API().Warn("Login attempt failed", "duration", time.Since(start))
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	// The cookie lets EventSource and websocket clients authenticate, since
	// neither can set an Authorization header.
	c.SetCookie(
		adminCookieName,
		result.Token,
		int(config.TokenTTL/time.Second),
		"/",
		"",
		false,
		true,
	)

	h.logger.API().Info("Admin login succeeded", "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "role": result.Role})
}

// GetAuthStatus handles GET /api/v1/auth/status.
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	token := h.extractToken(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	role, err := h.authService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "role": role})
}

// AuthMiddleware guards admin endpoints. It accepts a bearer token or the
// login cookie.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := h.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		role, err := h.authService.ValidateToken(token)
		if err != nil {
			h.logger.API().Debug("Rejected admin request", "path", c.Request.URL.Path, "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("adminRole", role)
		c.Next()
	}
}

func (h *AuthHandlers) extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(adminCookieName); err == nil {
		return cookie
	}
	return ""
}
