package handler

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/scanvault/api/internal/auth"
	"github.com/scanvault/api/internal/config"
	"github.com/scanvault/api/internal/model"
	"github.com/scanvault/api/pkg/response"
)

// AuthHandler issues admin sessions and answers ForwardAuth checks
type AuthHandler struct {
	verifier  auth.TokenVerifier
	admin     config.AdminConfig
	jwt       config.JWTConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthHandler creates a new auth handler. verifier may be nil.
func NewAuthHandler(verifier auth.TokenVerifier, admin config.AdminConfig, jwtCfg config.JWTConfig, v *validator.Validate, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		verifier:  verifier,
		admin:     admin,
		jwt:       jwtCfg,
		validator: v,
		logger:    logger.Named("auth"),
	}
}

// Login handles POST /auth/login
// @Summary      Admin login
// @Description  Exchange the admin credentials for a session token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body model.LoginRequest true "Credentials"
// @Success      200 {object} model.LoginResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      401 {object} response.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Username and password are required", formatValidationErrors(err))
	}

	if !auth.CheckAdminCredentials(h.admin.Username, h.admin.Password, req.Username, req.Password) {
		h.logger.Warn("admin login rejected", zap.String("username", req.Username), zap.String("ip", c.IP()))
		return response.Unauthorized(c, "Invalid username or password")
	}

	ttl := time.Duration(h.jwt.Expiration) * time.Hour
	token, expiresAt, err := auth.IssueAdminToken(req.Username, h.jwt.Secret, ttl, time.Now())
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		return response.ServiceError(c, "Failed to issue session token")
	}

	return response.OK(c, model.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Verify handles GET /auth/verify, called by Traefik ForwardAuth.
// Returns 200 with X-User-* headers on success, 401 on failure.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	parts := strings.SplitN(c.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return c.SendStatus(fiber.StatusUnauthorized)
	}
	tokenString := strings.TrimSpace(parts[1])

	if h.jwt.Secret != "" {
		if claims, err := auth.ValidateSessionToken(tokenString, h.jwt.Secret); err == nil {
			c.Set("X-User-Id", claims.Subject)
			c.Set("X-User-Role", claims.Role)
			return c.SendStatus(fiber.StatusOK)
		}
	}

	if h.verifier != nil {
		if claims, err := h.verifier.Validate(tokenString); err == nil {
			c.Set("X-User-Id", claims.UserID)
			c.Set("X-User-Email", claims.Email)
			c.Set("X-User-Role", auth.RoleAdmin)
			return c.SendStatus(fiber.StatusOK)
		}
	}

	return c.SendStatus(fiber.StatusUnauthorized)
}
