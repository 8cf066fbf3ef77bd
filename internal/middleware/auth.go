package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/scanvault/api/internal/auth"
	"github.com/scanvault/api/pkg/response"
)

// AuthMiddleware accepts admin session tokens and, when configured,
// Zitadel-issued tokens carrying the admin role.
type AuthMiddleware struct {
	verifier  auth.TokenVerifier
	jwtSecret string
}

// NewAuthMiddleware creates auth middleware. verifier may be nil.
func NewAuthMiddleware(verifier auth.TokenVerifier, jwtSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:  verifier,
		jwtSecret: jwtSecret,
	}
}

// Authenticate validates the bearer token from the Authorization header
func (m *AuthMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return response.Unauthorized(c, "Invalid authorization header format")
		}
		tokenString := strings.TrimSpace(parts[1])

		// Session tokens issued by /auth/login
		if m.jwtSecret != "" {
			if claims, err := auth.ValidateSessionToken(tokenString, m.jwtSecret); err == nil {
				c.Locals("userId", claims.Subject)
				c.Locals("role", claims.Role)
				return c.Next()
			}
		}

		if m.verifier != nil {
			if claims, err := m.verifier.Validate(tokenString); err == nil {
				c.Locals("userId", claims.UserID)
				c.Locals("email", claims.Email)
				c.Locals("role", auth.RoleAdmin)
				return c.Next()
			}
		}

		if m.jwtSecret == "" && m.verifier == nil {
			return response.Unauthorized(c, "Authentication not configured")
		}
		return response.Unauthorized(c, "Invalid or expired token")
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("email").(string); ok {
		return email
	}
	return ""
}
