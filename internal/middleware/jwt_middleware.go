package middleware

import (
	"log/slog"
	"strings"

	"quotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie a browser session token is kept in.
const SessionCookie = "session"

const (
	localUserID    = "user_id"
	localSessionID = "sid"
)

// TokenValidator checks session tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Session, error)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid session token.
func AuthRequired(auth TokenValidator, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Login required",
			})
		}

		session, err := auth.ValidateToken(tokenString)
		if err != nil {
			logger.DebugContext(c.UserContext(), "session token rejected", slog.Any("error", err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired session",
				"error":   err.Error(),
			})
		}

		store(c, session)
		return c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is present and lets anonymous
// requests through. An invalid token is treated as no token.
func OptionalAuth(auth TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractToken(c)
		if err == nil && tokenString != "" {
			if session, err := auth.ValidateToken(tokenString); err == nil {
				store(c, session)
			}
		}
		return c.Next()
	}
}

// UserID returns the logged in user's id, or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// SessionID returns the id of the request's session, or "".
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(localSessionID).(string)
	return id
}

func store(c *fiber.Ctx, session *services.Session) {
	c.Locals(localUserID, session.UserID)
	c.Locals(localSessionID, session.SessionID)
}

// extractToken reads "Authorization: Bearer <token>", falling back to the session cookie.
func extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	return c.Cookies(SessionCookie), nil
}
