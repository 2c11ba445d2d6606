package handlers

import (
	"log/slog"
	"time"

	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// SessionHandler handles HTTP requests for logging in and out.
type SessionHandler struct {
	authService  *services.AuthService
	quoteService *services.QuoteService
	sessionTTL   time.Duration
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(authService *services.AuthService, quoteService *services.QuoteService, sessionTTL time.Duration, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		authService:  authService,
		quoteService: quoteService,
		sessionTTL:   sessionTTL,
		validate:     services.NewValidator(),
		logger:       logger,
	}
}

// RegisterRoutes registers the session routes with the Fiber app.
func (h *SessionHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/session", h.HandleLogin)
	router.Delete("/session", h.HandleLogout)
}

// LoginRequest carries the identity provider's assertion.
type LoginRequest struct {
	Assertion string `json:"assertion" validate:"required"`
}

// HandleLogin verifies an assertion and opens a session. Unknown identities get a
// registration token to complete sign up with POST /users.
func (h *SessionHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	result, err := h.authService.Login(c.UserContext(), req.Assertion)
	if err != nil {
		h.logger.InfoContext(c.UserContext(), "login failed", slog.Any("error", err))
		return handleError(c, err)
	}

	if result.User == nil {
		return c.JSON(fiber.Map{
			"message":            "Registration required",
			"registration":       result.Registration,
			"registration_token": result.RegistrationToken,
		})
	}

	setSessionCookie(c, result.Token, h.sessionTTL)
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleLogout ends the session and discards any quote staged in it.
func (h *SessionHandler) HandleLogout(c *fiber.Ctx) error {
	if sid := middleware.SessionID(c); sid != "" {
		if err := h.quoteService.ClearDraft(c.UserContext(), sid); err != nil {
			h.logger.WarnContext(c.UserContext(), "failed to clear draft on logout", slog.Any("error", err))
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func setSessionCookie(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
