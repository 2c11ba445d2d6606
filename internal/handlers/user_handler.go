package handlers

import (
	"time"

	"quotebook/internal/apperrors"
	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for users and their listings.
type UserHandler struct {
	service      *services.UserService
	authService  *services.AuthService
	listings     *Listings
	requireLogin fiber.Handler
	sessionTTL   time.Duration
	validate     *validator.Validate
}

// NewUserHandler creates a new UserHandler. requireLogin guards the routes that change
// data.
func NewUserHandler(
	service *services.UserService,
	authService *services.AuthService,
	listings *Listings,
	requireLogin fiber.Handler,
	sessionTTL time.Duration,
) *UserHandler {
	return &UserHandler{
		service:      service,
		authService:  authService,
		listings:     listings,
		requireLogin: requireLogin,
		sessionTTL:   sessionTTL,
		validate:     services.NewValidator(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Put("/:id", h.requireLogin, h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.requireLogin, h.HandleDeleteUser)

	userRoutes.Get("/:id/quotes", h.quotes(services.FormatHTML))
	userRoutes.Get("/:id/quotes.atom", h.quotes(services.FormatAtom))
	userRoutes.Get("/:id/relevant_quotes", h.relevantQuotes(services.FormatHTML))
	userRoutes.Get("/:id/relevant_quotes.atom", h.relevantQuotes(services.FormatAtom))
	userRoutes.Get("/:id/relevant_comments", h.relevantComments(services.FormatHTML))
	userRoutes.Get("/:id/relevant_comments.atom", h.relevantComments(services.FormatAtom))
}

// HandleGetUsers retrieves all users.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(users)
}

// HandleGetUserByID retrieves a single user by its ID.
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(user)
}

// RegisterRequest completes a sign up started by POST /session.
type RegisterRequest struct {
	RegistrationToken string `json:"registration_token" validate:"required"`
	services.RegistrationInput
}

// HandleCreateUser registers the holder of a registration token, or with ?mode=partial
// lets a logged in user add someone who can then be quoted.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	if c.Query("mode") == "partial" {
		return h.createPartial(c)
	}

	var req RegisterRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	identity, err := h.authService.ValidateRegistrationToken(req.RegistrationToken)
	if err != nil {
		return handleError(c, err)
	}

	result, err := h.service.Register(c.UserContext(), identity, req.RegistrationInput)
	if err != nil {
		return handleError(c, err)
	}
	if result.User == nil {
		return c.Status(fiber.StatusMultipleChoices).JSON(fiber.Map{
			"message": "These people may already be you. Claim one with claim_id or set ignore_matches.",
			"matches": result.Matches,
		})
	}

	token, err := h.authService.IssueToken(result.User.ID)
	if err != nil {
		return handleError(c, err)
	}
	setSessionCookie(c, token, h.sessionTTL)

	status := fiber.StatusCreated
	if result.Claimed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    result.User,
		"claimed": result.Claimed,
		"token":   token,
	})
}

func (h *UserHandler) createPartial(c *fiber.Ctx) error {
	if middleware.UserID(c) == "" {
		return handleError(c, apperrors.ErrUnauthorized)
	}

	var in services.PartialInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	user, err := h.service.CreatePartial(c.UserContext(), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleUpdateUser changes the logged in user's own profile.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var in services.UserUpdate
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	user, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(user)
}

// HandleDeleteUser always refuses; users cannot be deleted.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) quotes(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := h.service.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return handleError(c, err)
		}
		return h.listings.quotes(c, services.QuoteScope{QuoteeID: user.ID}, format,
			"Quotes by "+user.Fullname, "/users/"+user.ID+"/quotes")
	}
}

func (h *UserHandler) relevantQuotes(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := h.service.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return handleError(c, err)
		}
		return h.listings.quotes(c, services.QuoteScope{MemberID: user.ID}, format,
			"Quotes for "+user.Fullname, "/users/"+user.ID+"/relevant_quotes")
	}
}

func (h *UserHandler) relevantComments(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := h.service.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return handleError(c, err)
		}
		return h.listings.comments(c, services.CommentScope{MemberID: user.ID}, format,
			"Comments for "+user.Fullname, "/users/"+user.ID+"/relevant_comments")
	}
}
