package handlers

import (
	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CommentHandler handles HTTP requests for comments.
type CommentHandler struct {
	service      *services.CommentService
	quotes       *services.QuoteService
	listings     *Listings
	requireLogin fiber.Handler
	validate     *validator.Validate
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(service *services.CommentService, quotes *services.QuoteService, listings *Listings, requireLogin fiber.Handler) *CommentHandler {
	return &CommentHandler{
		service:      service,
		quotes:       quotes,
		listings:     listings,
		requireLogin: requireLogin,
		validate:     services.NewValidator(),
	}
}

// RegisterRoutes registers the comment routes with the Fiber app.
func (h *CommentHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/comments", h.all(services.FormatHTML))
	router.Get("/comments.atom", h.all(services.FormatAtom))

	router.Get("/quotes/:id/comments", h.onQuote(services.FormatHTML))
	router.Get("/quotes/:id/comments.atom", h.onQuote(services.FormatAtom))
	router.Post("/quotes/:id/comments", h.requireLogin, h.HandleCreateComment)
	router.Get("/quotes/:id/comments/:comment_id", h.HandleGetCommentByID)
	router.Put("/quotes/:id/comments/:comment_id", h.requireLogin, h.HandleUpdateComment)
	router.Delete("/quotes/:id/comments/:comment_id", h.requireLogin, h.HandleDeleteComment)
}

func (h *CommentHandler) all(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.listings.comments(c, services.CommentScope{}, format, "Latest comments", "/comments")
	}
}

func (h *CommentHandler) onQuote(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		quote, err := h.quotes.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return handleError(c, err)
		}
		return h.listings.comments(c, services.CommentScope{QuoteID: quote.ID}, format,
			"Comments on "+quote.Quotee.Fullname+"'s quote", "/quotes/"+quote.ID+"/comments")
	}
}

// HandleGetCommentByID retrieves a single comment of a quote.
func (h *CommentHandler) HandleGetCommentByID(c *fiber.Ctx) error {
	comment, err := h.service.Get(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("comment_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(comment)
}

// HandleCreateComment adds a comment to a quote.
func (h *CommentHandler) HandleCreateComment(c *fiber.Ctx) error {
	var in services.CommentInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	comment, err := h.service.Create(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
	if comment == nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdComment{Comment: comment, Warnings: mailWarnings(c, err)})
}

// HandleUpdateComment edits a comment the user wrote.
func (h *CommentHandler) HandleUpdateComment(c *fiber.Ctx) error {
	var in services.CommentInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	comment, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("comment_id"), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(comment)
}

// HandleDeleteComment deletes a comment the user wrote.
func (h *CommentHandler) HandleDeleteComment(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id"), c.Params("comment_id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
