package handlers

import (
	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// QuoteHandler handles HTTP requests for quotes and staged drafts.
type QuoteHandler struct {
	service      *services.QuoteService
	listings     *Listings
	requireLogin fiber.Handler
	validate     *validator.Validate
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(service *services.QuoteService, listings *Listings, requireLogin fiber.Handler) *QuoteHandler {
	return &QuoteHandler{
		service:      service,
		listings:     listings,
		requireLogin: requireLogin,
		validate:     services.NewValidator(),
	}
}

// RegisterRoutes registers the quote routes with the Fiber app.
func (h *QuoteHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/quotes.atom", h.list(services.FormatAtom))

	quoteRoutes := router.Group("/quotes")
	quoteRoutes.Get("/", h.list(services.FormatHTML))
	quoteRoutes.Post("/", h.requireLogin, h.HandleCreateQuote)

	// Registered ahead of /:id so "random" and "draft" are never taken for an id.
	quoteRoutes.Get("/random", h.HandleRandomQuote)
	quoteRoutes.Get("/draft", h.requireLogin, h.HandleGetDraft)
	quoteRoutes.Delete("/draft", h.requireLogin, h.HandleDiscardDraft)
	quoteRoutes.Post("/draft/resume", h.requireLogin, h.HandleResumeDraft)

	quoteRoutes.Get("/:id", h.HandleGetQuoteByID)
	quoteRoutes.Put("/:id", h.requireLogin, h.HandleUpdateQuote)
	quoteRoutes.Delete("/:id", h.requireLogin, h.HandleDeleteQuote)
	quoteRoutes.Put("/:id/hidden", h.requireLogin, h.HandleSetHidden)
}

func (h *QuoteHandler) list(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.listings.quotes(c, services.QuoteScope{}, format, "Latest quotes", "/quotes")
	}
}

// HandleGetQuoteByID retrieves a single quote by its ID.
func (h *QuoteHandler) HandleGetQuoteByID(c *fiber.Ctx) error {
	quote, err := h.service.Get(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(quote)
}

// HandleRandomQuote picks a quote for the sidebar, preferring the viewer's contexts.
func (h *QuoteHandler) HandleRandomQuote(c *fiber.Ctx) error {
	quote, err := h.listings.service.RandomQuote(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(quote)
}

// HandleCreateQuote records a quote. An ambiguous quotee answers 300 with the candidates
// and stages the quote for POST /quotes/draft/resume. Undelivered notifications are listed
// under "warnings".
func (h *QuoteHandler) HandleCreateQuote(c *fiber.Ctx) error {
	var in services.QuoteInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	quote, err := h.service.Submit(c.UserContext(), middleware.UserID(c), middleware.SessionID(c), in)
	if quote == nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdQuote{Quote: quote, Warnings: mailWarnings(c, err)})
}

// HandleGetDraft retrieves the quote staged in this session.
func (h *QuoteHandler) HandleGetDraft(c *fiber.Ctx) error {
	draft, err := h.service.GetDraft(c.UserContext(), middleware.SessionID(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(draft)
}

// HandleDiscardDraft abandons the quote staged in this session.
func (h *QuoteHandler) HandleDiscardDraft(c *fiber.Ctx) error {
	if err := h.service.ClearDraft(c.UserContext(), middleware.SessionID(c)); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ResumeRequest names the user chosen as quotee of the staged quote.
type ResumeRequest struct {
	QuoteeID string `json:"quotee_id" validate:"required"`
}

// HandleResumeDraft saves the staged quote with the chosen quotee.
func (h *QuoteHandler) HandleResumeDraft(c *fiber.Ctx) error {
	var req ResumeRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	quote, err := h.service.Resume(c.UserContext(), middleware.UserID(c), middleware.SessionID(c), req.QuoteeID)
	if quote == nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdQuote{Quote: quote, Warnings: mailWarnings(c, err)})
}

// HandleUpdateQuote changes a quote the user recorded.
func (h *QuoteHandler) HandleUpdateQuote(c *fiber.Ctx) error {
	var in services.QuoteInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	quote, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(quote)
}

// HandleDeleteQuote deletes a quote the user recorded, with its comments.
func (h *QuoteHandler) HandleDeleteQuote(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HiddenRequest sets a quote's visibility.
type HiddenRequest struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// HandleSetHidden hides or restores a quote. Moderators only.
func (h *QuoteHandler) HandleSetHidden(c *fiber.Ctx) error {
	var req HiddenRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	if err := h.service.SetHidden(c.UserContext(), middleware.UserID(c), c.Params("id"), *req.Hidden); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Quote visibility updated", "hidden": *req.Hidden})
}
