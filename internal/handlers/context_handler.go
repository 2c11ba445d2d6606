package handlers

import (
	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ContextHandler handles HTTP requests for contexts.
type ContextHandler struct {
	service      *services.ContextService
	listings     *Listings
	requireLogin fiber.Handler
	validate     *validator.Validate
}

// NewContextHandler creates a new ContextHandler.
func NewContextHandler(service *services.ContextService, listings *Listings, requireLogin fiber.Handler) *ContextHandler {
	return &ContextHandler{
		service:      service,
		listings:     listings,
		requireLogin: requireLogin,
		validate:     services.NewValidator(),
	}
}

// RegisterRoutes registers the context routes with the Fiber app.
func (h *ContextHandler) RegisterRoutes(router fiber.Router) {
	contextRoutes := router.Group("/contexts")
	contextRoutes.Get("/", h.HandleGetContexts)
	contextRoutes.Post("/", h.requireLogin, h.HandleCreateContext)
	contextRoutes.Get("/:id", h.HandleGetContextByID)
	contextRoutes.Put("/:id", h.requireLogin, h.HandleUpdateContext)
	contextRoutes.Delete("/:id", h.requireLogin, h.HandleDeleteContext)
	contextRoutes.Get("/:id/latest", h.HandleLatestQuote)
	contextRoutes.Post("/:id/join", h.requireLogin, h.HandleJoin)
	contextRoutes.Post("/:id/leave", h.requireLogin, h.HandleLeave)
	contextRoutes.Get("/:id/quotes", h.quotes(services.FormatHTML))
	contextRoutes.Get("/:id/quotes.atom", h.quotes(services.FormatAtom))
}

// HandleGetContexts retrieves all contexts.
func (h *ContextHandler) HandleGetContexts(c *fiber.Ctx) error {
	contexts, err := h.service.GetAll(c.UserContext())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(contexts)
}

// HandleGetContextByID retrieves a context with its members.
func (h *ContextHandler) HandleGetContextByID(c *fiber.Ctx) error {
	quoteCtx, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	members, err := h.service.Members(c.UserContext(), quoteCtx.ID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{
		"context": quoteCtx,
		"members": members,
	})
}

// HandleCreateContext creates a context and makes the creator its first member.
func (h *ContextHandler) HandleCreateContext(c *fiber.Ctx) error {
	var in services.ContextInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	quoteCtx, err := h.service.Create(c.UserContext(), middleware.UserID(c), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quoteCtx)
}

// HandleUpdateContext renames or redescribes a context the user belongs to.
func (h *ContextHandler) HandleUpdateContext(c *fiber.Ctx) error {
	var in services.ContextInput
	if ok, err := bind(c, h.validate, &in); !ok {
		return err
	}

	quoteCtx, err := h.service.Update(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(quoteCtx)
}

// HandleDeleteContext deletes a context the user belongs to, with its quotes.
func (h *ContextHandler) HandleDeleteContext(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleLatestQuote retrieves the newest visible quote of a context.
func (h *ContextHandler) HandleLatestQuote(c *fiber.Ctx) error {
	quote, err := h.service.Latest(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(quote)
}

// HandleJoin adds the user to a context.
func (h *ContextHandler) HandleJoin(c *fiber.Ctx) error {
	if err := h.service.Join(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Joined context"})
}

// HandleLeave removes the user from a context.
func (h *ContextHandler) HandleLeave(c *fiber.Ctx) error {
	if err := h.service.Leave(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Left context"})
}

func (h *ContextHandler) quotes(format services.Format) fiber.Handler {
	return func(c *fiber.Ctx) error {
		quoteCtx, err := h.service.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return handleError(c, err)
		}
		return h.listings.quotes(c, services.QuoteScope{ContextID: quoteCtx.ID}, format,
			"Quotes in "+quoteCtx.Name, "/contexts/"+quoteCtx.ID+"/quotes")
	}
}
