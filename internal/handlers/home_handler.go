package handlers

import (
	"quotebook/internal/middleware"
	"quotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HomeHandler serves the front page.
type HomeHandler struct {
	service *services.ListingService
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(service *services.ListingService) *HomeHandler {
	return &HomeHandler{service: service}
}

// RegisterRoutes registers the front page route with the Fiber app.
func (h *HomeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
}

// HandleHome assembles the front page for the viewer, who may be anonymous.
func (h *HomeHandler) HandleHome(c *fiber.Ctx) error {
	page, err := pageParam(c)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	home, err := h.service.Home(c.UserContext(), middleware.UserID(c), page)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(home)
}
