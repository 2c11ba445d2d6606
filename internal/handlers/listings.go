package handlers

import (
	"quotebook/internal/feeds"
	"quotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Listings renders quote and comment listings as JSON pages or Atom feeds. The resource
// handlers share one.
type Listings struct {
	service *services.ListingService
	feeds   *feeds.Builder
}

// NewListings creates a Listings.
func NewListings(service *services.ListingService, builder *feeds.Builder) *Listings {
	return &Listings{service: service, feeds: builder}
}

// page returns the requested page for HTML listings; feeds are never paged.
func (l *Listings) page(c *fiber.Ctx, format services.Format) (int, error) {
	if format == services.FormatAtom {
		return 0, nil
	}
	return pageParam(c)
}

func (l *Listings) quotes(c *fiber.Ctx, scope services.QuoteScope, format services.Format, title, path string) error {
	page, err := l.page(c, format)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	result, err := l.service.ListQuotes(c.UserContext(), scope, format, page)
	if err != nil {
		return handleError(c, err)
	}
	if format == services.FormatHTML {
		return c.JSON(result)
	}

	doc, err := l.feeds.Quotes(title, path, result.Items)
	if err != nil {
		return handleError(c, err)
	}
	return sendAtom(c, doc)
}

func (l *Listings) comments(c *fiber.Ctx, scope services.CommentScope, format services.Format, title, path string) error {
	page, err := l.page(c, format)
	if err != nil {
		return badRequest(c, err.Error(), nil)
	}

	result, err := l.service.ListComments(c.UserContext(), scope, format, page)
	if err != nil {
		return handleError(c, err)
	}
	if format == services.FormatHTML {
		return c.JSON(result)
	}

	doc, err := l.feeds.Comments(title, path, result.Items)
	if err != nil {
		return handleError(c, err)
	}
	return sendAtom(c, doc)
}
