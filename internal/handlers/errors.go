package handlers

import (
	"errors"
	"log/slog"

	"quotebook/internal/apperrors"
	"quotebook/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// handleError writes the JSON response for an error returned by a service.
func handleError(c *fiber.Ctx, err error) error {
	var (
		verr      *apperrors.ValidationError
		ambiguous *apperrors.AmbiguousMatchError
	)

	switch {
	case errors.As(err, &ambiguous):
		return c.Status(fiber.StatusMultipleChoices).JSON(fiber.Map{
			"message":    ambiguous.Error(),
			"field":      ambiguous.Field,
			"query":      ambiguous.Query,
			"candidates": ambiguous.Candidates,
		})
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  verr.Fields,
		})
	case apperrors.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case apperrors.IsForbidden(err):
		logging.FromContext(c.UserContext()).InfoContext(c.UserContext(), "permission denied",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err))
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": err.Error(),
		})
	case apperrors.IsUnauthorized(err):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	logging.FromContext(c.UserContext()).ErrorContext(c.UserContext(), "request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	body := fiber.Map{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
