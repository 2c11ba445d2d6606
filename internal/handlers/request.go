package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"quotebook/internal/apperrors"
	"quotebook/internal/feeds"
	"quotebook/internal/logging"
	"quotebook/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// bind parses the request body into dst and checks its validate tags. When it reports
// false the error response has already been written.
func bind(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, badRequest(c, "Invalid request body", err)
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, badRequest(c, "Invalid request body", err)
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

// pageParam reads ?page=. An absent parameter is page 1; anything but a positive
// integer is rejected.
func pageParam(c *fiber.Ctx) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("page must be a positive integer")
	}
	return page, nil
}

func sendAtom(c *fiber.Ctx, doc string) error {
	c.Set(fiber.HeaderContentType, feeds.ContentType)
	return c.SendString(doc)
}

// createdQuote is a saved quote plus the notifications that could not be mailed.
type createdQuote struct {
	*models.Quote
	Warnings []string `json:"warnings,omitempty"`
}

// createdComment is a saved comment plus the notifications that could not be mailed.
type createdComment struct {
	*models.Comment
	Warnings []string `json:"warnings,omitempty"`
}

// mailWarnings describes each failed notification in err.
func mailWarnings(c *fiber.Ctx, err error) []string {
	failures := apperrors.MailDeliveries(err)
	if len(failures) == 0 {
		return nil
	}
	logging.FromContext(c.UserContext()).WarnContext(c.UserContext(), "saved with undelivered notifications",
		slog.String("path", c.Path()), slog.Int("failures", len(failures)))

	warnings := make([]string, 0, len(failures))
	for _, f := range failures {
		warnings = append(warnings, fmt.Sprintf("Notification to user %s could not be delivered", f.Recipient))
	}
	return warnings
}
