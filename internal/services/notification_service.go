package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"quotebook/internal/apperrors"
	"quotebook/internal/events"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
	"quotebook/pkg/bbcode"
	"quotebook/pkg/mailer"
)

var quoteMailTemplate = template.Must(template.New("quote").Parse(`Hi {{.Recipient.Fullname}},

{{.Quote.Quoter.Fullname}} has quoted you in {{.Quote.Context.Name}} on theQuotebook:

  "{{.Quote.QuoteText}}"

See it and reply at {{.URL}}

To stop receiving these mails, turn off email notifications in your profile.
`))

var commentMailTemplate = template.Must(template.New("comment").Parse(`Hi {{.Recipient.Fullname}},

{{.Comment.User.Fullname}} commented on a quote of yours on theQuotebook:

  "{{.Comment.Quote.QuoteText}}"

{{.Comment.Body}}

Read the conversation at {{.URL}}

To stop receiving these mails, turn off email notifications in your profile.
`))

const subjectQuoteLength = 40

// NotificationService mails users about quotes and comments that concern them.
type NotificationService struct {
	quoteRepo   repositories.QuoteRepository
	commentRepo repositories.CommentRepository
	mailer      mailer.Mailer
	baseURL     string
	timeout     time.Duration
	logger      *slog.Logger
}

// NewNotificationService creates a new NotificationService. Each mail is abandoned
// after timeout.
func NewNotificationService(
	quoteRepo repositories.QuoteRepository,
	commentRepo repositories.CommentRepository,
	m mailer.Mailer,
	baseURL string,
	timeout time.Duration,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		quoteRepo:   quoteRepo,
		commentRepo: commentRepo,
		mailer:      m,
		baseURL:     baseURL,
		timeout:     timeout,
		logger:      logger,
	}
}

// HandleEvent loads the entity an event names and sends its notifications.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.QuoteCreated:
		quote, err := s.quoteRepo.GetByID(ctx, event.QuoteID)
		if err != nil {
			return fmt.Errorf("failed to load quote for notification: %w", err)
		}
		return s.NotifyQuoteCreated(ctx, quote)
	case events.CommentCreated:
		comment, err := s.commentRepo.GetByID(ctx, event.CommentID)
		if err != nil {
			return fmt.Errorf("failed to load comment for notification: %w", err)
		}
		return s.NotifyCommentCreated(ctx, comment)
	default:
		s.logger.WarnContext(ctx, "ignoring unknown event", slog.String("type", string(event.Type)))
		return nil
	}
}

// NotifyQuoteCreated tells the quotee they were quoted, if they want mail. The quoter is
// never notified.
func (s *NotificationService) NotifyQuoteCreated(ctx context.Context, quote *models.Quote) error {
	recipient := &quote.Quotee
	if !recipient.WantsMail() {
		return nil
	}

	subject := fmt.Sprintf("%s quoted you in %s", quote.Quoter.Fullname, quote.Context.Name)
	return s.deliver(ctx, recipient, subject, quoteMailTemplate, map[string]interface{}{
		"Recipient": recipient,
		"Quote":     quote,
		"URL":       s.baseURL + "/quotes/" + quote.ID,
	})
}

// NotifyCommentCreated tells the quote's quoter and quotee about a new comment, each at
// most once, skipping the comment's author and anyone without mail enabled.
func (s *NotificationService) NotifyCommentCreated(ctx context.Context, comment *models.Comment) error {
	quote := &comment.Quote
	subject := fmt.Sprintf("%s commented on %s",
		comment.User.Fullname, bbcode.Truncate(quote.QuoteText, subjectQuoteLength))
	data := map[string]interface{}{
		"Comment": comment,
		"URL":     fmt.Sprintf("%s/quotes/%s#comment-%s", s.baseURL, quote.ID, comment.ID),
	}

	var errs []error
	for _, recipient := range commentRecipients(comment) {
		data["Recipient"] = recipient
		if err := s.deliver(ctx, recipient, subject, commentMailTemplate, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func commentRecipients(comment *models.Comment) []*models.User {
	var out []*models.User
	seen := map[string]bool{comment.UserID: true}
	for _, u := range []*models.User{&comment.Quote.Quoter, &comment.Quote.Quotee} {
		if u.ID == "" || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		if u.WantsMail() {
			out = append(out, u)
		}
	}
	return out
}

func (s *NotificationService) deliver(ctx context.Context, recipient *models.User, subject string, tmpl *template.Template, data interface{}) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render %s mail: %w", tmpl.Name(), err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.mailer.Send(sendCtx, mailer.Message{
		To:      recipient.Email(),
		ToName:  recipient.Fullname,
		Subject: subject,
		Body:    body.String(),
	})
	if err != nil {
		notificationsFailed.Inc()
		s.logger.WarnContext(ctx, "notification not delivered",
			slog.String("template", tmpl.Name()),
			slog.String("user_id", recipient.ID),
			slog.String("recipient", recipient.Email()),
			slog.Any("error", err))
		return &apperrors.MailDeliveryError{Recipient: recipient.ID, Err: err}
	}

	notificationsSent.Inc()
	s.logger.DebugContext(ctx, "notification delivered",
		slog.String("template", tmpl.Name()), slog.String("user_id", recipient.ID))
	return nil
}
