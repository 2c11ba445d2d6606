// Package mailer sends plain-text notification mail.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	gomail "gopkg.in/mail.v2"
)

// Message is one outgoing mail.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers messages. Send must give up when ctx is done.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP server settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   *mail.Address
}

// NewSMTPMailer creates a mailer for the configured relay.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sender address %q: %w", cfg.From, err)
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	d.StartTLSPolicy = gomail.OpportunisticStartTLS
	if cfg.Timeout > 0 {
		d.Timeout = cfg.Timeout
	}

	return &SMTPMailer{dialer: d, from: from}, nil
}

// Send dials the relay and delivers msg, abandoning the attempt when ctx is done.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m := buildMessage(s.from, msg)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send mail: %w", ctx.Err())
	}
}

func buildMessage(from *mail.Address, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", from.Address, from.Name)
	if msg.ToName != "" {
		m.SetAddressHeader("To", msg.To, msg.ToName)
	} else {
		m.SetHeader("To", msg.To)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetDateHeader("Date", time.Now())
	m.SetBody("text/plain", msg.Body)
	return m
}

// LogMailer writes messages to the log instead of sending them. Used when no SMTP
// server is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs the message subject and recipient.
func (l *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "mail not sent, SMTP is not configured",
		slog.String("recipient", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}
