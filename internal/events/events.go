// Package events carries notifications of committed writes from the services that make
// them to the consumers that react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Type names an event.
type Type string

const (
	QuoteCreated   Type = "quote.created"
	CommentCreated Type = "comment.created"
)

// Event records that an entity was committed. Consumers load the entity by id.
type Event struct {
	Type       Type      `json:"type"`
	QuoteID    string    `json:"quote_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewQuoteCreated builds the event published after a quote is saved.
func NewQuoteCreated(quoteID string) Event {
	return Event{Type: QuoteCreated, QuoteID: quoteID, OccurredAt: time.Now().UTC()}
}

// NewCommentCreated builds the event published after a comment is saved.
func NewCommentCreated(commentID, quoteID string) Event {
	return Event{Type: CommentCreated, CommentID: commentID, QuoteID: quoteID, OccurredAt: time.Now().UTC()}
}

// Publisher hands events to their consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Handler consumes an event.
type Handler func(ctx context.Context, event Event) error

// DirectPublisher runs the handler in the publishing goroutine.
type DirectPublisher struct {
	handler Handler
}

// NewDirectPublisher creates a publisher that calls handler synchronously.
func NewDirectPublisher(handler Handler) *DirectPublisher {
	return &DirectPublisher{handler: handler}
}

// Publish calls the handler and returns its error.
func (p *DirectPublisher) Publish(ctx context.Context, event Event) error {
	return p.handler(ctx, event)
}

// Broker is the queue an event is serialised onto.
type Broker interface {
	Publish(body []byte) error
}

// BrokerPublisher sends events as JSON through a message broker.
type BrokerPublisher struct {
	broker Broker
}

// NewBrokerPublisher creates a publisher backed by broker.
func NewBrokerPublisher(broker Broker) *BrokerPublisher {
	return &BrokerPublisher{broker: broker}
}

// Publish serialises the event and hands it to the broker.
func (p *BrokerPublisher) Publish(_ context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	if err := p.broker.Publish(body); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Decode adapts handler to raw broker messages.
func Decode(ctx context.Context, handler Handler) func(body []byte) error {
	return func(body []byte) error {
		var event Event
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		return handler(ctx, event)
	}
}
