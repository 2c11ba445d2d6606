// Package feeds renders quote and comment listings as Atom documents.
package feeds

import (
	"fmt"
	"time"

	"quotebook/internal/models"
	"quotebook/pkg/bbcode"

	"github.com/gorilla/feeds"
)

// ContentType is the media type of the generated documents.
const ContentType = "application/atom+xml; charset=utf-8"

const titleQuoteLength = 60

// Builder turns listings into Atom feeds with absolute links under baseURL.
type Builder struct {
	baseURL string
}

// NewBuilder creates a builder. baseURL must not end in a slash.
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: baseURL}
}

func (b *Builder) url(path string) string {
	return b.baseURL + path
}

func (b *Builder) feed(title, path string) *feeds.Feed {
	self := b.url(path + ".atom")
	return &feeds.Feed{
		Title:  title,
		Link:   &feeds.Link{Href: b.url(path), Rel: "alternate", Type: "text/html"},
		Id:     self,
		Author: &feeds.Author{Name: "theQuotebook"},
	}
}

// Quotes renders quotes as a feed whose alternate page is path.
func (b *Builder) Quotes(title, path string, quotes []models.Quote) (string, error) {
	f := b.feed(title, path)
	for i := range quotes {
		q := &quotes[i]
		link := b.url("/quotes/" + q.ID)
		f.Add(&feeds.Item{
			Title:   fmt.Sprintf("%s: %s", q.Quotee.Fullname, q.QuoteText),
			Link:    &feeds.Link{Href: link},
			Id:      link,
			Author:  &feeds.Author{Name: displayName(&q.Quoter)},
			Created: q.CreatedAt,
			Updated: q.UpdatedAt,
			Content: bbcode.FormatQuote(q.QuoteText),
		})
	}
	f.Updated = latest(f.Items)

	out, err := f.ToAtom()
	if err != nil {
		return "", fmt.Errorf("failed to render quote feed: %w", err)
	}
	return out, nil
}

// Comments renders comments as a feed whose alternate page is path.
func (b *Builder) Comments(title, path string, comments []models.Comment) (string, error) {
	f := b.feed(title, path)
	for i := range comments {
		c := &comments[i]
		link := b.url(fmt.Sprintf("/quotes/%s/comments/%s", c.QuoteID, c.ID))
		f.Add(&feeds.Item{
			Title: fmt.Sprintf("%s on %s (%s)",
				displayName(&c.User),
				bbcode.Truncate(c.Quote.QuoteText, titleQuoteLength),
				c.Quote.Quotee.Fullname),
			Link:    &feeds.Link{Href: link},
			Id:      link,
			Author:  &feeds.Author{Name: displayName(&c.User)},
			Created: c.CreatedAt,
			Updated: c.UpdatedAt,
			Content: bbcode.Render(c.Body, bbcode.ModeDisable),
		})
	}
	f.Updated = latest(f.Items)

	out, err := f.ToAtom()
	if err != nil {
		return "", fmt.Errorf("failed to render comment feed: %w", err)
	}
	return out, nil
}

func displayName(u *models.User) string {
	if login := u.Login(); login != "" {
		return login
	}
	return u.Fullname
}

// latest is the newest entry update, or the Unix epoch for an empty feed.
func latest(items []*feeds.Item) time.Time {
	var t time.Time
	for _, item := range items {
		if item.Updated.After(t) {
			t = item.Updated
		}
	}
	if t.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return t
}
