package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"quotebook/internal/drafts"
	"quotebook/internal/events"
	"quotebook/internal/feeds"
	"quotebook/internal/handlers"
	"quotebook/internal/logging"
	"quotebook/internal/middleware"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
	"quotebook/internal/services"
	"quotebook/pkg/mailer"
	"quotebook/pkg/openid"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "test_jwt_secret"
	moderatorID   = "moderator-1"
)

// recordingMailer keeps every message it is asked to send, or fails them all once
// failWith is called.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) failWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

type testApp struct {
	app  *fiber.App
	mail *recordingMailer
}

// setupApp wires every handler against a private in-memory SQLite database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	logger := logging.Discard()

	db, err := repositories.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	userRepo := repositories.NewGORMUserRepository(db)
	contextRepo := repositories.NewGORMContextRepository(db)
	quoteRepo := repositories.NewGORMQuoteRepository(db)
	commentRepo := repositories.NewGORMCommentRepository(db)

	seedModerator(t, userRepo)

	mail := &recordingMailer{}
	notifications := services.NewNotificationService(quoteRepo, commentRepo, mail, "http://quotebook.test", time.Second, logger)
	publisher := events.NewDirectPublisher(notifications.HandleEvent)

	authService := services.NewAuthService(userRepo, openid.NewTrustedProvider(), testJWTSecret, time.Hour, logger)
	resolver := services.NewNameResolver(userRepo, contextRepo)
	quoteService := services.NewQuoteService(quoteRepo, contextRepo, userRepo, resolver,
		drafts.NewMemoryStore(time.Hour), publisher, []string{moderatorID}, logger)
	commentService := services.NewCommentService(commentRepo, quoteService, publisher, logger)
	contextService := services.NewContextService(contextRepo, quoteRepo)
	userService := services.NewUserService(userRepo, logger)
	listingService := services.NewListingService(quoteRepo, commentRepo, contextRepo)

	listings := handlers.NewListings(listingService, feeds.NewBuilder("http://quotebook.test"))
	requireLogin := middleware.AuthRequired(authService, logger)

	app := fiber.New()
	app.Use(middleware.OptionalAuth(authService))
	handlers.NewHomeHandler(listingService).RegisterRoutes(app)
	handlers.NewSessionHandler(authService, quoteService, time.Hour, logger).RegisterRoutes(app)
	handlers.NewUserHandler(userService, authService, listings, requireLogin, time.Hour).RegisterRoutes(app)
	handlers.NewContextHandler(contextService, listings, requireLogin).RegisterRoutes(app)
	handlers.NewQuoteHandler(quoteService, listings, requireLogin).RegisterRoutes(app)
	handlers.NewCommentHandler(commentService, quoteService, listings, requireLogin).RegisterRoutes(app)

	return &testApp{app: app, mail: mail}
}

func seedModerator(t *testing.T, users repositories.UserRepository) {
	t.Helper()
	username := "moderator"
	openID := "http://moderator.example.com/"
	require.NoError(t, users.Create(context.Background(), &models.User{
		ID:       moderatorID,
		Username: &username,
		Fullname: "Molly Moderator",
		OpenID:   &openID,
		TimeZone: "UTC",
	}))
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func assertion(t *testing.T, identity openid.Identity) string {
	t.Helper()
	b, err := json.Marshal(identity)
	require.NoError(t, err)
	return string(b)
}

// signUp logs in with a new identity and completes registration, returning the user and
// a session token.
func (a *testApp) signUp(t *testing.T, username, fullname, email string) (models.User, string) {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/session", "", fiber.Map{
		"assertion": assertion(t, openid.Identity{OpenID: username + ".example.com"}),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Message           string `json:"message"`
		RegistrationToken string `json:"registration_token"`
	}
	decode(t, resp, &login)
	require.Equal(t, "Registration required", login.Message)

	resp = a.do(t, http.MethodPost, "/users", "", fiber.Map{
		"registration_token": login.RegistrationToken,
		"username":           username,
		"fullname":           fullname,
		"email_address":      email,
		"ignore_matches":     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	decode(t, resp, &registered)
	require.NotEmpty(t, registered.Token)
	return registered.User, registered.Token
}

func (a *testApp) newContext(t *testing.T, token, name string) models.Context {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/contexts", token, fiber.Map{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var c models.Context
	decode(t, resp, &c)
	return c
}

func (a *testApp) newQuote(t *testing.T, token, text, contextName, quotee string) models.Quote {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/quotes", token, fiber.Map{
		"quote_text": text,
		"context":    contextName,
		"quotee":     quotee,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var q models.Quote
	decode(t, resp, &q)
	return q
}

func TestSessionLoginAndRegistration(t *testing.T) {
	a := setupApp(t)

	alice, _ := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	assert.Equal(t, "alice", alice.Login())

	resp := a.do(t, http.MethodPost, "/session", "", fiber.Map{
		"assertion": assertion(t, openid.Identity{OpenID: "http://ALICE.example.com"}),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Message string      `json:"message"`
		Token   string      `json:"token"`
		User    models.User `json:"user"`
	}
	decode(t, resp, &login)
	assert.Equal(t, "Login successful", login.Message)
	assert.Equal(t, alice.ID, login.User.ID)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), middleware.SessionCookie+"=")

	resp = a.do(t, http.MethodPost, "/session", "", fiber.Map{"assertion": "not json"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/session", "", fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/users", "", fiber.Map{"registration_token": "forged", "username": "mallory"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegistrationOffersPartialMatches(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")

	resp := a.do(t, http.MethodPost, "/users?mode=partial", token, fiber.Map{
		"fullname": "Bob Builder", "email_address": "bob@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var partial models.User
	decode(t, resp, &partial)
	assert.True(t, partial.IsPartial())

	resp = a.do(t, http.MethodPost, "/session", "", fiber.Map{
		"assertion": assertion(t, openid.Identity{OpenID: "bob.example.com"}),
	})
	var login struct {
		RegistrationToken string `json:"registration_token"`
	}
	decode(t, resp, &login)

	resp = a.do(t, http.MethodPost, "/users", "", fiber.Map{
		"registration_token": login.RegistrationToken,
		"username":           "bob",
		"fullname":           "Bob Builder",
	})
	require.Equal(t, http.StatusMultipleChoices, resp.StatusCode)
	var offer struct {
		Matches []models.User `json:"matches"`
	}
	decode(t, resp, &offer)
	require.Len(t, offer.Matches, 1)
	assert.Equal(t, partial.ID, offer.Matches[0].ID)

	resp = a.do(t, http.MethodPost, "/users", "", fiber.Map{
		"registration_token": login.RegistrationToken,
		"username":           "bob",
		"claim_id":           partial.ID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var claimed struct {
		User    models.User `json:"user"`
		Claimed bool        `json:"claimed"`
	}
	decode(t, resp, &claimed)
	assert.True(t, claimed.Claimed)
	assert.Equal(t, partial.ID, claimed.User.ID)
	assert.Equal(t, "bob", claimed.User.Login())
}

func TestWritesRequireLogin(t *testing.T) {
	a := setupApp(t)

	resp := a.do(t, http.MethodPost, "/quotes", "", fiber.Map{"quote_text": "hello there"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/contexts", "", fiber.Map{"name": "Office"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/users?mode=partial", "", fiber.Map{"fullname": "Bob Builder"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/quotes/draft", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestQuoteNotifiesQuoteeAndCommentNotifiesQuoter(t *testing.T) {
	a := setupApp(t)
	_, aliceToken := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, bobToken := a.signUp(t, "bob", "Bob Builder", "bob@example.com")
	a.newContext(t, aliceToken, "Office")

	quote := a.newQuote(t, aliceToken, "I never said that", "office", "BOB")
	assert.Equal(t, "Bob Builder", quote.Quotee.Fullname)

	sent := a.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "bob@example.com", sent[0].To)
	assert.Equal(t, "Alice Anderson quoted you in Office", sent[0].Subject)

	resp := a.do(t, http.MethodPost, "/quotes/"+quote.ID+"/comments", bobToken, fiber.Map{"body": "I really did not"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	sent = a.mail.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "alice@example.com", sent[1].To)
	assert.True(t, strings.HasPrefix(sent[1].Subject, "Bob Builder commented on"))
}

func TestAmbiguousQuoteeThenResume(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	a.newContext(t, token, "Office")

	resp := a.do(t, http.MethodPost, "/quotes", token, fiber.Map{
		"quote_text": "Ship it on Friday",
		"context":    "Office",
		"quotee":     "Bobby",
	})
	require.Equal(t, http.StatusMultipleChoices, resp.StatusCode)
	var ambiguous struct {
		Field      string        `json:"field"`
		Candidates []interface{} `json:"candidates"`
	}
	decode(t, resp, &ambiguous)
	assert.Equal(t, "quotee", ambiguous.Field)
	assert.NotNil(t, ambiguous.Candidates)
	assert.Empty(t, ambiguous.Candidates)

	resp = a.do(t, http.MethodGet, "/quotes/draft", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var draft drafts.Draft
	decode(t, resp, &draft)
	assert.Equal(t, "Ship it on Friday", draft.QuoteText)
	assert.Equal(t, "Office", draft.ContextName)

	resp = a.do(t, http.MethodPost, "/users?mode=partial", token, fiber.Map{"fullname": "Bobby Tables"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var bobby models.User
	decode(t, resp, &bobby)

	resp = a.do(t, http.MethodPost, "/quotes/draft/resume", token, fiber.Map{"quotee_id": bobby.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var quote models.Quote
	decode(t, resp, &quote)
	assert.Equal(t, "Ship it on Friday", quote.QuoteText)
	assert.Equal(t, bobby.ID, quote.QuoteeID)
	assert.Equal(t, "Office", quote.Context.Name)

	resp = a.do(t, http.MethodGet, "/quotes/draft", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Partial users have notifications off.
	assert.Empty(t, a.mail.messages())
}

func TestSubmitValidation(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")

	resp := a.do(t, http.MethodPost, "/quotes", token, fiber.Map{
		"quote_text": "hi",
		"context":    "Nowhere",
		"quotee":     "",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var invalid struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, resp, &invalid)
	assert.Contains(t, invalid.Errors, "quote_text")
	assert.Contains(t, invalid.Errors, "context")
	assert.Contains(t, invalid.Errors, "quotee")
}

func TestHiddenQuotesLeaveListings(t *testing.T) {
	a := setupApp(t)
	_, aliceToken := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, bobToken := a.signUp(t, "bob", "Bob Builder", "")
	a.newContext(t, aliceToken, "Office")
	quote := a.newQuote(t, aliceToken, "Meetings are great", "Office", "bob")

	resp := a.do(t, http.MethodPut, "/quotes/"+quote.ID+"/hidden", aliceToken, fiber.Map{"hidden": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/session", "", fiber.Map{
		"assertion": assertion(t, openid.Identity{OpenID: "moderator.example.com"}),
	})
	var login struct {
		Token string `json:"token"`
	}
	decode(t, resp, &login)
	require.NotEmpty(t, login.Token)

	resp = a.do(t, http.MethodPut, "/quotes/"+quote.ID+"/hidden", login.Token, fiber.Map{"hidden": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/quotes", "", nil)
	var page services.Page[models.Quote]
	decode(t, resp, &page)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(0), page.Total)

	resp = a.do(t, http.MethodGet, "/quotes/"+quote.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = a.do(t, http.MethodGet, "/quotes/"+quote.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuoteFeedsAndPaging(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, _ = a.signUp(t, "bob", "Bob Builder", "")
	office := a.newContext(t, token, "Office")
	a.newQuote(t, token, "Coffee first", "Office", "bob")

	resp := a.do(t, http.MethodGet, "/quotes.atom", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, feeds.ContentType, resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Bob Builder: Coffee first")

	resp = a.do(t, http.MethodGet, "/contexts/"+office.ID+"/quotes.atom", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Quotes in Office")

	resp = a.do(t, http.MethodGet, "/quotes?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = a.do(t, http.MethodGet, "/quotes?page=two", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/quotes?page=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page services.Page[models.Quote]
	decode(t, resp, &page)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(1), page.Total)

	resp = a.do(t, http.MethodGet, "/contexts/missing/quotes", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHomeForViewer(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, bobToken := a.signUp(t, "bob", "Bob Builder", "")
	a.newContext(t, token, "Office")
	quote := a.newQuote(t, token, "Lunch is at noon", "Office", "bob")
	resp := a.do(t, http.MethodPost, "/quotes/"+quote.ID+"/comments", bobToken, fiber.Map{"body": "Always noon"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var anonymous services.Home
	decode(t, resp, &anonymous)
	assert.Len(t, anonymous.Quotes.Items, 1)
	require.Len(t, anonymous.TopContexts, 1)
	assert.Equal(t, int64(1), anonymous.TopContexts[0].QuoteCount)
	assert.Empty(t, anonymous.Comments)

	resp = a.do(t, http.MethodGet, "/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var home services.Home
	decode(t, resp, &home)
	assert.Len(t, home.ViewerContexts, 1)
	assert.Len(t, home.Comments, 1)
}

func TestDeleteQuoteRemovesComments(t *testing.T) {
	a := setupApp(t)
	_, aliceToken := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, bobToken := a.signUp(t, "bob", "Bob Builder", "")
	a.newContext(t, aliceToken, "Office")
	quote := a.newQuote(t, aliceToken, "Deploys are easy", "Office", "bob")

	resp := a.do(t, http.MethodPost, "/quotes/"+quote.ID+"/comments", bobToken, fiber.Map{"body": "Famous last words"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)

	resp = a.do(t, http.MethodDelete, "/quotes/"+quote.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/quotes/"+quote.ID, aliceToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/quotes/"+quote.ID+"/comments/"+comment.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/comments", "", nil)
	var page services.Page[models.Comment]
	decode(t, resp, &page)
	assert.Empty(t, page.Items)
}

func TestUsersCannotBeDeleted(t *testing.T) {
	a := setupApp(t)
	alice, aliceToken := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	_, bobToken := a.signUp(t, "bob", "Bob Builder", "")
	a.newContext(t, aliceToken, "Office")

	byAlice := a.newQuote(t, aliceToken, "Ship it on Friday", "Office", "bob")
	aboutAlice := a.newQuote(t, bobToken, "Tests are optional", "Office", "alice")
	resp := a.do(t, http.MethodPost, "/quotes/"+aboutAlice.ID+"/comments", aliceToken, fiber.Map{"body": "Out of context"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment models.Comment
	decode(t, resp, &comment)

	resp = a.do(t, http.MethodDelete, "/users/"+alice.ID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/users/"+alice.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, q := range []models.Quote{byAlice, aboutAlice} {
		resp = a.do(t, http.MethodGet, "/quotes/"+q.ID, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp = a.do(t, http.MethodGet, "/quotes/"+aboutAlice.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var thread services.Page[models.Comment]
	decode(t, resp, &thread)
	require.Len(t, thread.Items, 1)
	assert.Equal(t, comment.ID, thread.Items[0].ID)
	assert.Equal(t, alice.ID, thread.Items[0].UserID)
}

func TestMailFailureIsReportedAsWarning(t *testing.T) {
	a := setupApp(t)
	_, aliceToken := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")
	bob, bobToken := a.signUp(t, "bob", "Bob Builder", "bob@example.com")
	a.newContext(t, aliceToken, "Office")

	type created struct {
		ID       string   `json:"id"`
		Warnings []string `json:"warnings"`
	}

	resp := a.do(t, http.MethodPost, "/quotes", aliceToken, fiber.Map{
		"quote_text": "Mail always works", "context": "Office", "quotee": "bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var delivered created
	decode(t, resp, &delivered)
	assert.Empty(t, delivered.Warnings)

	a.mail.failWith(errors.New("smtp: connection refused"))

	resp = a.do(t, http.MethodPost, "/quotes", aliceToken, fiber.Map{
		"quote_text": "Mail never fails", "context": "Office", "quotee": "bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var quote created
	decode(t, resp, &quote)
	require.NotEmpty(t, quote.ID)
	require.Len(t, quote.Warnings, 1)
	assert.Contains(t, quote.Warnings[0], bob.ID)

	resp = a.do(t, http.MethodGet, "/quotes/"+quote.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodPost, "/quotes/"+quote.ID+"/comments", bobToken, fiber.Map{"body": "Famous last words"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var comment created
	decode(t, resp, &comment)
	require.NotEmpty(t, comment.ID)
	assert.Len(t, comment.Warnings, 1)
}

func TestRandomQuote(t *testing.T) {
	a := setupApp(t)
	_, token := a.signUp(t, "alice", "Alice Anderson", "alice@example.com")

	resp := a.do(t, http.MethodGet, "/quotes/random", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	a.newContext(t, token, "Office")
	quote := a.newQuote(t, token, "Pick a card", "Office", "alice")

	for _, viewer := range []string{"", token} {
		resp = a.do(t, http.MethodGet, "/quotes/random", viewer, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var picked models.Quote
		decode(t, resp, &picked)
		assert.Equal(t, quote.ID, picked.ID)
	}
}
