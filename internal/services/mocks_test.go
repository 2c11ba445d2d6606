package services_test

import (
	"context"

	"quotebook/internal/events"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
	"quotebook/pkg/mailer"
	"quotebook/pkg/openid"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *MockUserRepository) GetByFullname(ctx context.Context, fullname string) (*models.User, error) {
	return m.user(m.Called(ctx, fullname))
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserRepository) GetByOpenID(ctx context.Context, openid string) (*models.User, error) {
	return m.user(m.Called(ctx, openid))
}

func (m *MockUserRepository) List(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) FindPartialMatches(ctx context.Context, email, fullname string) ([]models.User, error) {
	args := m.Called(ctx, email, fullname)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) SearchCandidates(ctx context.Context, fragment, requesterID string, limit int) ([]models.User, error) {
	args := m.Called(ctx, fragment, requesterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// MockContextRepository is a mock implementation of repositories.ContextRepository
type MockContextRepository struct {
	mock.Mock
}

func (m *MockContextRepository) context(args mock.Arguments) (*models.Context, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Context), args.Error(1)
}

func (m *MockContextRepository) Create(ctx context.Context, c *models.Context, creatorID string) error {
	return m.Called(ctx, c, creatorID).Error(0)
}

func (m *MockContextRepository) Update(ctx context.Context, c *models.Context) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockContextRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockContextRepository) GetByID(ctx context.Context, id string) (*models.Context, error) {
	return m.context(m.Called(ctx, id))
}

func (m *MockContextRepository) GetByName(ctx context.Context, name string) (*models.Context, error) {
	return m.context(m.Called(ctx, name))
}

func (m *MockContextRepository) List(ctx context.Context) ([]models.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Context), args.Error(1)
}

func (m *MockContextRepository) ListForUser(ctx context.Context, userID string) ([]models.Context, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Context), args.Error(1)
}

func (m *MockContextRepository) Top(ctx context.Context, limit int) ([]models.Context, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.Context), args.Error(1)
}

func (m *MockContextRepository) AddMember(ctx context.Context, contextID, userID string) error {
	return m.Called(ctx, contextID, userID).Error(0)
}

func (m *MockContextRepository) RemoveMember(ctx context.Context, contextID, userID string) error {
	return m.Called(ctx, contextID, userID).Error(0)
}

func (m *MockContextRepository) IsMember(ctx context.Context, contextID, userID string) (bool, error) {
	args := m.Called(ctx, contextID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockContextRepository) Members(ctx context.Context, contextID string) ([]models.User, error) {
	args := m.Called(ctx, contextID)
	return args.Get(0).([]models.User), args.Error(1)
}

// MockQuoteRepository is a mock implementation of repositories.QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) CreateWithMembers(ctx context.Context, quote *models.Quote) error {
	return m.Called(ctx, quote).Error(0)
}

func (m *MockQuoteRepository) Update(ctx context.Context, quote *models.Quote) error {
	return m.Called(ctx, quote).Error(0)
}

func (m *MockQuoteRepository) SetHidden(ctx context.Context, id string, hidden bool) error {
	return m.Called(ctx, id, hidden).Error(0)
}

func (m *MockQuoteRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockQuoteRepository) GetByID(ctx context.Context, id string) (*models.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}

func (m *MockQuoteRepository) List(ctx context.Context, filter repositories.QuoteFilter) ([]models.Quote, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Quote), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuoteRepository) Random(ctx context.Context, filter repositories.QuoteFilter) (*models.Quote, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quote), args.Error(1)
}

// MockCommentRepository is a mock implementation of repositories.CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return m.Called(ctx, comment).Error(0)
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) List(ctx context.Context, filter repositories.CommentFilter) ([]models.Comment, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Comment), args.Get(1).(int64), args.Error(2)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockProvider is a mock implementation of openid.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Authenticate(ctx context.Context, assertion string) (*openid.Identity, error) {
	args := m.Called(ctx, assertion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openid.Identity), args.Error(1)
}

func strptr(s string) *string { return &s }

func fullUser(id, username, fullname, email string) *models.User {
	u := &models.User{
		ID:                id,
		Username:          strptr(username),
		OpenID:            strptr("http://" + username + ".example.com/"),
		Fullname:          fullname,
		EmailNotification: true,
		TimeZone:          "UTC",
	}
	if email != "" {
		u.EmailAddress = strptr(email)
	}
	return u
}
