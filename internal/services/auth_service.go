package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
	"quotebook/pkg/openid"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	kindSession      = "session"
	kindRegistration = "registration"

	registrationTokenDuration = time.Hour
)

// Session is what a valid session token proves.
type Session struct {
	UserID    string
	SessionID string
}

// LoginResult is the outcome of a login. Either User and Token are set, or the identity
// is unknown and Registration carries it with a token for completing sign up.
type LoginResult struct {
	User              *models.User
	Token             string
	Registration      *openid.Identity
	RegistrationToken string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo      repositories.UserRepository
	provider      openid.Provider
	jwtSecret     []byte
	tokenDuration time.Duration
	logger        *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, provider openid.Provider, jwtSecret string, tokenDuration time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		provider:      provider,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
		logger:        logger,
	}
}

// Login verifies an identity provider assertion and opens a session for the matching user.
// Unknown identities get a registration token instead.
func (s *AuthService) Login(ctx context.Context, assertion string) (*LoginResult, error) {
	identity, err := s.provider.Authenticate(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	user, err := s.userRepo.GetByOpenID(ctx, identity.OpenID)
	if apperrors.IsNotFound(err) {
		token, err := s.IssueRegistrationToken(identity)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Registration: identity, RegistrationToken: token}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

// IssueToken creates a session token for userID with a fresh session id.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"kind":    kindSession,
		"user_id": userID,
		"sid":     uuid.New().String(),
		"exp":     now.Add(s.tokenDuration).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses a session token.
func (s *AuthService) ValidateToken(tokenString string) (*Session, error) {
	claims, err := s.parse(tokenString, kindSession)
	if err != nil {
		return nil, err
	}

	userID, _ := claims["user_id"].(string)
	sid, _ := claims["sid"].(string)
	if userID == "" || sid == "" {
		return nil, fmt.Errorf("%w: invalid token: missing subject", apperrors.ErrUnauthorized)
	}
	return &Session{UserID: userID, SessionID: sid}, nil
}

// IssueRegistrationToken binds a verified identity to a short-lived token that
// registration accepts as proof.
func (s *AuthService) IssueRegistrationToken(identity *openid.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"kind":     kindRegistration,
		"openid":   identity.OpenID,
		"nickname": identity.Nickname,
		"fullname": identity.Fullname,
		"email":    identity.Email,
		"exp":      now.Add(registrationTokenDuration).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate registration token: %w", err)
	}
	return tokenString, nil
}

// ValidateRegistrationToken returns the identity a registration token was issued for.
func (s *AuthService) ValidateRegistrationToken(tokenString string) (*openid.Identity, error) {
	claims, err := s.parse(tokenString, kindRegistration)
	if err != nil {
		return nil, err
	}

	id := &openid.Identity{}
	id.OpenID, _ = claims["openid"].(string)
	id.Nickname, _ = claims["nickname"].(string)
	id.Fullname, _ = claims["fullname"].(string)
	id.Email, _ = claims["email"].(string)
	if id.OpenID == "" {
		return nil, fmt.Errorf("%w: invalid token: missing identity", apperrors.ErrUnauthorized)
	}
	return id, nil
}

func (s *AuthService) parse(tokenString, kind string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}
	if claims["kind"] != kind {
		return nil, fmt.Errorf("%w: invalid token: not a %s token", apperrors.ErrUnauthorized, kind)
	}
	return claims, nil
}
