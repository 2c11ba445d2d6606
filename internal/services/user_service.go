package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"quotebook/internal/apperrors"
	"quotebook/internal/models"
	"quotebook/internal/repositories"
	"quotebook/pkg/openid"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RegistrationInput is the profile a person submits when signing up. ClaimID names the
// partial user they say they are. IgnoreMatches creates a new account even when partial
// users look like the registrant.
type RegistrationInput struct {
	Username      string `json:"username"`
	Fullname      string `json:"fullname"`
	EmailAddress  string `json:"email_address"`
	ClaimID       string `json:"claim_id"`
	IgnoreMatches bool   `json:"ignore_matches"`
}

// RegistrationResult is either the new or claimed user, or the partial users the
// registrant should consider claiming before an account is created.
type RegistrationResult struct {
	User    *models.User
	Claimed bool
	Matches []models.User
}

// PartialInput describes a person being added so they can be quoted.
type PartialInput struct {
	Fullname     string `json:"fullname"`
	EmailAddress string `json:"email_address"`
}

// UserUpdate holds the profile fields a user may change. Nil fields are left alone.
type UserUpdate struct {
	Username          *string `json:"username"`
	Fullname          *string `json:"fullname"`
	EmailAddress      *string `json:"email_address"`
	EmailNotification *bool   `json:"email_notification"`
	TimeZone          *string `json:"time_zone"`
}

// UserService handles business logic related to users.
type UserService struct {
	userRepo repositories.UserRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		validate: NewValidator(),
		logger:   logger,
	}
}

// GetAll retrieves all users.
func (s *UserService) GetAll(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Get retrieves a single user by its ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Register signs up the holder of a verified identity. Without ClaimID or IgnoreMatches,
// partial users sharing the registrant's email or fullname are returned first so the
// registrant can claim one of them.
func (s *UserService) Register(ctx context.Context, identity *openid.Identity, in RegistrationInput) (*RegistrationResult, error) {
	if _, err := s.userRepo.GetByOpenID(ctx, identity.OpenID); err == nil {
		return nil, apperrors.NewValidationError("openid", "is already registered")
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check identity: %w", err)
	}

	profile := models.Profile{
		Username:     strings.TrimSpace(in.Username),
		Fullname:     strings.TrimSpace(in.Fullname),
		EmailAddress: strings.TrimSpace(in.EmailAddress),
	}
	if profile.Username == "" {
		return nil, apperrors.NewValidationError("username", "can't be blank")
	}

	if in.ClaimID != "" {
		return s.claim(ctx, identity, in.ClaimID, profile)
	}

	if !in.IgnoreMatches {
		matches, err := s.userRepo.FindPartialMatches(ctx, profile.EmailAddress, profile.Fullname)
		if err != nil {
			return nil, fmt.Errorf("failed to look for partial users: %w", err)
		}
		if len(matches) > 0 {
			return &RegistrationResult{Matches: matches}, nil
		}
	}

	user := &models.User{
		ID:                uuid.New().String(),
		Username:          &profile.Username,
		Fullname:          profile.Fullname,
		EmailAddress:      optional(profile.EmailAddress),
		OpenID:            &identity.OpenID,
		EmailNotification: true,
		TimeZone:          models.DefaultTimeZone,
	}
	if err := s.save(ctx, user, true); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return &RegistrationResult{User: user}, nil
}

func (s *UserService) claim(ctx context.Context, identity *openid.Identity, id string, profile models.Profile) (*RegistrationResult, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.Claim(identity.OpenID, profile); err != nil {
		if errors.Is(err, models.ErrAlreadyClaimed) {
			return nil, apperrors.NewValidationError("claim_id", "has already been claimed")
		}
		return nil, apperrors.NewValidationError("base", err.Error())
	}
	if err := s.save(ctx, user, false); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "partial user claimed", slog.String("user_id", user.ID))
	return &RegistrationResult{User: user, Claimed: true}, nil
}

// CreatePartial adds a user with no login so they can be quoted. Partial users never
// receive mail until they claim their account.
func (s *UserService) CreatePartial(ctx context.Context, in PartialInput) (*models.User, error) {
	user := &models.User{
		ID:                uuid.New().String(),
		Fullname:          strings.TrimSpace(in.Fullname),
		EmailAddress:      optional(strings.TrimSpace(in.EmailAddress)),
		EmailNotification: false,
		TimeZone:          models.DefaultTimeZone,
	}
	if err := s.save(ctx, user, true); err != nil {
		return nil, err
	}
	return user, nil
}

// Update changes the viewer's own profile.
func (s *UserService) Update(ctx context.Context, viewerID, id string, in UserUpdate) (*models.User, error) {
	if viewerID != id {
		return nil, apperrors.NewForbiddenError("update user", "users can only edit themselves")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, apperrors.NewValidationError("username", "can't be blank")
		}
		user.Username = &name
	}
	if in.Fullname != nil {
		user.Fullname = strings.TrimSpace(*in.Fullname)
	}
	if in.EmailAddress != nil {
		user.EmailAddress = optional(strings.TrimSpace(*in.EmailAddress))
	}
	if in.EmailNotification != nil {
		user.EmailNotification = *in.EmailNotification
	}
	if in.TimeZone != nil {
		tz := strings.TrimSpace(*in.TimeZone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, apperrors.NewValidationError("time_zone", "is not a known time zone")
		}
		user.TimeZone = tz
	}

	if err := s.save(ctx, user, false); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete refuses: users are referenced by quotes they said and recorded.
func (s *UserService) Delete(ctx context.Context, viewerID, id string) error {
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return apperrors.NewForbiddenError("delete user", "users cannot be deleted")
}

func (s *UserService) save(ctx context.Context, user *models.User, create bool) error {
	if err := validateStruct(s.validate, user); err != nil {
		return err
	}
	if err := user.CheckIdentity(); err != nil {
		return apperrors.NewValidationError("base", err.Error())
	}
	if err := s.checkUnique(ctx, user); err != nil {
		return err
	}

	if create {
		return s.userRepo.Create(ctx, user)
	}
	return s.userRepo.Update(ctx, user)
}

// checkUnique reports which field collides with another user, so the message names it.
// The unique indexes still catch races.
func (s *UserService) checkUnique(ctx context.Context, user *models.User) error {
	verr := &apperrors.ValidationError{}
	check := func(field, value string, lookup func(context.Context, string) (*models.User, error)) error {
		if value == "" {
			return nil
		}
		other, err := lookup(ctx, value)
		if apperrors.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check %s: %w", field, err)
		}
		if other.ID != user.ID {
			verr.Add(field, "has already been taken")
		}
		return nil
	}

	if err := check("username", user.Login(), s.userRepo.GetByUsername); err != nil {
		return err
	}
	if err := check("fullname", user.Fullname, s.userRepo.GetByFullname); err != nil {
		return err
	}
	if err := check("email_address", user.Email(), s.userRepo.GetByEmail); err != nil {
		return err
	}
	return verr.OrNil()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
