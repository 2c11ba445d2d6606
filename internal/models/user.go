package models

import (
	"errors"
	"strings"
	"time"
)

// DefaultTimeZone is the time zone of users who have not chosen one.
const DefaultTimeZone = "UTC"

// ErrAlreadyClaimed is returned by Claim when the user already has a login identity.
var ErrAlreadyClaimed = errors.New("user already has a login identity")

// ErrInconsistentIdentity is returned when exactly one of username and OpenID is set.
var ErrInconsistentIdentity = errors.New("username and openid must both be set or both be empty")

// User is a person who can be quoted. Full users can log in; partial users were created by
// someone else so they could be attributed a quote, and can be claimed later.
type User struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username          *string   `json:"username,omitempty" gorm:"type:varchar(40)" validate:"omitempty,min=3,max=40"`
	Fullname          string    `json:"fullname" gorm:"type:varchar(100);not null" validate:"required,min=5,max=100"`
	EmailAddress      *string   `json:"-" gorm:"type:varchar(255)" validate:"omitempty,email"`
	OpenID            *string   `json:"-" gorm:"column:openid;type:varchar(255)"`
	EmailNotification bool      `json:"email_notification" gorm:"not null"`
	TimeZone          string    `json:"time_zone" gorm:"type:varchar(64);not null;default:UTC"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// QuoteCount is filled by ranking queries only.
	QuoteCount int64 `json:"-" gorm:"->;-:migration"`
}

// Identity is the login state of a user: either FullIdentity or PartialIdentity.
type Identity interface {
	isIdentity()
}

// FullIdentity belongs to a user who registered through an identity provider.
type FullIdentity struct {
	Username string
	OpenID   string
}

// PartialIdentity belongs to a placeholder user created so a quote could be attributed.
type PartialIdentity struct{}

func (FullIdentity) isIdentity()    {}
func (PartialIdentity) isIdentity() {}

// Identity returns the user's login state. Call CheckIdentity first on rows of unknown origin.
func (u *User) Identity() Identity {
	if u.Username != nil && u.OpenID != nil {
		return FullIdentity{Username: *u.Username, OpenID: *u.OpenID}
	}
	return PartialIdentity{}
}

// IsPartial reports whether the user has no login identity yet.
func (u *User) IsPartial() bool {
	_, ok := u.Identity().(PartialIdentity)
	return ok
}

// CheckIdentity rejects rows with exactly one of username and OpenID set.
func (u *User) CheckIdentity() error {
	if (u.Username == nil) != (u.OpenID == nil) {
		return ErrInconsistentIdentity
	}
	return nil
}

// Profile holds the fields a registering user supplies.
type Profile struct {
	Username     string
	Fullname     string
	EmailAddress string
}

// Claim promotes a partial user to a full one. Fullname and email are replaced only when
// the profile supplies them. Email notification is switched on, as for any self-registered
// user.
func (u *User) Claim(openid string, p Profile) error {
	if !u.IsPartial() {
		return ErrAlreadyClaimed
	}
	if openid == "" || strings.TrimSpace(p.Username) == "" {
		return ErrInconsistentIdentity
	}

	username := strings.TrimSpace(p.Username)
	u.Username = &username
	u.OpenID = &openid
	if name := strings.TrimSpace(p.Fullname); name != "" {
		u.Fullname = name
	}
	if email := strings.TrimSpace(p.EmailAddress); email != "" {
		u.EmailAddress = &email
	}
	u.EmailNotification = true
	return nil
}

// Email returns the address, or "" when none is set.
func (u *User) Email() string {
	if u.EmailAddress == nil {
		return ""
	}
	return *u.EmailAddress
}

// Login returns the username, or "" for partial users.
func (u *User) Login() string {
	if u.Username == nil {
		return ""
	}
	return *u.Username
}

// WantsMail reports whether the user can and wants to receive notifications.
func (u *User) WantsMail() bool {
	return u.EmailNotification && strings.TrimSpace(u.Email()) != ""
}
