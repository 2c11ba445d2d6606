// Package openid is the boundary to the external identity provider. Verification of
// provider responses happens behind Provider; this package only canonicalises identifiers
// and carries the attributes the provider releases.
package openid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidAssertion is returned when the provider rejects or cannot parse an assertion.
var ErrInvalidAssertion = errors.New("invalid identity assertion")

// Identity is a verified identifier plus the optional profile attributes released with it.
type Identity struct {
	OpenID   string `json:"openid"`
	Nickname string `json:"nickname,omitempty"`
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Provider verifies an assertion returned by the identity provider.
type Provider interface {
	Authenticate(ctx context.Context, assertion string) (*Identity, error)
}

// Normalize canonicalises a user-supplied identifier: a missing scheme becomes http, the
// host is lowercased, the fragment is dropped and an empty path becomes "/".
func Normalize(identifier string) (string, error) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrInvalidAssertion)
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidAssertion, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidAssertion)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// TrustedProvider accepts a JSON-encoded Identity without verifying it. It exists for
// development and tests and must stay disabled in production.
type TrustedProvider struct{}

// NewTrustedProvider creates a provider that trusts its input.
func NewTrustedProvider() *TrustedProvider {
	return &TrustedProvider{}
}

// Authenticate decodes the assertion and normalises its identifier.
func (TrustedProvider) Authenticate(ctx context.Context, assertion string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var id Identity
	if err := json.Unmarshal([]byte(assertion), &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssertion, err)
	}

	normalized, err := Normalize(id.OpenID)
	if err != nil {
		return nil, err
	}
	id.OpenID = normalized
	id.Nickname = strings.TrimSpace(id.Nickname)
	id.Fullname = strings.TrimSpace(id.Fullname)
	id.Email = strings.TrimSpace(id.Email)
	return &id, nil
}

// RejectingProvider refuses every assertion. It is used when no provider is configured.
type RejectingProvider struct{}

// Authenticate always fails.
func (RejectingProvider) Authenticate(context.Context, string) (*Identity, error) {
	return nil, fmt.Errorf("%w: no identity provider configured", ErrInvalidAssertion)
}
