package openid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice.example.com", "http://alice.example.com/"},
		{"  HTTPS://Alice.Example.COM/id  ", "https://alice.example.com/id"},
		{"http://example.com/user#frag", "http://example.com/user"},
		{"http://example.com/Path/Case", "http://example.com/Path/Case"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://example.com/", "http://"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalidAssertion, in)
	}
}

func TestTrustedProvider(t *testing.T) {
	p := NewTrustedProvider()

	id, err := p.Authenticate(context.Background(), `{"openid":"Alice.Example.com","nickname":" alice ","email":"a@example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, "http://alice.example.com/", id.OpenID)
	assert.Equal(t, "alice", id.Nickname)
	assert.Equal(t, "a@example.com", id.Email)

	_, err = p.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidAssertion)

	_, err = p.Authenticate(context.Background(), `{"nickname":"x"}`)
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestRejectingProvider(t *testing.T) {
	_, err := RejectingProvider{}.Authenticate(context.Background(), "{}")
	assert.ErrorIs(t, err, ErrInvalidAssertion)
}
