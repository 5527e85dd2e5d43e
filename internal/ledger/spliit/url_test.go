package spliit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupURL(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantServer string
		wantID     string
	}{
		{"plain", "https://spliit.app/groups/abc123", "https://spliit.app", "abc123"},
		{"expenses page", "https://spliit.app/groups/abc123/expenses", "https://spliit.app", "abc123"},
		{"trailing slash", "https://spliit.app/groups/abc123/", "https://spliit.app", "abc123"},
		{"self hosted with port", "http://localhost:3000/groups/xyz", "http://localhost:3000", "xyz"},
		{"no groups segment", "https://split.example.com/g/q1", "https://split.example.com", "q1"},
		{"surrounding space", "  https://spliit.app/groups/abc  ", "https://spliit.app", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, id, err := ParseGroupURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantServer, server)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestParseGroupURL_Invalid(t *testing.T) {
	for _, raw := range []string{"", "spliit.app/groups/abc", "https://spliit.app", "https://spliit.app/groups/", "://bad"} {
		t.Run(raw, func(t *testing.T) {
			_, _, err := ParseGroupURL(raw)
			assert.ErrorIs(t, err, ErrInvalidGroupURL)
		})
	}
}
