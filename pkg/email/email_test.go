package email

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeLink(t *testing.T) {
	link := ComposeLink("sarah.j@email.com", "Re: Housing & support", "Hi Sarah,\n\nThanks 100%")

	assert.Equal(t,
		"mailto:sarah.j@email.com?subject=Re%3A%20Housing%20%26%20support&body=Hi%20Sarah%2C%0A%0AThanks%20100%25",
		link)

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "mailto", parsed.Scheme)
	assert.Equal(t, "Re: Housing & support", parsed.Query().Get("subject"))
	assert.Equal(t, "Hi Sarah,\n\nThanks 100%", parsed.Query().Get("body"))
}

func TestComposeLinkWithoutParams(t *testing.T) {
	assert.Equal(t, "mailto:info@agapesafetynest.org", ComposeLink(" info@agapesafetynest.org ", "", ""))
}

func TestGreeting(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Sarah Johnson", "Hi Sarah,"},
		{"  Maria   Rodriguez ", "Hi Maria,"},
		{"Cher", "Hi Cher,"},
		{"   ", "Hi there,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Greeting(tt.name))
		})
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "> line one\n> line two", Quote("line one\nline two\n"))
}

func TestDeriveNameFromEmail(t *testing.T) {
	first, last := DeriveNameFromEmail("jennifer.williams@agapesafetynest.org")
	assert.Equal(t, "Jennifer", first)
	assert.Equal(t, "Williams", last)

	first, last = DeriveNameFromEmail("admin@agapesafetynest.org")
	assert.Equal(t, "Admin", first)
	assert.Empty(t, last)
}
