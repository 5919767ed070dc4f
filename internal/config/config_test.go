// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrganization(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare name", "wpsocio", "wpsocio"},
		{"bare name with spaces", "  wpsocio  ", "wpsocio"},
		{"https url", "https://github.com/wpsocio", "wpsocio"},
		{"url with trailing slash", "https://github.com/wpsocio/", "wpsocio"},
		{"url with repo path", "https://github.com/wpsocio/some-repo", "wpsocio"},
		{"url without scheme", "github.com/wpsocio", "wpsocio"},
		{"url without path", "https://github.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseOrganization(tc.input))
		})
	}
}

func TestValidFrequency(t *testing.T) {
	for _, f := range ValidFrequencies {
		assert.True(t, validFrequency(f), f)
	}
	assert.False(t, validFrequency("hourly"))
	assert.False(t, validFrequency(""))
}
