package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidScopeName(t *testing.T) {
	valid := []string{"a", "read", "profile:read", "email.read", "a_b-c.d:scope2", "urn:x:y/z", strings.Repeat("a", 128)}
	for _, v := range valid {
		assert.True(t, ValidScopeName(v), v)
	}

	invalid := []string{"", "bad space", `quo"te`, `back\slash`, "tab\t", "ñ", strings.Repeat("a", 129)}
	for _, v := range invalid {
		assert.False(t, ValidScopeName(v), v)
	}
}

func TestValidClientID(t *testing.T) {
	assert.True(t, ValidClientID("web"))
	assert.True(t, ValidClientID("my app"))
	assert.False(t, ValidClientID(""))
	assert.False(t, ValidClientID(" web"))
	assert.False(t, ValidClientID("web "))
	assert.False(t, ValidClientID("we\nb"))
}

func TestGrantType(t *testing.T) {
	assert.NoError(t, GrantType("authorization_code"))
	assert.NoError(t, GrantType("implicit"))
	assert.Error(t, GrantType("magic"))
	assert.Error(t, GrantType(""))
}

func TestRedirectURI(t *testing.T) {
	tests := []struct {
		uri string
		ok  bool
	}{
		{"https://app.example.com/cb", true},
		{"http://localhost:3000/cb?x=1", true},
		{"com.example.app:/oauth", true},
		{"/relative/cb", false},
		{"https://app.example.com/cb#frag", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		err := RedirectURI(tt.uri)
		if tt.ok {
			assert.NoError(t, err, tt.uri)
		} else {
			assert.Error(t, err, tt.uri)
		}
	}
}
