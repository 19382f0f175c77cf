package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientAllowsGrant(t *testing.T) {
	c := &Client{GrantTypes: []string{"authorization_code"}}
	assert.True(t, c.AllowsGrant("authorization_code"))
	assert.False(t, c.AllowsGrant("password"))

	open := &Client{}
	assert.True(t, open.AllowsGrant("client_credentials"))
	assert.True(t, open.AllowsGrant("implicit"))
}
