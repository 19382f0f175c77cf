package password

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/memory"
)

func cheapHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestVerifyBcryptAndArgon2(t *testing.T) {
	bc := cheapHash(t, "s3cret")
	assert.True(t, Verify("s3cret", bc))
	assert.False(t, Verify("wrong", bc))

	ar, err := HashArgon2id(Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 32}, "s3cret")
	require.NoError(t, err)
	assert.True(t, Verify("s3cret", ar))
	assert.False(t, Verify("wrong", ar))

	assert.False(t, Verify("", bc))
	assert.False(t, Verify("x", ""))
}

func TestAuthenticator(t *testing.T) {
	users := memory.NewUserStore(
		repository.User{Username: "alice", PasswordHash: cheapHash(t, "pw")},
		repository.User{Username: "carol", PasswordHash: cheapHash(t, "pw"), Disabled: true},
	)
	a := &Authenticator{Users: users}
	ctx := context.Background()

	name, err := a.Authenticate(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = a.Authenticate(ctx, "alice", "nope")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Authenticate(ctx, "ghost", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = a.Authenticate(ctx, "carol", "pw")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestCheckClientSecret(t *testing.T) {
	public := &repository.Client{ClientID: "spa"}
	assert.True(t, CheckClientSecret(public, ""))
	assert.False(t, CheckClientSecret(public, "anything"))

	conf := &repository.Client{ClientID: "svc", SecretHash: cheapHash(t, "top")}
	assert.True(t, CheckClientSecret(conf, "top"))
	assert.False(t, CheckClientSecret(conf, ""))
}
