package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

func TestValidate(t *testing.T) {
	allowed := types.NewScopeSet("read", "write")

	cases := []struct {
		name      string
		requested types.ScopeSet
		want      bool
	}{
		{"nil", nil, true},
		{"empty", types.NewScopeSet(), true},
		{"subset", types.NewScopeSet("read"), true},
		{"equal", types.NewScopeSet("read", "write"), true},
		{"exceeds", types.NewScopeSet("read", "admin"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Validate(allowed, tc.requested))
		})
	}
}

func TestResolveFallsBackToAllowed(t *testing.T) {
	allowed := types.NewScopeSet("read", "write")

	got, err := Resolve(allowed, nil)
	require.NoError(t, err)
	assert.True(t, got.Equal(allowed))

	_, err = Resolve(allowed, types.NewScopeSet("admin"))
	assert.True(t, errors.Is(err, oauth2errors.ErrInvalidScope))
}

func TestResolveApproval(t *testing.T) {
	requested := types.NewScopeSet("A", "B", "C")
	form := map[string]string{"A": "true", "B": "TRUE", "C": "false", "X": "ignored"}

	got, err := ResolveApproval(requested, form)
	require.NoError(t, err)
	assert.True(t, got.Equal(types.NewScopeSet("A", "B")))
}

func TestResolveApprovalAllDenied(t *testing.T) {
	requested := types.NewScopeSet("A", "B")
	_, err := ResolveApproval(requested, map[string]string{"A": "false", "B": "no", "X": "true"})
	assert.True(t, errors.Is(err, oauth2errors.ErrUserDenied))
}
