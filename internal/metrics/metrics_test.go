package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"/oauth/token", "/oauth/token"},
		{"/oauth/token/6f1c2a9e-3b7d-4c1a-9e2f-0a1b2c3d4e5f", "/oauth/token/:param"},
		{"/oauth/users/me/tokens/AbCdEfGhIjKlMnOpQrStUvWxYz", "/oauth/users/me/tokens/:param"},
		{"/oauth/token/42?x=1", "/oauth/token/:param"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizePath(tc.in), tc.in)
	}
}

func TestRecordBeforeRegisterIsNoop(t *testing.T) {
	if grantsTotal != nil {
		t.Skip("metrics already registered in this process")
	}
	assert.NotPanics(t, func() {
		RecordGrant("password", nil)
		RecordRevocation("client", errors.New("x"))
		RecordIntrospection(true)
	})
}

func TestRegisterAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	before := testutil.ToFloat64(grantsTotal.WithLabelValues("client_credentials", "issued"))
	RecordGrant("client_credentials", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(grantsTotal.WithLabelValues("client_credentials", "issued")))

	h := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/healthz", "418")))
}
