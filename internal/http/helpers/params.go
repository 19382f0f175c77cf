// Package helpers reúne utilidades compartidas por los controllers OAuth2.
package helpers

import (
	"net/http"

	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

const maxFormBytes = 64 << 10

// Params parsea query + form (application/x-www-form-urlencoded) a un mapa
// de un valor por clave. El body tiene precedencia sobre la query. Un
// parámetro repetido es invalid_request (RFC 6749 §3.1).
func Params(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	}
	if err := r.ParseForm(); err != nil {
		return nil, oauth2errors.InvalidRequest("malformed request body")
	}

	out := make(map[string]string, len(r.Form))
	for k, vs := range r.Form {
		if len(vs) == 0 {
			continue
		}
		if pv, ok := r.PostForm[k]; ok && len(pv) > 0 {
			if len(pv) > 1 {
				return nil, oauth2errors.InvalidRequest("duplicate parameter: " + k)
			}
			out[k] = pv[0]
			continue
		}
		if len(vs) > 1 {
			return nil, oauth2errors.InvalidRequest("duplicate parameter: " + k)
		}
		out[k] = vs[0]
	}
	return out, nil
}
