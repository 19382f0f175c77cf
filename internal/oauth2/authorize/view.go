package authorize

import (
	"net/url"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
)

// ViewKind indica qué debe hacer el adapter HTTP con la respuesta.
type ViewKind string

const (
	ViewApproval ViewKind = "approval" // renderizar pantalla de consentimiento
	ViewRedirect ViewKind = "redirect" // 302 a RedirectURL
	ViewError    ViewKind = "error"    // página de error genérica con Status
)

// View es el resultado de Authorize / Approval / ErrorView.
type View struct {
	Kind        ViewKind
	RedirectURL string
	Approval    *ApprovalModel
	Error       *oauth2errors.Error
	Status      int
}

// ApprovalModel es lo que necesita la pantalla de consentimiento.
type ApprovalModel struct {
	ClientID     string             `json:"client_id"`
	ClientName   string             `json:"client_name"`
	Scopes       []repository.Scope `json:"scopes"`
	ResponseType string             `json:"response_type"`
	State        string             `json:"state,omitempty"`
}

// withQuery agrega params a la query de base, preservando la existente.
func withQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// withFragment reemplaza el fragment de base por params codificados.
func withFragment(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#" + params.Encode(), nil
}
