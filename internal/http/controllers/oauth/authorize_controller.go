package oauth

import (
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellojohn-oauth2/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/authorize"
	tokens "github.com/dropDatabas3/hellojohn-oauth2/internal/security/token"
)

const approvalPath = "/oauth/authorize/approval"

// AuthorizeController maneja /oauth/authorize y /oauth/authorize/approval.
// El usuario ya viene autenticado por middlewares.WithUserAuth.
type AuthorizeController struct {
	endpoint *authorize.Endpoint
	cookie   SessionCookie
}

// approvalResponse es la vista JSON de la pantalla de consentimiento.
type approvalResponse struct {
	*authorize.ApprovalModel
	ApprovalURI string `json:"approval_uri"`
}

// Authorize: GET|POST /oauth/authorize
func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	params, err := helpers.Params(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	sid, err := c.sessionID(w, r, true)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	view, err := c.endpoint.Authorize(r.Context(), params, sid, middlewares.GetPrincipal(r.Context()))
	if errors.Is(err, authorize.ErrInsufficientAuthentication) {
		httperrors.WriteUnauthenticated(w, "full authentication is required to access this resource")
		return
	}
	if err != nil {
		view = c.endpoint.ErrorView(r.Context(), err, params, sid)
	}
	c.render(w, r, view)
}

// Approval: POST /oauth/authorize/approval
func (c *AuthorizeController) Approval(w http.ResponseWriter, r *http.Request) {
	form, err := helpers.Params(w, r)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}
	sid, err := c.sessionID(w, r, false)
	if err != nil {
		httperrors.WriteError(w, r, err)
		return
	}

	view, err := c.endpoint.Approval(r.Context(), approvalForm(form), sid, middlewares.GetPrincipal(r.Context()))
	if errors.Is(err, authorize.ErrInsufficientAuthentication) {
		httperrors.WriteUnauthenticated(w, "full authentication is required to access this resource")
		return
	}
	if err != nil {
		view = c.endpoint.ErrorView(r.Context(), err, nil, sid)
	}
	c.render(w, r, view)
}

// approvalForm acepta tanto "scope.read=true" como "read=true".
func approvalForm(form map[string]string) map[string]string {
	out := make(map[string]string, len(form))
	for k, v := range form {
		if name, ok := strings.CutPrefix(k, "scope."); ok && name != "" {
			out[name] = v
			continue
		}
		if _, dup := out[k]; !dup {
			out[k] = v
		}
	}
	return out
}

// sessionID lee la cookie de sesión; si create y no existe, emite una nueva.
func (c *AuthorizeController) sessionID(w http.ResponseWriter, r *http.Request, create bool) (string, error) {
	if ck, err := r.Cookie(c.cookie.Name); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	if !create {
		return "", nil
	}
	sid, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookie.Name,
		Value:    sid,
		Path:     "/oauth/authorize",
		MaxAge:   int(c.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid, nil
}

func (c *AuthorizeController) render(w http.ResponseWriter, r *http.Request, view authorize.View) {
	httperrors.SetNoStore(w)
	switch view.Kind {
	case authorize.ViewRedirect:
		http.Redirect(w, r, view.RedirectURL, http.StatusFound)
	case authorize.ViewApproval:
		helpers.WriteJSON(w, http.StatusOK, approvalResponse{ApprovalModel: view.Approval, ApprovalURI: approvalPath})
	default:
		status := view.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		body := map[string]string{"error": "server_error"}
		if view.Error != nil {
			body["error"] = view.Error.Code
			if status < http.StatusInternalServerError {
				body["error_description"] = view.Error.Description
			}
		}
		helpers.WriteJSON(w, status, body)
	}
}
