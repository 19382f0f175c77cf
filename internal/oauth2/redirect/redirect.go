// Package redirect resuelve el redirect_uri de un cliente.
package redirect

import (
	"context"
	"net/url"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Resolve elige el redirect URI para client:
//
//	(a) requested vacío y una sola URI registrada → esa URI
//	(b) requested vacío y ≠1 URIs registradas    → InvalidRequest
//	(c) requested no registrada                  → RedirectMismatch
//	(d) requested registrada                     → requested sin cambios
func Resolve(requested string, client *repository.Client) (string, error) {
	if requested == "" {
		if len(client.RedirectURIs) == 1 {
			return client.RedirectURIs[0], nil
		}
		return "", oauth2errors.InvalidRequest("a redirect_uri must be supplied")
	}
	if !client.HasRedirectURI(requested) {
		return "", oauth2errors.RedirectMismatch("invalid redirect: " + requested + " does not match one of the registered values")
	}
	u, err := url.Parse(requested)
	if err != nil || !u.IsAbs() {
		return "", oauth2errors.InvalidRequest("redirect_uri must be an absolute URI")
	}
	return requested, nil
}

// ResolveContext es Resolve con logging del rechazo.
func ResolveContext(ctx context.Context, requested string, client *repository.Client) (string, error) {
	uri, err := Resolve(requested, client)
	if err != nil {
		logger.From(ctx).Debug("redirect rejected",
			logger.Layer("oauth2"),
			logger.Op("redirect.Resolve"),
			logger.ClientID(client.ClientID),
			logger.Err(err),
		)
	}
	return uri, err
}
