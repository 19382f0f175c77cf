package authorize

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/code"
)

// ResponseEnhancer completa la vista de redirect para un response_type.
// Endpoint aplica el primero cuyo ResponseType coincide.
type ResponseEnhancer interface {
	ResponseType() string
	Enhance(ctx context.Context, view View, req oauth2.AuthorizationRequest, client *repository.Client) (View, error)
}

// CodeEnhancer emite un authorization code y lo agrega a la query.
type CodeEnhancer struct {
	Codes code.Services
}

func (e *CodeEnhancer) ResponseType() string { return oauth2.ResponseTypeCode }

func (e *CodeEnhancer) Enhance(ctx context.Context, view View, req oauth2.AuthorizationRequest, client *repository.Client) (View, error) {
	value, err := e.Codes.Create(ctx, req)
	if err != nil {
		return view, err
	}
	metrics.RecordCodeIssued()

	params := url.Values{oauth2.ParamCode: {value}}
	if req.State != "" {
		params.Set(oauth2.ParamState, req.State)
	}
	u, err := withQuery(view.RedirectURL, params)
	if err != nil {
		return view, fmt.Errorf("build code redirect: %w", err)
	}
	view.RedirectURL = u
	return view, nil
}

// Granter emite tokens; lo implementa granter.Dispatcher.
type Granter interface {
	Grant(ctx context.Context, client *repository.Client, req oauth2.TokenRequest) (*repository.AccessToken, error)
}

// ImplicitEnhancer emite un access token via el grant implicit y lo entrega
// en el fragment del redirect.
type ImplicitEnhancer struct {
	Granter Granter
	Clock   clock.Clock
}

func (e *ImplicitEnhancer) ResponseType() string { return oauth2.ResponseTypeToken }

func (e *ImplicitEnhancer) Enhance(ctx context.Context, view View, req oauth2.AuthorizationRequest, client *repository.Client) (View, error) {
	tok, err := e.Granter.Grant(ctx, client, oauth2.TokenRequest{
		GrantType: oauth2.GrantImplicit,
		ClientID:  client.ClientID,
		Username:  req.Username,
		Scopes:    req.Scopes,
	})
	if err != nil {
		return view, err
	}

	clk := e.Clock
	if clk == nil {
		clk = clock.System{}
	}
	now := clk.Now()
	params := url.Values{
		"access_token": {tok.ID},
		"token_type":   {oauth2.TokenTypeBearer},
		"expires_in":   {strconv.FormatInt(tok.ExpiresIn(now), 10)},
		"scope":        {tok.Scopes.String()},
	}
	if req.State != "" {
		params.Set(oauth2.ParamState, req.State)
	}
	u, err := withFragment(view.RedirectURL, params)
	if err != nil {
		return view, fmt.Errorf("build implicit redirect: %w", err)
	}
	view.RedirectURL = u
	return view, nil
}
