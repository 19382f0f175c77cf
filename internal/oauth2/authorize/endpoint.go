// Package authorize implementa el authorization endpoint: la máquina de
// estados authorize → approval → redirect y la traducción de errores a
// redirect o página de error.
package authorize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/audit"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/types"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2"
	oauth2errors "github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/errors"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/redirect"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/oauth2/scope"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// ErrInsufficientAuthentication indica que el usuario no está autenticado.
// No es un error OAuth2: el caller debe pedir autenticación.
var ErrInsufficientAuthentication = errors.New("authorize: full authentication is required")

// Deps contiene las dependencias del endpoint.
type Deps struct {
	Clients    repository.ClientDirectory
	Scopes     repository.ScopeDirectory // opcional, solo para la pantalla de aprobación
	Sessions   SessionStore
	Enhancers  []ResponseEnhancer
	Translator oauth2errors.Translator
}

// Endpoint orquesta Authorize y Approval.
type Endpoint struct {
	clients    repository.ClientDirectory
	scopes     repository.ScopeDirectory
	sessions   SessionStore
	enhancers  []ResponseEnhancer
	translator oauth2errors.Translator
}

func New(d Deps) *Endpoint {
	tr := d.Translator
	if tr == nil {
		tr = oauth2errors.DefaultTranslator{}
	}
	return &Endpoint{
		clients:    d.Clients,
		scopes:     d.Scopes,
		sessions:   d.Sessions,
		enhancers:  d.Enhancers,
		translator: tr,
	}
}

// grantForResponseType mapea response_type al grant type que el cliente debe tener.
var grantForResponseType = map[string]string{
	oauth2.ResponseTypeCode:  oauth2.GrantAuthorizationCode,
	oauth2.ResponseTypeToken: oauth2.GrantImplicit,
}

// Authorize valida el request, lo guarda en la sesión y retorna la vista de
// aprobación.
func (e *Endpoint) Authorize(ctx context.Context, params map[string]string, sessionID string, principal *oauth2.Principal) (View, error) {
	if !principal.IsAuthenticated() {
		return View{}, ErrInsufficientAuthentication
	}
	log := logger.From(ctx).With(logger.Layer("oauth2"), logger.Op("authorize.Authorize"))

	responseType := params[oauth2.ParamResponseType]
	if responseType == "" {
		return View{}, oauth2errors.InvalidRequest("missing response_type")
	}
	grantType, ok := grantForResponseType[responseType]
	if !ok {
		return View{}, oauth2errors.UnsupportedResponseType("unsupported response type: " + responseType)
	}

	client, err := e.loadClient(ctx, params[oauth2.ParamClientID])
	if err != nil {
		return View{}, err
	}
	if !client.AllowsGrant(grantType) {
		return View{}, oauth2errors.UnauthorizedClient("client is not allowed to use response type " + responseType)
	}

	redirectURI, err := redirect.ResolveContext(ctx, params[oauth2.ParamRedirectURI], client)
	if err != nil {
		return View{}, err
	}

	requested := types.ParseScopes(params[oauth2.ParamScope])
	if !scope.Validate(client.Scopes, requested) {
		return View{}, oauth2errors.InvalidScope("invalid scope: " + requested.String())
	}

	req := &oauth2.AuthorizationRequest{
		ClientID:     client.ClientID,
		RedirectURI:  redirectURI,
		Scopes:       requested.OrDefault(client.Scopes),
		ResponseType: responseType,
		State:        params[oauth2.ParamState],
		Username:     principal.Name,
	}
	if err := e.sessions.Save(ctx, sessionID, &Session{Request: req, OriginalParams: cloneParams(params)}); err != nil {
		return View{}, fmt.Errorf("save authorization session: %w", err)
	}

	model, err := e.approvalModel(ctx, client, req)
	if err != nil {
		return View{}, err
	}

	log.Debug("authorization pending approval",
		logger.ClientID(client.ClientID),
		logger.Username(principal.Name),
		logger.ResponseType(responseType),
		logger.Scope(req.Scopes.String()),
	)
	return View{Kind: ViewApproval, Approval: model, Status: http.StatusOK}, nil
}

// Approval aplica la decisión del usuario al request guardado en la sesión y
// produce el redirect final.
func (e *Endpoint) Approval(ctx context.Context, form map[string]string, sessionID string, principal *oauth2.Principal) (View, error) {
	if !principal.IsAuthenticated() {
		return View{}, ErrInsufficientAuthentication
	}
	log := logger.From(ctx).With(logger.Layer("oauth2"), logger.Op("authorize.Approval"))

	sess, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return View{}, fmt.Errorf("load authorization session: %w", err)
	}
	if !sess.complete() {
		return View{}, oauth2errors.InvalidRequest("cannot approve request: authorization request is missing from session")
	}
	req := *sess.Request

	approved, err := scope.ResolveApproval(req.Scopes, form)
	if err != nil {
		return View{}, err
	}
	req.Scopes = approved

	client, err := e.loadClient(ctx, req.ClientID)
	if err != nil {
		return View{}, err
	}
	// El redirect se re-resuelve desde los parámetros originales: este es el
	// punto donde queda ligado.
	redirectURI, err := redirect.ResolveContext(ctx, sess.OriginalParams[oauth2.ParamRedirectURI], client)
	if err != nil {
		return View{}, err
	}
	req.RedirectURI = redirectURI
	req.Approved = true

	view, err := e.enhance(ctx, View{Kind: ViewRedirect, RedirectURL: redirectURI, Status: http.StatusFound}, req, client)
	if err != nil {
		return View{}, err
	}

	if err := e.sessions.Clear(ctx, sessionID); err != nil {
		log.Warn("clear authorization session failed", logger.Err(err))
	}
	audit.Log(ctx, audit.AuthorizationApproved,
		logger.ClientID(client.ClientID),
		logger.Username(req.Username),
		logger.ResponseType(req.ResponseType),
		logger.Scope(req.Scopes.String()),
	)
	return view, nil
}

// ErrorView traduce err a un redirect con error/error_description/state si
// se puede recuperar el redirect del cliente; si no, a una página de error.
// params son los parámetros originales; si es nil se usan los de la sesión.
func (e *Endpoint) ErrorView(ctx context.Context, err error, params map[string]string, sessionID string) View {
	log := logger.From(ctx).With(logger.Layer("oauth2"), logger.Op("authorize.ErrorView"))
	oe := e.translator.Translate(err)

	if params == nil {
		if sess, lerr := e.sessions.Load(ctx, sessionID); lerr == nil && sess != nil {
			params = sess.OriginalParams
		}
	}
	if cerr := e.sessions.Clear(ctx, sessionID); cerr != nil {
		log.Warn("clear authorization session failed", logger.Err(cerr))
	}

	if oe.Kind == oauth2errors.KindServerError {
		log.Error("authorization failed", logger.Err(err))
	} else {
		log.Info("authorization rejected", logger.OAuthError(oe.Code), logger.Err(err))
	}

	if target, ok := e.recoverRedirect(ctx, params); ok {
		q := url.Values{
			"error":             {oe.Code},
			"error_description": {oe.Description},
		}
		if st := params[oauth2.ParamState]; st != "" {
			q.Set(oauth2.ParamState, st)
		}
		if u, uerr := withQuery(target, q); uerr == nil {
			return View{Kind: ViewRedirect, RedirectURL: u, Error: oe, Status: http.StatusFound}
		}
	}

	status := oe.HTTPStatus
	if status != http.StatusUnauthorized && status < http.StatusInternalServerError {
		status = http.StatusBadRequest
	}
	return View{Kind: ViewError, Error: oe, Status: status}
}

// recoverRedirect intenta resolver el redirect del cliente desde params.
func (e *Endpoint) recoverRedirect(ctx context.Context, params map[string]string) (string, bool) {
	if params == nil || params[oauth2.ParamClientID] == "" {
		return "", false
	}
	client, err := e.clients.LoadClient(ctx, params[oauth2.ParamClientID])
	if err != nil {
		return "", false
	}
	uri, err := redirect.Resolve(params[oauth2.ParamRedirectURI], client)
	if err != nil {
		return "", false
	}
	return uri, true
}

func (e *Endpoint) enhance(ctx context.Context, view View, req oauth2.AuthorizationRequest, client *repository.Client) (View, error) {
	for _, enh := range e.enhancers {
		if enh.ResponseType() == req.ResponseType {
			return enh.Enhance(ctx, view, req, client)
		}
	}
	return view, oauth2errors.UnsupportedResponseType("unsupported response type: " + req.ResponseType)
}

func (e *Endpoint) loadClient(ctx context.Context, clientID string) (*repository.Client, error) {
	if clientID == "" {
		return nil, oauth2errors.InvalidRequest("missing client_id")
	}
	client, err := e.clients.LoadClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oauth2errors.ClientRegistration("no client with requested id: " + clientID)
		}
		return nil, oauth2errors.ClientRegistration("client lookup failed").WithCause(err)
	}
	return client, nil
}

func (e *Endpoint) approvalModel(ctx context.Context, client *repository.Client, req *oauth2.AuthorizationRequest) (*ApprovalModel, error) {
	ids := req.Scopes.Slice()
	known := map[string]repository.Scope{}
	if e.scopes != nil {
		list, err := e.scopes.LoadByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load scope details: %w", err)
		}
		for _, sc := range list {
			known[sc.ID] = sc
		}
	}

	details := make([]repository.Scope, 0, len(ids))
	for _, id := range ids {
		sc, ok := known[id]
		if !ok {
			sc = repository.Scope{ID: id, DisplayName: id}
		}
		details = append(details, sc)
	}
	return &ApprovalModel{
		ClientID:     client.ClientID,
		ClientName:   client.Name,
		Scopes:       details,
		ResponseType: req.ResponseType,
		State:        req.State,
	}, nil
}

func cloneParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
