// Package health expone liveness/readiness.
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/http/helpers"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

// Pinger es cualquier dependencia con health check (pg pool, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller maneja GET /healthz.
type Controller struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewController(checks map[string]Pinger) *Controller {
	return &Controller{checks: checks, timeout: 2 * time.Second}
}

type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz corre todos los checks en paralelo; cualquiera caído → 503.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := c.checks[name].Ping(ctx); err != nil {
				results[i] = "down"
				return err
			}
			results[i] = "ok"
			return nil
		})
	}
	err := g.Wait()

	resp := response{Status: "ok", Checks: make(map[string]string, len(names))}
	for i, name := range names {
		resp.Checks[name] = results[i]
	}
	status := http.StatusOK
	if err != nil {
		logger.From(r.Context()).Warn("health check failed", logger.Err(err))
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, resp)
}
