// Package clientdir provee un ClientDirectory con cache en memoria delante
// del repositorio persistente.
package clientdir

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
)

const DefaultTTL = 30 * time.Second

// Cached envuelve un ClientDirectory. Las lecturas concurrentes del mismo
// client_id se colapsan en una sola consulta. Los misses no se cachean.
type Cached struct {
	next  repository.ClientDirectory
	cache *gocache.Cache
	group singleflight.Group
}

// NewCached crea el directorio; ttl <= 0 usa DefaultTTL.
func NewCached(next repository.ClientDirectory, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cached{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// LoadClient retorna una copia del cliente cacheado.
func (c *Cached) LoadClient(ctx context.Context, clientID string) (*repository.Client, error) {
	if v, ok := c.cache.Get(clientID); ok {
		cl := v.(repository.Client).Clone()
		return &cl, nil
	}

	v, err, shared := c.group.Do(clientID, func() (any, error) {
		cl, err := c.next.LoadClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(clientID, cl.Clone())
		return cl.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.From(ctx).Debug("client lookup coalesced",
			logger.Layer("clientdir"), logger.ClientID(clientID))
	}
	cl := v.(repository.Client).Clone()
	return &cl, nil
}

// Invalidate descarta la entrada de clientID (p.ej. tras un Upsert).
func (c *Cached) Invalidate(clientID string) {
	c.cache.Delete(clientID)
}

// Flush vacía el cache completo.
func (c *Cached) Flush() {
	c.cache.Flush()
	logger.L().Debug("client cache flushed", logger.Component("clientdir"))
}
