// Package metrics define las métricas Prometheus del authorization server.
// Vive en un paquete propio para que oauth2/* y http puedan registrar eventos
// sin ciclos de import. Todas las funciones Record* son no-op si Register no
// fue llamado.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registerErr  error

	grantsTotal        *prometheus.CounterVec
	grantReusesTotal   *prometheus.CounterVec
	revocationsTotal   *prometheus.CounterVec
	introspectionTotal *prometheus.CounterVec
	codesIssuedTotal   prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec
	rateLimitedTotal    prometheus.Counter
)

// Register crea y registra todas las métricas en reg (o el default si es nil).
// Es idempotente.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	registerOnce.Do(func() {
		grantsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_grants_total",
			Help: "Token grants por grant type y resultado",
		}, []string{"grant_type", "result"}) // result: issued|error

		grantReusesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_grant_reuses_total",
			Help: "Grants resueltos devolviendo un token vivo existente",
		}, []string{"grant_type"})

		revocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_revocations_total",
			Help: "Revocaciones por política y resultado",
		}, []string{"policy", "result"}) // policy: client|user

		introspectionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth2_introspections_total",
			Help: "Introspecciones por resultado",
		}, []string{"active"})

		codesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth2_authorization_codes_issued_total",
			Help: "Authorization codes emitidos",
		})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		rateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth2_token_rate_limited_total",
			Help: "Requests al token endpoint rechazadas por rate limit",
		})

		for _, c := range []prometheus.Collector{
			grantsTotal, grantReusesTotal, revocationsTotal, introspectionTotal, codesIssuedTotal,
			httpRequestsTotal, httpRequestDuration, httpInflight, rateLimitedTotal,
		} {
			if err := registerCollector(reg, c); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}

// registerCollector registra el collector ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// RecordGrant registra un grant emitido (err == nil) o fallido.
func RecordGrant(grantType string, err error) {
	if grantsTotal == nil {
		return
	}
	result := "issued"
	if err != nil {
		result = "error"
	}
	grantsTotal.WithLabelValues(grantType, result).Inc()
}

// RecordGrantReuse registra un re-grant idempotente.
func RecordGrantReuse(grantType string) {
	if grantReusesTotal != nil {
		grantReusesTotal.WithLabelValues(grantType).Inc()
	}
}

// RecordRevocation registra una revocación.
func RecordRevocation(policy string, err error) {
	if revocationsTotal == nil {
		return
	}
	result := "revoked"
	if err != nil {
		result = "error"
	}
	revocationsTotal.WithLabelValues(policy, result).Inc()
}

// RecordIntrospection registra una introspección.
func RecordIntrospection(active bool) {
	if introspectionTotal == nil {
		return
	}
	v := "false"
	if active {
		v = "true"
	}
	introspectionTotal.WithLabelValues(v).Inc()
}

// RecordCodeIssued registra un authorization code emitido.
func RecordCodeIssued() {
	if codesIssuedTotal != nil {
		codesIssuedTotal.Inc()
	}
}

// RecordRateLimited registra un rechazo por rate limit.
func RecordRateLimited() {
	if rateLimitedTotal != nil {
		rateLimitedTotal.Inc()
	}
}
