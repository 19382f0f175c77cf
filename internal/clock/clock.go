// Package clock abstrae la lectura de "now" para que granters, stores y
// validaciones de expiración sean deterministas en tests.
package clock

import (
	"sync"
	"time"
)

// Clock retorna la hora actual.
type Clock interface {
	Now() time.Time
}

// System lee el reloj del sistema. Si Location es nil usa UTC.
type System struct {
	Location *time.Location
}

// Now implementa Clock.
func (s System) Now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// Mock es un reloj manual, seguro para uso concurrente.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock crea un Mock fijado en t.
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

// Now implementa Clock.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance mueve el reloj d hacia adelante.
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Set fija el reloj en t.
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
