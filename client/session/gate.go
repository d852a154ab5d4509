package session

import (
	"context"
	"time"
)

// Decision is the outcome of a gate check. Exactly one of Session and
// Redirect is set.
type Decision struct {
	Session  *Session
	Redirect string
}

func (d Decision) Allowed() bool {
	return d.Session != nil
}

// Gate admits callers with a valid session and redirects everyone else to
// the login page. It never fails and never retries.
type Gate struct {
	source Source
	now    func() time.Time
}

func NewGate(source Source) *Gate {
	return &Gate{source: source, now: time.Now}
}

// WithClock replaces the gate's clock.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

func (g *Gate) Check(ctx context.Context) Decision {
	s, err := g.source.Current(ctx)
	if err != nil || !s.Valid(g.now()) {
		return Decision{Redirect: LoginPath}
	}
	return Decision{Session: s}
}
