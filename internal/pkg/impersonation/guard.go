package impersonation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// State of an impersonation grant as observed at read time. Expiry and idle
// timeout are computed from stored timestamps on every check; there is no
// background sweep.
type State string

const (
	StateNone         State = "none"
	StateActive       State = "active"
	StateStopped      State = "stopped"
	StateExpired      State = "expired"
	StateIdleTimedOut State = "idle_timed_out"
)

const (
	// DefaultSessionCeiling is the absolute lifetime of a grant.
	DefaultSessionCeiling = 30 * time.Minute
	// DefaultIdleCeiling force-ends a grant after this much inactivity.
	DefaultIdleCeiling = 5 * time.Minute
)

var ErrReasonRequired = errors.New("impersonation: a reason is required")

// Grant is one admin's time-boxed permission to act as a target user.
type Grant struct {
	AdminID         uint      `json:"admin_id"`
	AdminName       string    `json:"admin_name"`
	TargetUserID    uint      `json:"target_user_id"`
	TargetCompanyID uint      `json:"target_company_id"`
	TargetName      string    `json:"target_name"`
	TargetRole      string    `json:"target_role"`
	Reason          string    `json:"reason"`
	StartedAt       time.Time `json:"started_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	LastActivity    time.Time `json:"last_activity"`
}

// Countdown is a non-negative remaining duration split for display.
type Countdown struct {
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Status is the poll response for an admin's grant.
type Status struct {
	Active     bool      `json:"active"`
	Grant      *Grant    `json:"grant,omitempty"`
	ExpiryLeft Countdown `json:"expiry_left"`
	IdleLeft   Countdown `json:"idle_left"`
	EndedBy    State     `json:"ended_by,omitempty"`
}

// Store holds at most one grant per acting admin.
type Store interface {
	Get(ctx context.Context, adminID uint) (*Grant, error)
	Put(ctx context.Context, grant *Grant) error
	Delete(ctx context.Context, adminID uint) error
}

// Guard issues, refreshes, and expires impersonation grants.
type Guard struct {
	store          Store
	sessionCeiling time.Duration
	idleCeiling    time.Duration
	now            func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithCeilings overrides the absolute and idle ceilings.
func WithCeilings(session, idle time.Duration) Option {
	return func(g *Guard) {
		if session > 0 {
			g.sessionCeiling = session
		}
		if idle > 0 {
			g.idleCeiling = idle
		}
	}
}

// WithClock injects a time source; tests use frozen clocks.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

func NewGuard(store Store, opts ...Option) *Guard {
	g := &Guard{
		store:          store,
		sessionCeiling: DefaultSessionCeiling,
		idleCeiling:    DefaultIdleCeiling,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Start creates a grant, replacing any previous one held by the same admin.
func (g *Guard) Start(ctx context.Context, grant Grant) (*Grant, error) {
	if strings.TrimSpace(grant.Reason) == "" {
		return nil, ErrReasonRequired
	}

	now := g.now()
	grant.Reason = strings.TrimSpace(grant.Reason)
	grant.StartedAt = now
	grant.ExpiresAt = now.Add(g.sessionCeiling)
	grant.LastActivity = now

	if err := g.store.Put(ctx, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Stop ends the admin's grant unconditionally.
func (g *Guard) Stop(ctx context.Context, adminID uint) error {
	return g.store.Delete(ctx, adminID)
}

// Current returns the admin's grant and its state. A grant past its absolute
// expiry or idle ceiling is cleared from the store and reported with the
// terminal state that ended it.
func (g *Guard) Current(ctx context.Context, adminID uint) (*Grant, State, error) {
	grant, err := g.store.Get(ctx, adminID)
	if err != nil {
		return nil, StateNone, err
	}
	if grant == nil {
		return nil, StateNone, nil
	}

	now := g.now()
	if !now.Before(grant.ExpiresAt) {
		_ = g.store.Delete(ctx, adminID)
		return nil, StateExpired, nil
	}
	if now.Sub(grant.LastActivity) >= g.idleCeiling {
		_ = g.store.Delete(ctx, adminID)
		return nil, StateIdleTimedOut, nil
	}
	return grant, StateActive, nil
}

// Touch refreshes last-activity for an active grant and returns it, or nil
// when no grant is active (expired and idle grants are cleared as in Current).
func (g *Guard) Touch(ctx context.Context, adminID uint) (*Grant, error) {
	grant, state, err := g.Current(ctx, adminID)
	if err != nil || state != StateActive {
		return nil, err
	}

	grant.LastActivity = g.now()
	if err := g.store.Put(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Status reports whether a grant is active plus both countdowns, clamped at
// zero so a client can render "0m 0s" at the boundary instead of negatives.
func (g *Guard) Status(ctx context.Context, adminID uint) (*Status, error) {
	grant, state, err := g.Current(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if state != StateActive {
		return &Status{Active: false, EndedBy: state}, nil
	}

	now := g.now()
	return &Status{
		Active:     true,
		Grant:      grant,
		ExpiryLeft: countdown(grant.ExpiresAt.Sub(now)),
		IdleLeft:   countdown(g.idleCeiling - now.Sub(grant.LastActivity)),
	}, nil
}

func countdown(d time.Duration) Countdown {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return Countdown{Minutes: total / 60, Seconds: total % 60}
}
