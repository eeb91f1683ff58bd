package impersonation

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestGuard(t *testing.T) (*Guard, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	g := NewGuard(NewMemoryStore(), WithClock(c.Now))
	return g, c
}

func startGrant(t *testing.T, g *Guard) *Grant {
	t.Helper()
	grant, err := g.Start(context.Background(), Grant{
		AdminID:         1,
		AdminName:       "ops",
		TargetUserID:    42,
		TargetCompanyID: 7,
		TargetName:      "Pat Technician",
		Reason:          "debugging scheduling issue",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return grant
}

func TestStart_RequiresReason(t *testing.T) {
	g, _ := newTestGuard(t)

	_, err := g.Start(context.Background(), Grant{AdminID: 1, TargetUserID: 2, Reason: "  "})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestStart_SetsCeilings(t *testing.T) {
	g, c := newTestGuard(t)
	grant := startGrant(t, g)

	if !grant.StartedAt.Equal(c.now) {
		t.Fatalf("started_at = %v, want %v", grant.StartedAt, c.now)
	}
	if !grant.ExpiresAt.Equal(c.now.Add(30 * time.Minute)) {
		t.Fatalf("expires_at = %v, want start+30m", grant.ExpiresAt)
	}
	if !grant.LastActivity.Equal(c.now) {
		t.Fatalf("last_activity = %v, want start", grant.LastActivity)
	}
}

func TestStatus_CountdownsAndWarning(t *testing.T) {
	g, c := newTestGuard(t)
	startGrant(t, g)

	// Keep the grant from idling out while we approach the absolute ceiling:
	// six active stretches of 4m bring us to T+24m, then 2m30s more.
	for i := 0; i < 6; i++ {
		c.Advance(4 * time.Minute)
		if grant, err := g.Touch(context.Background(), 1); err != nil || grant == nil {
			t.Fatalf("touch %d: grant=%v err=%v", i, grant, err)
		}
	}
	c.Advance(2*time.Minute + 30*time.Second)
	if grant, err := g.Touch(context.Background(), 1); err != nil || grant == nil {
		t.Fatalf("touch at T+26m30s: grant=%v err=%v", grant, err)
	}

	st, err := g.Status(context.Background(), 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Active {
		t.Fatalf("expected active at T+26m30s")
	}
	if st.ExpiryLeft.Minutes != 3 || st.ExpiryLeft.Seconds != 30 {
		t.Fatalf("expiry left = %dm%ds, want 3m30s", st.ExpiryLeft.Minutes, st.ExpiryLeft.Seconds)
	}
	if st.IdleLeft.Minutes != 5 || st.IdleLeft.Seconds != 0 {
		t.Fatalf("idle left = %dm%ds, want 5m0s", st.IdleLeft.Minutes, st.IdleLeft.Seconds)
	}
}

func TestStatus_InactiveAfterAbsoluteCeiling(t *testing.T) {
	g, c := newTestGuard(t)
	startGrant(t, g)

	// Stay busy so idle never fires, then cross the 30-minute ceiling.
	for i := 0; i < 7; i++ {
		c.Advance(4 * time.Minute)
		if i < 6 {
			if _, err := g.Touch(context.Background(), 1); err != nil {
				t.Fatalf("touch %d: %v", i, err)
			}
		}
	}
	c.Advance(3 * time.Minute) // T+31m

	st, err := g.Status(context.Background(), 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Active {
		t.Fatalf("session must be inactive at T+31m")
	}
	if st.EndedBy != StateExpired {
		t.Fatalf("ended_by = %q, want expired", st.EndedBy)
	}
}

func TestIdleTimeout_FiresRegardlessOfAbsoluteRemaining(t *testing.T) {
	g, c := newTestGuard(t)
	startGrant(t, g)

	c.Advance(5 * time.Minute) // exactly the idle ceiling, 25m absolute left

	grant, err := g.Touch(context.Background(), 1)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if grant != nil {
		t.Fatalf("privileged action must be rejected after 5m of inactivity")
	}

	// Touch already cleared the grant; a later status sees no session.
	st, _ := g.Status(context.Background(), 1)
	if st.Active {
		t.Fatalf("expected inactive after idle timeout")
	}
}

func TestCountdown_ClampsAtZero(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want Countdown
	}{
		{in: 5*time.Minute + 42*time.Second, want: Countdown{Minutes: 5, Seconds: 42}},
		{in: 59 * time.Second, want: Countdown{Minutes: 0, Seconds: 59}},
		{in: 0, want: Countdown{}},
		{in: -3 * time.Minute, want: Countdown{}},
	}

	for _, tt := range tests {
		if got := countdown(tt.in); got != tt.want {
			t.Fatalf("countdown(%v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestTouch_RefreshesIdleBudget(t *testing.T) {
	g, c := newTestGuard(t)
	startGrant(t, g)

	c.Advance(4 * time.Minute)
	if grant, err := g.Touch(context.Background(), 1); err != nil || grant == nil {
		t.Fatalf("touch at T+4m should succeed: grant=%v err=%v", grant, err)
	}

	c.Advance(4 * time.Minute)
	grant, err := g.Touch(context.Background(), 1)
	if err != nil || grant == nil {
		t.Fatalf("idle budget must reset on activity: grant=%v err=%v", grant, err)
	}
}

func TestStatus_DoesNotRefreshIdleBudget(t *testing.T) {
	g, c := newTestGuard(t)
	startGrant(t, g)

	// Repeated status reads must not count as activity, or a polling
	// dashboard would keep the session alive forever.
	c.Advance(4 * time.Minute)
	st, err := g.Status(context.Background(), 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Active {
		t.Fatalf("expected active at T+4m")
	}
	if st.IdleLeft.Minutes != 1 || st.IdleLeft.Seconds != 0 {
		t.Fatalf("idle left = %dm%ds, want 1m0s", st.IdleLeft.Minutes, st.IdleLeft.Seconds)
	}

	c.Advance(time.Minute)
	st, err = g.Status(context.Background(), 1)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Active {
		t.Fatalf("expected idle timeout at T+5m despite the earlier status read")
	}
	if st.EndedBy != StateIdleTimedOut {
		t.Fatalf("ended_by = %q, want idle_timed_out", st.EndedBy)
	}
}

func TestStop_EndsSession(t *testing.T) {
	g, _ := newTestGuard(t)
	startGrant(t, g)

	if err := g.Stop(context.Background(), 1); err != nil {
		t.Fatalf("stop: %v", err)
	}

	grant, state, err := g.Current(context.Background(), 1)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if grant != nil || state != StateNone {
		t.Fatalf("expected no session after stop, got state=%q", state)
	}
}
