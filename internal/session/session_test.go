package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	ctx := context.Background()

	token, err := m.Issue(ctx, "ana", "CONFERENTE")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sess, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sess.Username != "ana" || sess.Role != "CONFERENTE" {
		t.Errorf("session = %+v", sess)
	}
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	other := NewManager("other-secret", time.Hour, NewMemoryStore())
	ctx := context.Background()

	token, err := other.Issue(ctx, "ana", "ADMIN")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRevokeEndsSession(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	ctx := context.Background()

	token, err := m.Issue(ctx, "bruno", "EMBARQUE")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := m.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, err := m.Validate(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestValidateOutlivesInitialWindow(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	ctx := context.Background()

	// A token minted long before the TTL window must still validate as long
	// as the store keeps the session alive.
	m.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	token, err := m.Issue(ctx, "ana", "CONFERENTE")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.now = time.Now

	sess, err := m.Validate(ctx, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sess.Username != "ana" {
		t.Errorf("session = %+v", sess)
	}
}

func TestMemoryStoreSlidingExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if err := store.Put(ctx, "sid", time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Touching inside the window extends the deadline.
	now = now.Add(50 * time.Minute)
	alive, err := store.Touch(ctx, "sid", time.Hour)
	if err != nil || !alive {
		t.Fatalf("touch inside window: alive=%v err=%v", alive, err)
	}

	// 50 more minutes is still inside the extended window.
	now = now.Add(50 * time.Minute)
	alive, err = store.Touch(ctx, "sid", time.Hour)
	if err != nil || !alive {
		t.Fatalf("touch after extension: alive=%v err=%v", alive, err)
	}

	// Going idle past the TTL kills the session.
	now = now.Add(2 * time.Hour)
	alive, err = store.Touch(ctx, "sid", time.Hour)
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if alive {
		t.Fatal("session should have expired after idling past the TTL")
	}
}
