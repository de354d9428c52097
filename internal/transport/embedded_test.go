package transport

import (
	"errors"
	"testing"
	"time"
)

// TestNewEmbeddedTor tests EmbeddedTor construction.
func TestNewEmbeddedTor(t *testing.T) {
	t.Parallel()

	t.Run("creates with default timeout", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor()
		if embedded.startupTimeout != 3*time.Minute {
			t.Errorf("expected default timeout 3m, got %v", embedded.startupTimeout)
		}
	})

	t.Run("applies WithStartupTimeout", func(t *testing.T) {
		t.Parallel()

		embedded := NewEmbeddedTor(WithStartupTimeout(5 * time.Minute))
		if embedded.startupTimeout != 5*time.Minute {
			t.Errorf("expected timeout 5m, got %v", embedded.startupTimeout)
		}
	})
}

// TestEmbeddedTorBeforeStart tests EmbeddedTor methods without starting Tor.
func TestEmbeddedTorBeforeStart(t *testing.T) {
	t.Parallel()

	embedded := NewEmbeddedTor()
	if embedded.IsRunning() {
		t.Error("expected not running before start")
	}
	if embedded.SocksAddr() != "" {
		t.Error("expected empty SocksAddr before start")
	}
	if err := embedded.Stop(); err != nil {
		t.Errorf("expected Stop on unstarted instance to succeed, got %v", err)
	}
	if _, err := embedded.NewClient(); !errors.Is(err, ErrTorNotRunning) {
		t.Errorf("expected ErrTorNotRunning, got %v", err)
	}
}
