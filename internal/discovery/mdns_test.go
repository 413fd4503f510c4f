// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager construction and endpoint channel plumbing
package discovery

import "testing"

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Test Mixer",
		Port:        8927,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.Endpoints() == nil {
		t.Fatal("expected an endpoints channel")
	}
}

func TestStopCancelsContext(t *testing.T) {
	mgr := NewManager(Config{ServiceName: "Test Mixer", Port: 8927})
	mgr.Stop()

	select {
	case <-mgr.ctx.Done():
	default:
		t.Fatal("expected context to be cancelled after Stop")
	}
}
