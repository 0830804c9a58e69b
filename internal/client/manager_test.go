package client

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"evalgo.org/rmlconformance/internal/helpers"
)

func TestGetClientCachesPerServer(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := NewManager(5*time.Second, false, log)

	a := m.GetClient("http://localhost:3030/")
	b := m.GetClient("http://localhost:3030")
	if a != b {
		t.Error("expected the same client for URLs differing only by a trailing slash")
	}
	if a.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", a.Timeout)
	}

	other := m.GetClient("http://localhost:3031")
	if other == a {
		t.Error("expected a distinct client for another server")
	}
}

func TestGetClientDebugTransport(t *testing.T) {
	log, _ := test.NewNullLogger()
	m := NewManager(0, true, log)

	c := m.GetClient("http://localhost:3030")
	if _, ok := c.Transport.(*helpers.DebugHTTPTransport); !ok {
		t.Errorf("Transport = %T, want *helpers.DebugHTTPTransport", c.Transport)
	}
}
