// Package client manages HTTP client creation and configuration.
package client

import (
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/rmlconformance/internal/helpers"
)

// Manager handles HTTP client creation and caching
type Manager struct {
	timeout time.Duration
	debug   bool
	log     logrus.FieldLogger
	cache   map[string]*http.Client
	mu      sync.RWMutex
}

// NewManager creates a new client manager
func NewManager(timeout time.Duration, debug bool, log logrus.FieldLogger) *Manager {
	return &Manager{
		timeout: timeout,
		debug:   debug,
		log:     log,
		cache:   make(map[string]*http.Client),
	}
}

// GetClient returns the HTTP client used for the given server. Clients are
// cached per normalized server URL.
func (m *Manager) GetClient(serverURL string) *http.Client {
	key := helpers.NormalizeURL(serverURL)

	m.mu.RLock()
	if cachedClient, exists := m.cache[key]; exists {
		m.mu.RUnlock()
		return cachedClient
	}
	m.mu.RUnlock()

	client := &http.Client{Timeout: m.timeout}
	if m.debug {
		client = helpers.EnableHTTPDebugLogging(client, m.log.WithField("server", key))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cachedClient, exists := m.cache[key]; exists {
		return cachedClient
	}
	m.cache[key] = client
	return client
}
