package service

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nvoss/toolgate/internal/domain"
)

// Registry tracks linked external tool servers. It is an explicit
// object owned by the process, not an ambient shared map; linking only
// records the endpoint.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]domain.ToolServer
}

// NewRegistry creates a new tool server registry
func NewRegistry() *Registry {
	return &Registry{servers: make(map[string]domain.ToolServer)}
}

// Link registers a tool server under a unique, trimmed, non-empty name.
func (r *Registry) Link(link domain.ToolServerLink) (*domain.ToolServer, error) {
	name := strings.TrimSpace(link.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be blank", domain.ErrNotPermitted)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[name]; ok {
		return nil, domain.ErrServerLinked
	}
	server := domain.ToolServer{
		Name:     name,
		URL:      link.URL,
		Headers:  link.Headers,
		LinkedAt: time.Now(),
	}
	r.servers[name] = server
	return &server, nil
}

// List returns linked servers sorted by name.
func (r *Registry) List() []domain.ToolServer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolServer, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Unlink removes a linked server.
func (r *Registry) Unlink(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[name]; !ok {
		return domain.ErrNotFound
	}
	delete(r.servers, name)
	return nil
}
