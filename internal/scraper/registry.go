package scraper

import (
	"fmt"
	"sync"
)

// Type identifies a provider.
type Type string

const (
	TypeScreenScraper Type = "screenscraper"
	TypeIGDB          Type = "igdb"
)

// Types lists every provider the registry can build, in fallback order.
func Types() []Type {
	return []Type{TypeIGDB, TypeScreenScraper}
}

// ParseType validates a provider name from configuration.
func ParseType(name string) (Type, error) {
	switch Type(name) {
	case TypeScreenScraper:
		return TypeScreenScraper, nil
	case TypeIGDB:
		return TypeIGDB, nil
	default:
		return "", fmt.Errorf("unknown scraper type %q", name)
	}
}

// Registry lazily builds and memoises one adapter per provider type.
// Invalidate evicts an instance so the next request rebuilds it with the
// current credentials; credential changes must take effect without restart.
type Registry struct {
	mu              sync.Mutex
	creds           Credentials
	resolveSystem   SystemResolver
	resolvePlatform SystemResolver
	instances       map[Type]Scraper
}

// NewRegistry builds a registry over a credentials snapshot and the catalog
// id resolvers handed to the adapters: ScreenScraper system ids and IGDB
// platform ids. Either resolver may be nil.
func NewRegistry(creds Credentials, systemResolver, platformResolver SystemResolver) *Registry {
	return &Registry{
		creds:           creds,
		resolveSystem:   systemResolver,
		resolvePlatform: platformResolver,
		instances:       make(map[Type]Scraper),
	}
}

// Get returns the memoised adapter for the type, creating it on first use.
func (r *Registry) Get(t Type) (Scraper, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sc, ok := r.instances[t]; ok {
		return sc, nil
	}

	var sc Scraper
	switch t {
	case TypeScreenScraper:
		sc = NewScreenScraper(r.creds.ScreenScraper, r.resolveSystem)
	case TypeIGDB:
		sc = NewIGDB(r.creds.IGDB, r.resolvePlatform)
	default:
		return nil, fmt.Errorf("unknown scraper type %q", t)
	}

	r.instances[t] = sc
	return sc, nil
}

// Invalidate evicts one memoised adapter.
func (r *Registry) Invalidate(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, t)
}

// Clear evicts every memoised adapter.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[Type]Scraper)
}

// UpdateCredentials swaps the credentials snapshot and evicts every
// memoised adapter so the next requests rebuild against it.
func (r *Registry) UpdateCredentials(creds Credentials) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds = creds
	r.instances = make(map[Type]Scraper)
}
