// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package inject resolves the services declared by page units and assigns
// them to freshly instantiated pages. Services are registered by name with
// an explicit lifetime; resolution happens through short-lived scopes so
// that per-render resources are released as soon as injection completes.
package inject

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// Lifetime controls how often a service factory runs and who owns the
// result.
type Lifetime int

const (
	// Singleton services are built once per registry and shared by every
	// scope. Their resources are never released by Scope.Dispose.
	Singleton Lifetime = iota

	// Scoped services are built once per scope and released when the
	// scope is disposed.
	Scoped

	// Transient services are built on every resolution and released when
	// the scope is disposed.
	Transient
)

// String returns the lifetime name used in logs and errors.
func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	case Transient:
		return "transient"
	default:
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
}

// Factory builds one service instance. Factories receive the resolving
// scope and may resolve their own dependencies through it.
type Factory func(ctx context.Context, s *Scope) (any, error)

// registration is one named service entry.
type registration struct {
	lifetime Lifetime
	factory  Factory
}

// Registry holds service registrations keyed by service name. Registration
// and scope creation are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registration

	// built singletons, guarded separately so slow factories do not block
	// unrelated registrations.
	singleMu sync.Mutex
	singles  map[string]any
}

// NewRegistry creates an empty service registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]registration),
		singles: make(map[string]any),
	}
}

// Register adds a named service. Registering a name twice is an error so
// that wiring mistakes surface at startup rather than at render time.
func (r *Registry) Register(name string, lifetime Lifetime, factory Factory) error {
	if name == "" {
		return errors.New("inject: service name is empty")
	}
	if factory == nil {
		return fmt.Errorf("inject: service %q has a nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("inject: service %q is already registered", name)
	}
	r.entries[name] = registration{lifetime: lifetime, factory: factory}
	return nil
}

// RegisterValue adds a pre-built instance under the singleton lifetime.
func (r *Registry) RegisterValue(name string, v any) error {
	return r.Register(name, Singleton, func(context.Context, *Scope) (any, error) {
		return v, nil
	})
}

// Has reports whether a service name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// Names returns all registered service names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// CreateScope starts a resolution scope. The caller must call Dispose when
// the resolved services are no longer needed.
func (r *Registry) CreateScope() *Scope {
	return &Scope{reg: r, cache: make(map[string]any)}
}

// lookup fetches a registration by name.
func (r *Registry) lookup(name string) (registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.entries[name]
	return reg, ok
}

// singleton returns the shared instance for name, building it on first use.
// Construction is serialised so a factory runs at most once per registry.
func (r *Registry) singleton(ctx context.Context, s *Scope, name string, reg registration) (any, error) {
	r.singleMu.Lock()
	defer r.singleMu.Unlock()

	if v, ok := r.singles[name]; ok {
		return v, nil
	}
	v, err := reg.factory(ctx, s)
	if err != nil {
		return nil, err
	}
	r.singles[name] = v
	return v, nil
}

// Scope resolves services and owns the non-singleton instances it built.
// A scope is intended for a single injection pass and is not safe for
// concurrent use.
type Scope struct {
	reg      *Registry
	cache    map[string]any
	closers  []io.Closer
	disposed bool
}

// Resolve returns the service registered under name, building it according
// to its lifetime. Scoped and transient instances that implement io.Closer
// are closed by Dispose; singletons are not.
func (s *Scope) Resolve(ctx context.Context, name string) (any, error) {
	if s.disposed {
		return nil, fmt.Errorf("inject: resolve %q on a disposed scope", name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reg, ok := s.reg.lookup(name)
	if !ok {
		return nil, fmt.Errorf("inject: no service registered for %q", name)
	}

	switch reg.lifetime {
	case Singleton:
		return s.reg.singleton(ctx, s, name, reg)

	case Scoped:
		if v, ok := s.cache[name]; ok {
			return v, nil
		}
		v, err := reg.factory(ctx, s)
		if err != nil {
			return nil, err
		}
		s.cache[name] = v
		s.adopt(v)
		return v, nil

	default: // Transient
		v, err := reg.factory(ctx, s)
		if err != nil {
			return nil, err
		}
		s.adopt(v)
		return v, nil
	}
}

// adopt records an instance for release at Dispose.
func (s *Scope) adopt(v any) {
	if c, ok := v.(io.Closer); ok {
		s.closers = append(s.closers, c)
	}
}

// Dispose closes every scope-owned io.Closer in reverse construction order
// and marks the scope unusable. Dispose is idempotent.
func (s *Scope) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
