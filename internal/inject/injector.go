// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package inject

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pressroom/internal/compiler"
)

// ServiceResolutionError reports that a declared member could not be
// populated. A page that failed injection is invalid and must not execute.
type ServiceResolutionError struct {
	Member  string // member name declared on the unit
	Service string // service name the member resolves from
	Err     error  // underlying resolution or assignment failure
}

// Error implements the error interface.
func (e *ServiceResolutionError) Error() string {
	return fmt.Sprintf("inject member %q from service %q: %v", e.Member, e.Service, e.Err)
}

// Unwrap returns the underlying failure.
func (e *ServiceResolutionError) Unwrap() error { return e.Err }

// setterKey identifies one injectable member of one loaded unit.
type setterKey struct {
	unit   *compiler.Unit
	member string
}

// setters caches member assignment closures across every injector in the
// process. The member set is bounded by the loaded units, so entries are
// never evicted.
var setters sync.Map // setterKey -> func(*compiler.Page, any) error

// setterFor returns the cached assignment closure for a unit member,
// building and publishing it on first use.
func setterFor(u *compiler.Unit, member string) (func(*compiler.Page, any) error, error) {
	key := setterKey{unit: u, member: member}
	if f, ok := setters.Load(key); ok {
		return f.(func(*compiler.Page, any) error), nil
	}

	f, ok := u.Setter(member)
	if !ok {
		return nil, fmt.Errorf("unit %q does not declare member %q", u.Name(), member)
	}
	actual, _ := setters.LoadOrStore(key, f)
	return actual.(func(*compiler.Page, any) error), nil
}

// Injector populates the declared members of freshly instantiated pages
// from a service registry.
type Injector struct {
	reg *Registry
}

// NewInjector creates an injector backed by the given registry.
func NewInjector(reg *Registry) *Injector {
	return &Injector{reg: reg}
}

// Inject resolves every member the page's unit declares and assigns it.
// Each call runs in a fresh scope that is disposed as soon as the members
// are set, so injected services must not hold scope-owned resources beyond
// the render unless they are singletons. The first failure aborts the pass
// with a *ServiceResolutionError.
func (in *Injector) Inject(ctx context.Context, page *compiler.Page) error {
	bindings := page.Unit().Injects()
	if len(bindings) == 0 {
		return nil
	}

	scope := in.reg.CreateScope()
	defer func() {
		if err := scope.Dispose(); err != nil {
			slog.Warn("service scope dispose failed", "unit", page.Unit().Name(), "error", err)
		}
	}()

	for _, b := range bindings {
		v, err := scope.Resolve(ctx, b.Service)
		if err != nil {
			return &ServiceResolutionError{Member: b.Member, Service: b.Service, Err: err}
		}
		set, err := setterFor(page.Unit(), b.Member)
		if err != nil {
			return &ServiceResolutionError{Member: b.Member, Service: b.Service, Err: err}
		}
		if err := set(page, v); err != nil {
			return &ServiceResolutionError{Member: b.Member, Service: b.Service, Err: err}
		}
	}
	return nil
}
