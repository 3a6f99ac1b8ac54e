// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package compiler turns program listings (the pageasm format) into
// executable units. The service preprocesses, parses, lints, optionally
// optimizes, and assembles each listing; a successful compile yields an
// immutable *Unit whose NewPage factory creates per-render pages.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"pressroom/internal/diag"
)

// Options tune how listings compile.
type Options struct {
	// Defined lists the preprocessor symbols considered set when
	// filtering #if blocks.
	Defined []string

	// Optimize folds adjacent emits and drops label placeholders.
	// Off, every listing statement maps to one instruction, which keeps
	// runtime faults aligned with listing lines.
	Optimize bool

	// WarningsAsErrors fails compilation on any diagnostic, not just
	// errors.
	WarningsAsErrors bool
}

// RewriteHook runs between parsing and linting and may modify the unit
// source in place. Hooks see every compilation; callers of the service
// never observe them directly.
type RewriteHook func(*UnitSource) error

// Config assembles a compiler service.
type Config struct {
	Options  Options
	Resolver ReferenceResolver
	Hooks    []RewriteHook
}

// Service compiles listings into units. Safe for concurrent use; the
// reference libraries and option derivatives resolve exactly once, on
// the first compilation.
type Service struct {
	cfg Config

	once     sync.Once
	refs     *references
	defined  map[string]bool
	initErr  error
	compiles atomic.Int64
}

// NewService creates a compiler service. Reference resolution is
// deferred until the first CompileAndLoad call.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// init resolves references and option derivatives once.
func (s *Service) init() error {
	s.once.Do(func() {
		var libs []Library
		if s.cfg.Resolver != nil {
			var err error
			libs, err = s.cfg.Resolver.Resolve()
			if err != nil {
				s.initErr = fmt.Errorf("resolve references: %w", err)
				return
			}
		}
		s.refs, s.initErr = newReferences(libs)
		if s.initErr != nil {
			return
		}
		s.defined = make(map[string]bool, len(s.cfg.Options.Defined))
		for _, sym := range s.cfg.Options.Defined {
			s.defined[sym] = true
		}
		slog.Debug("compiler references resolved",
			"functions", len(s.refs.funcs), "symbols", len(s.defined))
	})
	return s.initErr
}

// Compiles returns how many units this service has successfully
// compiled. Useful as a probe that caching prevents recompilation.
func (s *Service) Compiles() int64 {
	return s.compiles.Load()
}

// CompileAndLoad compiles a program listing and loads it as a unit
// named unitName. On failure the returned error is a *CompilationError
// carrying every diagnostic.
func (s *Service) CompileAndLoad(ctx context.Context, code, unitName string) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.init(); err != nil {
		return nil, fmt.Errorf("compiler init: %w", err)
	}

	src, ds := parseListing(code, s.defined)
	name := unitName
	if name == "" {
		name = src.Name
	}
	if name == "" {
		name = "unit"
	}
	if src.Name != "" && unitName != "" && src.Name != unitName {
		ds = append(ds, diag.Warnf(1, 1, ".unit %q does not match load name %q", src.Name, unitName))
	}

	var unit *Unit
	if !s.fatal(ds) {
		for _, hook := range s.cfg.Hooks {
			if err := hook(src); err != nil {
				return nil, fmt.Errorf("rewrite hook for unit %q: %w", name, err)
			}
		}
		ds = append(ds, lint(src, s.refs)...)
		if !s.fatal(ds) {
			var more []diag.Diagnostic
			unit, more = assemble(name, src, s.cfg.Options, s.refs)
			ds = append(ds, more...)
		}
	}

	if s.fatal(ds) {
		return nil, &CompilationError{Unit: name, Diagnostics: ds}
	}
	if len(ds) > 0 {
		slog.Warn("unit compiled with warnings", "unit", name, "warnings", len(ds))
	}

	s.compiles.Add(1)
	slog.Debug("unit compiled", "unit", name, "instructions", len(unit.prog))
	return unit, nil
}

// fatal reports whether the diagnostics fail the compile under the
// service options.
func (s *Service) fatal(ds []diag.Diagnostic) bool {
	if s.cfg.Options.WarningsAsErrors {
		return len(ds) > 0
	}
	return diag.HasErrors(ds)
}
