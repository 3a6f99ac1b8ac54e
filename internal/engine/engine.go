// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine orchestrates template rendering. It resolves template
// sources from a project, generates and compiles them into page units,
// caches the compiled units, and renders fresh page instances with
// injected services per request. Layouts and includes resolve through the
// same engine and cache as their parents.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"pressroom/internal/builtins"
	"pressroom/internal/cache"
	"pressroom/internal/checksum"
	"pressroom/internal/compiler"
	"pressroom/internal/diag"
	"pressroom/internal/generator"
	"pressroom/internal/inject"
	"pressroom/internal/project"
)

// DefaultMaxDepth bounds template nesting (layout chains and includes)
// so cyclic references terminate with an error instead of recursing.
const DefaultMaxDepth = 16

// previewKey names ad-hoc sources rendered without a project entry.
const previewKey = "preview"

// Descriptor is the cached product of one template compilation.
type Descriptor = cache.Descriptor

// Config assembles an engine. Project is required; everything else has a
// working default.
type Config struct {
	// Project resolves template keys to sources.
	Project project.Project

	// Cache stores compiled units. Defaults to cache.Permanent().
	Cache cache.Cache

	// Compiler turns generated listings into units. Defaults to a
	// service resolving the builtin function libraries.
	Compiler *compiler.Service

	// Injector populates declared page members. Defaults to an injector
	// over an empty registry, which fails any template that declares one.
	Injector *inject.Injector

	// MaxDepth overrides DefaultMaxDepth when positive.
	MaxDepth int
}

// Engine compiles and renders templates. One engine and one cache are
// shared by all concurrent renders; pages, models, and output buffers are
// created per call and never shared.
type Engine struct {
	project  project.Project
	cache    cache.Cache
	svc      *compiler.Service
	gen      *generator.Generator
	injector *inject.Injector
	maxDepth int
}

// New creates an engine from cfg, filling in defaults for absent pieces.
func New(cfg Config) *Engine {
	e := &Engine{
		project:  cfg.Project,
		cache:    cfg.Cache,
		svc:      cfg.Compiler,
		gen:      generator.New(),
		injector: cfg.Injector,
		maxDepth: cfg.MaxDepth,
	}
	if e.cache == nil {
		e.cache = cache.Permanent()
	}
	if e.svc == nil {
		e.svc = compiler.NewService(compiler.Config{Resolver: builtins.Resolver()})
	}
	if e.injector == nil {
		e.injector = inject.NewInjector(inject.NewRegistry())
	}
	if e.maxDepth <= 0 {
		e.maxDepth = DefaultMaxDepth
	}
	return e
}

// Compile returns the cached descriptor for key, building it on a miss.
// Concurrent misses on one key share a single compilation; a miss build
// outlives an abandoning caller and still populates the cache.
func (e *Engine) Compile(ctx context.Context, key string) (*Descriptor, error) {
	return e.cache.GetOrAdd(ctx, key, func(cctx context.Context) (*Descriptor, error) {
		return e.build(cctx, key)
	})
}

// build runs the full cache-miss path: resolve the source, generate its
// listing, and compile the listing into a loaded unit.
func (e *Engine) build(ctx context.Context, key string) (*Descriptor, error) {
	item, err := e.project.GetItem(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve template %q: %w", key, err)
	}
	if !item.Exists {
		return nil, &TemplateNotFoundError{Key: key}
	}

	gen, err := e.gen.Generate(item)
	if err != nil {
		return nil, err
	}
	unit, err := e.svc.CompileAndLoad(ctx, gen.Code, key)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		Key:        key,
		Unit:       unit,
		Checksum:   checksum.Source(item.Source),
		CompiledAt: time.Now(),
	}
	slog.Debug("template compiled", "key", key, "checksum", d.Checksum, "model", unit.ModelName(), "layout", unit.LayoutKey())
	return d, nil
}

// Render creates a fresh page from desc, injects its declared members,
// checks the model against the declared model type, executes the page,
// and collects its output. The unit's layout chain is applied, each layout
// rendering with the inner output as its body.
func (e *Engine) Render(ctx context.Context, desc *Descriptor, model any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := e.renderPage(ctx, desc, model, nil, 0)
	if err != nil {
		return "", err
	}

	depth := 0
	for layout := desc.Unit.LayoutKey(); layout != ""; layout = desc.Unit.LayoutKey() {
		depth++
		if depth > e.maxDepth {
			return "", fmt.Errorf("layout chain of %q deeper than %d", desc.Key, e.maxDepth)
		}
		ldesc, err := e.Compile(ctx, layout)
		if err != nil {
			return "", fmt.Errorf("layout %q: %w", layout, err)
		}
		out, err = e.renderPage(ctx, ldesc, model, &out, depth)
		if err != nil {
			return "", fmt.Errorf("layout %q: %w", layout, err)
		}
		desc = ldesc
	}
	return out, nil
}

// CompileRender compiles key if needed and renders it with model.
func (e *Engine) CompileRender(ctx context.Context, key string, model any) (string, error) {
	desc, err := e.Compile(ctx, key)
	if err != nil {
		return "", err
	}
	return e.Render(ctx, desc, model)
}

// CompileRenderAs renders key with a statically typed model. When the
// template declares a model type, T must name it; the mismatch is caught
// before execution.
func CompileRenderAs[T any](ctx context.Context, e *Engine, key string, model T) (string, error) {
	desc, err := e.Compile(ctx, key)
	if err != nil {
		return "", err
	}
	if want := desc.Unit.ModelName(); want != "" {
		if got := typeName(reflect.TypeOf((*T)(nil)).Elem()); got != want {
			return "", &ModelTypeMismatchError{Key: key, Want: want, Got: got}
		}
	}
	return e.Render(ctx, desc, model)
}

// RenderString compiles and renders an ad-hoc source without touching the
// cache. Includes and layouts named by the source still resolve through
// the engine as usual.
func (e *Engine) RenderString(ctx context.Context, source string, model any) (string, error) {
	item := project.Item{Key: previewKey, Source: source, Exists: true}
	gen, err := e.gen.Generate(item)
	if err != nil {
		return "", err
	}
	unit, err := e.svc.CompileAndLoad(ctx, gen.Code, previewKey)
	if err != nil {
		return "", err
	}

	desc := &Descriptor{
		Key:        previewKey,
		Unit:       unit,
		Checksum:   checksum.Source(source),
		CompiledAt: time.Now(),
	}
	return e.Render(ctx, desc, model)
}

// ValidateSource checks a source without caching anything: parse and
// binding diagnostics first, then reference resolution through a real
// compilation. Returns nil when the source is clean.
func (e *Engine) ValidateSource(source string) []diag.Diagnostic {
	item := project.Item{Key: previewKey, Source: source, Exists: true}
	gen, err := e.gen.Generate(item)
	if err != nil {
		var genErr *TemplateGenerationError
		if errors.As(err, &genErr) {
			return genErr.Diagnostics
		}
		return []diag.Diagnostic{diag.Errorf(0, 0, "%v", err)}
	}

	if _, err := e.svc.CompileAndLoad(context.Background(), gen.Code, previewKey); err != nil {
		var compErr *compiler.CompilationError
		if errors.As(err, &compErr) {
			return compErr.Diagnostics
		}
		return []diag.Diagnostic{diag.Errorf(0, 0, "%v", err)}
	}
	return nil
}

// Invalidate drops the compiled unit for key. The next render recompiles.
func (e *Engine) Invalidate(key string) {
	e.cache.Invalidate(key)
	slog.Debug("template invalidated", "key", key)
}

// InvalidateAll drops every compiled unit.
func (e *Engine) InvalidateAll() {
	e.cache.InvalidateAll()
	slog.Debug("all templates invalidated")
}

// renderPage executes one unit without its layout chain. body is non-nil
// when the unit renders as a layout around already-rendered content.
func (e *Engine) renderPage(ctx context.Context, desc *Descriptor, model any, body *string, depth int) (string, error) {
	page := desc.Unit.NewPage()
	if err := e.injector.Inject(ctx, page); err != nil {
		return "", err
	}
	if err := checkModel(desc.Key, desc.Unit.ModelName(), model); err != nil {
		return "", err
	}
	page.SetModel(model)

	env := &compiler.ExecEnv{
		Ctx:     ctx,
		Include: e.include,
		Depth:   depth,
	}
	if body != nil {
		env.Body, env.HasBody = *body, true
	}
	if err := page.Execute(env); err != nil {
		return "", fmt.Errorf("render %q: %w", desc.Key, err)
	}
	return page.Output(), nil
}

// include renders another template into the parent's buffer with the
// parent's model. The included unit's own layout does not apply; layouts
// belong to the top-level render.
func (e *Engine) include(ctx context.Context, key string, model any, w *bytes.Buffer, depth int) error {
	if depth > e.maxDepth {
		return fmt.Errorf("include depth exceeds %d", e.maxDepth)
	}
	desc, err := e.Compile(ctx, key)
	if err != nil {
		return err
	}
	out, err := e.renderPage(ctx, desc, model, nil, depth)
	if err != nil {
		return err
	}
	w.WriteString(out)
	return nil
}

// checkModel enforces a declared model type against the supplied model.
// Templates without a declaration accept anything, nil included.
func checkModel(key, want string, model any) error {
	if want == "" {
		return nil
	}
	got := "nil"
	if model != nil {
		t := reflect.TypeOf(model)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		got = typeName(t)
	}
	if got != want {
		return &ModelTypeMismatchError{Key: key, Want: want, Got: got}
	}
	return nil
}

// typeName names a type the way model declarations do: the bare name for
// named types, the full spelling otherwise.
func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
