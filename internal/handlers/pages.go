// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pressroom/internal/checksum"
	"pressroom/internal/engine"
	"pressroom/internal/rendercache"
)

// Public groups the rendering handlers. It checks the Valkey output cache
// before invoking the template engine, and stores rendered pages on miss.
type Public struct {
	engine *engine.Engine
	output *rendercache.OutputCache
}

// NewPublic creates a new Public handler group. output may be nil when
// Valkey is not configured; rendering then always executes the template.
func NewPublic(eng *engine.Engine, output *rendercache.OutputCache) *Public {
	return &Public{engine: eng, output: output}
}

// Render renders the template named by the URL with no model.
func (p *Public) Render(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	p.render(w, r, key, nil, nil)
}

// RenderWithModel renders the template named by the URL with the request
// body as its model. The body is JSON; an empty or null body renders like
// a model-less GET.
func (p *Public) RenderWithModel(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxModelLen+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}
	if int64(len(body)) > maxModelLen {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "model too large"})
		return
	}

	model, ok := decodeModel(w, body)
	if !ok {
		return
	}
	if model == nil {
		body = nil
	}
	p.render(w, r, key, model, body)
}

// render runs the compile-then-render path with the output cache layered
// in. The cache digest covers the template key, its compiled source
// checksum, and the model bytes, so edits and differing models never
// collide. Template edits through the admin API also purge the key's
// entries outright.
func (p *Public) render(w http.ResponseWriter, r *http.Request, key string, model any, modelJSON []byte) {
	ctx := r.Context()

	desc, err := p.engine.Compile(ctx, key)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var digest string
	if p.output != nil {
		digest = checksum.Render(key, desc.Checksum, modelJSON)
		if cached, ok := p.output.Get(ctx, key, digest); ok {
			writeHTML(w, cached)
			return
		}
	}

	html, err := p.engine.Render(ctx, desc, model)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if p.output != nil {
		p.output.Set(ctx, key, digest, []byte(html))
	}
	writeHTML(w, []byte(html))
}

// writeHTML writes a rendered page.
func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}
