// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the pressroom template
// service. Handlers are grouped by concern (admin, public) and receive
// their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"pressroom/internal/diag"
	"pressroom/internal/engine"
	"pressroom/internal/keys"
	"pressroom/internal/project"
	"pressroom/internal/rendercache"
	"pressroom/internal/store"
)

// Admin groups the management API handlers. All routes are expected to sit
// behind the TOTP middleware.
type Admin struct {
	engine     *engine.Engine
	project    project.Store
	templates  *store.TemplateStore
	revisions  *store.RevisionStore
	cacheLog   *store.CacheLogStore
	output     *rendercache.OutputCache
	totpSecret string
}

// NewAdmin creates a new Admin handler group. templates, revisions and
// cacheLog may be nil when the template backend is not database-backed;
// output may be nil when Valkey is not configured.
func NewAdmin(eng *engine.Engine, proj project.Store, templates *store.TemplateStore, revisions *store.RevisionStore, cacheLog *store.CacheLogStore, output *rendercache.OutputCache, totpSecret string) *Admin {
	return &Admin{
		engine:     eng,
		project:    proj,
		templates:  templates,
		revisions:  revisions,
		cacheLog:   cacheLog,
		output:     output,
		totpSecret: totpSecret,
	}
}

// saveRequest is the JSON body for template save and preview endpoints.
type saveRequest struct {
	Source string `json:"source"`
}

// templateResponse describes a stored template. Version is only present
// on database backends.
type templateResponse struct {
	Key       string `json:"key"`
	Source    string `json:"source,omitempty"`
	Version   int    `json:"version,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TemplateSave stores a template source under the key in the URL. The
// source must pass validation before it is accepted; broken templates are
// rejected with their diagnostics rather than saved. A successful save
// drops the compiled unit and any cached rendered output for the key.
func (a *Admin) TemplateSave(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := keys.Validate(key); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	var req saveRequest
	if !decodeJSON(w, r, maxSourceLen, &req) {
		return
	}
	if msg := validateSourceInput(req.Source); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	if ds := a.engine.ValidateSource(req.Source); diag.HasErrors(ds) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:       "template has errors",
			Diagnostics: diagsJSON(ds),
		})
		return
	}

	if err := a.project.PutItem(r.Context(), key, req.Source); err != nil {
		slog.Error("template save failed", "error", err, "key", key)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save template"})
		return
	}

	a.invalidateTemplate(r, key, "save")
	slog.Info("template saved", "key", key)

	resp := templateResponse{Key: key}
	if a.templates != nil {
		if t, err := a.templates.FindByKey(r.Context(), key); err == nil && t != nil {
			resp.Version = t.Version
			resp.UpdatedAt = t.UpdatedAt.UTC().Format(timeFormat)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// TemplateGet returns a single template with its source.
func (a *Admin) TemplateGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	item, err := a.project.GetItem(r.Context(), key)
	if err != nil {
		slog.Error("template lookup failed", "error", err, "key", key)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load template"})
		return
	}
	if !item.Exists {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "template " + strconv.Quote(key) + " not found"})
		return
	}

	resp := templateResponse{Key: key, Source: item.Source}
	if a.templates != nil {
		if t, err := a.templates.FindByKey(r.Context(), key); err == nil && t != nil {
			resp.Version = t.Version
			resp.UpdatedAt = t.UpdatedAt.UTC().Format(timeFormat)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// TemplateList returns every stored template without sources. Listing
// needs the database backend.
func (a *Admin) TemplateList(w http.ResponseWriter, r *http.Request) {
	if a.templates == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "template listing requires a database backend"})
		return
	}

	all, err := a.templates.List(r.Context())
	if err != nil {
		slog.Error("template list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list templates"})
		return
	}

	resp := make([]templateResponse, 0, len(all))
	for _, t := range all {
		resp = append(resp, templateResponse{
			Key:       t.Key,
			Version:   t.Version,
			UpdatedAt: t.UpdatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": resp})
}

// TemplateDelete removes a template and its cached state. Deleting an
// absent key succeeds.
func (a *Admin) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := keys.Validate(key); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := a.project.Delete(r.Context(), key); err != nil {
		slog.Error("template delete failed", "error", err, "key", key)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete template"})
		return
	}

	a.invalidateTemplate(r, key, "delete")
	slog.Info("template deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// revisionResponse describes one historical template snapshot.
type revisionResponse struct {
	Version   int    `json:"version"`
	Source    string `json:"source,omitempty"`
	CreatedAt string `json:"created_at"`
}

// RevisionList returns the stored revisions for a template key, newest
// first. Revision history needs the database backend.
func (a *Admin) RevisionList(w http.ResponseWriter, r *http.Request) {
	if a.revisions == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "revision history requires a database backend"})
		return
	}
	key := chi.URLParam(r, "*")

	revs, err := a.revisions.ListByKey(r.Context(), key)
	if err != nil {
		slog.Error("revision list failed", "error", err, "key", key)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list revisions"})
		return
	}

	resp := make([]revisionResponse, 0, len(revs))
	for _, rev := range revs {
		resp = append(resp, revisionResponse{
			Version:   rev.Version,
			CreatedAt: rev.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "revisions": resp})
}

// restoreRequest names the revision to restore.
type restoreRequest struct {
	Version int `json:"version"`
}

// RevisionRestore saves a historical revision's source as the newest
// version of the template. History is append-only; restoring does not
// rewrite it.
func (a *Admin) RevisionRestore(w http.ResponseWriter, r *http.Request) {
	if a.revisions == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "revision history requires a database backend"})
		return
	}
	key := chi.URLParam(r, "*")

	var req restoreRequest
	if !decodeJSON(w, r, maxSourceLen, &req) {
		return
	}
	if req.Version <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "version must be positive"})
		return
	}

	rev, err := a.revisions.FindVersion(r.Context(), key, req.Version)
	if err != nil {
		slog.Error("revision lookup failed", "error", err, "key", key, "version", req.Version)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load revision"})
		return
	}
	if rev == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "revision not found"})
		return
	}

	if err := a.project.PutItem(r.Context(), key, rev.Source); err != nil {
		slog.Error("revision restore failed", "error", err, "key", key, "version", req.Version)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to restore revision"})
		return
	}

	a.invalidateTemplate(r, key, "restore")
	slog.Info("revision restored", "key", key, "version", req.Version)

	resp := templateResponse{Key: key}
	if a.templates != nil {
		if t, err := a.templates.FindByKey(r.Context(), key); err == nil && t != nil {
			resp.Version = t.Version
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Preview compiles and renders an ad-hoc source without saving or caching
// anything. Includes and layouts named by the source still resolve from
// the configured backend.
func (a *Admin) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string          `json:"source"`
		Model  json.RawMessage `json:"model"`
	}
	if !decodeJSON(w, r, maxSourceLen+maxModelLen, &req) {
		return
	}
	if msg := validateSourceInput(req.Source); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	model, ok := decodeModel(w, req.Model)
	if !ok {
		return
	}

	html, err := a.engine.RenderString(r.Context(), req.Source, model)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

// Validate checks a source for parse, binding, and reference errors
// without saving it.
func (a *Admin) Validate(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if !decodeJSON(w, r, maxSourceLen, &req) {
		return
	}
	if msg := validateSourceInput(req.Source); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	ds := a.engine.ValidateSource(req.Source)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":       !diag.HasErrors(ds),
		"diagnostics": diagsJSON(ds),
	})
}

// cacheLogResponse is one invalidation audit row.
type cacheLogResponse struct {
	Key           string `json:"key"`
	Scope         string `json:"scope"`
	Action        string `json:"action"`
	InvalidatedAt string `json:"invalidated_at"`
}

// CacheLogList returns recent cache invalidation events, newest first.
// The audit log needs the database backend.
func (a *Admin) CacheLogList(w http.ResponseWriter, r *http.Request) {
	if a.cacheLog == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "the cache log requires a database backend"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	entries, err := a.cacheLog.RecentEntries(r.Context(), limit)
	if err != nil {
		slog.Error("cache log list failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list cache log"})
		return
	}

	resp := make([]cacheLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, cacheLogResponse{
			Key:           e.Key,
			Scope:         e.Scope,
			Action:        e.Action,
			InvalidatedAt: e.InvalidatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": resp})
}

// CacheInvalidate drops the compiled unit and cached output for one key.
// The next render recompiles from the backend source.
func (a *Admin) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if err := keys.Validate(key); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	a.invalidateTemplate(r, key, "invalidate")
	slog.Info("cache invalidated", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// CacheInvalidateAll drops every compiled unit and all cached output.
func (a *Admin) CacheInvalidateAll(w http.ResponseWriter, r *http.Request) {
	a.engine.InvalidateAll()
	if a.output != nil {
		a.output.InvalidateAll(r.Context())
	}
	if a.cacheLog != nil {
		a.cacheLog.Log(r.Context(), "*", store.ScopeAll, "invalidate-all")
	}
	slog.Info("cache invalidated", "key", "*")
	w.WriteHeader(http.StatusNoContent)
}

// TOTPQR answers a QR code PNG enrolling the configured TOTP secret into
// an authenticator app. Used to add a second device; first enrollment
// happens through the -gen-totp command line flag.
func (a *Admin) TOTPQR(w http.ResponseWriter, r *http.Request) {
	if a.totpSecret == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "TOTP is not configured"})
		return
	}

	q := url.Values{}
	q.Set("secret", a.totpSecret)
	q.Set("issuer", "pressroom")
	u := url.URL{Scheme: "otpauth", Host: "totp", Path: "/pressroom:admin", RawQuery: q.Encode()}

	png, err := qrcode.Encode(u.String(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("totp qr encode failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to build QR code"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// invalidateTemplate purges both the compiled unit and the rendered output
// for key, and records the event when the audit log is available.
func (a *Admin) invalidateTemplate(r *http.Request, key, action string) {
	a.engine.Invalidate(key)
	if a.output != nil {
		a.output.InvalidateTemplate(r.Context(), key)
	}
	if a.cacheLog != nil {
		a.cacheLog.Log(r.Context(), key, store.ScopeAll, action)
	}
}
