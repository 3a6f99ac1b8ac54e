// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pressroom/internal/inject"
)

// doRender drives the Public handlers directly with a wildcard key.
func doRender(env *testEnv, method, key, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/pages/"+key, nil)
	} else {
		req = httptest.NewRequest(method, "/pages/"+key, strings.NewReader(body))
	}
	req = withWildcard(req, key)
	rr := httptest.NewRecorder()
	if method == http.MethodPost {
		env.Public.RenderWithModel(rr, req)
	} else {
		env.Public.Render(rr, req)
	}
	return rr
}

func TestRenderGet(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "pages/about", "<h1>About</h1>")

	rr := doRender(env, http.MethodGet, "pages/about", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "<h1>About</h1>" {
		t.Errorf("body = %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := doRender(env, http.MethodGet, "no/such/page", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var resp errorResponse
	decodeBody(t, rr, &resp)
	if !strings.Contains(resp.Error, "no/such/page") {
		t.Errorf("error = %q, should name the key", resp.Error)
	}
}

func TestRenderWithModel(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "greet", "Hello @Model.Name")

	rr := doRender(env, http.MethodPost, "greet", `{"Name":"World"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "Hello World" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "Hello World")
	}
}

func TestRenderWithModelEdgeCases(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "greet", "Hello @Model.Name")
	mustSave(t, env, "typed", "@model Invoice\nTotal: @Model.Total")

	t.Run("empty body renders a nil model", func(t *testing.T) {
		rr := doRender(env, http.MethodPost, "greet", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
		}
		if rr.Body.String() != "Hello " {
			t.Errorf("body = %q", rr.Body.String())
		}
	})

	t.Run("null body renders a nil model", func(t *testing.T) {
		rr := doRender(env, http.MethodPost, "greet", "null")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	})

	t.Run("malformed JSON is a 400", func(t *testing.T) {
		rr := doRender(env, http.MethodPost, "greet", "{oops")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("declared model rejects a JSON object", func(t *testing.T) {
		rr := doRender(env, http.MethodPost, "typed", `{"Total":3}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400 for a model type mismatch", rr.Code)
		}
		var resp errorResponse
		decodeBody(t, rr, &resp)
		if !strings.Contains(resp.Error, "Invoice") {
			t.Errorf("error = %q, should name the declared model", resp.Error)
		}
	})
}

func TestRenderLayoutChain(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "layouts/base", "<header/>\n@renderbody\n<footer/>")
	mustSave(t, env, "pages/inner", "@layout \"layouts/base\"\nthe body")

	rr := doRender(env, http.MethodGet, "pages/inner", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	want := "<header/>\nthe body<footer/>"
	if rr.Body.String() != want {
		t.Errorf("body = %q, want %q", rr.Body.String(), want)
	}
}

func TestRenderInjectedService(t *testing.T) {
	services := inject.NewRegistry()
	if err := services.RegisterValue("siteName", "Pressroom Weekly"); err != nil {
		t.Fatalf("register: %v", err)
	}
	env := newTestEnv(t, services)
	mustSave(t, env, "masthead", "@inject Site \"siteName\"\n<h1>@Site</h1>")

	rr := doRender(env, http.MethodGet, "masthead", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != "<h1>Pressroom Weekly</h1>" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRenderUnresolvableServiceIs500(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "needy", "@inject Missing \"nowhere\"\n@Missing")

	rr := doRender(env, http.MethodGet, "needy", "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for an unresolvable service", rr.Code)
	}
}

func TestRenderModelTooLarge(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "greet", "Hello @Model.Name")

	big := `{"Name":"` + strings.Repeat("x", maxModelLen) + `"}`
	rr := doRender(env, http.MethodPost, "greet", big)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rr.Code)
	}
}

// TestRenderContextCancelled confirms a dead request context stops the
// render instead of executing the page.
func TestRenderContextCancelled(t *testing.T) {
	env := newTestEnv(t, nil)
	mustSave(t, env, "slow", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/pages/slow", nil).WithContext(ctx)
	req = withWildcard(req, "slow")
	rr := httptest.NewRecorder()
	env.Public.Render(rr, req)

	if rr.Code == http.StatusOK {
		t.Error("render succeeded with a cancelled context")
	}
}
