// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func testSecret(t *testing.T) string {
	t.Helper()
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "pressroom",
		AccountName: "test",
	})
	if err != nil {
		t.Fatalf("totp generate: %v", err)
	}
	return key.Secret()
}

func TestRequireTOTP(t *testing.T) {
	secret := testSecret(t)

	var called bool
	handler := RequireTOTP(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid code passes", func(t *testing.T) {
		called = false
		code, err := totp.GenerateCode(secret, time.Now())
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}

		req := httptest.NewRequest(http.MethodPut, "/admin/templates/home", nil)
		req.Header.Set(CodeHeader, code)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if !called {
			t.Error("expected handler to run")
		}
		if rr.Code != http.StatusOK {
			t.Errorf("status: got %d, want 200", rr.Code)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		called = false
		req := httptest.NewRequest(http.MethodPut, "/admin/templates/home", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if called {
			t.Error("handler must not run without a code")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if rr.Header().Get("WWW-Authenticate") == "" {
			t.Error("expected WWW-Authenticate header")
		}
	})

	t.Run("wrong code rejected", func(t *testing.T) {
		called = false
		bad := "000000"
		if code, _ := totp.GenerateCode(secret, time.Now()); code == bad {
			bad = "000001"
		}

		req := httptest.NewRequest(http.MethodPut, "/admin/templates/home", nil)
		req.Header.Set(CodeHeader, bad)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if called {
			t.Error("handler must not run with a bad code")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
	})
}
