// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// totp.go guards the management API with time-based one-time passwords.
// There are no user accounts: operators hold the TOTP secret provisioned
// at deploy time, and every management request carries a fresh code in
// the X-Pressroom-Code header.
package middleware

import (
	"net/http"

	"github.com/pquerna/otp/totp"
)

// CodeHeader carries the TOTP code on management requests.
const CodeHeader = "X-Pressroom-Code"

// RequireTOTP rejects requests whose X-Pressroom-Code header does not
// validate against secret.
func RequireTOTP(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.Header.Get(CodeHeader)
			if code == "" || !totp.Validate(code, secret) {
				w.Header().Set("WWW-Authenticate", `TOTP realm="pressroom"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
