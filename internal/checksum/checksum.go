// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package checksum fingerprints template sources and render inputs.
// Digests identify compiled artifacts in caches and version page
// templates in storage.
package checksum

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Source returns the hex digest of a template source text.
func Source(source string) string {
	sum := blake2b.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Render returns the hex digest identifying one rendered output: the
// template key, the checksum of the compiled source, and the serialized
// model that was rendered against it.
func Render(key, sourceSum string, model []byte) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(key))
	h.Write([]byte{0})
	h.Write([]byte(sourceSum))
	h.Write([]byte{0})
	h.Write(model)
	return hex.EncodeToString(h.Sum(nil))
}
