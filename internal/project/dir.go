// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"pressroom/internal/keys"
)

// template file extensions, tried in order.
var extensions = []string{".page.html", ".html"}

// Dir serves templates from a directory tree. A key resolves to
// <key>.page.html first, then <key>.html. Keys that fail validation are
// reported missing, so a traversal attempt can never reach the
// filesystem.
type Dir struct {
	fsys fs.FS
}

// NewDir creates a directory project over fsys.
func NewDir(fsys fs.FS) *Dir {
	return &Dir{fsys: fsys}
}

// GetItem resolves key against the tree.
func (p *Dir) GetItem(_ context.Context, key string) (Item, error) {
	if keys.Validate(key) != nil {
		return Item{Key: key}, nil
	}

	for _, ext := range extensions {
		data, err := fs.ReadFile(p.fsys, key+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Item{}, fmt.Errorf("read template %q: %w", key, err)
		}
		return Item{Key: key, Source: string(data), Exists: true}, nil
	}
	return Item{Key: key}, nil
}

// WritableDir is a Dir rooted at a real directory that can also save
// templates.
type WritableDir struct {
	Dir
	root string
}

// NewWritableDir creates a writable directory project rooted at root.
func NewWritableDir(root string) *WritableDir {
	return &WritableDir{Dir: Dir{fsys: os.DirFS(root)}, root: root}
}

// PutItem saves a template source under <key>.page.html. The write is
// atomic, so a concurrent GetItem sees either the old or the new source,
// never a torn file.
func (p *WritableDir) PutItem(_ context.Context, key, source string) error {
	if err := keys.Validate(key); err != nil {
		return fmt.Errorf("save template: %w", err)
	}

	path := filepath.Join(p.root, filepath.FromSlash(key)+extensions[0])
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save template %q: %w", key, err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(source)); err != nil {
		return fmt.Errorf("save template %q: %w", key, err)
	}
	return nil
}

// Delete removes a saved template. Missing files are not an error.
func (p *WritableDir) Delete(_ context.Context, key string) error {
	if err := keys.Validate(key); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(p.root, filepath.FromSlash(key)+ext))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete template %q: %w", key, err)
		}
	}
	return nil
}
