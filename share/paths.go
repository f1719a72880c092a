// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: share/paths.go
// Summary: Path helpers for the texelcast runtime directory.

package share

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const runtimeSubdir = "texelcast"

// RuntimeDir returns the session-scoped directory holding the producer
// registry and published segments, creating it if needed.
func RuntimeDir() (string, error) {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, runtimeSubdir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("share: create runtime dir: %w", err)
	}
	return dir, nil
}

// RegistryPath returns the path of the producer registry database.
func RegistryPath() (string, error) {
	dir, err := RuntimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "registry.db"), nil
}

// SegmentPath derives a deterministic segment file path for a producer name.
// Names are user-visible free text, so the file name carries a sanitized form
// plus a short hash to keep distinct names distinct.
func SegmentPath(dir, name string) string {
	sum := sha1.Sum([]byte(name))
	return filepath.Join(dir, fmt.Sprintf("%s-%x.seg", sanitize(name), sum[:4]))
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "producer"
	}
	const maxStem = 48
	s := b.String()
	if len(s) > maxStem {
		s = s[:maxStem]
	}
	return s
}
