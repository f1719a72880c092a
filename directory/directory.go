// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: directory/directory.go
// Summary: Consumer-facing view of the shared producer registry.

package directory

import (
	"errors"

	"github.com/framegrace/texelcast/share"
)

// Info describes a live producer as reported by the registry. Capture keeps
// it only for the discovery attempt that fetched it.
type Info struct {
	Name   string
	Width  int
	Height int
	Handle share.Handle
	Format share.PixelFormat
}

// Directory is the query surface capture sources use for discovery. The
// sqlite-backed Registry is the real implementation; Memory backs tests.
type Directory interface {
	// Count returns the number of currently registered producers.
	Count() (int, error)

	// NameAt returns the producer name at the given index in registration
	// order. Returns ErrNotFound when the index is out of range.
	NameAt(index int) (string, error)

	// SetActive marks name as the active producer. The sharing protocol
	// requires an active selection before per-name queries resolve for
	// first-available consumers.
	SetActive(name string) error

	// InfoFor returns the descriptor for a named producer, or ErrNotFound.
	InfoFor(name string) (*Info, error)

	// ReleaseActive clears the active producer selection.
	ReleaseActive() error

	Close() error
}

var (
	ErrNotFound = errors.New("directory: producer not found")
	ErrClosed   = errors.New("directory: closed")
)
