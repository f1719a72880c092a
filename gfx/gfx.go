// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: gfx/gfx.go
// Summary: Graphics-resource scope and shared-handle texture import.
//
// All texture creation, destruction and pixel reads happen inside the
// scope. Capture mutates the binding from the host update goroutine while
// the render path reads it from the render goroutine; the scope is the
// only thing serializing the two.

package gfx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/framegrace/texelcast/share"
)

var (
	ErrImportFailed = errors.New("gfx: shared handle import failed")
)

// Texture is a renderable image imported from a producer's shared handle.
// It is owned by exactly one binding; Destroy releases the mapping.
type Texture struct {
	width  int
	height int
	stride int
	format share.PixelFormat
	seg    *share.Segment
}

func (t *Texture) Width() int                { return t.width }
func (t *Texture) Height() int               { return t.height }
func (t *Texture) Stride() int               { return t.stride }
func (t *Texture) Format() share.PixelFormat { return t.format }

// Frame returns the producer's frame counter at the time of the call.
func (t *Texture) Frame() uint64 {
	if t.seg == nil {
		return 0
	}
	return t.seg.Frame()
}

// Pixels returns the live pixel payload. Only valid while the scope is held
// and until the texture is destroyed.
func (t *Texture) Pixels() []byte {
	if t.seg == nil {
		return nil
	}
	pix := t.seg.Pixels()
	if n := t.stride * t.height; len(pix) > n {
		pix = pix[:n]
	}
	return pix
}

// Scope brackets exclusive texture operations. ImportShared and Destroy, and
// any Texture pixel access, must happen between Enter and Leave.
type Scope interface {
	Enter()
	Leave()
	ImportShared(h share.Handle) (*Texture, error)
	Destroy(t *Texture)
}

// System is the process-wide scope backed by shared-memory segment mapping.
type System struct {
	mu sync.Mutex
}

func NewSystem() *System {
	return &System{}
}

func (s *System) Enter() { s.mu.Lock() }
func (s *System) Leave() { s.mu.Unlock() }

// ImportShared maps the segment the handle refers to and wraps it as a
// texture. Caller must hold the scope.
func (s *System) ImportShared(h share.Handle) (*Texture, error) {
	seg, err := share.Open(string(h))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	hdr, err := seg.Header()
	if err != nil {
		seg.Close()
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	return &Texture{
		width:  hdr.Width,
		height: hdr.Height,
		stride: hdr.Stride,
		format: hdr.Format,
		seg:    seg,
	}, nil
}

// Destroy releases the texture's mapping. Caller must hold the scope.
// Destroying nil or an already-destroyed texture is a no-op.
func (s *System) Destroy(t *Texture) {
	if t == nil || t.seg == nil {
		return
	}
	t.seg.Close()
	t.seg = nil
}
