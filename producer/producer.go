// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: producer/producer.go
// Summary: Producer-side publishing: segment creation plus registry entry.
// Usage: Anything that wants to publish frames for capture sources creates a
// Producer and calls WriteFrame per frame.

package producer

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/framegrace/texelcast/directory"
	"github.com/framegrace/texelcast/share"
)

// Producer owns one published segment and its registry entry.
type Producer struct {
	name    string
	id      uuid.UUID
	reg     *directory.Registry
	ownsReg bool
	entry   *directory.Registration
	seg     *share.Segment
	segPath string
	width   int
	height  int
	format  share.PixelFormat
}

// Options configures producer creation.
type Options struct {
	// Registry to register with. When nil the default runtime registry is
	// opened and owned (closed on Close).
	Registry *directory.Registry

	// Dir overrides the segment directory; defaults to the runtime dir.
	Dir string

	Format share.PixelFormat
}

// New publishes a named producer of the given size. An existing producer
// under the same name is superseded.
func New(name string, width, height int, opts Options) (*Producer, error) {
	if name == "" {
		return nil, fmt.Errorf("producer: name is required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("producer: invalid dimensions %dx%d", width, height)
	}

	p := &Producer{
		name:   name,
		id:     uuid.New(),
		reg:    opts.Registry,
		width:  width,
		height: height,
		format: opts.Format,
	}

	dir := opts.Dir
	if dir == "" {
		var err error
		dir, err = share.RuntimeDir()
		if err != nil {
			return nil, err
		}
	}
	if p.reg == nil {
		reg, err := directory.OpenDefault()
		if err != nil {
			return nil, err
		}
		p.reg = reg
		p.ownsReg = true
	}

	p.segPath = share.SegmentPath(dir, name)
	var producerID [16]byte
	copy(producerID[:], p.id[:])
	seg, err := share.Create(p.segPath, width, height, p.format, producerID)
	if err != nil {
		p.closeRegistry()
		return nil, err
	}
	p.seg = seg

	entry, err := p.reg.Register(name, width, height, p.format, share.Handle(p.segPath))
	if err != nil {
		seg.Close()
		os.Remove(p.segPath)
		p.closeRegistry()
		return nil, err
	}
	p.entry = entry

	log.Printf("Producer[%s]: publishing %dx%d %s at %s", name, width, height, p.format, p.segPath)
	return p, nil
}

func (p *Producer) Name() string              { return p.name }
func (p *Producer) Width() int                { return p.width }
func (p *Producer) Height() int               { return p.height }
func (p *Producer) Format() share.PixelFormat { return p.format }
func (p *Producer) Handle() share.Handle      { return share.Handle(p.segPath) }

// WriteFrame publishes one frame of pixels.
func (p *Producer) WriteFrame(pix []byte) error {
	if p.seg == nil {
		return share.ErrClosed
	}
	return p.seg.WriteFrame(pix)
}

// Resize recreates the segment with new dimensions and updates the registry
// entry. Consumers notice on their next discovery cycle; their current
// binding goes stale, which import-failure handling already covers.
func (p *Producer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("producer: invalid dimensions %dx%d", width, height)
	}
	if p.seg == nil {
		return share.ErrClosed
	}
	p.seg.Close()

	var producerID [16]byte
	copy(producerID[:], p.id[:])
	seg, err := share.Create(p.segPath, width, height, p.format, producerID)
	if err != nil {
		return err
	}
	p.seg = seg
	p.width = width
	p.height = height
	if err := p.entry.UpdateDimensions(width, height); err != nil {
		return err
	}
	log.Printf("Producer[%s]: resized to %dx%d", p.name, width, height)
	return nil
}

// Close unpublishes: registry entry removed, segment unmapped and unlinked.
func (p *Producer) Close() error {
	if p.seg == nil {
		return nil
	}
	var firstErr error
	if err := p.entry.Unregister(); err != nil {
		firstErr = err
	}
	if err := p.seg.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	p.seg = nil
	if err := os.Remove(p.segPath); err != nil && !os.IsNotExist(err) && firstErr == nil {
		firstErr = err
	}
	p.closeRegistry()
	return firstErr
}

func (p *Producer) closeRegistry() {
	if p.ownsReg && p.reg != nil {
		p.reg.Close()
		p.reg = nil
	}
}
