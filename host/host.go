// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: host/host.go
// Summary: Source registry and host-side contract for renderable sources.
// Usage: Compositor hosts look up registered source types and drive their
// update/tick/render lifecycle.

package host

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/gfx"
)

// Source is the lifecycle contract a registered source instance implements.
// Update, Show, Hide, Tick and Destroy are serialized by the host's update
// loop; Render may run concurrently from the render path and must not mutate
// discovery state.
type Source interface {
	Update(settings config.Section)
	Show()
	Hide()
	Tick(dt time.Duration)
	Render(draw func(*gfx.Texture))
	Width() int
	Height() int
	Properties() []Property
	Destroy()
}

// PropertyKind enumerates the widget types a property panel can build.
type PropertyKind int

const (
	PropBool PropertyKind = iota
	PropText
	PropList
)

// Property describes one user-facing setting of a source type.
type Property struct {
	Key     string
	Label   string
	Kind    PropertyKind
	Options []string // populated for PropList
}

// SourceInfo describes a source type available for instantiation.
type SourceInfo struct {
	ID   string
	Name string

	// Defaults fills missing keys in settings without overwriting values
	// the user already persisted.
	Defaults func(settings config.Section)

	// Create instantiates a source with the given settings.
	Create func(settings config.Section) (Source, error)
}

var (
	ErrSourceExists   = errors.New("host: source id already registered")
	ErrSourceUnknown  = errors.New("host: unknown source id")
	ErrSourceNoCreate = errors.New("host: source has no create function")
)

// Registry tracks the available source types.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceInfo
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]SourceInfo)}
}

// Register adds a source type to the registry.
func (r *Registry) Register(info SourceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[info.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, info.ID)
	}
	r.sources[info.ID] = info
	log.Printf("Sources: Registered source type '%s' (%s)", info.ID, info.Name)
	return nil
}

// Lookup returns the source info for an id.
func (r *Registry) Lookup(id string) (SourceInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sources[id]
	return info, ok
}

// List returns all registered source types sorted by display name.
func (r *Registry) List() []SourceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]SourceInfo, 0, len(r.sources))
	for _, info := range r.sources {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Create instantiates a source by id, applying the type's defaults to the
// settings first so the source sees a complete configuration.
func (r *Registry) Create(id string, settings config.Section) (Source, error) {
	info, ok := r.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnknown, id)
	}
	if info.Create == nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNoCreate, id)
	}
	if settings == nil {
		settings = make(config.Section)
	}
	if info.Defaults != nil {
		info.Defaults(settings)
	}
	return info.Create(settings)
}

// Count returns the number of registered source types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
