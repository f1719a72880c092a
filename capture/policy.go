// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: capture/policy.go
// Summary: Producer selection policy and settings normalization.

package capture

import (
	"fmt"
	"unicode/utf8"

	"github.com/framegrace/texelcast/config"
)

// Settings keys persisted for the capture source.
const (
	KeyUseFirstAvailable = "usefirstavailable"
	KeySenderName        = "sendername"
	KeyProducerList      = "producerlist"
)

// MaxNameLen bounds producer names, matching the sharing protocol's fixed
// name buffers.
const MaxNameLen = 255

// Policy selects which producer a source follows: the first available one,
// or an explicitly named one. An empty explicit name is legal and simply
// never matches.
type Policy struct {
	UseFirstAvailable bool
	Name              string
}

// PolicyFromSettings resolves the effective policy from persisted settings.
// First-available wins when both options are set; the explicit name is
// cleared so the two can never disagree.
func PolicyFromSettings(settings config.Section) Policy {
	p := Policy{
		UseFirstAvailable: settings.GetBool(KeyUseFirstAvailable, true),
		Name:              settings.GetString(KeySenderName, ""),
	}
	return p.normalize()
}

func (p Policy) normalize() Policy {
	if p.UseFirstAvailable {
		p.Name = ""
	}
	p.Name = clampName(p.Name)
	return p
}

func (p Policy) String() string {
	if p.UseFirstAvailable {
		return "first-available"
	}
	return fmt.Sprintf("name %q", p.Name)
}

// clampName truncates to MaxNameLen bytes without splitting a rune.
func clampName(name string) string {
	if len(name) <= MaxNameLen {
		return name
	}
	cut := MaxNameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// NormalizeSettings applies the property-panel interaction rules before a
// source update: picking a producer from the list selects it by name and
// turns first-available off; turning first-available on clears the name.
func NormalizeSettings(settings config.Section) {
	if settings == nil {
		return
	}
	if selected := settings.GetString(KeyProducerList, ""); selected != "" {
		settings.Set(KeySenderName, selected)
		settings.Set(KeyUseFirstAvailable, false)
		settings.Set(KeyProducerList, "")
	}
	if settings.GetBool(KeyUseFirstAvailable, true) {
		settings.Set(KeySenderName, "")
	}
}

// Defaults fills missing settings keys with the source type defaults.
func Defaults(settings config.Section) {
	if settings == nil {
		return
	}
	if _, ok := settings[KeyUseFirstAvailable]; !ok {
		settings.Set(KeyUseFirstAvailable, true)
	}
	if _, ok := settings[KeySenderName]; !ok {
		settings.Set(KeySenderName, "")
	}
}

// Request distinguishes a periodic, rate-limited discovery attempt from an
// immediate one triggered by a user-visible transition.
type Request int

const (
	// Scheduled attempts respect the retry cadence.
	Scheduled Request = iota
	// Immediate attempts bypass it (becoming visible, reconfiguration).
	Immediate
)

func (r Request) String() string {
	if r == Immediate {
		return "immediate"
	}
	return "scheduled"
}
