// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: capture/source.go
// Summary: Capture source: discovery and binding state machine.
//
// A source follows one producer (explicit name or first-available), polls
// the directory for it at a bounded rate while unbound, imports its shared
// handle into a locally owned texture, and rebinds whenever the producer
// disappears, the user reconfigures the selection, or the source is hidden
// and shown again.

package capture

import (
	"errors"
	"log"
	"time"

	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/directory"
	"github.com/framegrace/texelcast/gfx"
	"github.com/framegrace/texelcast/host"
)

// RetryInterval bounds the cost of repeated failed discovery: while unbound,
// scheduled ticks attempt discovery at most this often.
const RetryInterval = 5000 * time.Millisecond

// Sources report this size until a producer supplies real dimensions.
const placeholderSize = 100

// Clock abstracts wall time so the retry cadence is testable without delays.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options wires a source to its collaborators.
type Options struct {
	// Name identifies the instance in logs.
	Name string

	// Directory is the producer directory handle. May be nil, in which
	// case every discovery attempt is a logged no-op until the source is
	// recreated. The source owns the handle and closes it on Destroy.
	Directory directory.Directory

	// Graphics serializes texture import/destroy/read. When nil the
	// source gets a private scope, which is only appropriate in tests.
	Graphics gfx.Scope

	// Clock defaults to wall time.
	Clock Clock

	// Activity optionally reports host-side visibility each tick.
	Activity func() bool

	// Verbose enables per-frame debug logging.
	Verbose bool
}

// Source is one capture element instance. Update, Show, Hide, Tick and
// Destroy follow the host's single-threaded source-update contract; Render
// may run concurrently and synchronizes through the graphics scope only.
type Source struct {
	name     string
	dir      directory.Directory
	gr       gfx.Scope
	clock    Clock
	activity func() bool
	verbose  bool

	policy     Policy
	senderName string // resolved producer name, may come from first-available

	// Binding state. bound, tex, visible, senderName and policy are mutated
	// only while holding the graphics scope so the render path can read
	// them safely.
	bound   bool
	tex     *gfx.Texture
	visible bool

	width       int
	height      int
	lastAttempt time.Time
	destroyed   bool
}

// New creates a source and applies the initial settings, which triggers an
// immediate discovery attempt (mirroring a create-then-update host flow).
func New(settings config.Section, opts Options) *Source {
	s := &Source{
		name:     opts.Name,
		dir:      opts.Directory,
		gr:       opts.Graphics,
		clock:    opts.Clock,
		activity: opts.Activity,
		verbose:  opts.Verbose,
		width:    placeholderSize,
		height:   placeholderSize,
	}
	if s.name == "" {
		s.name = "capture"
	}
	if s.gr == nil {
		s.gr = gfx.NewSystem()
	}
	if s.clock == nil {
		s.clock = systemClock{}
	}
	s.infof("initialising capture source")
	s.Update(settings)
	return s
}

// Update atomically replaces the selection policy and forces a rebind: any
// existing binding is destroyed first, then discovery runs immediately with
// the new policy, bypassing the retry cadence.
func (s *Source) Update(settings config.Section) {
	policy := PolicyFromSettings(settings)
	s.gr.Enter()
	s.policy = policy
	s.senderName = policy.Name
	s.gr.Leave()
	if s.bound {
		s.unbind()
	}
	s.bind(Immediate)
}

// Show marks the source visible and forces an immediate rebind.
func (s *Source) Show() {
	s.setVisible(true)
	if s.bound {
		s.unbind()
	}
	s.bind(Immediate)
}

// Hide marks the source hidden and destroys the binding. Discovery stays
// idle until the source is shown again or a scheduled tick retries.
func (s *Source) Hide() {
	s.setVisible(false)
	s.unbind()
}

// Tick drives periodic discovery. Once bound it is a no-op apart from
// refreshing the visibility flag.
func (s *Source) Tick(dt time.Duration) {
	_ = dt
	if s.activity != nil {
		s.setVisible(s.activity())
	}
	if !s.bound {
		s.bind(Scheduled)
	}
}

// Render invokes draw with the bound texture while holding the graphics
// scope. It draws nothing unless the source is visible and bound; that is
// not an error, there is merely nothing to show. Render never mutates
// discovery state.
func (s *Source) Render(draw func(*gfx.Texture)) {
	s.gr.Enter()
	defer s.gr.Leave()
	if !s.visible || !s.bound || s.tex == nil {
		return
	}
	draw(s.tex)
}

// Width returns the bound producer's width, or the placeholder size.
func (s *Source) Width() int { return s.width }

// Height returns the bound producer's height, or the placeholder size.
func (s *Source) Height() int { return s.height }

// Bound reports whether a producer is currently bound.
func (s *Source) Bound() bool { return s.bound }

// Producer returns the resolved producer name of the current selection.
// Safe to call from the render path.
func (s *Source) Producer() string {
	s.gr.Enter()
	defer s.gr.Leave()
	return s.senderName
}

// Policy returns the effective selection policy. Safe to call from the
// render path.
func (s *Source) Policy() Policy {
	s.gr.Enter()
	defer s.gr.Leave()
	return s.policy
}

// Properties describes the user-facing settings, including a selection list
// of currently active producers.
func (s *Source) Properties() []host.Property {
	props := []host.Property{
		{Key: KeyUseFirstAvailable, Label: "Use first available producer", Kind: host.PropBool},
		{Key: KeySenderName, Label: "Producer name", Kind: host.PropText},
	}

	list := host.Property{Key: KeyProducerList, Label: "Active producers", Kind: host.PropList}
	if s.dir != nil {
		if count, err := s.dir.Count(); err == nil {
			for i := 0; i < count; i++ {
				name, err := s.dir.NameAt(i)
				if err != nil {
					break
				}
				list.Options = append(list.Options, name)
			}
		}
	}
	return append(props, list)
}

// Destroy tears the instance down: binding destroyed, directory handle
// released. The source must not be used afterwards.
func (s *Source) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.unbind()
	if s.dir != nil {
		if err := s.dir.Close(); err != nil {
			s.warnf("closing directory: %v", err)
		}
		s.dir = nil
	}
	s.infof("destroyed")
}

// bind attempts discovery and, on success, imports the producer's shared
// handle. Scheduled requests are dropped while the retry cadence has not
// elapsed. Already-bound sources are left alone.
func (s *Source) bind(req Request) {
	if s.bound {
		return
	}
	now := s.clock.Now()
	if req == Scheduled && now.Sub(s.lastAttempt) < RetryInterval {
		return
	}
	s.lastAttempt = now

	info := s.discover()
	if info == nil {
		return
	}

	s.gr.Enter()
	// Destroy-then-create: the prior texture (if any) goes first so two
	// imported segments never coexist.
	if s.tex != nil {
		s.gr.Destroy(s.tex)
		s.tex = nil
	}
	tex, err := s.gr.ImportShared(info.Handle)
	if err == nil && tex != nil {
		s.tex = tex
		s.bound = true
		s.width = info.Width
		s.height = info.Height
	}
	s.gr.Leave()

	if err != nil || tex == nil {
		s.warnf("import of %q failed: %v", info.Name, err)
		return
	}
	s.infof("bound to %q (%dx%d %s)", info.Name, info.Width, info.Height, info.Format)
}

// unbind destroys the binding and releases the active selection. The last
// known dimensions are kept for the host.
func (s *Source) unbind() {
	s.gr.Enter()
	if s.tex != nil {
		s.gr.Destroy(s.tex)
		s.tex = nil
	}
	s.bound = false
	s.gr.Leave()

	if s.dir != nil {
		if err := s.dir.ReleaseActive(); err != nil && !errors.Is(err, directory.ErrClosed) {
			s.warnf("releasing active selection: %v", err)
		}
	}
}

// discover resolves the current policy to a live producer descriptor, or nil
// when nothing matches. "Not found" is not an error; only an unavailable
// directory is worth a warning.
func (s *Source) discover() *directory.Info {
	if s.dir == nil {
		s.warnf("producer directory unavailable")
		return nil
	}

	name := s.policy.Name
	if s.policy.UseFirstAvailable {
		count, err := s.dir.Count()
		if err != nil {
			s.warnf("directory count: %v", err)
			return nil
		}
		if count == 0 {
			s.debugf("no producers active")
			return nil
		}
		first, err := s.dir.NameAt(0)
		if err != nil {
			s.warnf("directory name lookup: %v", err)
			return nil
		}
		// The sharing protocol needs an active selection before per-name
		// queries resolve for first-available consumers.
		if err := s.dir.SetActive(first); err != nil {
			s.warnf("setting active producer %q: %v", first, err)
			return nil
		}
		name = first
		s.setSenderName(first)
	} else {
		count, err := s.dir.Count()
		if err != nil {
			s.warnf("directory count: %v", err)
			return nil
		}
		if count == 0 {
			s.debugf("no producers active")
			return nil
		}
	}

	info, err := s.dir.InfoFor(name)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			s.debugf("producer %q not found", name)
		} else {
			s.warnf("directory info for %q: %v", name, err)
		}
		return nil
	}
	return info
}

func (s *Source) setVisible(v bool) {
	s.gr.Enter()
	s.visible = v
	s.gr.Leave()
}

func (s *Source) setSenderName(name string) {
	s.gr.Enter()
	s.senderName = name
	s.gr.Leave()
}

func (s *Source) infof(format string, args ...interface{}) {
	log.Printf("Capture[%s]: "+format, append([]interface{}{s.name}, args...)...)
}

func (s *Source) warnf(format string, args ...interface{}) {
	log.Printf("Capture[%s]: WARN "+format, append([]interface{}{s.name}, args...)...)
}

func (s *Source) debugf(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	log.Printf("Capture[%s]: "+format, append([]interface{}{s.name}, args...)...)
}
