// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/castview/main.go
// Summary: Full-screen terminal viewer for a single capture source.
// Usage: `castview` binds the first available producer; `castview -name camA`
// follows a specific one. Press r to force a rebind, q or ESC to quit.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	captureapp "github.com/framegrace/texelcast/apps/capture"
	"github.com/framegrace/texelcast/capture"
	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/host"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("castview", flag.ContinueOnError)
	name := fs.String("name", "", "Follow a specific producer instead of the first available")
	verbose := fs.Bool("verbose", false, "Log discovery attempts")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	// The terminal owns stdout while the screen is up.
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	settings := config.System().EnsureSection("capture")
	if *name != "" {
		settings[capture.KeySenderName] = *name
		settings[capture.KeyUseFirstAvailable] = false
	}

	registry := host.NewRegistry()
	if err := registry.Register(capture.Info(capture.Options{Verbose: *verbose})); err != nil {
		return err
	}
	src, err := registry.Create(capture.SourceID, settings)
	if err != nil {
		return err
	}
	defer src.Destroy()

	capSrc, ok := src.(*capture.Source)
	if !ok {
		return fmt.Errorf("unexpected source type %T", src)
	}
	app := captureapp.New(capSrc)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	cols, rows := screen.Size()
	app.Resize(cols, rows)

	refresh := make(chan bool, 1)
	app.SetRefreshNotifier(refresh)

	runDone := make(chan error, 1)
	go func() { runDone <- app.Run() }()
	runExited := false
	// The Run loop hides the source on exit; wait for it so the deferred
	// Destroy never overlaps with that teardown.
	defer func() {
		app.Stop()
		if !runExited {
			<-runDone
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case <-refresh:
			drawFrame(screen, app)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				cols, rows := ev.Size()
				app.Resize(cols, rows)
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || (ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
				app.HandleKey(ev)
			}
		case err := <-runDone:
			runExited = true
			return err
		}
	}
}

func drawFrame(screen tcell.Screen, app *captureapp.App) {
	buf := app.Render()
	for y, row := range buf {
		for x, cell := range row {
			screen.SetContent(x, y, cell.Ch, nil, cell.Style)
		}
	}
	screen.Show()
}
