package captureapp

import (
	"testing"
	"time"

	"github.com/framegrace/texelcast/capture"
	"github.com/framegrace/texelcast/config"
	"github.com/framegrace/texelcast/directory"
	"github.com/framegrace/texelcast/gfx"
	"github.com/framegrace/texelcast/share"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newBoundApp(t *testing.T) (*App, *capture.Source) {
	t.Helper()
	path := share.SegmentPath(t.TempDir(), "camA")
	seg, err := share.Create(path, 4, 4, share.FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	t.Cleanup(func() { seg.Close() })

	pix := make([]byte, 4*4*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = 0xFF // red
		pix[i+3] = 0xFF
	}
	seg.WriteFrame(pix)

	dir := directory.NewMemory()
	dir.Add(directory.Info{Name: "camA", Width: 4, Height: 4, Handle: share.Handle(path), Format: share.FormatRGBA})

	src := capture.New(config.Section{capture.KeyUseFirstAvailable: true}, capture.Options{
		Name:      "app-test",
		Directory: dir,
		Graphics:  gfx.NewSystem(),
		Clock:     fixedClock{now: time.Now()},
	})
	t.Cleanup(src.Destroy)
	src.Show()
	return New(src), src
}

func TestRenderDimensions(t *testing.T) {
	app, _ := newBoundApp(t)
	app.Resize(20, 5)
	buf := app.Render()
	if len(buf) != 5 || len(buf[0]) != 20 {
		t.Fatalf("unexpected buffer dimensions %dx%d", len(buf), len(buf[0]))
	}
}

func TestRenderDrawsHalfBlocks(t *testing.T) {
	app, _ := newBoundApp(t)
	app.Resize(8, 5)
	buf := app.Render()

	// Rows above the status line carry half-block pixels.
	if buf[0][0].Ch != '▀' {
		t.Fatalf("expected half-block cell, got %q", buf[0][0].Ch)
	}
	fg, _, _ := buf[0][0].Style.Decompose()
	r, g, b := fg.RGB()
	if r != 0xFF || g != 0 || b != 0 {
		t.Fatalf("expected red pixel, got %d,%d,%d", r, g, b)
	}
}

func TestRenderHiddenShowsStatusOnly(t *testing.T) {
	app, src := newBoundApp(t)
	src.Hide()
	app.Resize(40, 3)
	buf := app.Render()

	for y := 0; y < 2; y++ {
		for x := 0; x < 40; x++ {
			if buf[y][x].Ch == '▀' {
				t.Fatalf("hidden source must not draw pixels")
			}
		}
	}
	// Status line mentions searching.
	row := buf[2]
	text := make([]rune, 0, len(row))
	for _, c := range row {
		text = append(text, c.Ch)
	}
	if string(text[:10]) == "          " {
		t.Fatalf("expected status text on bottom row")
	}
}

func TestRenderZeroSize(t *testing.T) {
	app, _ := newBoundApp(t)
	if buf := app.Render(); len(buf) != 0 {
		t.Fatalf("zero-size pane should render empty buffer")
	}
}

func TestTitleTracksProducer(t *testing.T) {
	app, _ := newBoundApp(t)
	if app.GetTitle() != "Capture: camA" {
		t.Fatalf("unexpected title %q", app.GetTitle())
	}
}

func TestStopTerminatesRun(t *testing.T) {
	app, src := newBoundApp(t)
	done := make(chan error, 1)
	go func() { done <- app.Run() }()
	time.Sleep(10 * time.Millisecond)
	app.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not stop")
	}
	app.Stop() // second stop must not panic

	// Hosts destroy the source only after Run has returned; the loop's own
	// teardown (hide) has finished by then.
	src.Destroy()
}

func TestRefreshNotifierDelivers(t *testing.T) {
	app, _ := newBoundApp(t)
	refresh := make(chan bool, 1)
	app.SetRefreshNotifier(refresh)

	done := make(chan error, 1)
	go func() { done <- app.Run() }()
	defer func() {
		app.Stop()
		<-done
	}()

	select {
	case <-refresh:
	case <-time.After(time.Second):
		t.Fatalf("run loop never notified the refresh channel")
	}
}
