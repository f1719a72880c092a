package captureapp

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/framegrace/texelcast/capture"
	"github.com/framegrace/texelcast/gfx"
	"github.com/framegrace/texelcast/share"
)

// Cell is one rendered terminal cell.
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// tickRate drives the source's discovery tick; rendering happens at the
// host's own pace.
const tickRate = 33 * time.Millisecond

// App adapts a capture source to the compositor app contract: a Run loop
// ticking the source, cell-buffer rendering with half-block pixels, and a
// status line.
type App struct {
	src *capture.Source

	mu          sync.RWMutex
	width       int
	height      int
	buf         [][]Cell
	refreshChan chan<- bool

	keys chan rune
	stop chan struct{}
	once sync.Once
}

// New wraps an existing capture source. The app takes over the source's
// show/hide lifecycle; the caller keeps ownership and calls Destroy.
func New(src *capture.Source) *App {
	return &App{
		src:  src,
		keys: make(chan rune, 8),
		stop: make(chan struct{}),
	}
}

// HandleKey forwards hotkeys into the Run loop so source mutations stay on
// one goroutine: 'r' forces a rebind.
func (a *App) HandleKey(ev *tcell.EventKey) {
	if ev.Key() != tcell.KeyRune {
		return
	}
	select {
	case a.keys <- ev.Rune():
	default:
	}
}

func (a *App) SetRefreshNotifier(refreshChan chan<- bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshChan = refreshChan
}

// Run shows the source and ticks it until stopped. All source mutations
// happen here, honoring the single-threaded update contract.
func (a *App) Run() error {
	a.src.Show()
	defer a.src.Hide()

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.src.Tick(tickRate)
			a.notifyRefresh()
		case r := <-a.keys:
			if r == 'r' {
				a.src.Show() // forced rebind
			}
		case <-a.stop:
			return nil
		}
	}
}

// Stop signals the Run loop to terminate.
func (a *App) Stop() {
	a.once.Do(func() { close(a.stop) })
}

// Resize stores the new pane dimensions.
func (a *App) Resize(cols, rows int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.width, a.height = cols, rows
}

func (a *App) GetTitle() string {
	if name := a.src.Producer(); name != "" {
		return fmt.Sprintf("Capture: %s", name)
	}
	return "Capture"
}

func (a *App) notifyRefresh() {
	a.mu.RLock()
	ch := a.refreshChan
	a.mu.RUnlock()
	if ch == nil {
		return
	}
	select {
	case ch <- true:
	default:
	}
}

// Render draws the bound texture into the cell buffer using upper-half-block
// pixels (two pixel rows per cell) plus a one-line status bar. When nothing
// is bound it renders the status line only.
func (a *App) Render() [][]Cell {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.width <= 0 || a.height <= 0 {
		return [][]Cell{}
	}

	if len(a.buf) != a.height || (a.height > 0 && len(a.buf[0]) != a.width) {
		a.buf = make([][]Cell, a.height)
		for y := range a.buf {
			a.buf[y] = make([]Cell, a.width)
		}
	}
	for y := range a.buf {
		for x := range a.buf[y] {
			a.buf[y][x] = Cell{Ch: ' ', Style: tcell.StyleDefault}
		}
	}

	imageRows := a.height - 1
	drew := false
	var frame uint64
	var texW, texH int
	a.src.Render(func(tex *gfx.Texture) {
		drew = true
		frame = tex.Frame()
		texW, texH = tex.Width(), tex.Height()
		a.blit(tex, imageRows)
	})

	a.renderStatus(drew, texW, texH, frame)
	return a.buf
}

// blit nearest-neighbour samples the texture into imageRows cell rows, two
// pixel rows per cell.
func (a *App) blit(tex *gfx.Texture, imageRows int) {
	if imageRows <= 0 {
		return
	}
	w, h := tex.Width(), tex.Height()
	pix := tex.Pixels()
	stride := tex.Stride()
	if w <= 0 || h <= 0 || len(pix) == 0 {
		return
	}
	bgra := tex.Format() == share.FormatBGRA

	gridH := imageRows * 2
	for cy := 0; cy < imageRows; cy++ {
		for cx := 0; cx < a.width; cx++ {
			top := samplePixel(pix, stride, w, h, cx, cy*2, a.width, gridH, bgra)
			bottom := samplePixel(pix, stride, w, h, cx, cy*2+1, a.width, gridH, bgra)
			a.buf[cy][cx] = Cell{
				Ch:    '▀',
				Style: tcell.StyleDefault.Foreground(top).Background(bottom),
			}
		}
	}
}

func samplePixel(pix []byte, stride, w, h, gx, gy, gridW, gridH int, bgra bool) tcell.Color {
	sx := gx * w / gridW
	sy := gy * h / gridH
	if sx >= w {
		sx = w - 1
	}
	if sy >= h {
		sy = h - 1
	}
	off := sy*stride + sx*4
	if off+3 >= len(pix) {
		return tcell.ColorBlack
	}
	r, g, b := pix[off], pix[off+1], pix[off+2]
	if bgra {
		r, b = b, r
	}
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (a *App) renderStatus(bound bool, texW, texH int, frame uint64) {
	y := a.height - 1
	if y < 0 {
		return
	}
	var text string
	var style tcell.Style
	if bound {
		text = fmt.Sprintf(" %s %dx%d frame %d", a.src.Producer(), texW, texH, frame)
		style = tcell.StyleDefault.Foreground(tcell.PaletteColor(2))
	} else {
		text = fmt.Sprintf(" searching (%s), press r to retry", a.src.Policy())
		style = tcell.StyleDefault.Foreground(tcell.PaletteColor(3))
	}
	text = runewidth.Truncate(text, a.width, "…")

	x := 0
	for _, ch := range text {
		cw := runewidth.RuneWidth(ch)
		if x+cw > a.width {
			break
		}
		a.buf[y][x] = Cell{Ch: ch, Style: style}
		x += cw
	}
}
