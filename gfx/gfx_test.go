package gfx

import (
	"path/filepath"
	"testing"

	"github.com/framegrace/texelcast/share"
)

func TestImportShared(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := share.Create(path, 8, 4, share.FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	defer seg.Close()

	pix := make([]byte, 8*4*4)
	pix[0] = 0xFF
	seg.WriteFrame(pix)

	sys := NewSystem()
	sys.Enter()
	tex, err := sys.ImportShared(share.Handle(path))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if tex.Width() != 8 || tex.Height() != 4 {
		t.Fatalf("unexpected texture dims %dx%d", tex.Width(), tex.Height())
	}
	if tex.Frame() != 1 {
		t.Fatalf("expected frame 1, got %d", tex.Frame())
	}
	if got := tex.Pixels(); len(got) != 8*4*4 || got[0] != 0xFF {
		t.Fatalf("pixel payload mismatch (len=%d)", len(got))
	}
	sys.Destroy(tex)
	sys.Leave()
}

func TestImportSharedMissingSegment(t *testing.T) {
	sys := NewSystem()
	sys.Enter()
	defer sys.Leave()
	if _, err := sys.ImportShared(share.Handle(filepath.Join(t.TempDir(), "gone.seg"))); err == nil {
		t.Fatalf("expected import failure for missing segment")
	}
}

func TestDestroyIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := share.Create(path, 2, 2, share.FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	defer seg.Close()

	sys := NewSystem()
	sys.Enter()
	defer sys.Leave()
	tex, err := sys.ImportShared(share.Handle(path))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	sys.Destroy(tex)
	sys.Destroy(tex) // second destroy must be a no-op
	sys.Destroy(nil)
	if tex.Pixels() != nil {
		t.Fatalf("destroyed texture still exposes pixels")
	}
}

func TestTextureSeesProducerUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := share.Create(path, 2, 2, share.FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	defer seg.Close()

	sys := NewSystem()
	sys.Enter()
	tex, err := sys.ImportShared(share.Handle(path))
	sys.Leave()
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	pix := make([]byte, 2*2*4)
	pix[3] = 0x42
	seg.WriteFrame(pix)

	sys.Enter()
	if tex.Frame() != 1 || tex.Pixels()[3] != 0x42 {
		t.Fatalf("texture did not observe producer write")
	}
	sys.Destroy(tex)
	sys.Leave()
}
