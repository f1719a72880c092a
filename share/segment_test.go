package share

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSegmentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	var producer [16]byte
	copy(producer[:], "test-producer-id")

	seg, err := Create(path, 4, 2, FormatRGBA, producer)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer seg.Close()

	pix := make([]byte, 4*2*4)
	for i := range pix {
		pix[i] = byte(i)
	}
	if err := seg.WriteFrame(pix); err != nil {
		t.Fatalf("write frame failed: %v", err)
	}

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer reader.Close()

	hdr, err := reader.Header()
	if err != nil {
		t.Fatalf("header failed: %v", err)
	}
	if hdr.Width != 4 || hdr.Height != 2 || hdr.Format != FormatRGBA {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	if hdr.Frame != 1 {
		t.Fatalf("expected frame 1, got %d", hdr.Frame)
	}
	if hdr.Producer != producer {
		t.Fatalf("producer id mismatch")
	}
	if !bytes.Equal(reader.Pixels()[:len(pix)], pix) {
		t.Fatalf("pixel payload mismatch")
	}
}

func TestSegmentFrameCounterAdvances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := Create(path, 2, 2, FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer seg.Close()

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer reader.Close()

	if reader.Frame() != 0 {
		t.Fatalf("expected initial frame 0, got %d", reader.Frame())
	}
	pix := make([]byte, 2*2*4)
	seg.WriteFrame(pix)
	seg.WriteFrame(pix)
	if reader.Frame() != 2 {
		t.Fatalf("expected frame 2 visible through shared mapping, got %d", reader.Frame())
	}
}

func TestSegmentWriteRequiresWritableMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := Create(path, 2, 2, FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seg.Close()

	reader, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer reader.Close()
	if err := reader.WriteFrame(make([]byte, 16)); err != ErrReadOnly {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestSegmentRejectsPartialFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := Create(path, 4, 2, FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	defer seg.Close()

	if err := seg.WriteFrame(make([]byte, 4*2*4-1)); err != ErrBadDimensions {
		t.Fatalf("expected ErrBadDimensions for short frame, got %v", err)
	}
	if err := seg.WriteFrame(make([]byte, 4*2*4+1)); err != ErrBadDimensions {
		t.Fatalf("expected ErrBadDimensions for oversized frame, got %v", err)
	}
	if seg.Frame() != 0 {
		t.Fatalf("rejected write must not advance the frame counter, got %d", seg.Frame())
	}
	if err := seg.WriteFrame(make([]byte, 4*2*4)); err != nil {
		t.Fatalf("full frame write failed: %v", err)
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.seg")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, 128), 0600); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if _, err := Open(path); err != ErrInvalidMagic {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestOpenRejectsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.seg")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0600); err != nil {
		t.Fatalf("write short: %v", err)
	}
	if _, err := Open(path); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestSegmentCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cam.seg")
	seg, err := Create(path, 2, 2, FormatRGBA, [16]byte{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := seg.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestSegmentPathDistinctNames(t *testing.T) {
	a := SegmentPath("/run", "Cam A")
	b := SegmentPath("/run", "Cam B")
	if a == b {
		t.Fatalf("distinct names mapped to same path: %s", a)
	}
	// Sanitized stems collide, hashes must not.
	c := SegmentPath("/run", "cam?a")
	d := SegmentPath("/run", "cam!a")
	if c == d {
		t.Fatalf("distinct names mapped to same path: %s", c)
	}
}
