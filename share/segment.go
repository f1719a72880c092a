package share

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const (
	magic      uint32 = 0x54584301 // "TXC\x01"
	headerSize        = 64
)

// Version is the segment layout version implemented by this package.
const Version uint8 = 1

// PixelFormat enumerates the pixel layouts a producer may publish.
type PixelFormat uint32

const (
	FormatRGBA PixelFormat = iota
	FormatBGRA
)

// BytesPerPixel returns the per-pixel byte width of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA, FormatBGRA:
		return 4
	default:
		return 0
	}
}

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatBGRA:
		return "bgra"
	default:
		return fmt.Sprintf("format(%d)", uint32(f))
	}
}

// Handle is an opaque token referencing a published segment. Consumers obtain
// handles from the directory and import them through gfx; they never inspect
// the token itself.
type Handle string

// Header describes the fixed portion at the start of every segment.
type Header struct {
	Version  uint8
	Width    int
	Height   int
	Stride   int
	Format   PixelFormat
	Frame    uint64
	Producer [16]byte
}

var (
	ErrInvalidMagic   = errors.New("share: invalid segment magic")
	ErrUnsupportedVer = errors.New("share: unsupported segment version")
	ErrTruncated      = errors.New("share: segment shorter than declared size")
	ErrBadDimensions  = errors.New("share: invalid segment dimensions")
	ErrReadOnly       = errors.New("share: segment is not writable")
	ErrClosed         = errors.New("share: segment is closed")
)

func encodeHeader(buf []byte, hdr Header) {
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	buf[4] = hdr.Version
	binary.LittleEndian.PutUint32(buf[8:12], uint32(hdr.Width))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(hdr.Height))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(hdr.Stride))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(hdr.Format))
	binary.LittleEndian.PutUint64(buf[24:32], hdr.Frame)
	copy(buf[32:48], hdr.Producer[:])
}

func decodeHeader(buf []byte) (Header, error) {
	var hdr Header
	if len(buf) < headerSize {
		return hdr, ErrTruncated
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return hdr, ErrInvalidMagic
	}
	hdr.Version = buf[4]
	if hdr.Version != Version {
		return hdr, ErrUnsupportedVer
	}
	hdr.Width = int(binary.LittleEndian.Uint32(buf[8:12]))
	hdr.Height = int(binary.LittleEndian.Uint32(buf[12:16]))
	hdr.Stride = int(binary.LittleEndian.Uint32(buf[16:20]))
	hdr.Format = PixelFormat(binary.LittleEndian.Uint32(buf[20:24]))
	hdr.Frame = binary.LittleEndian.Uint64(buf[24:32])
	copy(hdr.Producer[:], buf[32:48])
	if hdr.Width <= 0 || hdr.Height <= 0 || hdr.Stride < hdr.Width*hdr.Format.BytesPerPixel() {
		return hdr, ErrBadDimensions
	}
	return hdr, nil
}

// Segment is a memory-mapped frame buffer shared between a producer and any
// number of capture consumers. The producer maps it read-write; consumers map
// it read-only through gfx.ImportShared.
type Segment struct {
	f        *os.File
	data     []byte
	writable bool
}

// Create allocates and maps a writable segment at path, replacing any stale
// file left behind by a previous producer instance.
func Create(path string, width, height int, format PixelFormat, producer [16]byte) (*Segment, error) {
	if width <= 0 || height <= 0 || format.BytesPerPixel() == 0 {
		return nil, ErrBadDimensions
	}
	stride := width * format.BytesPerPixel()
	size := headerSize + stride*height

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("share: create segment: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("share: size segment: %w", err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("share: map segment: %w", err)
	}

	encodeHeader(data, Header{
		Version:  Version,
		Width:    width,
		Height:   height,
		Stride:   stride,
		Format:   format,
		Producer: producer,
	})
	return &Segment{f: f, data: data, writable: true}, nil
}

// Open maps an existing segment read-only and validates its header.
func Open(path string) (*Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("share: open segment: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("share: stat segment: %w", err)
	}
	if fi.Size() < headerSize {
		f.Close()
		return nil, ErrTruncated
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("share: map segment: %w", err)
	}
	hdr, err := decodeHeader(data)
	if err != nil {
		unix.Munmap(data)
		f.Close()
		return nil, err
	}
	if len(data) < headerSize+hdr.Stride*hdr.Height {
		unix.Munmap(data)
		f.Close()
		return nil, ErrTruncated
	}
	return &Segment{f: f, data: data}, nil
}

// Header decodes the current header. The frame counter advances while the
// producer is live, so callers should not cache the result across frames.
func (s *Segment) Header() (Header, error) {
	if s.data == nil {
		return Header{}, ErrClosed
	}
	return decodeHeader(s.data)
}

// Pixels returns the mapped pixel payload. The slice aliases shared memory
// and is only valid until Close.
func (s *Segment) Pixels() []byte {
	if s.data == nil {
		return nil
	}
	return s.data[headerSize:]
}

// Frame returns the current frame sequence number.
func (s *Segment) Frame() uint64 {
	if s.data == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(s.data[24:32])
}

// WriteFrame copies pix into the segment and bumps the frame counter. pix
// must cover the full stride*height payload; partial frames are rejected.
// Producer side only.
func (s *Segment) WriteFrame(pix []byte) error {
	if s.data == nil {
		return ErrClosed
	}
	if !s.writable {
		return ErrReadOnly
	}
	if len(pix) != len(s.data)-headerSize {
		return ErrBadDimensions
	}
	copy(s.data[headerSize:], pix)
	binary.LittleEndian.PutUint64(s.data[24:32], s.Frame()+1)
	return nil
}

// Close unmaps the segment. Safe to call more than once.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	err := unix.Munmap(data)
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Writable reports whether this segment was created by a producer.
func (s *Segment) Writable() bool { return s.writable }
