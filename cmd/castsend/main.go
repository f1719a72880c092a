// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/castsend/main.go
// Summary: Demo producer publishing animated frames under a name.
// Usage: Run `castsend -name camA` and point a capture source at it.

package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/framegrace/texelcast/producer"
	"github.com/framegrace/texelcast/share"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("castsend", flag.ContinueOnError)
	name := fs.String("name", "castsend", "Producer name to publish under")
	width := fs.Int("width", 320, "Frame width in pixels")
	height := fs.Int("height", 180, "Frame height in pixels")
	fps := fs.Int("fps", 30, "Frames per second")
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *fps <= 0 {
		return fmt.Errorf("fps must be positive")
	}

	p, err := producer.New(*name, *width, *height, producer.Options{Format: share.FormatRGBA})
	if err != nil {
		return err
	}
	defer p.Close()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*fps))
	defer ticker.Stop()

	log.Printf("castsend: publishing %q at %d fps, ctrl-c to stop", *name, *fps)

	pix := make([]byte, (*width)*(*height)*4)
	start := time.Now()
	for {
		select {
		case <-ticker.C:
			drawPlasma(pix, *width, *height, time.Since(start).Seconds())
			if err := p.WriteFrame(pix); err != nil {
				return err
			}
		case <-sigs:
			log.Printf("castsend: shutting down")
			return nil
		}
	}
}

// drawPlasma fills pix with a moving colour plasma, enough to see motion and
// orientation on the consumer side.
func drawPlasma(pix []byte, w, h int, t float64) {
	for y := 0; y < h; y++ {
		fy := float64(y) / float64(h)
		for x := 0; x < w; x++ {
			fx := float64(x) / float64(w)
			v := math.Sin(fx*10+t) + math.Sin((fy*10+t)/2) + math.Sin((fx+fy)*10+t)/2
			off := (y*w + x) * 4
			pix[off] = uint8(128 + 127*math.Sin(v*math.Pi))
			pix[off+1] = uint8(128 + 127*math.Sin(v*math.Pi+2*math.Pi/3))
			pix[off+2] = uint8(128 + 127*math.Sin(v*math.Pi+4*math.Pi/3))
			pix[off+3] = 0xFF
		}
	}
}
