// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdsim

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// TerminalOpts represents the options available for a Terminal.
type TerminalOpts struct {
	// Scale is the number of panel pixels per character block in each
	// direction. 0 picks a scale that fits 100 blocks per line.
	Scale   int
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// Terminal renders panel images to a terminal using ANSI color codes.
type Terminal struct {
	w       io.Writer
	scale   int
	palette ansi256.Palette

	buf bytes.Buffer
}

// NewTerminal returns a Terminal that renders to opts.W.
func NewTerminal(opts *TerminalOpts) *Terminal {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Terminal{
		w:       w,
		scale:   opts.Scale,
		palette: *p,
	}
}

func (t *Terminal) String() string {
	return "epdsim.Terminal"
}

// Halt resets the terminal colors.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\033[0m\n"))
	return err
}

// Render writes img, each block averaging scale x scale pixels.
func (t *Terminal) Render(img image.Image) error {
	r := img.Bounds()
	scale := t.scale
	if scale <= 0 {
		scale = (r.Dx() + 99) / 100
	}
	if scale <= 0 {
		scale = 1
	}
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	_, _ = t.buf.WriteString("\033[0m\n")
	for y := r.Min.Y; y < r.Max.Y; y += scale {
		for x := r.Min.X; x < r.Max.X; x += scale {
			_, _ = io.WriteString(&t.buf, t.palette.Block(average(img, image.Rect(x, y, x+scale, y+scale).Intersect(r))))
		}
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

// average returns the mean luminance of r as an opaque color.
func average(img image.Image, r image.Rectangle) color.NRGBA {
	var sum, n uint32
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += uint32(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			n++
		}
	}
	if n == 0 {
		return color.NRGBA{A: 255}
	}
	v := byte(sum / n)
	return color.NRGBA{v, v, v, 255}
}
