// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3/rpi"

	"github.com/GermanBionicSystems/epaper/image2bit"
)

// Dev is an open handle to an e-paper panel.
//
// It is not safe for concurrent use.
type Dev struct {
	c   Conn
	p   *Panel
	drv *driver

	// buffer and grey hold what was last drawn through Draw and DrawGrey.
	buffer *image1bit.VerticalLSB
	grey   *image2bit.HorizontalMSB
}

// New creates a new e-paper device over SPI. cs, rst and busy may be nil.
//
// Without busy every wait lasts the typical duration of the operation.
// Without rst Hibernate only turns the panel power off.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, panel *Panel) (*Dev, error) {
	if panel == nil {
		return nil, errors.New("epd: panel is required")
	}
	c, err := newSPIConn(p, dc, cs, rst, busy, panel.BusyLevel)
	if err != nil {
		return nil, err
	}
	return NewConn(c, panel), nil
}

// NewHat creates a new e-paper device wired as a Raspberry Pi HAT.
func NewHat(p spi.Port, panel *Panel) (*Dev, error) {
	dc := rpi.P1_22
	cs := rpi.P1_24
	rst := rpi.P1_11
	busy := rpi.P1_18
	return New(p, dc, cs, rst, busy, panel)
}

// NewConn creates a new e-paper device on an existing transport.
func NewConn(c Conn, panel *Panel) *Dev {
	bounds := image.Rect(0, 0, panel.Width, panel.Height)
	d := &Dev{
		c:      c,
		p:      panel,
		drv:    newDriver(panel, c.HasReset()),
		buffer: image1bit.NewVerticalLSB(bounds),
		grey:   image2bit.NewHorizontalMSB(bounds),
	}
	// Both buffers start white, like the panel after ClearScreen(0xFF).
	for i := range d.buffer.Pix {
		d.buffer.Pix[i] = 0xFF
	}
	for i := range d.grey.Pix {
		d.grey.Pix[i] = 0xFF
	}
	return d
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("epd.Dev{%s, Width: %d, Height: %d}", d.c, d.p.Width, d.p.Height)
}

// Panel returns the panel descriptor.
func (d *Dev) Panel() *Panel {
	return d.p
}

// Mode returns the refresh mode the controller is configured for.
func (d *Dev) Mode() Mode {
	return d.drv.mode
}

// run executes f with a sticky error handler and returns the first transport
// error.
func (d *Dev) run(f func(ctrl controller)) error {
	eh := &errorHandler{c: d.c}
	f(eh)
	return eh.err
}

// ClearScreen fills both planes with v and does a full refresh.
func (d *Dev) ClearScreen(v byte) error {
	return d.run(func(ctrl controller) {
		d.drv.clearScreen(ctrl, v)
	})
}

// WriteScreenBuffer fills the current plane with v. Until the first refresh
// the previous plane is filled too.
func (d *Dev) WriteScreenBuffer(v byte) error {
	return d.run(func(ctrl controller) {
		d.drv.writeScreenBuffer(ctrl, v)
	})
}

// WriteScreenBufferAgain fills both planes with v.
func (d *Dev) WriteScreenBufferAgain(v byte) error {
	return d.run(func(ctrl controller) {
		d.drv.writeScreenBufferAgain(ctrl, v)
	})
}

// WriteImage writes a 1 bpp bitmap at (x, y) without refreshing.
func (d *Dev) WriteImage(b *Bitmap, x, y, w, h int, o Options) error {
	return d.WriteImagePart(b, 0, 0, x, y, w, h, o)
}

// WriteImagePart writes the part of b starting at (xPart, yPart) at (x, y)
// without refreshing.
func (d *Dev) WriteImagePart(b *Bitmap, xPart, yPart, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 1); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeMono(ctrl, b, xPart, yPart, x, y, w, h, o, false)
	})
}

// WriteImageAgain writes a 1 bpp bitmap to both planes.
func (d *Dev) WriteImageAgain(b *Bitmap, x, y, w, h int, o Options) error {
	return d.WriteImagePartAgain(b, 0, 0, x, y, w, h, o)
}

// WriteImagePartAgain writes a part of a 1 bpp bitmap to both planes.
func (d *Dev) WriteImagePartAgain(b *Bitmap, xPart, yPart, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 1); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeMono(ctrl, b, xPart, yPart, x, y, w, h, o, true)
	})
}

// WriteImage4G writes a 2, 4 or 8 bpp bitmap in four grey levels. x is
// aligned to 8 pixels.
func (d *Dev) WriteImage4G(b *Bitmap, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 2, 4, 8); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeGrey(ctrl, b, 8, 0, 0, x, y, w, h, o)
	})
}

// WriteImagePart4G writes a part of a 2, 4 or 8 bpp bitmap in four grey
// levels. xPart is aligned to the pixels per source byte and x to 8 pixels.
func (d *Dev) WriteImagePart4G(b *Bitmap, xPart, yPart, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 2, 4, 8); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeGrey(ctrl, b, b.pixelsPerByte(), xPart, yPart, x, y, w, h, o)
	})
}

// WriteNative writes bytes already packed in the controller plane format to
// the current plane. data holds (w+7)/8 bytes per row.
func (d *Dev) WriteNative(data []byte, x, y, w, h int, o Options) error {
	b := &Bitmap{Pix: data, Width: w, Height: h, BPP: 1}
	return d.WriteImage(b, x, y, w, h, o)
}

// DrawImage writes b, refreshes its area and writes it again so both planes
// match.
func (d *Dev) DrawImage(b *Bitmap, x, y, w, h int, o Options) error {
	return d.DrawImagePart(b, 0, 0, x, y, w, h, o)
}

// DrawImagePart is DrawImage for a part of b.
func (d *Dev) DrawImagePart(b *Bitmap, xPart, yPart, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 1); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeMono(ctrl, b, xPart, yPart, x, y, w, h, o, false)
		d.drv.refreshArea(ctrl, span(x, y, w, h))
		d.drv.writeMono(ctrl, b, xPart, yPart, x, y, w, h, o, true)
	})
}

// DrawImage4G writes a grey bitmap and refreshes its area.
func (d *Dev) DrawImage4G(b *Bitmap, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 2, 4, 8); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeGrey(ctrl, b, 8, 0, 0, x, y, w, h, o)
		d.drv.refreshArea(ctrl, span(x, y, w, h))
	})
}

// DrawImagePart4G is DrawImage4G for a part of b.
func (d *Dev) DrawImagePart4G(b *Bitmap, xPart, yPart, x, y, w, h int, o Options) error {
	if err := checkBPP(b, 2, 4, 8); err != nil {
		return err
	}
	return d.run(func(ctrl controller) {
		d.drv.writeGrey(ctrl, b, b.pixelsPerByte(), xPart, yPart, x, y, w, h, o)
		d.drv.refreshArea(ctrl, span(x, y, w, h))
	})
}

// span returns the area (x, y, w, h) without canonicalizing it, so a negative
// size stays empty instead of flipping around (x, y).
func span(x, y, w, h int) image.Rectangle {
	return image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+w, y+h)}
}

// Refresh refreshes the whole panel. With partial set it uses the fast
// waveform.
func (d *Dev) Refresh(partial bool) error {
	return d.run(func(ctrl controller) {
		if partial {
			d.drv.refreshArea(ctrl, d.Bounds())
			return
		}
		d.drv.refresh(ctrl)
	})
}

// RefreshArea refreshes r with the fast waveform, or the grey waveform in
// grey mode. The first refresh after New is always a full refresh.
func (d *Dev) RefreshArea(r image.Rectangle) error {
	return d.run(func(ctrl controller) {
		d.drv.refreshArea(ctrl, r)
	})
}

// PowerOff turns the panel analog power off. The image stays.
func (d *Dev) PowerOff() error {
	return d.run(d.drv.powerOff)
}

// Hibernate powers off and puts the controller in deep sleep. The next
// operation resets it.
func (d *Dev) Hibernate() error {
	return d.run(d.drv.hibernate)
}

// Halt turns the panel power off.
func (d *Dev) Halt() error {
	return d.PowerOff()
}

func checkBPP(b *Bitmap, allowed ...int) error {
	for _, a := range allowed {
		if b.BPP == a {
			return nil
		}
	}
	return fmt.Errorf("%w, got %d", ErrBadBPP, b.BPP)
}
