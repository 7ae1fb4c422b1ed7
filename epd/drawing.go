// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/epaper/image2bit"
)

// ColorModel returns a 1 bit color model.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the bounds of the panel.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.p.Width, d.p.Height)
}

// Draw draws src in black and white and refreshes the drawn rectangle. The
// first draw after New does a full refresh.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	area := dstRect.Intersect(d.Bounds())
	if area.Empty() {
		return nil
	}
	draw.Src.Draw(d.buffer, area, src, srcPts.Add(area.Min.Sub(dstRect.Min)))
	x0, x1 := byteColumns(area)
	b := &Bitmap{Width: x1 - x0, Height: area.Dy(), BPP: 1}
	stride := b.Stride()
	b.Pix = make([]byte, stride*b.Height)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := b.Pix[(y-area.Min.Y)*stride:]
		for x := x0; x < x1; x++ {
			bit := 0x80 >> uint((x-x0)%8)
			if x >= d.p.Width || d.buffer.BitAt(x, y) == image1bit.On {
				row[(x-x0)/8] |= byte(bit)
			}
		}
	}
	return d.DrawImage(b, x0, area.Min.Y, b.Width, b.Height, Options{})
}

// DrawGrey draws src in four grey levels and refreshes the drawn rectangle
// with the grey waveform.
func (d *Dev) DrawGrey(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	area := dstRect.Intersect(d.Bounds())
	if area.Empty() {
		return nil
	}
	draw.Src.Draw(d.grey, area, src, srcPts.Add(area.Min.Sub(dstRect.Min)))
	x0, x1 := byteColumns(area)
	b := &Bitmap{Width: x1 - x0, Height: area.Dy(), BPP: 2}
	stride := b.Stride()
	b.Pix = make([]byte, stride*b.Height)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := b.Pix[(y-area.Min.Y)*stride:]
		for x := x0; x < x1; x++ {
			c := image2bit.White
			if x < d.p.Width {
				c = d.grey.Gray2At(x, y)
			}
			shift := uint(6 - 2*((x-x0)%4))
			row[(x-x0)/4] |= c.Y << shift
		}
	}
	return d.DrawImage4G(b, x0, area.Min.Y, b.Width, b.Height, Options{})
}

// DrawGreyLevels fills the panel with four horizontal bars, from white at the
// top to black at the bottom, and refreshes it.
func (d *Dev) DrawGreyLevels() error {
	return d.run(d.drv.drawGreyLevels)
}

// byteColumns widens the columns of r to whole bytes.
func byteColumns(r image.Rectangle) (x0, x1 int) {
	return r.Min.X &^ 7, (r.Max.X + 7) &^ 7
}

var _ display.Drawer = &Dev{}
