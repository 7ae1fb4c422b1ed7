// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package image2bit implements a 4 level grayscale image packed 4 pixels per
// byte, which is the native source format for e-paper greyscale writes.
//
// The leftmost pixel of a byte is in the two most significant bits:
//
//	Pixels: 0  1  2  3
//	Values: 3  2  1  0
//	Byte:   0b11_10_01_00 = 0xE4
package image2bit

import (
	"image"
	"image/color"
)

// Gray2 is a 2 bit grayscale color; 0 is black and 3 is white.
type Gray2 struct {
	Y uint8
}

// Levels.
var (
	Black     = Gray2{0}
	DarkGrey  = Gray2{1}
	LightGrey = Gray2{2}
	White     = Gray2{3}
)

// RGBA implements color.Color.
func (c Gray2) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&3) * 0x5555
	return y, y, y, 0xFFFF
}

func convert(c color.Color) color.Color {
	if g, ok := c.(Gray2); ok {
		return g
	}
	r, g, b, _ := c.RGBA()
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Gray2{Y: uint8(y >> 14)}
}

// Gray2Model converts any color to Gray2.
var Gray2Model = color.ModelFunc(convert)

// HorizontalMSB is a Gray2 image stored row by row, 4 pixels per byte.
type HorizontalMSB struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

// NewHorizontalMSB returns an all black image.
func NewHorizontalMSB(r image.Rectangle) *HorizontalMSB {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &HorizontalMSB{Rect: r}
	}
	stride := (w + 3) / 4
	return &HorizontalMSB{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel implements image.Image.
func (i *HorizontalMSB) ColorModel() color.Model {
	return Gray2Model
}

// Bounds implements image.Image.
func (i *HorizontalMSB) Bounds() image.Rectangle {
	return i.Rect
}

// At implements image.Image.
func (i *HorizontalMSB) At(x, y int) color.Color {
	return i.Gray2At(x, y)
}

// Gray2At returns the level at (x, y); out of bounds reads as black.
func (i *HorizontalMSB) Gray2At(x, y int) Gray2 {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return Gray2{}
	}
	offset, shift := i.pixOffset(x, y)
	return Gray2{Y: (i.Pix[offset] >> shift) & 3}
}

// Set implements draw.Image.
func (i *HorizontalMSB) Set(x, y int, c color.Color) {
	i.SetGray2(x, y, Gray2Model.Convert(c).(Gray2))
}

// SetGray2 sets the level at (x, y) without color conversion.
func (i *HorizontalMSB) SetGray2(x, y int, c Gray2) {
	if !(image.Point{X: x, Y: y}.In(i.Rect)) {
		return
	}
	offset, shift := i.pixOffset(x, y)
	i.Pix[offset] = (i.Pix[offset] &^ (3 << shift)) | ((c.Y & 3) << shift)
}

func (i *HorizontalMSB) pixOffset(x, y int) (int, uint) {
	dx := x - i.Rect.Min.X
	offset := (y-i.Rect.Min.Y)*i.Stride + dx/4
	shift := uint(6 - 2*(dx&3))
	return offset, shift
}

var _ image.Image = &HorizontalMSB{}
