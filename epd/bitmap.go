// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"bytes"
	"errors"
	"fmt"
)

// Bitmap is a packed source image. Pixels are stored MSB first, each row
// padded to a whole byte.
//
// At 1 bit per pixel a set bit is white. At 2, 4 and 8 bits per pixel the
// highest value is white and 0 is black.
type Bitmap struct {
	Pix    []byte
	Width  int
	Height int
	BPP    int
}

// ErrBadBPP is returned for a bit depth other than 1, 2, 4 or 8.
var ErrBadBPP = errors.New("epd: bits per pixel must be 1, 2, 4 or 8")

// NewBitmap returns a white bitmap.
func NewBitmap(w, h, bpp int) (*Bitmap, error) {
	switch bpp {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w, got %d", ErrBadBPP, bpp)
	}
	b := &Bitmap{Width: w, Height: h, BPP: bpp}
	b.Pix = bytes.Repeat([]byte{0xFF}, b.Stride()*h)
	return b, nil
}

// Stride is the number of bytes per row.
func (b *Bitmap) Stride() int {
	return (b.Width*b.BPP + 7) / 8
}

// pixelsPerByte returns the alignment unit of the bitmap.
func (b *Bitmap) pixelsPerByte() int {
	return 8 / b.BPP
}

// byteAt returns the source byte at index i. Bytes past the end of Pix read
// as white.
func (b *Bitmap) byteAt(i int) byte {
	if i < 0 || i >= len(b.Pix) {
		return 0xFF
	}
	return b.Pix[i]
}

// Options modify how a bitmap is streamed.
type Options struct {
	// Invert complements every source byte.
	Invert bool
	// MirrorY reads the source bottom up.
	MirrorY bool
}

// srcRow returns the source row for destination row i of r.
func (b *Bitmap) srcRow(r region, i int, o Options) int {
	if o.MirrorY {
		return b.Height - 1 - (r.srcY + i)
	}
	return r.srcY + i
}

// packMono returns row i of r as plane bytes.
func packMono(b *Bitmap, r region, i int, o Options, out []byte) []byte {
	out = out[:0]
	base := r.srcX/8 + b.srcRow(r, i, o)*b.Stride()
	for j := 0; j < r.w/8; j++ {
		v := b.byteAt(base + j)
		if o.Invert {
			v = ^v
		}
		out = append(out, v)
	}
	return out
}

// greyParams returns the pixels per byte, the mask of the leftmost pixel and
// the threshold between the two grey tones.
func greyParams(bpp int) (ppb int, mask, grey1 byte) {
	switch bpp {
	case 2:
		return 4, 0xC0, 0x80
	case 4:
		return 2, 0xF0, 0xA0
	default:
		return 1, 0xFF, 0xA0
	}
}

// packGrey returns row i of r as the bytes of plane pl. Each output byte
// consumes BPP source bytes, that is 8 pixels.
func packGrey(b *Bitmap, r region, i int, o Options, pl Plane, out []byte) []byte {
	out = out[:0]
	ppb, mask, grey1 := greyParams(b.BPP)
	col := r.srcX / ppb
	base := b.srcRow(r, i, o) * b.Stride()
	for j := 0; j < r.w/ppb; j += b.BPP {
		var v byte
		for k := 0; k < b.BPP; k++ {
			// Columns past the end of the source row pad with white.
			in := byte(0xFF)
			if c := col + j + k; c < b.Stride() {
				in = b.byteAt(base + c)
				if o.Invert {
					in = ^in
				}
			}
			for n := 0; n < ppb; n++ {
				v <<= 1
				v |= greyBit(in&mask, mask, grey1, pl)
				in <<= uint(b.BPP)
			}
		}
		out = append(out, v)
	}
	return out
}

// greyBit maps one masked pixel to its bit in plane pl:
//
//	tone   current previous
//	white  1       1
//	grey1  0       1
//	grey2  1       0
//	black  0       0
func greyBit(nibble, mask, grey1 byte, pl Plane) byte {
	switch {
	case nibble == mask:
		return 1
	case nibble == 0:
		return 0
	case nibble >= grey1:
		if pl == Previous {
			return 1
		}
		return 0
	default:
		if pl == Previous {
			return 0
		}
		return 1
	}
}
