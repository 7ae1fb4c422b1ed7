// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import "image"

// region is a clipped and aligned transfer. (x, y, w, h) is the destination
// in panel space; the source starts at pixel column srcX and row srcY.
type region struct {
	x, y, w, h int
	srcX, srcY int
}

func (r region) rect() image.Rectangle {
	return image.Rect(r.x, r.y, r.x+r.w, r.y+r.h)
}

// alignPart clips a source sub-rectangle starting at (xPart, yPart) of a
// bitmap of srcW x srcH pixels, drawn at (x, y) with size (w, h). unit is the
// alignment of xPart in source pixels: 8 for monochrome, pixels per byte for
// grey sources. The destination is always widened to whole controller bytes.
// ok is false when nothing remains.
func alignPart(p *Panel, srcW, srcH, unit, xPart, yPart, x, y, w, h int) (region, bool) {
	if srcW < 0 || srcH < 0 || w < 0 || h < 0 {
		return region{}, false
	}
	if xPart < 0 || xPart >= srcW || yPart < 0 || yPart >= srcH {
		return region{}, false
	}
	xPart -= xPart % unit
	if srcW-xPart < w {
		w = srcW - xPart
	}
	if srcH-yPart < h {
		h = srcH - yPart
	}
	x -= mod(x, 8)
	w = 8 * ((w + 7) / 8)
	x1 := max(x, 0)
	y1 := max(y, 0)
	w1 := w
	if x+w > p.Width {
		w1 = p.Width - x
	}
	h1 := h
	if y+h > p.Height {
		h1 = p.Height - y
	}
	dx := x1 - x
	dy := y1 - y
	w1 -= dx
	h1 -= dy
	if w1 <= 0 || h1 <= 0 {
		return region{}, false
	}
	return region{x: x1, y: y1, w: w1, h: h1, srcX: xPart + dx, srcY: yPart + dy}, true
}

// alignWrite clips a whole bitmap of w x h pixels drawn at (x, y).
func alignWrite(p *Panel, unit, x, y, w, h int) (region, bool) {
	return alignPart(p, w, h, unit, 0, 0, x, y, w, h)
}

// alignRefresh intersects r with the panel and widens it to whole bytes.
func alignRefresh(p *Panel, r image.Rectangle) (region, bool) {
	x, y, w, h := r.Min.X, r.Min.Y, r.Dx(), r.Dy()
	w1, h1 := w, h
	if x < 0 {
		w1 += x
	}
	if y < 0 {
		h1 += y
	}
	x1 := max(x, 0)
	y1 := max(y, 0)
	if x1+w1 > p.Width {
		w1 = p.Width - x1
	}
	if y1+h1 > p.Height {
		h1 = p.Height - y1
	}
	if w1 <= 0 || h1 <= 0 {
		return region{}, false
	}
	w1 += x1 % 8
	if w1%8 > 0 {
		w1 += 8 - w1%8
	}
	x1 -= x1 % 8
	return region{x: x1, y: y1, w: w1, h: h1}, true
}

// mod is the remainder of a by b with the sign of b, so negative
// coordinates round toward minus infinity.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
