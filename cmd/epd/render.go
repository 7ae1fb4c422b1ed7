// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/makeworld-the-better-one/dither"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	monoPalette = []color.Color{color.Black, color.White}
	greyPalette = []color.Color{
		color.Black,
		color.Gray{Y: 0x55},
		color.Gray{Y: 0xAA},
		color.White,
	}
)

// fit rotates img by angle degrees and centers it on a white w x h canvas.
func fit(img image.Image, w, h int, angle float64) *image.NRGBA {
	rot := imaging.Rotate(img, angle, color.White)
	fitted := imaging.Fit(rot, w, h, imaging.Lanczos)
	return imaging.PasteCenter(imaging.New(w, h, color.White), fitted)
}

// quantize dithers img to black and white, or to four greys.
func quantize(img image.Image, grey bool) image.Image {
	p := monoPalette
	if grey {
		p = greyPalette
	}
	d := dither.NewDitherer(p)
	d.Matrix = dither.FloydSteinberg
	d.Serpentine = true
	if out := d.DitherPaletted(img); out != nil {
		return out
	}
	return img
}

func textFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("text font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}

func clockFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("clock font: %w", err)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// renderText draws s centered and wrapped on a white w x h canvas.
func renderText(s string, face font.Face, w, h int, angle float64) image.Image {
	ctx := gg.NewContext(w, h)
	ctx.SetColor(color.White)
	ctx.Clear()
	ctx.SetFontFace(face)
	ctx.SetRGB(0, 0, 0)
	ctx.DrawStringWrapped(s, float64(w)/2, float64(h)/2, 0.5, 0.5, float64(w)*0.9, 1.0, gg.AlignCenter)
	if angle == 0 {
		return ctx.Image()
	}
	return fit(ctx.Image(), w, h, angle)
}
