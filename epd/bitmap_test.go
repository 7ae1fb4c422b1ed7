// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBitmap(t *testing.T) {
	for _, tc := range []struct {
		w, h, bpp  int
		wantStride int
		wantErr    bool
	}{
		{w: 16, h: 2, bpp: 1, wantStride: 2},
		{w: 10, h: 2, bpp: 1, wantStride: 2},
		{w: 10, h: 2, bpp: 2, wantStride: 3},
		{w: 10, h: 2, bpp: 4, wantStride: 5},
		{w: 10, h: 2, bpp: 8, wantStride: 10},
		{w: 10, h: 2, bpp: 3, wantErr: true},
		{w: 10, h: 2, bpp: 0, wantErr: true},
	} {
		b, err := NewBitmap(tc.w, tc.h, tc.bpp)
		if tc.wantErr {
			if !errors.Is(err, ErrBadBPP) {
				t.Errorf("NewBitmap(%d, %d, %d) error = %v, want ErrBadBPP", tc.w, tc.h, tc.bpp, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewBitmap(%d, %d, %d) failed: %v", tc.w, tc.h, tc.bpp, err)
		}
		if got := b.Stride(); got != tc.wantStride {
			t.Errorf("NewBitmap(%d, %d, %d).Stride() = %d, want %d", tc.w, tc.h, tc.bpp, got, tc.wantStride)
		}
		for i, v := range b.Pix {
			if v != 0xFF {
				t.Fatalf("NewBitmap(%d, %d, %d).Pix[%d] = %#x, want white", tc.w, tc.h, tc.bpp, i, v)
			}
		}
	}
}

func seqBitmap(w, h, bpp int) *Bitmap {
	b := &Bitmap{Width: w, Height: h, BPP: bpp}
	b.Pix = make([]byte, b.Stride()*h)
	for i := range b.Pix {
		b.Pix[i] = byte(i)
	}
	return b
}

func TestPackMono(t *testing.T) {
	b := seqBitmap(24, 10, 1)
	for _, tc := range []struct {
		name string
		r    region
		row  int
		o    Options
		want []byte
	}{
		{
			name: "plain",
			r:    region{w: 16, h: 2, srcX: 8, srcY: 1},
			row:  1,
			want: []byte{7, 8},
		},
		{
			name: "invert",
			r:    region{w: 8, h: 1},
			o:    Options{Invert: true},
			want: []byte{0xFF},
		},
		{
			name: "mirror",
			r:    region{w: 8, h: 10},
			o:    Options{MirrorY: true},
			want: []byte{27},
		},
		{
			name: "mirror with source offset",
			r:    region{w: 8, h: 2, srcY: 3},
			row:  1,
			o:    Options{MirrorY: true},
			want: []byte{15},
		},
		{
			name: "past the end reads white",
			r:    region{w: 16, h: 1, srcX: 16, srcY: 9},
			want: []byte{29, 0xFF},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := packMono(b, tc.r, tc.row, tc.o, nil)
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("packMono() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestPackMonoMirrorRows(t *testing.T) {
	const h = 10
	b := seqBitmap(8, h, 1)
	r := region{w: 8, h: h}
	for i := 0; i < h; i++ {
		got := packMono(b, r, i, Options{MirrorY: true}, nil)
		if want := byte(h - 1 - i); got[0] != want {
			t.Errorf("row %d reads source row %d, want %d", i, got[0], want)
		}
	}
}

func TestPackMonoInvertInvolution(t *testing.T) {
	b := seqBitmap(32, 4, 1)
	r := region{w: 32, h: 4}
	for i := 0; i < r.h; i++ {
		plain := packMono(b, r, i, Options{}, nil)
		inv := packMono(b, r, i, Options{Invert: true}, nil)
		twice := packMono(&Bitmap{Pix: inv, Width: 32, Height: 1, BPP: 1}, region{w: 32, h: 1}, 0, Options{Invert: true}, nil)
		if diff := cmp.Diff(twice, plain); diff != "" {
			t.Errorf("row %d: double inversion difference (-got +want):\n%s", i, diff)
		}
	}
}

func TestPackGrey(t *testing.T) {
	for _, tc := range []struct {
		name         string
		b            *Bitmap
		o            Options
		wantCurrent  []byte
		wantPrevious []byte
	}{
		{
			name: "2bpp",
			// white grey1 grey2 black, white x4, black x4, black grey2 grey1 white
			b:            &Bitmap{Pix: []byte{0xE4, 0xFF, 0x00, 0x1B}, Width: 16, Height: 1, BPP: 2},
			wantCurrent:  []byte{0xAF, 0x05},
			wantPrevious: []byte{0xCF, 0x03},
		},
		{
			name:         "2bpp inverted source",
			b:            &Bitmap{Pix: []byte{0x1B, 0x00, 0xFF, 0xE4}, Width: 16, Height: 1, BPP: 2},
			o:            Options{Invert: true},
			wantCurrent:  []byte{0xAF, 0x05},
			wantPrevious: []byte{0xCF, 0x03},
		},
		{
			name:         "4bpp",
			b:            &Bitmap{Pix: []byte{0xF0, 0xA5, 0x0F, 0x5A}, Width: 8, Height: 1, BPP: 4},
			wantCurrent:  []byte{0x96},
			wantPrevious: []byte{0xA5},
		},
		{
			name:         "8bpp",
			b:            &Bitmap{Pix: []byte{0xFF, 0x00, 0xA0, 0x9F, 0xFF, 0x00, 0xC0, 0x40}, Width: 8, Height: 1, BPP: 8},
			wantCurrent:  []byte{0x99},
			wantPrevious: []byte{0xAA},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := region{w: tc.b.Width, h: 1}
			if diff := cmp.Diff(packGrey(tc.b, r, 0, tc.o, Current, nil), tc.wantCurrent); diff != "" {
				t.Errorf("packGrey(Current) difference (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(packGrey(tc.b, r, 0, tc.o, Previous, nil), tc.wantPrevious); diff != "" {
				t.Errorf("packGrey(Previous) difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestPackGreyPadsRowEnd(t *testing.T) {
	// Two rows of four black pixels, one source byte per row.
	b := &Bitmap{Pix: []byte{0x00, 0x00}, Width: 4, Height: 2, BPP: 2}
	r := region{w: 8, h: 2}
	for _, tc := range []struct {
		name string
		o    Options
		want []byte
	}{
		{"plain", Options{}, []byte{0x0F}},
		{"inverted", Options{Invert: true}, []byte{0xFF}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			for _, pl := range []Plane{Current, Previous} {
				if diff := cmp.Diff(packGrey(b, r, 0, tc.o, pl, nil), tc.want); diff != "" {
					t.Errorf("packGrey(%d) difference (-got +want):\n%s", pl, diff)
				}
			}
		})
	}
}

func TestGreyBit(t *testing.T) {
	for _, tc := range []struct {
		name              string
		nibble            byte
		current, previous byte
	}{
		{"white", 0xC0, 1, 1},
		{"grey1", 0x80, 0, 1},
		{"grey2", 0x40, 1, 0},
		{"black", 0x00, 0, 0},
	} {
		if got := greyBit(tc.nibble, 0xC0, 0x80, Current); got != tc.current {
			t.Errorf("%s: current bit = %d, want %d", tc.name, got, tc.current)
		}
		if got := greyBit(tc.nibble, 0xC0, 0x80, Previous); got != tc.previous {
			t.Errorf("%s: previous bit = %d, want %d", tc.name, got, tc.previous)
		}
	}
}
