// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"bytes"
	"time"
)

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	startTransfer()
	transfer([]byte)
	endTransfer()
	waitWhileBusy(op string, d time.Duration)
	reset()
	delay(time.Duration)
}

// runSequence sends every command of seq with its operands.
func runSequence(ctrl controller, seq Sequence) {
	for _, c := range seq {
		if c.Settle != 0 {
			ctrl.delay(c.Settle)
		}
		ctrl.sendCommand(c.Op)
		if len(c.Data) != 0 {
			ctrl.sendData(c.Data)
		}
		if c.Delay != 0 {
			ctrl.delay(c.Delay)
		}
	}
}

// setWindow programs the RAM window to the byte aligned rectangle
// (x, y, w, h) in panel coordinates.
func setWindow(ctrl controller, p *Panel, x, y, w, h int) {
	switch p.Window {
	case WindowUC8151:
		xe := (x + w - 1) | 7
		ye := y + h - 1
		x &= 0xFFF8
		ctrl.sendCommand(ucPartialWindow)
		ctrl.sendData([]byte{
			byte(x % 256), byte(xe % 256),
			byte(y / 256), byte(y % 256),
			byte(ye / 256), byte(ye % 256),
			0x01,
		})
	case WindowUC8179:
		xe := (x + w - 1) | 7
		ye := y + h - 1
		x &= 0xFFF8
		ctrl.sendCommand(ucPartialWindow)
		ctrl.sendData([]byte{
			byte(x / 256), byte(x % 256),
			byte(xe / 256), byte(xe % 256),
			byte(y / 256), byte(y % 256),
			byte(ye / 256), byte(ye % 256),
			0x01,
		})
	case WindowSSD1677:
		xe := x + w - 1
		if p.Quirks.Has(QuirkGatesReversedY) {
			// RAM row 0 is the bottom row: x increments, y decrements.
			y = p.Height - y - h
			ye := y + h - 1
			ctrl.sendCommand(ssdDataEntryMode)
			ctrl.sendData([]byte{0x01})
			ctrl.sendCommand(ssdSetRAMXStartEnd)
			ctrl.sendData([]byte{byte(x % 256), byte(x / 256), byte(xe % 256), byte(xe / 256)})
			ctrl.sendCommand(ssdSetRAMYStartEnd)
			ctrl.sendData([]byte{byte(ye % 256), byte(ye / 256), byte(y % 256), byte(y / 256)})
			ctrl.sendCommand(ssdSetRAMXCounter)
			ctrl.sendData([]byte{byte(x % 256), byte(x / 256)})
			ctrl.sendCommand(ssdSetRAMYCounter)
			ctrl.sendData([]byte{byte(ye % 256), byte(ye / 256)})
			return
		}
		ye := y + h - 1
		ctrl.sendCommand(ssdDataEntryMode)
		ctrl.sendData([]byte{0x03})
		ctrl.sendCommand(ssdSetRAMXStartEnd)
		ctrl.sendData([]byte{byte(x % 256), byte(x / 256), byte(xe % 256), byte(xe / 256)})
		ctrl.sendCommand(ssdSetRAMYStartEnd)
		ctrl.sendData([]byte{byte(y % 256), byte(y / 256), byte(ye % 256), byte(ye / 256)})
		ctrl.sendCommand(ssdSetRAMXCounter)
		ctrl.sendData([]byte{byte(x % 256), byte(x / 256)})
		ctrl.sendCommand(ssdSetRAMYCounter)
		ctrl.sendData([]byte{byte(y % 256), byte(y / 256)})
	}
}

// fillPlane writes value to every byte of one plane. The window must already
// cover the whole panel.
func fillPlane(ctrl controller, p *Panel, cmd, value byte) {
	row := bytes.Repeat([]byte{value}, (p.Width+7)/8)
	ctrl.sendCommand(cmd)
	ctrl.startTransfer()
	for y := 0; y < p.Height; y++ {
		ctrl.transfer(row)
	}
	ctrl.endTransfer()
}

// fillBands writes value[i] to the i-th horizontal quarter of one plane.
func fillBands(ctrl controller, p *Panel, cmd byte, values [4]byte) {
	stride := (p.Width + 7) / 8
	ctrl.sendCommand(cmd)
	ctrl.startTransfer()
	for band, v := range values {
		row := bytes.Repeat([]byte{v}, stride)
		for y := band * p.Height / 4; y < (band+1)*p.Height/4; y++ {
			ctrl.transfer(row)
		}
	}
	ctrl.endTransfer()
}

// bracketed reports whether the panel needs PartialIn/PartialOut around the
// window.
func (p *Panel) bracketed() bool {
	return p.Quirks.Has(QuirkPartialWindowBracket)
}

// refreshBracketed reports whether a partial refresh in mode m is wrapped in
// PartialIn/PartialOut.
func (p *Panel) refreshBracketed(m Mode) bool {
	if p.Quirks.Has(QuirkBracketPartialRefresh) {
		return true
	}
	return m == GreyRefresh && p.Quirks.Has(QuirkBracketGreyRefresh)
}
