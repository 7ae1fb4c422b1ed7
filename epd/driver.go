// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"image"
	"time"

	"github.com/GermanBionicSystems/epaper/internal/log"
)

// driver is the refresh-mode state machine shared by every panel. It only
// talks to the controller through ctrl, so the sequencing can be recorded in
// tests.
type driver struct {
	p        *Panel
	hasReset bool

	mode           Mode
	powerIsOn      bool
	hibernating    bool
	initDone       bool
	initialWrite   bool
	initialRefresh bool
}

func newDriver(p *Panel, hasReset bool) *driver {
	return &driver{
		p:              p,
		hasReset:       hasReset,
		mode:           FullRefresh,
		initialWrite:   true,
		initialRefresh: true,
	}
}

func (d *driver) initDisplay(ctrl controller) {
	if d.hibernating {
		ctrl.reset()
		d.hibernating = false
		d.powerIsOn = false
	}
	runSequence(ctrl, d.p.InitDisplay)
	if d.p.Quirks.Has(QuirkSoftResetDropsPower) {
		d.powerIsOn = false
	}
	d.fullWindow(ctrl)
	d.initDone = true
}

func (d *driver) powerOn(ctrl controller) {
	if !d.powerIsOn {
		runSequence(ctrl, d.p.PowerOn)
		ctrl.waitWhileBusy("powerOn", d.p.Timing.PowerOn)
	}
	d.powerIsOn = true
}

func (d *driver) powerOff(ctrl controller) {
	if d.powerIsOn {
		runSequence(ctrl, d.p.PowerOff)
		ctrl.waitWhileBusy("powerOff", d.p.Timing.PowerOff)
	}
	d.powerIsOn = false
	if d.p.Quirks.Has(QuirkPowerOffResetsMode) {
		d.mode = FullRefresh
	}
}

func (d *driver) runInit(ctrl controller, in Init) {
	d.initDisplay(ctrl)
	runSequence(ctrl, in.Seq)
	if in.PowerOn {
		d.powerOn(ctrl)
	}
}

// initFull loads the full refresh waveform. Panels that wipe their planes for
// grey mode get both planes cleared on the way out of it.
func (d *driver) initFull(ctrl controller) {
	wasGrey := d.mode == GreyRefresh
	d.runInit(ctrl, d.p.InitFull)
	d.mode = FullRefresh
	if wasGrey && d.p.Quirks.Has(QuirkGreyPlaneReset) {
		d.fillScreen(ctrl, 0xFF, true)
		d.initialWrite = false
		d.mode = ForcedFullRefresh
	}
}

func (d *driver) forceInitFull(ctrl controller) {
	d.initFull(ctrl)
	d.mode = ForcedFullRefresh
}

func (d *driver) initFast(ctrl controller) {
	wasGrey := d.mode == GreyRefresh
	d.runInit(ctrl, d.p.InitFast)
	d.mode = FastRefresh
	if wasGrey && d.p.Quirks.Has(QuirkGreyPlaneReset) {
		d.fillScreen(ctrl, 0xFF, true)
		d.initialWrite = false
		d.mode = ForcedFullRefresh
	}
}

func (d *driver) initGrey(ctrl controller) {
	if d.mode == GreyRefresh && d.p.Quirks.Has(QuirkGreyPlaneReset) {
		return
	}
	d.runInit(ctrl, d.p.InitGrey)
	d.mode = GreyRefresh
	if d.p.Quirks.Has(QuirkGreyPlaneReset) {
		d.fillScreen(ctrl, d.greyByte(0xFF), true)
		d.initialWrite = false
	}
}

// greyByte converts a plane byte for a grey mode write.
func (d *driver) greyByte(v byte) byte {
	if d.p.Quirks.Has(QuirkInvertedGreyPlanes) {
		return ^v
	}
	return v
}

// fillScreen writes v to the current plane and, if both is set, to the
// previous plane.
func (d *driver) fillScreen(ctrl controller, v byte, both bool) {
	if both {
		d.fullWindow(ctrl)
		fillPlane(ctrl, d.p, d.p.Cmd.WritePrevious, v)
	}
	d.fullWindow(ctrl)
	fillPlane(ctrl, d.p, d.p.Cmd.WriteCurrent, v)
}

// presetScreen writes white to the previous plane and v to the current one.
func (d *driver) presetScreen(ctrl controller, v byte) {
	d.fullWindow(ctrl)
	fillPlane(ctrl, d.p, d.p.Cmd.WritePrevious, 0xFF)
	d.fullWindow(ctrl)
	fillPlane(ctrl, d.p, d.p.Cmd.WriteCurrent, v)
}

// fullWindow rewinds the RAM address of window addressed controllers.
func (d *driver) fullWindow(ctrl controller) {
	if !d.p.bracketed() {
		setWindow(ctrl, d.p, 0, 0, d.p.Width, d.p.Height)
	}
}

func (d *driver) runUpdate(ctrl controller, u Update, op string) {
	runSequence(ctrl, u.Setup)
	if u.PowerOn {
		d.powerOn(ctrl)
	}
	runSequence(ctrl, u.Trigger)
	ctrl.waitWhileBusy(op, d.updateTime(op))
	switch u.After {
	case PowerLeftOn:
		d.powerIsOn = true
	case PowerLeftOff:
		d.powerIsOn = false
	}
}

func (d *driver) updateTime(op string) time.Duration {
	switch op {
	case "updateFast":
		return d.p.Timing.PartialRefresh
	case "updateGrey":
		return d.p.Timing.GreyRefresh
	}
	return d.p.Timing.FullRefresh
}

// clearScreen fills both planes and does a full refresh.
func (d *driver) clearScreen(ctrl controller, v byte) {
	if !d.initDone || d.mode == GreyRefresh {
		d.initFull(ctrl)
	}
	d.fillScreen(ctrl, v, true)
	d.refresh(ctrl)
	d.initialWrite = false
}

// writeScreenBuffer fills the current plane with v. Before the first full
// refresh and in grey mode the previous plane is preset to white.
func (d *driver) writeScreenBuffer(ctrl controller, v byte) {
	if d.initialWrite && d.p.Quirks.Has(QuirkInitialWriteClears) {
		d.clearScreen(ctrl, v)
		return
	}
	d.initialWrite = false
	if !d.initDone {
		d.initDisplay(ctrl)
	}
	switch {
	case d.mode == GreyRefresh && d.p.Quirks.Has(QuirkGreyPlaneReset):
		d.fillScreen(ctrl, d.greyByte(v), true)
	case d.mode == GreyRefresh || d.initialRefresh:
		d.presetScreen(ctrl, v)
	default:
		d.fillScreen(ctrl, v, false)
	}
}

func (d *driver) writeScreenBufferAgain(ctrl controller, v byte) {
	if !d.initDone {
		d.initDisplay(ctrl)
	}
	d.fillScreen(ctrl, v, true)
}

// planeRows produces the bytes of row i of a window into buf.
type planeRows func(i int, buf []byte) []byte

type planeWrite struct {
	cmd  byte
	rows planeRows
}

// writeWindow streams one or more planes into the window r.
func (d *driver) writeWindow(ctrl controller, r region, planes ...planeWrite) {
	if d.p.bracketed() {
		ctrl.sendCommand(d.p.Cmd.PartialIn)
	}
	buf := make([]byte, 0, (r.w+7)/8)
	for _, pl := range planes {
		setWindow(ctrl, d.p, r.x, r.y, r.w, r.h)
		ctrl.sendCommand(pl.cmd)
		ctrl.startTransfer()
		for i := 0; i < r.h; i++ {
			buf = pl.rows(i, buf)
			ctrl.transfer(buf)
		}
		ctrl.endTransfer()
	}
	if d.p.bracketed() {
		ctrl.sendCommand(d.p.Cmd.PartialOut)
	}
}

// writeMono writes a monochrome bitmap. again writes both planes so the next
// differential update starts from the same content.
func (d *driver) writeMono(ctrl controller, b *Bitmap, xPart, yPart, x, y, w, h int, o Options, again bool) {
	r, ok := alignPart(d.p, b.Width, b.Height, 8, xPart, yPart, x, y, w, h)
	if !ok {
		log.Debug("write clipped", "panel", d.p.Name, "x", x, "y", y, "w", w, "h", h)
		return
	}
	both := again
	if !again {
		switch d.mode {
		case GreyRefresh:
			d.forceInitFull(ctrl)
			both = true
		case FullRefresh:
			d.initFast(ctrl)
		}
		if d.initialWrite {
			d.writeScreenBuffer(ctrl, 0xFF)
		}
	} else if !d.initDone {
		d.initDisplay(ctrl)
	}
	rows := func(i int, buf []byte) []byte {
		return packMono(b, r, i, o, buf)
	}
	planes := []planeWrite{{cmd: d.p.Cmd.WriteCurrent, rows: rows}}
	if both {
		planes = append([]planeWrite{{cmd: d.p.Cmd.WritePrevious, rows: rows}}, planes...)
	}
	d.writeWindow(ctrl, r, planes...)
}

// writeGrey writes a 2, 4 or 8 bpp bitmap to both planes. unit is the
// alignment of xPart in source pixels.
func (d *driver) writeGrey(ctrl controller, b *Bitmap, unit, xPart, yPart, x, y, w, h int, o Options) {
	r, ok := alignPart(d.p, b.Width, b.Height, unit, xPart, yPart, x, y, w, h)
	if !ok {
		log.Debug("grey write clipped", "panel", d.p.Name, "x", x, "y", y, "w", w, "h", h)
		return
	}
	// initGrey clears both planes on QuirkGreyPlaneReset panels.
	if d.initialWrite && !d.p.Quirks.Has(QuirkGreyPlaneReset) {
		d.writeScreenBuffer(ctrl, 0xFF)
	}
	d.initGrey(ctrl)
	rows := func(pl Plane) planeRows {
		return func(i int, buf []byte) []byte {
			buf = packGrey(b, r, i, o, pl, buf)
			if d.p.Quirks.Has(QuirkInvertedGreyPlanes) {
				for j := range buf {
					buf[j] = ^buf[j]
				}
			}
			return buf
		}
	}
	d.writeWindow(ctrl, r,
		planeWrite{cmd: d.p.Cmd.WritePrevious, rows: rows(Previous)},
		planeWrite{cmd: d.p.Cmd.WriteCurrent, rows: rows(Current)},
	)
}

// refresh does a full refresh of the whole panel.
func (d *driver) refresh(ctrl controller) {
	if !d.initDone {
		d.initFull(ctrl)
	}
	if d.mode == ForcedFullRefresh {
		d.mode = FullRefresh
	}
	if d.mode == FastRefresh {
		d.initFull(ctrl)
	}
	if d.mode == GreyRefresh {
		d.runUpdate(ctrl, d.p.UpdateGrey, "updateGrey")
	} else {
		d.runUpdate(ctrl, d.p.UpdateFull, "updateFull")
	}
	d.initialRefresh = false
}

// refreshArea does a partial refresh of r. The first refresh after
// construction is always a full refresh.
func (d *driver) refreshArea(ctrl controller, area image.Rectangle) {
	if d.initialRefresh || d.mode == ForcedFullRefresh {
		d.refresh(ctrl)
		return
	}
	r, ok := alignRefresh(d.p, area)
	if !ok {
		log.Debug("refresh clipped", "panel", d.p.Name, "area", area)
		return
	}
	if d.mode == FullRefresh {
		d.initFast(ctrl)
	}
	bracket := d.p.refreshBracketed(d.mode)
	if bracket {
		ctrl.sendCommand(d.p.Cmd.PartialIn)
	}
	setWindow(ctrl, d.p, r.x, r.y, r.w, r.h)
	if d.mode == GreyRefresh {
		d.runUpdate(ctrl, d.p.UpdateGrey, "updateGrey")
	} else {
		d.runUpdate(ctrl, d.p.UpdateFast, "updateFast")
	}
	if bracket {
		ctrl.sendCommand(d.p.Cmd.PartialOut)
	}
}

// drawGreyLevels fills the panel with four horizontal bars from white to
// black and refreshes it.
func (d *driver) drawGreyLevels(ctrl controller) {
	d.initGrey(ctrl)
	// white, grey1, grey2, black
	cur := [4]byte{0xFF, 0x00, 0xFF, 0x00}
	prev := [4]byte{0xFF, 0xFF, 0x00, 0x00}
	for i := range cur {
		cur[i] = d.greyByte(cur[i])
		prev[i] = d.greyByte(prev[i])
	}
	d.fullWindow(ctrl)
	fillBands(ctrl, d.p, d.p.Cmd.WriteCurrent, cur)
	d.fullWindow(ctrl)
	fillBands(ctrl, d.p, d.p.Cmd.WritePrevious, prev)
	d.runUpdate(ctrl, d.p.UpdateGrey, "updateGrey")
	d.initialWrite = false
	d.initialRefresh = false
}

func (d *driver) hibernate(ctrl controller) {
	d.powerOff(ctrl)
	if !d.hasReset {
		return
	}
	runSequence(ctrl, Sequence{d.p.Cmd.DeepSleep})
	d.hibernating = true
	d.initDone = false
	d.mode = FullRefresh
}
