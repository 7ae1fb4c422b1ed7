// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epdsim

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/GermanBionicSystems/epaper/epd"
	"github.com/GermanBionicSystems/epaper/image2bit"
	"github.com/GermanBionicSystems/epaper/internal/log"
)

// ErrAsleep is returned for a command sent while the controller is in deep
// sleep. Only Reset wakes it up.
var ErrAsleep = errors.New("epdsim: command sent in deep sleep")

// UC81xx opcodes.
const (
	ucPowerOff       = 0x02
	ucPowerOn        = 0x04
	ucDeepSleep      = 0x07
	ucWritePrevious  = 0x10
	ucDisplayRefresh = 0x12
	ucWriteCurrent   = 0x13
	ucPartialWindow  = 0x90
	ucPartialIn      = 0x91
	ucPartialOut     = 0x92
	ucDeepSleepCheck = 0xA5
)

// SSD1677 opcodes.
const (
	ssdDeepSleep          = 0x10
	ssdDataEntryMode      = 0x11
	ssdSwReset            = 0x12
	ssdMasterActivation   = 0x20
	ssdDisplayUpdateCtrl2 = 0x22
	ssdWriteRAMBW         = 0x24
	ssdWriteRAMRed        = 0x26
	ssdSetRAMXStartEnd    = 0x44
	ssdSetRAMYStartEnd    = 0x45
	ssdSetRAMXCounter     = 0x4E
	ssdSetRAMYCounter     = 0x4F
)

// Controller is an in-memory panel controller. It decodes the command stream
// of the UC8151, UC8179 and SSD1677 families into two planes held in panel
// coordinates, one bit per pixel with 1 for white.
//
// It implements epd.Conn. It is not safe for concurrent use.
type Controller struct {
	// OnRefresh is called after every display update with the updated area.
	OnRefresh func(c *Controller, area image.Rectangle)
	// NoReset simulates a board without a reset line.
	NoReset bool

	p        *epd.Panel
	stride   int
	current  []byte
	previous []byte

	cmd       byte
	args      []byte
	registers map[byte][]byte
	target    []byte // plane being streamed, nil otherwise
	pos       int

	asleep  bool
	powered bool

	// UC81xx partial window in pixels.
	partial bool
	window  image.Rectangle

	// SSD1677 RAM window and address counters. x is in pixels, y in RAM rows.
	entry          byte
	x0, x1, y0, y1 int
	x, y           int
	updateCtrl     byte

	refreshes int
	resets    int
	busy      time.Duration
}

// New returns a controller for p with both planes white.
func New(p *epd.Panel) *Controller {
	stride := (p.Width + 7) / 8
	c := &Controller{
		p:         p,
		stride:    stride,
		current:   bytes.Repeat([]byte{0xFF}, stride*p.Height),
		previous:  bytes.Repeat([]byte{0xFF}, stride*p.Height),
		registers: map[byte][]byte{},
	}
	c.softReset()
	return c
}

func (c *Controller) String() string {
	return fmt.Sprintf("epdsim(%s)", c.p.Name)
}

func (c *Controller) uc() bool {
	return c.p.Window != epd.WindowSSD1677
}

// Command implements epd.Conn.
func (c *Controller) Command(cmd byte) error {
	if c.asleep {
		return fmt.Errorf("%w: %#02x", ErrAsleep, cmd)
	}
	c.cmd = cmd
	c.args = c.args[:0]
	c.target = nil
	c.pos = 0
	if c.uc() {
		c.ucCommand(cmd)
	} else {
		c.ssdCommand(cmd)
	}
	return nil
}

// Data implements epd.Conn.
func (c *Controller) Data(data []byte) error {
	if c.asleep {
		return fmt.Errorf("%w: data", ErrAsleep)
	}
	if c.target != nil {
		for _, b := range data {
			c.stream(b)
		}
		return nil
	}
	c.args = append(c.args, data...)
	c.registers[c.cmd] = append([]byte(nil), c.args...)
	if c.uc() {
		c.ucData()
	} else {
		c.ssdData()
	}
	return nil
}

// StartTransfer implements epd.Conn.
func (c *Controller) StartTransfer() error {
	return nil
}

// Transfer implements epd.Conn.
func (c *Controller) Transfer(data []byte) error {
	return c.Data(data)
}

// EndTransfer implements epd.Conn.
func (c *Controller) EndTransfer() error {
	return nil
}

// WaitWhileBusy implements epd.Conn. It accounts for d and returns at once.
func (c *Controller) WaitWhileBusy(d time.Duration) bool {
	c.busy += d
	return true
}

// Reset implements epd.Conn. The planes are kept.
func (c *Controller) Reset() error {
	if c.NoReset {
		return nil
	}
	c.resets++
	c.asleep = false
	c.powered = false
	c.softReset()
	return nil
}

// HasReset implements epd.Conn.
func (c *Controller) HasReset() bool {
	return !c.NoReset
}

func (c *Controller) softReset() {
	c.partial = false
	c.window = image.Rect(0, 0, c.p.Width, c.p.Height)
	c.entry = 0x03
	c.x0, c.x1 = 0, c.p.Width-1
	c.y0, c.y1 = 0, c.p.Height-1
	c.x, c.y = 0, 0
}

func (c *Controller) ucCommand(cmd byte) {
	switch cmd {
	case ucPowerOn:
		c.powered = true
	case ucPowerOff:
		c.powered = false
	case ucPartialIn:
		c.partial = true
	case ucPartialOut:
		c.partial = false
	case ucWriteCurrent:
		c.target = c.current
	case ucWritePrevious:
		c.target = c.previous
	case ucDisplayRefresh:
		area := c.Bounds()
		if c.partial {
			area = c.window.Intersect(area)
		}
		c.refresh(area)
	}
}

func (c *Controller) ucData() {
	a := c.args
	switch c.cmd {
	case ucDeepSleep:
		if len(a) >= 1 && a[0] == ucDeepSleepCheck {
			c.sleep()
		}
	case ucPartialWindow:
		var x, xe, y, ye int
		switch {
		case c.p.Window == epd.WindowUC8151 && len(a) >= 7:
			x, xe = int(a[0]), int(a[1])
			y, ye = int(a[2])<<8|int(a[3]), int(a[4])<<8|int(a[5])
		case c.p.Window == epd.WindowUC8179 && len(a) >= 9:
			x, xe = int(a[0])<<8|int(a[1]), int(a[2])<<8|int(a[3])
			y, ye = int(a[4])<<8|int(a[5]), int(a[6])<<8|int(a[7])
		default:
			return
		}
		c.window = image.Rect(x&^7, y, xe+1, ye+1)
	}
}

func (c *Controller) ssdCommand(cmd byte) {
	switch cmd {
	case ssdSwReset:
		c.softReset()
	case ssdWriteRAMBW:
		c.target = c.current
	case ssdWriteRAMRed:
		c.target = c.previous
	case ssdMasterActivation:
		u := c.updateCtrl
		if u&0xC0 != 0 {
			c.powered = true
		}
		if u&0x04 != 0 {
			c.refresh(c.Bounds())
		}
		if u&0x03 != 0 {
			c.powered = false
		}
	}
}

func (c *Controller) ssdData() {
	a := c.args
	switch c.cmd {
	case ssdDeepSleep:
		if len(a) >= 1 && a[0]&0x03 != 0 {
			c.sleep()
		}
	case ssdDataEntryMode:
		if len(a) >= 1 {
			c.entry = a[0]
		}
	case ssdDisplayUpdateCtrl2:
		if len(a) >= 1 {
			c.updateCtrl = a[0]
		}
	case ssdSetRAMXStartEnd:
		if len(a) >= 4 {
			c.x0, c.x1 = le16(a[0:]), le16(a[2:])
		}
	case ssdSetRAMYStartEnd:
		if len(a) >= 4 {
			c.y0, c.y1 = le16(a[0:]), le16(a[2:])
		}
	case ssdSetRAMXCounter:
		if len(a) >= 2 {
			c.x = le16(a)
		}
	case ssdSetRAMYCounter:
		if len(a) >= 2 {
			c.y = le16(a)
		}
	}
}

func le16(b []byte) int {
	return int(b[0]) | int(b[1])<<8
}

func (c *Controller) sleep() {
	c.asleep = true
	c.powered = false
	log.Debug("deep sleep", "panel", c.p.Name)
}

// stream stores one plane byte at the RAM address and advances it.
func (c *Controller) stream(b byte) {
	if c.uc() {
		w := c.window
		if !c.partial {
			w = c.Bounds()
		}
		perRow := (w.Dx() + 7) / 8
		if perRow > 0 {
			c.store(w.Min.X/8+c.pos%perRow, w.Min.Y+c.pos/perRow, b)
		}
		c.pos++
		return
	}
	row := c.y
	if c.p.Quirks.Has(epd.QuirkGatesReversedY) {
		row = c.p.Height - 1 - c.y
	}
	c.store(c.x/8, row, b)
	if c.entry&0x01 != 0 {
		c.x += 8
		if c.x > c.x1 {
			c.x = c.x0
			c.stepY()
		}
	} else {
		c.x -= 8
		if c.x < c.x1 {
			c.x = c.x0
			c.stepY()
		}
	}
}

func (c *Controller) stepY() {
	if c.entry&0x02 != 0 {
		c.y++
	} else {
		c.y--
	}
}

// store writes b at byte column col of panel row row, ignoring addresses
// outside the panel.
func (c *Controller) store(col, row int, b byte) {
	if col < 0 || col >= c.stride || row < 0 || row >= c.p.Height {
		return
	}
	c.target[row*c.stride+col] = b
}

func (c *Controller) refresh(area image.Rectangle) {
	c.refreshes++
	log.Debug("refresh", "panel", c.p.Name, "area", area, "powered", c.powered)
	if c.OnRefresh != nil {
		c.OnRefresh(c, area)
	}
}

// Bounds returns the panel rectangle.
func (c *Controller) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.p.Width, c.p.Height)
}

// Plane returns a copy of one plane, (Width+7)/8 bytes per row.
func (c *Controller) Plane(pl epd.Plane) []byte {
	if pl == epd.Previous {
		return append([]byte(nil), c.previous...)
	}
	return append([]byte(nil), c.current...)
}

// Register returns the operands last written to the register cmd.
func (c *Controller) Register(cmd byte) []byte {
	return append([]byte(nil), c.registers[cmd]...)
}

// Refreshes returns the number of display updates.
func (c *Controller) Refreshes() int {
	return c.refreshes
}

// Resets returns the number of hardware resets.
func (c *Controller) Resets() int {
	return c.resets
}

// Busy returns the sum of the typical durations of all busy waits.
func (c *Controller) Busy() time.Duration {
	return c.busy
}

// Asleep reports whether the controller is in deep sleep.
func (c *Controller) Asleep() bool {
	return c.asleep
}

// Powered reports whether the panel analog supply is on.
func (c *Controller) Powered() bool {
	return c.powered
}

func (c *Controller) bit(plane []byte, x, y int) bool {
	return plane[y*c.stride+x/8]&(0x80>>uint(x%8)) != 0
}

// Image returns the current plane as a black and white image.
func (c *Controller) Image() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(c.Bounds())
	for y := 0; y < c.p.Height; y++ {
		for x := 0; x < c.p.Width; x++ {
			img.SetBit(x, y, image1bit.Bit(c.bit(c.current, x, y)))
		}
	}
	return img
}

// Grey returns the four level image encoded by both planes.
func (c *Controller) Grey() *image2bit.HorizontalMSB {
	img := image2bit.NewHorizontalMSB(c.Bounds())
	inv := c.p.Quirks.Has(epd.QuirkInvertedGreyPlanes)
	for y := 0; y < c.p.Height; y++ {
		for x := 0; x < c.p.Width; x++ {
			cur := c.bit(c.current, x, y) != inv
			prev := c.bit(c.previous, x, y) != inv
			var g image2bit.Gray2
			switch {
			case cur && prev:
				g = image2bit.White
			case prev:
				g = image2bit.LightGrey
			case cur:
				g = image2bit.DarkGrey
			default:
				g = image2bit.Black
			}
			img.SetGray2(x, y, g)
		}
	}
	return img
}

var _ epd.Conn = &Controller{}
