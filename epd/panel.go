// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Mode is the waveform set currently loaded into the controller.
type Mode int

// Refresh modes. FullRefresh is the state after construction.
const (
	FullRefresh Mode = iota
	FastRefresh
	GreyRefresh
	ForcedFullRefresh
)

func (m Mode) String() string {
	switch m {
	case FullRefresh:
		return "full"
	case FastRefresh:
		return "fast"
	case GreyRefresh:
		return "grey"
	case ForcedFullRefresh:
		return "forced-full"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Plane selects one of the two controller frame buffers.
type Plane int

// Planes.
const (
	Current Plane = iota
	Previous
)

// Quirk flags the controller specific deviations from the generic sequencing.
type Quirk uint16

const (
	// QuirkPartialWindowBracket wraps plane writes in PartialIn/PartialOut.
	QuirkPartialWindowBracket Quirk = 1 << iota
	// QuirkBracketPartialRefresh wraps every partial refresh in PartialIn/PartialOut.
	QuirkBracketPartialRefresh
	// QuirkBracketGreyRefresh wraps partial refreshes in grey mode only.
	QuirkBracketGreyRefresh
	// QuirkPowerOffResetsMode returns the mode to FullRefresh on power off.
	QuirkPowerOffResetsMode
	// QuirkGatesReversedY addresses RAM rows from the bottom of the panel.
	QuirkGatesReversedY
	// QuirkInvertedGreyPlanes complements both planes in grey mode.
	QuirkInvertedGreyPlanes
	// QuirkGreyPlaneReset means grey init clears both planes, so it runs once
	// per grey session, and leaving grey mode rewrites both planes white.
	QuirkGreyPlaneReset
	// QuirkSoftResetDropsPower means InitDisplay turns the analog supply off.
	QuirkSoftResetDropsPower
	// QuirkInitialWriteClears turns the first screen buffer write after
	// construction into a ClearScreen, full refresh included.
	QuirkInitialWriteClears
)

// Has reports whether all of the flags in o are set.
func (q Quirk) Has(o Quirk) bool {
	return q&o == o
}

// Command is one controller command with its operand bytes. Settle is waited
// before the opcode is sent and Delay after the operands.
type Command struct {
	Op     byte
	Data   []byte
	Settle time.Duration
	Delay  time.Duration
}

// Sequence is a list of commands sent in order.
type Sequence []Command

// LUT contains the waveform that is used to program the display.
type LUT []byte

// Pad returns l zero padded to n bytes. l is returned as is when it is
// already at least n bytes long.
func (l LUT) Pad(n int) LUT {
	if len(l) >= n {
		return l
	}
	out := make(LUT, n)
	copy(out, l)
	return out
}

// Init is a mode initialization, sent after the panel's InitDisplay.
type Init struct {
	Seq     Sequence
	PowerOn bool
}

// PowerState is the analog supply state a display update leaves behind.
type PowerState int

// Power states after an update.
const (
	PowerUnchanged PowerState = iota
	PowerLeftOn
	PowerLeftOff
)

// Update triggers a display refresh. Setup is sent first, then the supply
// is turned on if PowerOn is set, then Trigger is sent and the busy line is
// awaited.
type Update struct {
	Setup   Sequence
	PowerOn bool
	Trigger Sequence
	After   PowerState
}

// Timing holds the typical duration of each busy phase. They are used as
// fixed delays on transports without a busy line.
type Timing struct {
	PowerOn        time.Duration
	PowerOff       time.Duration
	FullRefresh    time.Duration
	PartialRefresh time.Duration
	GreyRefresh    time.Duration
}

// WindowFormat selects how the partial RAM window is encoded.
type WindowFormat int

const (
	// WindowUC8151 is the 0x90 window with single byte x coordinates.
	WindowUC8151 WindowFormat = iota
	// WindowUC8179 is the 0x90 window with big endian 16 bit coordinates.
	WindowUC8179
	// WindowSSD1677 uses the SSD16xx RAM start/end and counter registers with
	// little endian 16 bit coordinates.
	WindowSSD1677
)

// Opcodes are the controller commands the driver issues itself.
type Opcodes struct {
	WriteCurrent  byte
	WritePrevious byte
	PartialIn     byte
	PartialOut    byte
	DeepSleep     Command
}

// Panel describes one panel and its controller. The driver is entirely
// parameterized by it.
type Panel struct {
	Name       string
	Controller string
	Width      int
	Height     int

	// BusyLevel is the level of the busy line while the controller works.
	BusyLevel gpio.Level
	Timing    Timing
	Window    WindowFormat
	Quirks    Quirk
	Cmd       Opcodes

	InitDisplay Sequence
	InitFull    Init
	InitFast    Init
	InitGrey    Init
	PowerOn     Sequence
	PowerOff    Sequence

	UpdateFull Update
	UpdateFast Update
	UpdateGrey Update
}

func (p *Panel) String() string {
	return fmt.Sprintf("%s (%s, %dx%d)", p.Name, p.Controller, p.Width, p.Height)
}

// planeBytes is the size of one plane.
func (p *Panel) planeBytes() int {
	return (p.Width + 7) / 8 * p.Height
}

// ErrUnknownPanel is returned by PanelByName.
var ErrUnknownPanel = errors.New("epd: unknown panel")

// Panels lists the supported panels by name.
var Panels = map[string]*Panel{
	GDEW029I6FD.Name: &GDEW029I6FD,
	GDEW075T7.Name:   &GDEW075T7,
	GDEY075T7.Name:   &GDEY075T7,
	GDEQ0426T82.Name: &GDEQ0426T82,
}

// PanelNames returns the sorted panel names.
func PanelNames() []string {
	names := make([]string, 0, len(Panels))
	for n := range Panels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// PanelByName returns the panel called name, ignoring case.
func PanelByName(name string) (*Panel, error) {
	for n, p := range Panels {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w %q: expected one of %s", ErrUnknownPanel, name, strings.Join(PanelNames(), ", "))
}

// PanelName is a panel name usable as a command line flag.
type PanelName string

// Set implements flag.Value.
func (n *PanelName) Set(s string) error {
	p, err := PanelByName(s)
	if err != nil {
		return err
	}
	*n = PanelName(p.Name)
	return nil
}

func (n *PanelName) String() string {
	return string(*n)
}
