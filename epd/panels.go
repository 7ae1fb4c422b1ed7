// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Commands shared by the UC81xx family (UC8151D, GD7965, UC8179).
const (
	ucPanelSetting   byte = 0x00
	ucPowerSetting   byte = 0x01
	ucPowerOff       byte = 0x02
	ucPowerOn        byte = 0x04
	ucBoosterStart   byte = 0x06
	ucDeepSleep      byte = 0x07
	ucWritePrevious  byte = 0x10
	ucDisplayRefresh byte = 0x12
	ucWriteCurrent   byte = 0x13
	ucDualSPI        byte = 0x15
	ucLUTVcom        byte = 0x20
	ucLUTWW          byte = 0x21
	ucLUTBW          byte = 0x22
	ucLUTWB          byte = 0x23
	ucLUTBB          byte = 0x24
	ucLUTBorder      byte = 0x25
	ucVcomInterval   byte = 0x50
	ucTCON           byte = 0x60
	ucResolution     byte = 0x61
	ucVcomDC         byte = 0x82
	ucPartialWindow  byte = 0x90
	ucPartialIn      byte = 0x91
	ucPartialOut     byte = 0x92
	ucCascade        byte = 0xE0
	ucPowerSaving    byte = 0xE3
	ucForceTemp      byte = 0xE5
	ucDeepSleepCheck byte = 0xA5
)

// ucLUTRegisterSize is the length of a UC81xx LUT register.
const ucLUTRegisterSize = 42

// Commands of the SSD16xx family.
const (
	ssdDriverOutputControl   byte = 0x01
	ssdGateVoltage           byte = 0x03
	ssdSourceVoltage         byte = 0x04
	ssdSoftStart             byte = 0x0C
	ssdDeepSleep             byte = 0x10
	ssdDataEntryMode         byte = 0x11
	ssdSwReset               byte = 0x12
	ssdTempSensorSelect      byte = 0x18
	ssdTempRegisterWrite     byte = 0x1A
	ssdMasterActivation      byte = 0x20
	ssdDisplayUpdateControl1 byte = 0x21
	ssdDisplayUpdateControl2 byte = 0x22
	ssdWriteRAMBW            byte = 0x24
	ssdWriteRAMRed           byte = 0x26
	ssdWriteVcom             byte = 0x2C
	ssdWriteLUT              byte = 0x32
	ssdBorderWaveform        byte = 0x3C
	ssdSetRAMXStartEnd       byte = 0x44
	ssdSetRAMYStartEnd       byte = 0x45
	ssdSetRAMXCounter        byte = 0x4E
	ssdSetRAMYCounter        byte = 0x4F
)

// ucPartialLUT is the charge balanced partial update waveform shared by the
// 7.5" UC81xx panels. Only the first phase row is set; the rest of the
// register is zero padded.
func ucPartialLUT(level byte) LUT {
	return LUT{level, 30, 5, 30, 5, 1}.Pad(ucLUTRegisterSize)
}

// GDEW029I6FD is the 2.9" 128x296 panel with a UC8151D controller.
var GDEW029I6FD = Panel{
	Name:       "GDEW029I6FD",
	Controller: "UC8151D",
	Width:      128,
	Height:     296,
	BusyLevel:  gpio.Low,
	Timing: Timing{
		PowerOn:        100 * time.Millisecond,
		PowerOff:       100 * time.Millisecond,
		FullRefresh:    4000 * time.Millisecond,
		PartialRefresh: 600 * time.Millisecond,
		GreyRefresh:    4000 * time.Millisecond,
	},
	Window: WindowUC8151,
	Quirks: QuirkPartialWindowBracket | QuirkBracketPartialRefresh | QuirkPowerOffResetsMode,
	Cmd: Opcodes{
		WriteCurrent:  ucWriteCurrent,
		WritePrevious: ucWritePrevious,
		PartialIn:     ucPartialIn,
		PartialOut:    ucPartialOut,
		DeepSleep:     Command{Op: ucDeepSleep, Data: []byte{ucDeepSleepCheck}},
	},
	InitDisplay: Sequence{
		{Op: ucPanelSetting, Data: []byte{0x1F}},
		{Op: ucResolution, Data: []byte{128, 296 >> 8, 296 & 0xFF}},
	},
	InitFull: Init{
		Seq:     Sequence{{Op: ucPanelSetting, Data: []byte{0x1F}}},
		PowerOn: true,
	},
	InitFast: Init{
		Seq: Sequence{
			{Op: ucPanelSetting, Data: []byte{0xBF}},
			{Op: ucVcomDC, Data: []byte{0x08}},
			{Op: ucVcomInterval, Data: []byte{0x17}},
			{Op: ucLUTVcom, Data: LUT{0x00, 0x10, 0x01, 0x00, 0x00, 0x01}.Pad(44)},
			{Op: ucLUTWW, Data: LUT{0x00, 0x10, 0x01, 0x00, 0x00, 0x01}.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBW, Data: LUT{0x80, 0x10, 0x01, 0x00, 0x00, 0x01}.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWB, Data: LUT{0x40, 0x10, 0x01, 0x00, 0x00, 0x01}.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBB, Data: LUT{0x00, 0x10, 0x01, 0x00, 0x00, 0x01}.Pad(ucLUTRegisterSize)},
		},
		PowerOn: true,
	},
	InitGrey: Init{
		Seq: Sequence{
			{Op: ucPanelSetting, Data: []byte{0xBF}},
			{Op: ucVcomInterval, Data: []byte{0x17}},
			{Op: ucLUTVcom, Data: LUT{
				0x00, 0x0A, 0x00, 0x00, 0x00, 0x01,
				0x00, 0x14, 0x14, 0x00, 0x00, 0x01,
				0x00, 0x14, 0x00, 0x00, 0x00, 0x01,
				0x00, 0x13, 0x0A, 0x01, 0x00, 0x01,
			}.Pad(44)},
			{Op: ucLUTWW, Data: lutGreyWW.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBW, Data: lutGreyBW.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWB, Data: lutGreyWB.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBB, Data: lutGreyBB.Pad(ucLUTRegisterSize)},
		},
		PowerOn: true,
	},
	PowerOn:    Sequence{{Op: ucPowerOn}},
	PowerOff:   Sequence{{Op: ucPowerOff}},
	UpdateFull: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
	UpdateFast: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
	UpdateGrey: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
}

// Grey waveforms common to the UC81xx panels. Each register has four phases.
var (
	lutGreyWW = LUT{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01,
		0x90, 0x14, 0x14, 0x00, 0x00, 0x01,
		0x10, 0x14, 0x0A, 0x00, 0x00, 0x01,
		0xA0, 0x13, 0x01, 0x00, 0x00, 0x01,
	}
	lutGreyBW = LUT{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01,
		0x90, 0x14, 0x14, 0x00, 0x00, 0x01,
		0x00, 0x14, 0x0A, 0x00, 0x00, 0x01,
		0x99, 0x0C, 0x01, 0x03, 0x04, 0x01,
	}
	lutGreyWB = LUT{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01,
		0x90, 0x14, 0x14, 0x00, 0x00, 0x01,
		0x00, 0x14, 0x0A, 0x00, 0x00, 0x01,
		0x99, 0x0B, 0x04, 0x04, 0x01, 0x01,
	}
	lutGreyBB = LUT{
		0x80, 0x0A, 0x00, 0x00, 0x00, 0x01,
		0x90, 0x14, 0x14, 0x00, 0x00, 0x01,
		0x20, 0x14, 0x0A, 0x00, 0x00, 0x01,
		0x50, 0x13, 0x01, 0x00, 0x00, 0x01,
	}
	// lutGreyWWTSFIX holds a longer last phase for the UC8179.
	lutGreyWWTSFIX = LUT{
		0x40, 0x0A, 0x00, 0x00, 0x00, 0x01,
		0x90, 0x14, 0x14, 0x00, 0x00, 0x01,
		0x10, 0x14, 0x0A, 0x00, 0x00, 0x01,
		0xA0, 0x13, 0x0A, 0x00, 0x00, 0x01,
	}
)

// GDEW075T7 is the 7.5" 800x480 panel with a GD7965 controller.
var GDEW075T7 = Panel{
	Name:       "GDEW075T7",
	Controller: "GD7965",
	Width:      800,
	Height:     480,
	BusyLevel:  gpio.Low,
	Timing: Timing{
		PowerOn:        200 * time.Millisecond,
		PowerOff:       50 * time.Millisecond,
		FullRefresh:    3400 * time.Millisecond,
		PartialRefresh: 1100 * time.Millisecond,
		GreyRefresh:    3400 * time.Millisecond,
	},
	Window: WindowUC8179,
	Quirks: QuirkPartialWindowBracket | QuirkBracketGreyRefresh | QuirkPowerOffResetsMode,
	Cmd: Opcodes{
		WriteCurrent:  ucWriteCurrent,
		WritePrevious: ucWritePrevious,
		PartialIn:     ucPartialIn,
		PartialOut:    ucPartialOut,
		DeepSleep:     Command{Op: ucDeepSleep, Data: []byte{ucDeepSleepCheck}},
	},
	InitDisplay: Sequence{
		{Op: ucPowerSetting, Data: []byte{0x07, 0x07, 0x3F, 0x3F}},
		{Op: ucPanelSetting, Data: []byte{0x1F}},
		{Op: ucResolution, Data: []byte{800 / 256, 800 % 256, 480 / 256, 480 % 256}},
		{Op: ucDualSPI, Data: []byte{0x00}},
		{Op: ucVcomInterval, Data: []byte{0x29, 0x07}},
		{Op: ucTCON, Data: []byte{0x22}},
	},
	InitFull: Init{
		Seq:     Sequence{{Op: ucPanelSetting, Data: []byte{0x1F}}},
		PowerOn: true,
	},
	InitFast: Init{
		Seq: Sequence{
			{Op: ucPanelSetting, Data: []byte{0x3F}},
			{Op: ucVcomDC, Data: []byte{0x26}},
			{Op: ucVcomInterval, Data: []byte{0x39, 0x07}},
			{Op: ucLUTVcom, Data: ucPartialLUT(0x00)},
			{Op: ucLUTWW, Data: ucPartialLUT(0x00)},
			{Op: ucLUTBW, Data: ucPartialLUT(0x5A)},
			{Op: ucLUTWB, Data: ucPartialLUT(0x84)},
			{Op: ucLUTBB, Data: ucPartialLUT(0x00)},
			{Op: ucLUTBorder, Data: ucPartialLUT(0x00)},
		},
		PowerOn: true,
	},
	InitGrey: Init{
		Seq: Sequence{
			{Op: ucPanelSetting, Data: []byte{0x3F}},
			{Op: ucVcomInterval, Data: []byte{0x31, 0x07}},
			{Op: ucLUTVcom, Data: lutGreyVcom75.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWW, Data: lutGreyWW.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBW, Data: lutGreyBW.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWB, Data: lutGreyWB.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBB, Data: lutGreyBB.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBorder, Data: ucPartialLUT(0x00)},
		},
		PowerOn: true,
	},
	PowerOn:    Sequence{{Op: ucPowerOn}},
	PowerOff:   Sequence{{Op: ucPowerOff}},
	UpdateFull: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
	UpdateFast: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
	UpdateGrey: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
}

var lutGreyVcom75 = LUT{
	0x00, 0x0A, 0x00, 0x00, 0x00, 0x01,
	0x60, 0x14, 0x14, 0x00, 0x00, 0x01,
	0x00, 0x14, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x13, 0x0A, 0x01, 0x00, 0x01,
}

// GDEY075T7 is the 7.5" 800x480 panel with a UC8179 controller. Its fast
// update uses the OTP waveform at a fixed temperature.
var GDEY075T7 = Panel{
	Name:       "GDEY075T7",
	Controller: "UC8179",
	Width:      800,
	Height:     480,
	BusyLevel:  gpio.Low,
	Timing: Timing{
		PowerOn:        100 * time.Millisecond,
		PowerOff:       200 * time.Millisecond,
		FullRefresh:    1600 * time.Millisecond,
		PartialRefresh: 800 * time.Millisecond,
		GreyRefresh:    2000 * time.Millisecond,
	},
	Window: WindowUC8179,
	Quirks: QuirkPartialWindowBracket | QuirkBracketGreyRefresh | QuirkGreyPlaneReset | QuirkSoftResetDropsPower | QuirkInitialWriteClears,
	Cmd: Opcodes{
		WriteCurrent:  ucWriteCurrent,
		WritePrevious: ucWritePrevious,
		PartialIn:     ucPartialIn,
		PartialOut:    ucPartialOut,
		DeepSleep:     Command{Op: ucDeepSleep, Data: []byte{ucDeepSleepCheck}},
	},
	InitDisplay: Sequence{
		// Soft reset to undo a previous temperature fix.
		{Op: ucPanelSetting, Data: []byte{0x1E}, Delay: 2 * time.Millisecond},
		{Op: ucPanelSetting, Data: []byte{0x1F}, Delay: 20 * time.Millisecond},
		{Op: ucPanelSetting, Data: []byte{0x1F}},
		{Op: ucPowerSetting, Data: []byte{0x07, 0x07, 0x3F, 0x3F, 0x09}},
		{Op: ucBoosterStart, Data: []byte{0x17, 0x17, 0x28, 0x17}},
		{Op: ucResolution, Data: []byte{800 / 256, 800 % 256, 480 / 256, 480 % 256}},
		{Op: ucDualSPI, Data: []byte{0x00}},
		{Op: ucVcomInterval, Data: []byte{0x29, 0x07}},
		{Op: ucTCON, Data: []byte{0x22}},
		{Op: ucPowerSaving, Data: []byte{0x22}},
	},
	InitFull: Init{
		Seq:     Sequence{{Op: ucPanelSetting, Data: []byte{0x1F}}},
		PowerOn: true,
	},
	InitFast: Init{
		Seq: Sequence{
			{Op: ucCascade, Data: []byte{0x02}},
			{Op: ucForceTemp, Data: []byte{0x6E}},
		},
		PowerOn: true,
	},
	InitGrey: Init{
		Seq: Sequence{
			{Op: ucPanelSetting, Data: []byte{0x3F}},
			{Op: ucVcomInterval, Data: []byte{0x31, 0x07}},
			{Op: ucVcomDC, Data: []byte{0x30}},
			{Op: ucLUTVcom, Data: LUT{
				0x00, 0x0A, 0x00, 0x00, 0x00, 0x01,
				0x60, 0x14, 0x14, 0x00, 0x00, 0x01,
				0x00, 0x14, 0x0A, 0x00, 0x00, 0x01,
				0x00, 0x13, 0x0A, 0x01, 0x00, 0x01,
			}.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWW, Data: lutGreyWWTSFIX.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBW, Data: lutGreyBW.Pad(ucLUTRegisterSize)},
			{Op: ucLUTWB, Data: lutGreyWB.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBB, Data: lutGreyBB.Pad(ucLUTRegisterSize)},
			{Op: ucLUTBorder, Data: lutGreyWWTSFIX.Pad(ucLUTRegisterSize)},
		},
	},
	PowerOn:  Sequence{{Op: ucPowerOn}},
	PowerOff: Sequence{{Op: ucPowerOff}},
	UpdateFull: Update{
		Setup: Sequence{
			{Op: ucCascade, Data: []byte{0x02}},
			{Op: ucForceTemp, Data: []byte{0x5A}},
		},
		PowerOn: true,
		Trigger: Sequence{{Op: ucDisplayRefresh}},
	},
	UpdateFast: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
	UpdateGrey: Update{PowerOn: true, Trigger: Sequence{{Op: ucDisplayRefresh}}},
}

// lutGreySSD1677 is the 4 grey waveform: 105 bytes of phases and frame
// rates, then the VGH, VSH1, VSH2, VSL and VCOM levels.
var lutGreySSD1677 = LUT{
	0x80, 0x48, 0x4A, 0x22, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x0A, 0x48, 0x68, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x88, 0x48, 0x60, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xA8, 0x48, 0x45, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x07, 0x1E, 0x1C, 0x02, 0x00,
	0x05, 0x01, 0x05, 0x01, 0x02,
	0x08, 0x01, 0x01, 0x04, 0x04,
	0x00, 0x02, 0x01, 0x02, 0x02,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01,
	0x22, 0x22, 0x22, 0x22, 0x22,
	0x17, 0x41, 0xA8, 0x32, 0x30,
	0x00, 0x00,
}

// GDEQ0426T82 is the 4.26" 800x480 panel with a SSD1677 controller. Its gates
// are wired bottom up.
var GDEQ0426T82 = Panel{
	Name:       "GDEQ0426T82",
	Controller: "SSD1677",
	Width:      800,
	Height:     480,
	BusyLevel:  gpio.High,
	Timing: Timing{
		PowerOn:        100 * time.Millisecond,
		PowerOff:       150 * time.Millisecond,
		FullRefresh:    1800 * time.Millisecond,
		PartialRefresh: 510 * time.Millisecond,
		GreyRefresh:    4000 * time.Millisecond,
	},
	Window: WindowSSD1677,
	Quirks: QuirkGatesReversedY | QuirkInvertedGreyPlanes | QuirkGreyPlaneReset | QuirkInitialWriteClears,
	Cmd: Opcodes{
		WriteCurrent:  ssdWriteRAMBW,
		WritePrevious: ssdWriteRAMRed,
		DeepSleep:     Command{Op: ssdDeepSleep, Data: []byte{0x01}},
	},
	InitDisplay: Sequence{
		{Op: ssdSwReset, Settle: 10 * time.Millisecond, Delay: 10 * time.Millisecond},
		{Op: ssdSoftStart, Data: []byte{0xAE, 0xC7, 0xC3, 0xC0, 0x80}},
		{Op: ssdDriverOutputControl, Data: []byte{(480 - 1) % 256, (480 - 1) / 256, 0x02}},
		{Op: ssdBorderWaveform, Data: []byte{0x01}},
		{Op: ssdTempSensorSelect, Data: []byte{0x80}},
	},
	InitFull: Init{PowerOn: true},
	InitFast: Init{PowerOn: true},
	InitGrey: Init{
		Seq: Sequence{
			{Op: ssdBorderWaveform, Data: []byte{0x00}},
			{Op: ssdWriteLUT, Data: lutGreySSD1677[:105]},
			{Op: ssdGateVoltage, Data: lutGreySSD1677[105:106]},
			{Op: ssdSourceVoltage, Data: lutGreySSD1677[106:109]},
			{Op: ssdWriteVcom, Data: lutGreySSD1677[109:110]},
		},
	},
	PowerOn: Sequence{
		{Op: ssdDisplayUpdateControl2, Data: []byte{0xC0}},
		{Op: ssdMasterActivation},
	},
	PowerOff: Sequence{
		{Op: ssdDisplayUpdateControl2, Data: []byte{0x83}},
		{Op: ssdMasterActivation},
	},
	UpdateFull: Update{
		Trigger: Sequence{
			{Op: ssdDisplayUpdateControl1, Data: []byte{0x40, 0x00}},
			{Op: ssdTempRegisterWrite, Data: []byte{0x5A}},
			{Op: ssdDisplayUpdateControl2, Data: []byte{0xD7}},
			{Op: ssdMasterActivation},
		},
		After: PowerLeftOff,
	},
	UpdateFast: Update{
		Trigger: Sequence{
			{Op: ssdDisplayUpdateControl1, Data: []byte{0x00, 0x00}},
			{Op: ssdDisplayUpdateControl2, Data: []byte{0xFC}},
			{Op: ssdMasterActivation},
		},
		After: PowerLeftOn,
	},
	UpdateGrey: Update{
		Trigger: Sequence{
			{Op: ssdDisplayUpdateControl1, Data: []byte{0x00, 0x00}},
			{Op: ssdDisplayUpdateControl2, Data: []byte{0xC7}},
			{Op: ssdMasterActivation},
		},
		After: PowerLeftOff,
	},
}
