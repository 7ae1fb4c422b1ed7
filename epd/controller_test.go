// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// record is one command with its operands and streamed bytes, a busy wait
// or a hardware reset.
type record struct {
	cmd   byte
	data  []byte
	wait  string
	reset bool
}

type fakeController []record

func (r *fakeController) sendCommand(cmd byte) {
	*r = append(*r, record{
		cmd: cmd,
	})
}

func (r *fakeController) sendData(data []byte) {
	cur := &(*r)[len(*r)-1]
	cur.data = append(cur.data, data...)
}

func (*fakeController) startTransfer() {
}

func (r *fakeController) transfer(data []byte) {
	r.sendData(data)
}

func (*fakeController) endTransfer() {
}

func (r *fakeController) waitWhileBusy(op string, _ time.Duration) {
	*r = append(*r, record{wait: op})
}

func (r *fakeController) reset() {
	*r = append(*r, record{reset: true})
}

func (*fakeController) delay(time.Duration) {
}

// pause is a delay issued after n records.
type pause struct {
	n int
	d time.Duration
}

// pausingController also records the delays between commands.
type pausingController struct {
	fakeController
	pauses []pause
}

func (r *pausingController) delay(d time.Duration) {
	r.pauses = append(r.pauses, pause{n: len(r.fakeController), d: d})
}

func diffRecords(got fakeController, want []record) string {
	return cmp.Diff([]record(got), want, cmpopts.EquateEmpty(), cmp.AllowUnexported(record{}))
}

func TestRunSequence(t *testing.T) {
	var got fakeController

	runSequence(&got, Sequence{
		{Op: 0x01, Data: []byte{0x03, 0x00}},
		{Op: 0x04, Delay: time.Millisecond},
		{Op: 0x50, Data: []byte{0x97}},
	})

	want := []record{
		{cmd: 0x01, data: []byte{0x03, 0x00}},
		{cmd: 0x04},
		{cmd: 0x50, data: []byte{0x97}},
	}
	if diff := diffRecords(got, want); diff != "" {
		t.Errorf("runSequence() difference (-got +want):\n%s", diff)
	}
}

func TestSetWindow(t *testing.T) {
	for _, tc := range []struct {
		name       string
		panel      Panel
		x, y, w, h int
		want       []record
	}{
		{
			name:  "uc8151",
			panel: Panel{Width: 128, Height: 296, Window: WindowUC8151},
			x:     4, y: 10, w: 16, h: 8,
			want: []record{
				{cmd: ucPartialWindow, data: []byte{0, 23, 0, 10, 0, 17, 0x01}},
			},
		},
		{
			name:  "uc8179",
			panel: Panel{Width: 800, Height: 480, Window: WindowUC8179},
			x:     8, y: 300, w: 16, h: 2,
			want: []record{
				{cmd: ucPartialWindow, data: []byte{0, 8, 0, 23, 1, 44, 1, 45, 0x01}},
			},
		},
		{
			name:  "ssd1677",
			panel: Panel{Width: 16, Height: 8, Window: WindowSSD1677},
			x:     8, y: 2, w: 8, h: 3,
			want: []record{
				{cmd: ssdDataEntryMode, data: []byte{0x03}},
				{cmd: ssdSetRAMXStartEnd, data: []byte{8, 0, 15, 0}},
				{cmd: ssdSetRAMYStartEnd, data: []byte{2, 0, 4, 0}},
				{cmd: ssdSetRAMXCounter, data: []byte{8, 0}},
				{cmd: ssdSetRAMYCounter, data: []byte{2, 0}},
			},
		},
		{
			name:  "ssd1677, gates reversed",
			panel: Panel{Width: 16, Height: 8, Window: WindowSSD1677, Quirks: QuirkGatesReversedY},
			x:     0, y: 2, w: 16, h: 3,
			want: []record{
				{cmd: ssdDataEntryMode, data: []byte{0x01}},
				{cmd: ssdSetRAMXStartEnd, data: []byte{0, 0, 15, 0}},
				{cmd: ssdSetRAMYStartEnd, data: []byte{5, 0, 3, 0}},
				{cmd: ssdSetRAMXCounter, data: []byte{0, 0}},
				{cmd: ssdSetRAMYCounter, data: []byte{5, 0}},
			},
		},
		{
			name:  "ssd1677, large",
			panel: Panel{Width: 800, Height: 480, Window: WindowSSD1677},
			x:     256, y: 300, w: 8, h: 1,
			want: []record{
				{cmd: ssdDataEntryMode, data: []byte{0x03}},
				{cmd: ssdSetRAMXStartEnd, data: []byte{0, 1, 7, 1}},
				{cmd: ssdSetRAMYStartEnd, data: []byte{44, 1, 44, 1}},
				{cmd: ssdSetRAMXCounter, data: []byte{0, 1}},
				{cmd: ssdSetRAMYCounter, data: []byte{44, 1}},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got fakeController

			setWindow(&got, &tc.panel, tc.x, tc.y, tc.w, tc.h)

			if diff := diffRecords(got, tc.want); diff != "" {
				t.Errorf("setWindow() difference (-got +want):\n%s", diff)
			}
		})
	}
}

func TestFillPlane(t *testing.T) {
	var got fakeController
	p := Panel{Width: 12, Height: 3}

	fillPlane(&got, &p, ucWriteCurrent, 0xAA)

	want := []record{
		{cmd: ucWriteCurrent, data: []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}},
	}
	if diff := diffRecords(got, want); diff != "" {
		t.Errorf("fillPlane() difference (-got +want):\n%s", diff)
	}
}

func TestFillBands(t *testing.T) {
	var got fakeController
	p := Panel{Width: 8, Height: 8}

	fillBands(&got, &p, ucWritePrevious, [4]byte{1, 2, 3, 4})

	want := []record{
		{cmd: ucWritePrevious, data: []byte{1, 1, 2, 2, 3, 3, 4, 4}},
	}
	if diff := diffRecords(got, want); diff != "" {
		t.Errorf("fillBands() difference (-got +want):\n%s", diff)
	}
}

func TestRefreshBracketed(t *testing.T) {
	for _, tc := range []struct {
		panel *Panel
		mode  Mode
		want  bool
	}{
		{&GDEW029I6FD, FastRefresh, true},
		{&GDEW029I6FD, GreyRefresh, true},
		{&GDEW075T7, FastRefresh, false},
		{&GDEW075T7, GreyRefresh, true},
		{&GDEQ0426T82, GreyRefresh, false},
	} {
		if got := tc.panel.refreshBracketed(tc.mode); got != tc.want {
			t.Errorf("%s.refreshBracketed(%s) = %t, want %t", tc.panel.Name, tc.mode, got, tc.want)
		}
	}
}

func TestRunSequenceDelays(t *testing.T) {
	var got pausingController

	runSequence(&got, Sequence{
		{Op: 0x12, Settle: 10 * time.Millisecond, Delay: 10 * time.Millisecond},
		{Op: 0x0C, Data: []byte{0xAE}},
	})

	want := []pause{{n: 0, d: 10 * time.Millisecond}, {n: 1, d: 10 * time.Millisecond}}
	if diff := cmp.Diff(got.pauses, want, cmp.AllowUnexported(pause{})); diff != "" {
		t.Errorf("runSequence() delays difference (-got +want):\n%s", diff)
	}
}

func TestSoftResetSettles(t *testing.T) {
	var got pausingController

	runSequence(&got, GDEQ0426T82.InitDisplay)

	if len(got.fakeController) == 0 || got.fakeController[0].cmd != ssdSwReset {
		t.Fatalf("InitDisplay does not start with a soft reset: %+v", got.fakeController)
	}
	// 10ms before and after the soft reset.
	want := []pause{{n: 0, d: 10 * time.Millisecond}, {n: 1, d: 10 * time.Millisecond}}
	if diff := cmp.Diff(got.pauses, want, cmp.AllowUnexported(pause{})); diff != "" {
		t.Errorf("soft reset delays difference (-got +want):\n%s", diff)
	}
}
