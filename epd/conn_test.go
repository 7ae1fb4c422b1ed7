// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestSPIConn(t *testing.T) {
	port := &spitest.Record{Ops: make([]conntest.IO, 0)}
	defer port.Close()
	dc := &gpiotest.Pin{N: "DC"}
	cs := &gpiotest.Pin{N: "CS", L: gpio.High}
	rst := &gpiotest.Pin{N: "RST"}
	busy := &gpiotest.Pin{N: "BUSY", L: gpio.High}

	c, err := newSPIConn(port, dc, cs, rst, busy, gpio.Low)
	if err != nil {
		t.Fatalf("newSPIConn() failed: %v", err)
	}
	c.maxTxSize = 3

	if err := c.Command(0x12); err != nil {
		t.Fatalf("Command() failed: %v", err)
	}
	if dc.L != gpio.Low || cs.L != gpio.High {
		t.Errorf("after Command() DC = %s, CS = %s, want Low, High", dc.L, cs.L)
	}

	if err := c.Data([]byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Data() failed: %v", err)
	}
	if dc.L != gpio.High || cs.L != gpio.High {
		t.Errorf("after Data() DC = %s, CS = %s, want High, High", dc.L, cs.L)
	}

	if err := c.StartTransfer(); err != nil {
		t.Fatalf("StartTransfer() failed: %v", err)
	}
	if cs.L != gpio.Low {
		t.Errorf("chip not selected during a transfer")
	}
	if err := c.Transfer([]byte{6}); err != nil {
		t.Fatalf("Transfer() failed: %v", err)
	}
	if err := c.EndTransfer(); err != nil {
		t.Fatalf("EndTransfer() failed: %v", err)
	}

	want := []conntest.IO{
		{W: []byte{0x12}},
		{W: []byte{1, 2, 3}},
		{W: []byte{4, 5}},
		{W: []byte{6}},
	}
	if diff := cmp.Diff(port.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Tx difference (-got +want):\n%s", diff)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}
	if rst.L != gpio.High {
		t.Errorf("RST = %s after Reset(), want High", rst.L)
	}
	if !c.HasReset() {
		t.Errorf("HasReset() = false with a reset pin")
	}
}

func TestSPIConnWaitWhileBusy(t *testing.T) {
	port := &spitest.Record{}
	busy := &gpiotest.Pin{N: "BUSY", L: gpio.High}
	c, err := newSPIConn(port, &gpiotest.Pin{}, nil, nil, busy, gpio.Low)
	if err != nil {
		t.Fatalf("newSPIConn() failed: %v", err)
	}
	c.busyTimeout = 5 * time.Millisecond

	if !c.WaitWhileBusy(time.Second) {
		t.Errorf("WaitWhileBusy() timed out on an idle controller")
	}

	busy.L = gpio.Low
	if c.WaitWhileBusy(time.Second) {
		t.Errorf("WaitWhileBusy() returned ready on a busy controller")
	}

	if c.HasReset() {
		t.Errorf("HasReset() = true without a reset pin")
	}
	if err := c.Reset(); err != nil {
		t.Errorf("Reset() without a reset pin failed: %v", err)
	}
}

func TestSPIConnNoBusyPin(t *testing.T) {
	c, err := newSPIConn(&spitest.Record{}, &gpiotest.Pin{}, nil, nil, nil, gpio.Low)
	if err != nil {
		t.Fatalf("newSPIConn() failed: %v", err)
	}

	start := time.Now()
	if !c.WaitWhileBusy(2 * time.Millisecond) {
		t.Errorf("WaitWhileBusy() without a busy pin timed out")
	}
	if elapsed := time.Since(start); elapsed < 2*time.Millisecond {
		t.Errorf("WaitWhileBusy() returned after %s, want the typical duration", elapsed)
	}
}
