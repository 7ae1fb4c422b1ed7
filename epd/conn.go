// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Conn is the transport to a panel controller.
//
// Command selects a register with the data/command line low, and Data writes
// its operands. StartTransfer, Transfer and EndTransfer stream a bulk plane
// write with the chip selected once for the whole region.
type Conn interface {
	Command(cmd byte) error
	Data(data []byte) error
	StartTransfer() error
	Transfer(data []byte) error
	EndTransfer() error
	// WaitWhileBusy blocks until the controller is idle. d is the typical
	// duration of the operation. It returns false on timeout.
	WaitWhileBusy(d time.Duration) bool
	// Reset pulses the reset line. It is a no-op when HasReset is false.
	Reset() error
	HasReset() bool
	String() string
}

// DefaultBusyTimeout bounds every busy wait of the SPI transport.
const DefaultBusyTimeout = 10 * time.Second

// spiConn drives the controller over SPI with separate DC, CS, RST and BUSY
// lines. cs, rst and busy may be nil.
type spiConn struct {
	c         conn.Conn
	maxTxSize int

	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	busyLevel   gpio.Level
	busyTimeout time.Duration
	pollEvery   time.Duration
}

func newSPIConn(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, busyLevel gpio.Level) (*spiConn, error) {
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("epd: failed to connect over spi: %w", err)
	}

	// Get the maxTxSize from the conn if it implements the conn.Limits interface,
	// otherwise use 4096 bytes.
	maxTxSize := 0
	if limits, ok := c.(conn.Limits); ok {
		maxTxSize = limits.MaxTxSize()
	}
	if maxTxSize == 0 {
		maxTxSize = 4096
	}

	if busy != nil {
		if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("epd: failed to configure busy pin: %w", err)
		}
	}

	return &spiConn{
		c:           c,
		maxTxSize:   maxTxSize,
		dc:          dc,
		cs:          cs,
		rst:         rst,
		busy:        busy,
		busyLevel:   busyLevel,
		busyTimeout: DefaultBusyTimeout,
		pollEvery:   time.Millisecond,
	}, nil
}

func (s *spiConn) String() string {
	return fmt.Sprintf("%s, %s", s.c, s.dc)
}

func (s *spiConn) Command(cmd byte) error {
	if err := s.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := s.selectChip(gpio.Low); err != nil {
		return err
	}
	if err := s.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	return s.selectChip(gpio.High)
}

func (s *spiConn) Data(data []byte) error {
	if err := s.StartTransfer(); err != nil {
		return err
	}
	if err := s.Transfer(data); err != nil {
		return err
	}
	return s.EndTransfer()
}

func (s *spiConn) StartTransfer() error {
	if err := s.dc.Out(gpio.High); err != nil {
		return err
	}
	return s.selectChip(gpio.Low)
}

// Transfer sends data in chunks of at most maxTxSize bytes.
func (s *spiConn) Transfer(data []byte) error {
	for len(data) > 0 {
		n := len(data)
		if n > s.maxTxSize {
			n = s.maxTxSize
		}
		if err := s.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *spiConn) EndTransfer() error {
	return s.selectChip(gpio.High)
}

func (s *spiConn) selectChip(l gpio.Level) error {
	if s.cs == nil {
		return nil
	}
	return s.cs.Out(l)
}

func (s *spiConn) WaitWhileBusy(d time.Duration) bool {
	if s.busy == nil {
		time.Sleep(d)
		return true
	}
	deadline := time.Now().Add(s.busyTimeout)
	for s.busy.Read() == s.busyLevel {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(s.pollEvery)
	}
	return true
}

func (s *spiConn) HasReset() bool {
	return s.rst != nil
}

func (s *spiConn) Reset() error {
	if s.rst == nil {
		return nil
	}
	for _, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := s.rst.Out(l); err != nil {
			return fmt.Errorf("epd: reset: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return nil
}

var _ Conn = &spiConn{}
