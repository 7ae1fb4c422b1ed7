// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"time"

	"github.com/GermanBionicSystems/epaper/internal/log"
)

// errorHandler is a wrapper for error management. The first transport error
// is kept and every later call becomes a no-op.
type errorHandler struct {
	c   Conn
	err error
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.Command(cmd)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.Data(data)
}

func (eh *errorHandler) startTransfer() {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.StartTransfer()
}

func (eh *errorHandler) transfer(data []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.Transfer(data)
}

func (eh *errorHandler) endTransfer() {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.EndTransfer()
}

func (eh *errorHandler) reset() {
	if eh.err != nil {
		return
	}
	eh.err = eh.c.Reset()
}

func (eh *errorHandler) delay(d time.Duration) {
	if eh.err != nil {
		return
	}
	time.Sleep(d)
}

// waitWhileBusy logs a timeout and carries on.
func (eh *errorHandler) waitWhileBusy(op string, d time.Duration) {
	if eh.err != nil {
		return
	}
	start := time.Now()
	if !eh.c.WaitWhileBusy(d) {
		log.Info("busy timeout", "op", op, "elapsed", time.Since(start))
		return
	}
	log.Debug("busy", "op", op, "elapsed", time.Since(start))
}
