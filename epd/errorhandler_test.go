// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/epaper/internal/log"
)

func TestErrorHandlerSticky(t *testing.T) {
	c := &fakeConn{failAt: 2}
	eh := &errorHandler{c: c}

	eh.sendCommand(0x01)
	eh.sendData([]byte{0x02})
	eh.sendCommand(0x03)
	eh.startTransfer()
	eh.transfer([]byte{0x04})
	eh.endTransfer()
	eh.reset()
	eh.waitWhileBusy("test", time.Millisecond)

	if !errors.Is(eh.err, errFake) {
		t.Errorf("err = %v, want %v", eh.err, errFake)
	}
	if c.calls != 2 {
		t.Errorf("transport called %d times, want 2", c.calls)
	}
	want := []record{{cmd: 0x01}}
	if diff := diffRecords(c.fakeController, want); diff != "" {
		t.Errorf("errorHandler difference (-got +want):\n%s", diff)
	}
}

// timeoutConn never leaves the busy state.
type timeoutConn struct {
	fakeConn
}

func (*timeoutConn) WaitWhileBusy(time.Duration) bool {
	return false
}

func TestErrorHandlerBusyTimeout(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	eh := &errorHandler{c: &timeoutConn{}}
	eh.waitWhileBusy("updateFull", time.Millisecond)

	if eh.err != nil {
		t.Errorf("busy timeout returned %v", eh.err)
	}
	if out := buf.String(); !strings.Contains(out, "[INFO] busy timeout op=updateFull elapsed=") {
		t.Errorf("busy timeout not logged, got:\n%s", out)
	}
}
