// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"testing"

	"github.com/GermanBionicSystems/epaper/epd"
	"github.com/GermanBionicSystems/epaper/epdsim"
)

func TestRunAndHibernate(t *testing.T) {
	failed := errors.New("draw failed")
	for _, tc := range []struct {
		name string
		err  error
	}{
		{"ok", nil},
		{"command error", failed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sim := epdsim.New(&epd.GDEW029I6FD)
			dev := epd.NewConn(sim, &epd.GDEW029I6FD)

			err := runAndHibernate(dev, func() error {
				if err := dev.ClearScreen(0xFF); err != nil {
					return err
				}
				return tc.err
			})

			if !errors.Is(err, tc.err) {
				t.Errorf("runAndHibernate() = %v, want %v", err, tc.err)
			}
			if !sim.Asleep() {
				t.Errorf("panel not in deep sleep after runAndHibernate()")
			}
			if sim.Powered() {
				t.Errorf("panel still powered after runAndHibernate()")
			}
		})
	}
}
