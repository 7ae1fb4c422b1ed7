// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "debug", want: LevelDebug},
		{in: "INFO", want: LevelInfo},
		{in: "Error", want: LevelError},
		{in: "", want: LevelInfo},
		{in: "warn", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})
	defer SetLevel(LevelInfo)

	SetLevel(LevelInfo)
	Debug("hidden", "k", 1)
	Info("shown", "panel", "GDEW029I6FD", "odd")
	Error("failed", errors.New("boom"), "op", "refresh")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at INFO level:\n%s", out)
	}
	for _, want := range []string{
		"[INFO] shown panel=GDEW029I6FD\n",
		"[ERROR] failed err=boom op=refresh\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("visible", "k", 1)
	if !strings.Contains(buf.String(), "[DEBUG] visible k=1") {
		t.Errorf("debug line missing:\n%s", buf.String())
	}
}
