// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd

import (
	"errors"
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPanelByName(t *testing.T) {
	for _, tc := range []struct {
		name    string
		want    *Panel
		wantErr bool
	}{
		{name: "GDEW029I6FD", want: &GDEW029I6FD},
		{name: "gdey075t7", want: &GDEY075T7},
		{name: "GDEQ0426t82", want: &GDEQ0426T82},
		{name: "GDEW075T7", want: &GDEW075T7},
		{name: "SSD1306", wantErr: true},
		{name: "", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PanelByName(tc.name)
			if tc.wantErr {
				if !errors.Is(err, ErrUnknownPanel) {
					t.Errorf("PanelByName(%q) error = %v, want ErrUnknownPanel", tc.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PanelByName(%q) failed: %v", tc.name, err)
			}
			if got != tc.want {
				t.Errorf("PanelByName(%q) = %s, want %s", tc.name, got, tc.want)
			}
		})
	}
}

func TestPanelNames(t *testing.T) {
	want := []string{"GDEQ0426T82", "GDEW029I6FD", "GDEW075T7", "GDEY075T7"}
	if diff := cmp.Diff(PanelNames(), want); diff != "" {
		t.Errorf("PanelNames() difference (-got +want):\n%s", diff)
	}
}

func TestPanelNameFlag(t *testing.T) {
	var n PanelName
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&discard{})
	fs.Var(&n, "panel", "panel name")

	if err := fs.Parse([]string{"-panel", "gdew075t7"}); err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if n.String() != "GDEW075T7" {
		t.Errorf("PanelName = %q, want the canonical name", n.String())
	}

	if err := n.Set("nope"); !errors.Is(err, ErrUnknownPanel) {
		t.Errorf("Set(%q) error = %v, want ErrUnknownPanel", "nope", err)
	}
	if n.String() != "GDEW075T7" {
		t.Errorf("a rejected Set() changed the value to %q", n.String())
	}
}

type discard struct{}

func (*discard) Write(p []byte) (int, error) {
	return len(p), nil
}

func TestPanelDescriptors(t *testing.T) {
	for name, p := range Panels {
		t.Run(name, func(t *testing.T) {
			if p.Name != name {
				t.Errorf("registered as %q, named %q", name, p.Name)
			}
			if p.Width%8 != 0 || p.Height <= 0 {
				t.Errorf("size %dx%d, want a width multiple of 8", p.Width, p.Height)
			}
			if p.Cmd.WriteCurrent == p.Cmd.WritePrevious {
				t.Errorf("both planes use command %#x", p.Cmd.WriteCurrent)
			}
			if p.bracketed() && (p.Cmd.PartialIn == 0 || p.Cmd.PartialOut == 0) {
				t.Errorf("bracketed panel without PartialIn/PartialOut")
			}
			for _, u := range []Update{p.UpdateFull, p.UpdateFast, p.UpdateGrey} {
				if len(u.Trigger) == 0 {
					t.Errorf("update without a trigger")
				}
			}
			if p.Timing.FullRefresh == 0 || p.Timing.PartialRefresh == 0 || p.Timing.GreyRefresh == 0 {
				t.Errorf("missing refresh timing: %+v", p.Timing)
			}
		})
	}
}

func TestUCLUTRegisterSizes(t *testing.T) {
	for _, p := range []*Panel{&GDEW029I6FD, &GDEW075T7, &GDEY075T7} {
		for _, in := range []Init{p.InitFull, p.InitFast, p.InitGrey} {
			for _, c := range in.Seq {
				switch c.Op {
				case ucLUTWW, ucLUTBW, ucLUTWB, ucLUTBB, ucLUTBorder:
					if len(c.Data) != ucLUTRegisterSize {
						t.Errorf("%s: LUT %#x has %d bytes, want %d", p.Name, c.Op, len(c.Data), ucLUTRegisterSize)
					}
				case ucLUTVcom:
					if len(c.Data) != ucLUTRegisterSize && len(c.Data) != ucLUTRegisterSize+2 {
						t.Errorf("%s: VCOM LUT has %d bytes", p.Name, len(c.Data))
					}
				}
			}
		}
	}
}

func TestSSD1677GreyLUT(t *testing.T) {
	if n := len(lutGreySSD1677); n != 112 {
		t.Errorf("len(lutGreySSD1677) = %d, want 112", n)
	}
}

func TestLUTPad(t *testing.T) {
	if diff := cmp.Diff(LUT{1, 2}.Pad(4), LUT{1, 2, 0, 0}); diff != "" {
		t.Errorf("Pad() difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(LUT{1, 2, 3}.Pad(2), LUT{1, 2, 3}); diff != "" {
		t.Errorf("Pad() difference (-got +want):\n%s", diff)
	}
}

func TestModeString(t *testing.T) {
	for m, want := range map[Mode]string{
		FullRefresh:       "full",
		FastRefresh:       "fast",
		GreyRefresh:       "grey",
		ForcedFullRefresh: "forced-full",
		Mode(9):           "Mode(9)",
	} {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}

func TestPanelString(t *testing.T) {
	if got, want := GDEQ0426T82.String(), "GDEQ0426T82 (SSD1677, 800x480)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
