// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// epd drives an e-paper panel from the command line.
//
// Usage:
//
//	epd [flags] clear|image <file>|text <string>|grey|clock|panels
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/epaper/epd"
	"github.com/GermanBionicSystems/epaper/epdsim"
	"github.com/GermanBionicSystems/epaper/internal/config"
	"github.com/GermanBionicSystems/epaper/internal/log"
)

type flags struct {
	configPath string
	panel      epd.PanelName
	sim        bool
	verbose    bool
	rotate     float64
	grey       bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.configPath, "config", "/etc/epd/config.yaml", "Path to config file")
	flag.Var(&f.panel, "panel", "Panel name, overrides config: "+strings.Join(epd.PanelNames(), ", "))
	flag.BoolVar(&f.sim, "sim", false, "Render to the terminal instead of the hardware")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")
	flag.Float64Var(&f.rotate, "rotate", 0, "Rotation in degrees for image and text")
	flag.BoolVar(&f.grey, "grey", false, "Use 4 grey levels for image and text")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] clear|image <file>|text <string>|grey|clock|panels\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	return f
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "epd: %s.\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	f := parseFlags()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	if args[0] == "panels" {
		for _, n := range epd.PanelNames() {
			fmt.Println(epd.Panels[n])
		}
		return nil
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.panel != "" {
		cfg.Panel = string(f.panel)
	}
	if f.sim {
		cfg.Simulate = true
	}
	if f.verbose {
		cfg.LogLevel = string(log.LevelDebug)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := log.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)

	panel, _ := epd.PanelByName(cfg.Panel)
	dev, closer, err := open(cfg, panel)
	if err != nil {
		return err
	}
	defer closer()
	log.Info("opened", "dev", dev, "panel", panel.Name)

	cmd := &command{dev: dev, cfg: cfg, flags: f}
	return runAndHibernate(dev, func() error {
		return cmd.run(args[0], args[1:])
	})
}

// runAndHibernate runs fn and hibernates dev even when fn fails. The error of
// fn takes precedence.
func runAndHibernate(dev *epd.Dev, fn func() error) (err error) {
	defer func() {
		if herr := dev.Hibernate(); herr != nil {
			if err == nil {
				err = herr
			} else {
				log.Error("hibernate", herr)
			}
		}
	}()
	return fn()
}

// open returns the simulated or the real device and a function releasing it.
func open(cfg *config.Config, panel *epd.Panel) (*epd.Dev, func(), error) {
	if cfg.Simulate {
		sim := epdsim.New(panel)
		term := epdsim.NewTerminal(&epdsim.TerminalOpts{})
		var dev *epd.Dev
		sim.OnRefresh = func(c *epdsim.Controller, area image.Rectangle) {
			var img image.Image = c.Image()
			if dev.Mode() == epd.GreyRefresh {
				img = c.Grey()
			}
			if err := term.Render(img); err != nil {
				log.Error("render", err)
			}
		}
		dev = epd.NewConn(sim, panel)
		return dev, func() { _ = term.Halt() }, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	p, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		return nil, nil, err
	}
	dev, err := openHardware(p, cfg, panel)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return dev, func() { p.Close() }, nil
}

func openHardware(p spi.PortCloser, cfg *config.Config, panel *epd.Panel) (*epd.Dev, error) {
	speed, err := cfg.Speed()
	if err != nil {
		return nil, err
	}
	if speed != 0 {
		if err := p.LimitSpeed(speed); err != nil {
			return nil, err
		}
	}
	dc, err := pinByName(cfg.Pins.DC)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("dc pin is required")
	}
	cs, err := pinByName(cfg.Pins.CS)
	if err != nil {
		return nil, err
	}
	rst, err := pinByName(cfg.Pins.RST)
	if err != nil {
		return nil, err
	}
	busy, err := pinByName(cfg.Pins.BUSY)
	if err != nil {
		return nil, err
	}
	return epd.New(p, dc, cs, rst, busy, panel)
}

// pinByName returns nil for an empty name.
func pinByName(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return p, nil
}

type command struct {
	dev   *epd.Dev
	cfg   *config.Config
	flags *flags
}

func (c *command) run(name string, args []string) error {
	switch name {
	case "clear":
		return c.dev.ClearScreen(0xFF)
	case "image":
		if len(args) != 1 {
			return errors.New("image: expected one file")
		}
		return c.image(args[0])
	case "text":
		if len(args) == 0 {
			return errors.New("text: expected a string")
		}
		return c.text(strings.Join(args, " "))
	case "grey":
		return c.dev.DrawGreyLevels()
	case "clock":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return c.clock(ctx)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// show dithers img and draws it with the configured number of levels.
func (c *command) show(img image.Image) error {
	b := c.dev.Bounds()
	if c.flags.grey {
		return c.dev.DrawGrey(b, quantize(img, true), image.Point{})
	}
	return c.dev.Draw(b, quantize(img, false), image.Point{})
}

func (c *command) image(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Debug("decoded", "path", path, "format", format, "bounds", img.Bounds())
	b := c.dev.Bounds()
	return c.show(fit(img, b.Dx(), b.Dy(), c.flags.rotate))
}

func (c *command) text(s string) error {
	b := c.dev.Bounds()
	face, err := textFace(float64(b.Dy()) / 6)
	if err != nil {
		return err
	}
	return c.show(renderText(s, face, b.Dx(), b.Dy(), c.flags.rotate))
}

// clock shows the time with partial updates and periodic full refreshes
// until ctx is done.
func (c *command) clock(ctx context.Context) error {
	b := c.dev.Bounds()
	face, err := clockFace(float64(b.Dy()) / 3)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	var lastErr error
	tick := func() {
		mu.Lock()
		defer mu.Unlock()
		now := time.Now().Format(c.cfg.Clock.Format)
		img := renderText(now, face, b.Dx(), b.Dy(), c.flags.rotate)
		if err := c.dev.Draw(b, img, image.Point{}); err != nil {
			log.Error("clock update", err, "time", now)
			lastErr = err
		}
	}
	full := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := c.dev.Refresh(false); err != nil {
			log.Error("clock full refresh", err)
			lastErr = err
		}
	}

	if err := c.dev.ClearScreen(0xFF); err != nil {
		return err
	}
	tick()

	cr := cron.New()
	if _, err := cr.AddFunc(c.cfg.Clock.Partial, tick); err != nil {
		return fmt.Errorf("clock partial %q: %w", c.cfg.Clock.Partial, err)
	}
	if _, err := cr.AddFunc(c.cfg.Clock.Full, full); err != nil {
		return fmt.Errorf("clock full %q: %w", c.cfg.Clock.Full, err)
	}
	cr.Start()
	log.Info("clock started", "partial", c.cfg.Clock.Partial, "full", c.cfg.Clock.Full)

	<-ctx.Done()
	<-cr.Stop().Done()
	log.Info("clock stopped")

	mu.Lock()
	defer mu.Unlock()
	return lastErr
}
