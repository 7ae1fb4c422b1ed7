// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epd controls Good Display e-paper panels driven by UC8151, UC8179
// and SSD1677 controllers.
//
// One driver serves every panel. A Panel descriptor carries the command
// sequences, waveform tables and quirks of a panel and its controller, and
// the driver tracks the refresh mode: full, fast (differential) and four
// level grey.
//
// The controllers keep two image planes. The current plane holds the new
// image and the previous plane the image shown before it; a fast refresh
// only drives the pixels that differ.
package epd
