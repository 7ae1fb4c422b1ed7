// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the e-paper display packages.
//
// The driver lives in package epd, the controller simulator in epdsim and
// the 2-bit grey image type in image2bit. cmd/epd is a command line front end.
package epaper
