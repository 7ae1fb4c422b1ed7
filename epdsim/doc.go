// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdsim simulates an e-paper controller in memory and renders the
// result to a terminal.
//
// Useful while the panel is still in the mail, and to check the byte stream
// the epd driver produces.
package epdsim
