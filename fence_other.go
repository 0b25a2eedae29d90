// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !linux

package surface

import "time"

func newEventFD() (int, error) { return -1, ErrFenceUnsupported }
func signalFD(int) error       { return ErrFenceUnsupported }
func dupFD(int) (int, error)   { return -1, ErrFenceUnsupported }
func closeFD(int) error        { return ErrFenceUnsupported }

func pollReadable(int, time.Duration) (bool, error) {
	return false, ErrFenceUnsupported
}
