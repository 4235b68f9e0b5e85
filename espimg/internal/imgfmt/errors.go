// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package imgfmt

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDefaultBootloader = errors.New("no bootloader provided and the chip has no default one")
	ErrInvalidBootloader        = errors.New("invalid bootloader")
	ErrInvalidMcuBootBinary     = errors.New("invalid MCUboot binary")
)

type Error struct {
	Op  string
	Err error
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return "imgfmt: " + e.Op + ": " + e.Err.Error()
}

func wrapErr(op string, err *error) {
	if *err != nil {
		*err = &Error{op, *err}
	}
}

// MagicError reports a magic value that doesn't match the expected one.
// Got is shorter than Want if the data ends before the magic does.
type MagicError struct {
	Offset int
	Want   []byte
	Got    []byte
}

func (e *MagicError) Error() string {
	if len(e.Got) < len(e.Want) {
		return fmt.Sprintf(
			"data too short for magic at offset %d: need %d bytes",
			e.Offset, e.Offset+len(e.Want),
		)
	}
	return fmt.Sprintf(
		"bad magic at offset %d: got % x, want % x", e.Offset, e.Got, e.Want,
	)
}
