// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirName returns the last element of the path to the current working
// directory.
func DirName() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir = filepath.Base(dir)
	if dir == "/" || dir == "." {
		dir = ""
	}
	return dir
}

// InOutFiles infers the name of the input and output files from the name of the
// current working directory if the inName is an empty strings.
func InOutFiles(inName, inSuffix, outName, outSuffix string) (string, string) {
	if inName == "" {
		inName = DirName() + inSuffix
	}
	if outName == "" {
		base := inName
		if strings.IndexByte(base, ',') >= 0 || strings.IndexByte(filepath.Base(base), ':') >= 0 {
			// BIN:ADDR list, name the output after the first binary.
			base, _, _ = strings.Cut(base, ",")
			if i := strings.LastIndexByte(base, ':'); i > 0 {
				base = base[:i]
			}
		}
		outName = strings.TrimSuffix(base, filepath.Ext(base)) + outSuffix
	}
	return inName, outName
}

// ParseByte parses a decimal, octal (0o) or hexadecimal (0x) byte value.
func ParseByte(s string) (byte, error) {
	u, err := strconv.ParseUint(s, 0, 8)
	return byte(u), err
}
