// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Manifest describes the segments of an image. It lets the flashing tools
// and OTA clients verify what they write.
type Manifest struct {
	ImageID  string            `json:"image_id"`
	Chip     string            `json:"chip"`
	ChipID   uint16            `json:"chip_id"`
	Mode     string            `json:"mode"`
	Segments []ManifestSegment `json:"segments"`
}

type ManifestSegment struct {
	Address string `json:"address"`
	Size    int    `json:"size"`
	SHA256  string `json:"sha256"`
}

// NewManifest describes the flash (or OTA if ota is true) view of img.
func NewManifest(img imgfmt.ImageFormat, ota bool) Manifest {
	p := img.Params()
	m := Manifest{
		ImageID: uuid.NewString(),
		Chip:    p.Name,
		ChipID:  p.ChipID,
		Mode:    "flash",
	}
	if ota {
		m.Mode = "ota"
	}
	for s := range imgfmt.Segments(img, ota) {
		sum := sha256.Sum256(s.Data)
		m.Segments = append(m.Segments, ManifestSegment{
			Address: fmt.Sprintf("%#x", s.Addr),
			Size:    len(s.Data),
			SHA256:  hex.EncodeToString(sum[:]),
		})
	}
	return m
}

func WriteManifest(w io.Writer, m Manifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}
