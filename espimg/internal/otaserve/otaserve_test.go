// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package otaserve

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/embeddedgo/esptools/espimg/internal/chip"
	"github.com/embeddedgo/esptools/espimg/internal/firmware"
	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/output"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
)

func testApp() []byte {
	b := make([]byte, 64)
	copy(b[32:], []byte{0xd3, 0x37, 0xe6, 0xac})
	b[63] = 0x42
	return b
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	p, err := chip.Lookup("esp32c3")
	if err != nil {
		t.Fatal(err)
	}
	boot := []byte{0xe9, 1, 2, 0x20, 0, 0, 0x38, 0x40}
	img, err := imgfmt.NewEsp32McuBootFormat(
		firmware.Sections{{Paddr: 0, Data: testApp()}}, p, boot,
	)
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(img, logger.Discard())
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	s.Register(e)
	return e
}

func get(e *echo.Echo, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestManifest(t *testing.T) {
	t.Parallel()
	rec := get(newTestEcho(t), "/ota/manifest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var m output.Manifest
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Mode != "ota" || m.Chip != "esp32c3" || len(m.Segments) != 1 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if m.Segments[0].Address != "0x10000" || m.Segments[0].Size != 64 {
		t.Errorf("segment %+v", m.Segments[0])
	}
}

func TestImage(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t)
	rec := get(e, "/ota/image", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), testApp()) {
		t.Errorf("image body %x", rec.Body.Bytes())
	}
	if got := rec.Header().Get(HeaderFlashAddress); got != "0x10000" {
		t.Errorf("%s = %q", HeaderFlashAddress, got)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("no ETag")
	}

	rec = get(e, "/ota/image", map[string]string{"If-None-Match": etag})
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Errorf("conditional request: status %d, %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	rec := get(newTestEcho(t), "/ota/bootloader", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}
