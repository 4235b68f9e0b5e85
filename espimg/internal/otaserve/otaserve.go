// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package otaserve serves the OTA view of an image over HTTP so devices can
// pull updates.
package otaserve

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/embeddedgo/esptools/espimg/internal/imgfmt"
	"github.com/embeddedgo/esptools/espimg/internal/logger"
	"github.com/embeddedgo/esptools/espimg/internal/output"
	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

const (
	HeaderFlashAddress = "X-Flash-Address"
	mimeOctetStream    = "application/octet-stream"
)

// Server holds the OTA image and its manifest. It is read-only after New.
type Server struct {
	manifest []byte
	image    []byte
	addr     uint32
	etag     string
	log      logger.Logger
}

// New prepares img for serving. The OTA view must consist of a single
// segment.
func New(img imgfmt.ImageFormat, log logger.Logger) (*Server, error) {
	m := output.NewManifest(img, true)
	if len(m.Segments) != 1 {
		return nil, fmt.Errorf("otaserve: want one OTA segment, got %d", len(m.Segments))
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := output.Flatten(&buf, img.OTASegments(), 0xff); err != nil {
		return nil, err
	}
	s := &Server{
		manifest: mb,
		image:    buf.Bytes(),
		etag:     `"` + m.Segments[0].SHA256 + `"`,
		log:      log,
	}
	for seg := range img.OTASegments() {
		s.addr = seg.Addr
	}
	return s, nil
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/ota/manifest", s.handleManifest)
	e.GET("/ota/image", s.handleImage)
}

func (s *Server) handleManifest(c *echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, s.manifest)
}

func (s *Server) handleImage(c *echo.Context) error {
	h := c.Response().Header()
	h.Set("ETag", s.etag)
	h.Set(HeaderFlashAddress, fmt.Sprintf("%#x", s.addr))
	if c.Request().Header.Get("If-None-Match") == s.etag {
		return c.NoContent(http.StatusNotModified)
	}
	s.log.Info(
		"serving OTA image",
		"remote", c.Request().RemoteAddr, "addr", s.addr, "size", len(s.image),
	)
	return c.Blob(http.StatusOK, mimeOctetStream, s.image)
}

// Serve serves s on addr until ctx is done.
func Serve(ctx context.Context, addr string, s *Server) error {
	e := echo.New()
	e.Use(middleware.Recover())
	s.Register(e)
	s.log.Info("starting OTA server", "address", addr)
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = 10 * time.Second
			return nil
		},
	}
	return sc.Start(ctx, e)
}
