// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/xmidt-org/arrange/arrangetls"
	"github.com/xmidt-org/httpaux"
	serveraux "github.com/xmidt-org/httpaux/server"
)

var errNoRoutes = errors.New("no routes")

// Config describes the diagnostics listener.  An empty Address disables it.
type Config struct {
	// Address corresponds to http.Server.Addr
	Address string

	// ReadTimeout corresponds to http.Server.ReadTimeout
	ReadTimeout time.Duration

	// ReadHeaderTimeout corresponds to http.Server.ReadHeaderTimeout
	ReadHeaderTimeout time.Duration

	// WriteTimeout corresponds to http.Server.WriteTimeout
	WriteTimeout time.Duration

	// IdleTimeout corresponds to http.Server.IdleTimeout
	IdleTimeout time.Duration

	// MaxHeaderBytes corresponds to http.Server.MaxHeaderBytes
	MaxHeaderBytes int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.
	KeepAlive time.Duration

	// Headers are emitted on every response from this server.
	Headers http.Header

	// TLS is the optional TLS configuration.  If set, the server uses HTTPS.
	TLS *arrangetls.Config
}

// Enabled reports if the listener should be started.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Server builds the http.Server serving each route at its path.
func (c Config) Server(routes map[string]http.Handler) (*http.Server, error) {
	if len(routes) == 0 {
		return nil, errNoRoutes
	}

	headers := httpaux.NewHeader(c.Headers)
	decorate := serveraux.Header(headers.SetTo)

	paths := make([]string, 0, len(routes))
	for path := range routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	mux := http.NewServeMux()
	for _, path := range paths {
		mux.Handle(path, decorate(routes[path]))
	}

	tlsCfg, err := c.TLS.New()
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              c.Address,
		Handler:           mux,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
		MaxHeaderBytes:    c.MaxHeaderBytes,
		TLSConfig:         tlsCfg,
	}, nil
}
