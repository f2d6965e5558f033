// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Start attaches the diagnostics server to the fx lifecycle.  Nothing is
// started when the configuration is disabled.
func Start(lc fx.Lifecycle, cfg Config, routes map[string]http.Handler, log *zap.Logger) error {
	if !cfg.Enabled() {
		log.Info("diagnostics server disabled")
		return nil
	}

	srv, err := cfg.Server(routes)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lc := net.ListenConfig{
				KeepAlive: cfg.KeepAlive,
			}
			ln, err := lc.Listen(ctx, "tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting diagnostics server", zap.String("addr", srv.Addr))
			go func() {
				var err error
				if srv.TLSConfig != nil {
					err = srv.ServeTLS(ln, "", "")
				} else {
					err = srv.Serve(ln)
				}
				if err != nil && err != http.ErrServerClosed {
					log.Error("diagnostics server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping diagnostics server", zap.String("addr", srv.Addr))
			return srv.Shutdown(ctx)
		},
	})

	return nil
}
