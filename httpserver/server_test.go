// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

func TestServer(t *testing.T) {
	tests := []struct {
		description string
		cfg         Config
		routes      map[string]http.Handler
		path        string
		expectBody  string
		expectErr   error
	}{
		{
			description: "routes and headers",
			cfg: Config{
				Address: "127.0.0.1:0",
				Headers: http.Header{"X-Logger": []string{"sdlogger"}},
			},
			routes: map[string]http.Handler{
				"/status": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					_, _ = io.WriteString(w, "ok")
				}),
			},
			path:       "/status",
			expectBody: "ok",
		}, {
			description: "no routes",
			cfg:         Config{Address: "127.0.0.1:0"},
			expectErr:   errNoRoutes,
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			srv, err := tc.cfg.Server(tc.routes)
			if tc.expectErr != nil {
				assert.ErrorIs(err, tc.expectErr)
				assert.Nil(srv)
				return
			}
			require.NoError(err)
			assert.Nil(srv.TLSConfig)

			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(http.StatusOK, rec.Code)
			assert.Equal(tc.expectBody, rec.Body.String())
			assert.Equal("sdlogger", rec.Header().Get("X-Logger"))
		})
	}
}

func TestStartLifecycle(t *testing.T) {
	assert := assert.New(t)

	lc := fxtest.NewLifecycle(t)
	routes := map[string]http.Handler{"/": http.NotFoundHandler()}

	assert.NoError(Start(lc, Config{}, routes, zaptest.NewLogger(t)))
	assert.NoError(Start(lc, Config{Address: "127.0.0.1:0"}, routes, zaptest.NewLogger(t)))

	assert.NoError(lc.Start(context.Background()))
	assert.NoError(lc.Stop(context.Background()))
}
