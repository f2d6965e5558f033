// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goschtalt/goschtalt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schmidtw/sdlogger/httpserver"
	"github.com/schmidtw/sdlogger/logstore"
	"github.com/schmidtw/sdlogger/meter"
	"github.com/schmidtw/sdlogger/metrics"
	"github.com/schmidtw/sdlogger/record"
	"github.com/schmidtw/sdlogger/sampler"
	"github.com/schmidtw/sdlogger/sensors"
	"github.com/schmidtw/sdlogger/session"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var errSamplingFailed = errors.New("sampling failed")

// RunCmd samples until stopped, the configured tick count is reached or the
// log file can no longer be written.
type RunCmd struct {
	Ticks int `optional:"" short:"n" help:"Stop after this many ticks, overriding the configuration."`
}

func (r *RunCmd) Run(cli *CLI) error {
	app := fx.New(runOptions(cli, r))
	if err := app.Err(); err != nil {
		return err
	}

	// Register before starting so a shutdown from the driver is never missed.
	wait := app.Wait()

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	sig := <-wait

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		return err
	}

	if sig.ExitCode != 0 {
		return fmt.Errorf("%w: exit code %d", errSamplingFailed, sig.ExitCode)
	}
	return nil
}

func runOptions(cli *CLI, cmd *RunCmd) fx.Option {
	return fx.Options(
		fx.Supply(cli, cmd),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Provide(
			newConfig,
			goschtalt.UnmarshalFunc[sallust.Config]("logging"),
			goschtalt.UnmarshalFunc[Storage]("storage"),
			goschtalt.UnmarshalFunc[sampler.Config]("sampling"),
			goschtalt.UnmarshalFunc[[]sensors.Config]("sensors", goschtalt.Optional()),
			goschtalt.UnmarshalFunc[Metrics]("metrics"),
			goschtalt.UnmarshalFunc[httpserver.Config]("server"),
			provideLogger,
			provideMetrics,
			provideSession,
			provideSensors,
			provideMeter,
			provideDriver,
			provideRoutes,
		),
		fx.Invoke(
			httpserver.Start,
			startDriver,
		),
	)
}

func provideLogger(cli *CLI, cfg sallust.Config) (*zap.Logger, error) {
	if cli.Debug {
		cfg.Level = "debug"
		cfg.Development = true
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = "capitalColor"
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	return cfg.Build()
}

func provideMetrics(cfg Metrics) (*metrics.Metrics, *prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(cfg.Namespace)
	if err := m.Register(reg); err != nil {
		return nil, nil, err
	}
	return m, reg, nil
}

func provideSession(lc fx.Lifecycle, cfg Storage, log *zap.Logger) (*session.Session, error) {
	format, err := record.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	vol := cfg.volume()

	store, err := logstore.New(vol,
		logstore.Config{
			Allocation: cfg.Allocation,
			MaxSuffix:  cfg.MaxSuffix,
		},
		logstore.WithLogger(log))
	if err != nil {
		return nil, err
	}

	f, err := store.Open(cfg.Prefix, format)
	if err != nil {
		return nil, err
	}

	// A reused file already holds records from an earlier run.
	size, err := f.Size()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: size of '%s': %v", logstore.ErrStorageUnavailable, f.Name(), err)
	}

	s, err := session.New(f, format,
		session.WithLogger(log),
		session.WithOffset(size))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return s.Close()
		},
	})

	return s, nil
}

func provideSensors(lc fx.Lifecycle, cfgs []sensors.Config) (*sensors.Set, error) {
	set, err := sensors.Build(cfgs)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return set.Close()
		},
	})

	return set, nil
}

func provideMeter() (*meter.Meter, error) {
	return meter.New("log", meter.Config{})
}

type driverIn struct {
	fx.In

	Config  sampler.Config
	Cmd     *RunCmd
	Session *session.Session
	Sensors *sensors.Set
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Meter   *meter.Meter
}

func provideDriver(in driverIn) (*sampler.Driver, error) {
	cfg := in.Config
	if in.Cmd.Ticks > 0 {
		cfg.Ticks = in.Cmd.Ticks
	}

	return sampler.New(cfg, in.Session, in.Sensors.Sensors(),
		sampler.WithLogger(in.Logger),
		sampler.WithMetrics(in.Metrics),
		sampler.WithMeter(in.Meter),
	)
}

func provideRoutes(cfg Metrics, reg *prometheus.Registry, s *session.Session, m *meter.Meter) map[string]http.Handler {
	routes := make(map[string]http.Handler, 2)

	if cfg.Path != "" {
		routes[cfg.Path] = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			Registry: reg,
		})
	}
	if cfg.StatusPath != "" {
		routes[cfg.StatusPath] = &statusHandler{
			name:   s.Name(),
			format: s.Format(),
			meter:  m,
		}
	}

	return routes
}

// startDriver runs the sampling loop for the life of the application.  The
// loop ending on its own shuts the application down; a failed append makes
// the exit code non-zero.
func startDriver(lc fx.Lifecycle, sh fx.Shutdowner, d *sampler.Driver, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := d.Begin(); err != nil {
				cancel()
				return err
			}

			go func() {
				defer close(done)

				err := d.Run(ctx)
				switch {
				case err == nil:
					log.Info("sampling complete", zap.Int64("total", d.Total()))
					_ = sh.Shutdown()
				case errors.Is(err, context.Canceled):
					log.Info("sampling stopped", zap.Int64("total", d.Total()))
				default:
					log.Error("sampling failed", zap.Int64("total", d.Total()), zap.Error(err))
					_ = sh.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
