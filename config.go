// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goschtalt/goschtalt"
	_ "github.com/goschtalt/goschtalt/pkg/typical"
	_ "github.com/goschtalt/yaml-decoder"
	_ "github.com/goschtalt/yaml-encoder"
	"github.com/schmidtw/sdlogger/httpserver"
	"github.com/schmidtw/sdlogger/logstore"
	"github.com/schmidtw/sdlogger/sampler"
	"github.com/schmidtw/sdlogger/sensors"
	"github.com/schmidtw/sdlogger/units"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap/zapcore"
)

// Config is the whole configuration of the logger.
type Config struct {
	Logging  sallust.Config
	Storage  Storage
	Sampling sampler.Config
	Sensors  []sensors.Config
	Metrics  Metrics
	Server   httpserver.Config
}

// Storage describes where and how the log file is written.
type Storage struct {
	// Root is the directory the card is mounted at.
	Root string

	// Prefix is the log file name prefix; only the first 7 characters are
	// used.
	Prefix string

	// Format is "csv" or "binary".
	Format string

	// Allocation is "probe" or "reuse".
	Allocation string

	// MaxSuffix is the largest numeric suffix tried when probing.
	MaxSuffix int

	// Capacity optionally limits the bytes stored on the card, for example
	// "2GiB".
	Capacity units.ByteSize
}

// Metrics describes the diagnostics routes.
type Metrics struct {
	Namespace  string
	Path       string
	StatusPath string
}

var defaultConfig = Config{
	Logging: sallust.Config{
		Level:            "info",
		Encoding:         "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: sallust.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    "lowercase",
			EncodeTime:     "iso8601",
			EncodeDuration: "string",
			EncodeCaller:   "short",
		},
	},
	Storage: Storage{
		Root:       ".",
		Prefix:     "LOG",
		Format:     "csv",
		Allocation: "probe",
		MaxSuffix:  999,
	},
	Sampling: sampler.Config{
		Interval: sampler.DefaultInterval,
	},
	Metrics: Metrics{
		Namespace:  applicationName,
		Path:       "/metrics",
		StatusPath: "/status",
	},
	Server: httpserver.Config{
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       time.Minute,
	},
}

func newConfig(cli *CLI) (*goschtalt.Config, error) {
	opts := []goschtalt.Option{
		goschtalt.ConfigIs("two_words"),

		// Seed the program with the built-in configuration, marked as a
		// default so it is ordered before any files.
		goschtalt.AddValue("built-in", goschtalt.Root, defaultConfig,
			goschtalt.AsDefault()),
	}

	if len(cli.Files) == 0 {
		opts = append(opts, goschtalt.StdCfgLayout(applicationName))
	} else {
		files, err := fileOptions(cli.Files)
		if err != nil {
			return nil, fmt.Errorf("configuration: %w", err)
		}
		opts = append(opts, files...)
	}

	cfg, err := goschtalt.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	return cfg, nil
}

// fileOptions adds each -f path, file or directory, rooted at its own
// directory so absolute and relative paths both work.
func fileOptions(paths []string) ([]goschtalt.Option, error) {
	opts := make([]goschtalt.Option, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}

		fi, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}

		if fi.IsDir() {
			opts = append(opts, goschtalt.AddDir(os.DirFS(abs), "."))
			continue
		}
		opts = append(opts, goschtalt.AddFile(os.DirFS(filepath.Dir(abs)), filepath.Base(abs)))
	}
	return opts, nil
}

// ConfigCmd prints the configuration after all files are merged.
type ConfigCmd struct {
	Origins bool `optional:"" short:"o" help:"Include where each value came from."`
}

func (c *ConfigCmd) Run(cli *CLI, out io.Writer) error {
	cfg, err := newConfig(cli)
	if err != nil {
		return err
	}

	b, err := cfg.Marshal(
		goschtalt.FormatAs("yaml"),
		goschtalt.IncludeOrigins(c.Origins),
	)
	if err != nil {
		return err
	}

	_, err = out.Write(b)
	return err
}

// volume returns the directory backed volume described by the storage
// configuration.
func (s Storage) volume() *logstore.DirVolume {
	return &logstore.DirVolume{
		Root:     s.Root,
		Capacity: s.Capacity,
	}
}
