// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

const applicationName = "sdlogger"

// CLI is the command line of the logger.
type CLI struct {
	Debug bool     `optional:"" short:"d" help:"Log to the console at debug level."`
	Files []string `optional:"" short:"f" help:"Specific configuration files or directories."`

	Run    RunCmd    `cmd:"" default:"1" help:"Sample the sensors and append readings to the log file."`
	Dump   DumpCmd   `cmd:"" help:"Decode a log file and write it as CSV."`
	Config ConfigCmd `cmd:"" help:"Print the effective configuration."`
}

func newParser(cli *CLI, out io.Writer, opts ...kong.Option) (*kong.Kong, error) {
	opts = append([]kong.Option{
		kong.Name(applicationName),
		kong.Description("Samples environmental and motion sensors on a fixed interval and logs them to removable storage."),
		kong.UsageOnError(),
		kong.BindTo(out, (*io.Writer)(nil)),
	}, opts...)

	return kong.New(cli, opts...)
}

func sdlogger(args []string, out io.Writer, opts ...kong.Option) error {
	var cli CLI

	parser, err := newParser(&cli, out, opts...)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return ctx.Run(&cli)
}

func main() {
	if err := sdlogger(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", applicationName, err)
		os.Exit(1)
	}
}
