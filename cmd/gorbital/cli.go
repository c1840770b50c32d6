/*
 * cmd/gorbital/cli.go, part of gorbital.
 *
 * Copyright 2026 The gorbital authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	orb "github.com/rmera/gorbital"
	"github.com/rmera/gorbital/formats"
)

// ExitError is an error with the exit code the program should return.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// global holds what the global flags set up.
type global struct {
	cfg       orb.Config
	log       *slog.Logger
	companion string
}

// options returns the read options, reading the companion file if needed.
func (g *global) options() (formats.Options, error) {
	opt := formats.Options{Config: g.cfg, Logger: g.log}
	if g.companion != "" {
		c, err := formats.LoadWith(g.companion, opt)
		if err != nil {
			return opt, fmt.Errorf("companion %s: %w", g.companion, err)
		}
		opt.Companion = c
	}
	return opt, nil
}

func (g *global) load(path string) (*orb.Wavefunction, error) {
	opt, err := g.options()
	if err != nil {
		return nil, err
	}
	return formats.LoadWith(path, opt)
}

type command struct {
	name  string
	args  string
	help  string
	flags func(fs *flag.FlagSet) func(g *global, args []string, out io.Writer) error
}

// run parses the command's flags and executes it.
func (c *command) run(g *global, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fs.SetOutput(out)
	exec := c.flags(fs)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: gorbital [options] %s [flags] %s\n\n%s\n\n", c.name, c.args, c.help)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return &ExitError{Code: 2, Message: err.Error()}
	}
	want := len(strings.Fields(c.args))
	if fs.NArg() != want {
		fs.Usage()
		return usageError("%s takes %d arguments, got %d", c.name, want, fs.NArg())
	}
	return exec(g, fs.Args(), out)
}

var commands = map[string]*command{}

func register(c *command) {
	commands[c.name] = c
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s))
	return l, err
}

// parseGlobal processes the global flags and finds the command. A nil
// command with a nil error means that the program should just exit.
func parseGlobal(args []string, out, logW io.Writer) (*global, *command, []string, error) {
	fs := flag.NewFlagSet("gorbital", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, "gorbital - molecular orbital files and grids.\n\nUsage:\n  gorbital [options] COMMAND [flags] ARGS\n\nCommands:\n")
		names := make([]string, 0, len(commands))
		for n := range commands {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(out, "  %-9s %s\n", n, commands[n].help)
		}
		fmt.Fprint(out, "\nOptions:\n")
		fs.PrintDefaults()
	}
	config := fs.String("config", "", "TOML configuration file.")
	level := fs.String("log-level", "warn", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	format := fs.String("log-format", "text", "Log output format: 'text' or 'json'.")
	companion := fs.String("companion", "", "File with the basis set for files that lack it.")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, nil, nil
	}
	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		return nil, nil, nil, usageError("unknown command %q", fs.Arg(0))
	}
	l, err := parseLevel(*level)
	if err != nil {
		return nil, nil, nil, usageError("invalid log-level %q", *level)
	}
	hopt := &slog.HandlerOptions{Level: l}
	g := &global{cfg: orb.DefaultConfig(), companion: *companion}
	switch strings.ToLower(*format) {
	case "text":
		g.log = slog.New(slog.NewTextHandler(logW, hopt))
	case "json":
		g.log = slog.New(slog.NewJSONHandler(logW, hopt))
	default:
		return nil, nil, nil, usageError("invalid log-format %q: must be 'text' or 'json'", *format)
	}
	if *config != "" {
		if g.cfg, err = orb.LoadConfig(*config); err != nil {
			return nil, nil, nil, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	g.log.Debug("arguments parsed", "command", cmd.name, "config", *config)
	return g, cmd, fs.Args()[1:], nil
}
