/*
	Copyright 2015 Franc[e]sco (lolisamurai@tfwno.gf)
	This file is part of hachicast.
	hachicast is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.
	hachicast is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.
	You should have received a copy of the GNU General Public License
	along with hachicast. If not, see <http://www.gnu.org/licenses/>.
*/

// Package cli parses the command line of the hachicast command.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Francesco149/hachicast/drivers/multicast"
	"github.com/Francesco149/hachicast/hachi"
)

// Options holds everything the command line configures.
type Options struct {
	Input  string
	Driver string
	Params map[string]string

	Settings hachi.Settings

	Disasm bool
	Debug  bool
	Quiet  bool
}

// UsageError is returned when the command line can't be used. The caller
// should show the usage information.
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	if e.msg == "" {
		return "invalid usage"
	}
	return e.msg
}

// ShowUsage prints the usage information to w.
func (e *UsageError) ShowUsage(w io.Writer) {
	fmt.Fprintf(w, "usage: hachicast [options] <program>\n\n")
	e.flags.SetOutput(w)
	e.flags.PrintDefaults()
	fmt.Fprintf(w, "\ndrivers: %s\n", strings.Join(hachi.Drivers(), ", "))
}

// paramsFlag collects repeated -param key=value flags.
type paramsFlag map[string]string

func (p paramsFlag) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (p paramsFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got '%s'", s)
	}
	p[key] = value
	return nil
}

// ParseFlags parses args, which exclude the program name.
func ParseFlags(args []string) (Options, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	opts := Options{
		Params:   paramsFlag{},
		Settings: *hachi.DefaultSettings,
	}
	flags.StringVar(&opts.Driver, "driver", multicast.Name, "driver that receives screen updates")
	flags.Var(paramsFlag(opts.Params), "param", "driver parameter as key=value, can be repeated")
	flags.IntVar(&opts.Settings.InstructionsPerSecond, "ips", opts.Settings.InstructionsPerSecond, "instructions executed per second")
	flags.IntVar(&opts.Settings.TimerFrequency, "timer", opts.Settings.TimerFrequency, "timer decrement rate in Hz, 0 disables the timers")
	flags.IntVar(&opts.Settings.StackSize, "stack", opts.Settings.StackSize, "maximum call depth, 0 for no limit")
	flags.BoolVar(&opts.Settings.Trace, "trace", false, "log every executed instruction, implies -debug")
	flags.BoolVar(&opts.Disasm, "disasm", false, "print the disassembly of the program and exit")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debug logging")
	flags.BoolVar(&opts.Quiet, "q", false, "only log errors")

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}

	rest := flags.Args()
	switch {
	case len(rest) == 0:
		return opts, &UsageError{flags: flags, msg: "no program given"}
	case len(rest) > 1:
		return opts, &UsageError{flags: flags,
			msg: fmt.Sprintf("unexpected argument '%s' after the program, options go first", rest[1])}
	}
	opts.Input = rest[0]

	if opts.Settings.Trace {
		opts.Debug = true
	}
	if err := opts.Settings.Validate(); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}
