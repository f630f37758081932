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

// Package main implements hachiview, a terminal display for the peripheral
// state published by hachicast.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Francesco149/hachicast/drivers/multicast"
	"github.com/Francesco149/hachicast/internal/config"
	"github.com/Francesco149/hachicast/viewer"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	group string
	iface string
	debug bool
	quiet bool
}

func main() {
	options := readArguments()

	if !options.quiet {
		fmt.Println("[-----------------------------------]")
		fmt.Println("[ hachiview - CHIP-8 screen viewer  ]")
		fmt.Printf("[-----------------------------------]\n\n")
		fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
	}

	// termloop owns the terminal, keep the log quiet unless asked for
	logger := config.CreateLogger(options.debug, !options.debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	messages, err := viewer.Listen(ctx, logger, options.group, options.iface)
	if err != nil {
		logger.Error("Listening failed", err)
		stop()
		os.Exit(1)
	}

	v := viewer.New(messages)
	v.Start()
	logger.Debug("Viewer closed", log.Int("frames", v.Received()),
		log.Int("dropped", v.Dropped()))
}

func readArguments() optionFlags {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.group, "group", multicast.DefaultGroup, "multicast group to listen on")
	flags.StringVar(&options.iface, "iface", "", "network interface to join the group on, system default if empty")
	flags.BoolVar(&options.debug, "debug", false, "enable debug logging")
	flags.BoolVar(&options.quiet, "q", false, "do not print the banner")

	if err := flags.Parse(os.Args[1:]); err != nil || flags.NArg() != 0 {
		fmt.Printf("usage: hachiview [options]\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}
	return options
}
