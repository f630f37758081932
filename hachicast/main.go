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

// Package main implements hachicast, a CHIP-8 interpreter that publishes its
// screen, keys and sound state to a multicast group.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	_ "github.com/Francesco149/hachicast/drivers"
	"github.com/Francesco149/hachicast/hachi"
	"github.com/Francesco149/hachicast/internal/cli"
	"github.com/Francesco149/hachicast/internal/config"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Exit codes.
const (
	exitOK = iota
	exitUsage
	exitFailure
)

func main() {
	opts, err := cli.ParseFlags(os.Args[1:])
	if err != nil {
		printBanner()
		fmt.Println(err)
		var usage *cli.UsageError
		if errors.As(err, &usage) {
			usage.ShowUsage(os.Stdout)
		}
		os.Exit(exitUsage)
	}

	if !opts.Quiet {
		printBanner()
	}
	logger := config.CreateLogger(opts.Debug, opts.Quiet)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, logger, opts)
	stop()
	os.Exit(code)
}

func printBanner() {
	fmt.Println("[-----------------------------------]")
	fmt.Println("[ hachicast - CHIP-8 interpreter    ]")
	fmt.Printf("[-----------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}

func run(ctx context.Context, logger *log.Logger, opts cli.Options) int {
	// the program is checked first so that a bad file is reported as such
	// even when the driver can't be opened
	program, err := readProgram(opts.Input)
	if err != nil {
		logger.Error("Loading program failed", err)
		return exitUsage
	}

	if opts.Disasm {
		if err := printDisassembly(os.Stdout, program); err != nil {
			logger.Error("Printing disassembly failed", err)
			return exitFailure
		}
		return exitOK
	}

	driver, err := hachi.OpenDriver(opts.Driver, opts.Params)
	if err != nil {
		logger.Error("Opening driver failed", err)
		return exitFailure
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Error("Closing driver failed", err)
		}
	}()

	ha, err := hachi.New(logger, driver, &opts.Settings)
	if err != nil {
		logger.Error("Initializing emulator failed", err)
		return exitFailure
	}
	if err := ha.LoadRaw(program); err != nil {
		logger.Error("Loading program failed", err)
		return exitUsage
	}
	logger.Info("Loaded program", log.String("path", opts.Input),
		log.Int("bytes", len(program)))

	return exitCode(logger, ha, ha.Run(ctx))
}

// readProgram reads a program file and checks that it fits in memory.
func readProgram(path string) ([]byte, error) {
	program, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program '%s': %w", path, err)
	}
	if len(program) > hachi.MemorySize-hachi.ProgramStart {
		return nil, &hachi.OutOfMemoryErr{ProgramSize: int64(len(program))}
	}
	return program, nil
}

// exitCode maps the error that stopped the emulator to the process exit
// code.
func exitCode(logger *log.Logger, ha *hachi.Chip8, err error) int {
	var badCode *hachi.BadCodeErr
	switch {
	case errors.Is(err, hachi.ErrHalted):
		return exitOK
	case errors.Is(err, context.Canceled):
		logger.Info("Interrupted")
		return exitOK
	case errors.As(err, &badCode):
		logger.Error("Decoding instruction failed", err,
			log.String("instruction", hachi.Decode(badCode.Opcode).String()),
			log.String("state", ha.String()))
		return exitFailure
	default:
		logger.Error("Emulation failed", err,
			log.String("state", ha.String()))
		return exitFailure
	}
}

func printDisassembly(out io.Writer, program []byte) error {
	w := tabwriter.NewWriter(out, 8, 8, 0, '\t', 0)
	fmt.Fprintln(w, "addr\topcode\tpseudo-code\tascii\tdescription\t")

	address := hachi.ProgramStart
	for _, i := range hachi.DisassembleSimple(program) {
		asciitext := ""
		if ascii := i.ASCII(); len(ascii) != 0 {
			asciitext = fmt.Sprintf("`%s`", ascii)
		}

		opcodeFormatter := "%04X"
		if i.Size() == 1 {
			opcodeFormatter = "%02X"
		}

		fmt.Fprintf(w, "%03X\t"+opcodeFormatter+"\t%v\t%s\t%s\n",
			address, i.Opcode(), i, asciitext, i.Description)

		address += i.Size()
	}
	return w.Flush()
}
