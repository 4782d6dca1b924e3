/*
 * avrdude-core - command-line front end for the device I/O core.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// avrdude-core is a thin driver over the engine/programmer/part core: it
// owns just enough of avrdude's -c/-p/-P/-U/-x surface to open a port or
// a set of GPIO pins, sync with the chosen back-end and run one read,
// write or verify operation. The config-file part/programmer catalogs,
// the interactive terminal, file-format parsing (ihex/elf) and the build
// plumbing around a real avrdude.conf are deliberately out of scope (spec
// §1 "Out of scope") - builtinParts is this core's only catalog. Two
// back-ends are wired in: urclock.Backend over a serial transport, and
// isp.Backend, which bit-bangs ISP or TPI directly over GPIO (spec §2
// "Bit-bang ISP", "TPI sub-protocol"); -c selects between them.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	getopt "github.com/pborman/getopt/v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/rcornwell/avrdude-core/bitbang"
	"github.com/rcornwell/avrdude-core/engine"
	"github.com/rcornwell/avrdude-core/isp"
	"github.com/rcornwell/avrdude-core/logger"
	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
	"github.com/rcornwell/avrdude-core/transport"
	"github.com/rcornwell/avrdude-core/urclock"
	"github.com/rcornwell/avrdude-core/xparam"
)

// memOp is one decoded -U memtype:op:filename argument.
type memOp struct {
	memType  string
	op       byte // 'r', 'w' or 'v'
	filename string
}

func parseMemOp(s string) (memOp, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return memOp{}, fmt.Errorf("-U %q: want memtype:r|w|v:filename", s)
	}
	op := parts[1]
	if len(op) != 1 || !strings.ContainsRune("rwv", rune(op[0])) {
		return memOp{}, fmt.Errorf("-U %q: operation must be r, w or v", s)
	}
	return memOp{memType: parts[0], op: op[0], filename: parts[2]}, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "avrdude-core:", err)
		os.Exit(1)
	}
}

func run() error {
	progType := getopt.StringLong("programmer-type", 'c', "urclock", "programmer type: urclock or isp-bitbang")
	partID := getopt.StringLong("part", 'p', "", "target part id (see -p list)")
	port := getopt.StringLong("port", 'P', "", "device port (e.g. /dev/ttyUSB0)")
	baud := getopt.IntLong("baud", 'b', 115200, "serial baud rate")
	uArgsP := getopt.ListLong("upload", 'U', "memtype:r|w|v:filename")
	xArgsP := getopt.ListLong("xparam", 'x', "extended programmer parameter")
	eraseFirst := getopt.BoolLong("erase", 'e', "chip erase before writing")
	verbose := getopt.CounterLong("verbose", 'v', "increase verbosity")
	logFile := getopt.StringLong("log", 'l', "", "log file (default stderr only)")
	sckName := getopt.StringLong("sck", 0, "", "isp-bitbang SCK GPIO pin name")
	sdiName := getopt.StringLong("sdi", 0, "", "isp-bitbang SDI GPIO pin name")
	sdoName := getopt.StringLong("sdo", 0, "", "isp-bitbang SDO GPIO pin name")
	resetName := getopt.StringLong("reset-pin", 0, "", "isp-bitbang reset GPIO pin name")
	ispFreq := getopt.IntLong("isp-freq", 0, 100000, "isp-bitbang clock frequency in Hz")
	help := getopt.BoolLong("help", 'h', "show this help")
	getopt.Parse()

	if *help {
		getopt.Usage()
		return nil
	}

	if *partID == "" {
		fmt.Println("Available parts:")
		for _, p := range builtinParts() {
			fmt.Printf("  %-12s %s\n", p.ShortID, p.ID)
		}
		return fmt.Errorf("-p is required")
	}
	if *port == "" && *progType != "isp-bitbang" {
		return fmt.Errorf("-P is required")
	}

	var logOut *os.File
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	level := slog.LevelWarn
	switch {
	case *verbose >= 2:
		level = slog.LevelDebug
	case *verbose == 1:
		level = slog.LevelInfo
	}
	h := logger.NewHandler(logOut, &slog.HandlerOptions{Level: level}, *verbose >= 2)
	slog.SetDefault(slog.New(h))

	p := findPart(*partID)
	if p == nil {
		return fmt.Errorf("unknown part %q", *partID)
	}

	ops := make([]memOp, 0, len(*uArgsP))
	for _, arg := range *uArgsP {
		mo, err := parseMemOp(arg)
		if err != nil {
			return err
		}
		ops = append(ops, mo)
	}

	knobs, err := xparam.ParseKnobs(*xArgsP)
	if err != nil {
		return fmt.Errorf("parsing -x: %w", err)
	}

	var backend programmer.Backend
	switch *progType {
	case "urclock":
		backend = urclock.NewBackend(&transport.Serial{}, p, knobs, *baud)
	case "isp-bitbang":
		pins, err := resolveBitBangPins(*sckName, *sdiName, *sdoName, *resetName)
		if err != nil {
			return err
		}
		backend = isp.NewBackend(pins, physic.Frequency(*ispFreq)*physic.Hertz)
	default:
		return fmt.Errorf("unknown -c %q (want urclock or isp-bitbang)", *progType)
	}
	handle := programmer.NewHandle(backend)
	handle.BaudRate = *baud

	ctx := context.Background()
	if err := backend.Open(ctx, *port); err != nil {
		return fmt.Errorf("opening %s: %w", *port, err)
	}
	defer backend.Close()

	slog.Info("connecting", "port", *port, "part", p.ShortID, "programmer", *progType)
	if err := backend.Initialize(ctx, p); err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	if ub, ok := backend.(*urclock.Backend); ok {
		slog.Info("synced", "mcuid", ub.Sess.MCUID, "bootstart", fmt.Sprintf("%#x", ub.Sess.BootStart))
	}

	sess := &engine.Session{
		Part:      p,
		Prog:      handle,
		AutoErase: *eraseFirst,
		Verbose:   *verbose,
		OnProgress: func(header string, percent int) {
			if *verbose > 0 {
				fmt.Fprintf(os.Stderr, "\r%s... %3d%%", header, percent)
				if percent >= 100 || percent < 0 {
					fmt.Fprintln(os.Stderr)
				}
			}
		},
	}

	if *eraseFirst {
		if err := backend.ChipErase(p); err != nil {
			return fmt.Errorf("chip erase: %w", err)
		}
	}

	for _, mo := range ops {
		if err := runOp(sess, mo); err != nil {
			return fmt.Errorf("-U %s:%c:%s: %w", mo.memType, mo.op, mo.filename, err)
		}
	}
	return nil
}

// resolveBitBangPins looks up the four named GPIO pins isp-bitbang needs
// through periph's global pin registry (populated by the host driver
// import in package bitbang).
func resolveBitBangPins(sck, sdi, sdo, reset string) (bitbang.Pins, error) {
	find := func(flag, name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, fmt.Errorf("isp-bitbang: -%s is required", flag)
		}
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("isp-bitbang: unknown GPIO pin %q for -%s", name, flag)
		}
		return pin, nil
	}
	sckPin, err := find("sck", sck)
	if err != nil {
		return bitbang.Pins{}, err
	}
	sdiPin, err := find("sdi", sdi)
	if err != nil {
		return bitbang.Pins{}, err
	}
	sdoPin, err := find("sdo", sdo)
	if err != nil {
		return bitbang.Pins{}, err
	}
	resetPin, err := find("reset-pin", reset)
	if err != nil {
		return bitbang.Pins{}, err
	}
	return bitbang.Pins{SCK: sckPin, SDI: sdiPin, SDO: sdoPin, Reset: resetPin}, nil
}

func findPart(id string) *part.Part {
	for _, p := range builtinParts() {
		if p.ShortID == id || p.ID == id {
			return p
		}
	}
	return nil
}

// runOp dispatches one decoded -U argument to the engine, loading or
// saving a flat binary image; ihex/elf readers are out of scope (spec §1
// "Out of scope" names file-format parsing as a caller concern).
func runOp(sess *engine.Session, mo memOp) error {
	m := sess.Part.FindMem(mo.memType)
	if m == nil {
		return fmt.Errorf("part %s has no %q memory", sess.Part.ShortID, mo.memType)
	}

	switch mo.op {
	case 'r':
		if _, err := sess.ReadMem(m, nil); err != nil {
			return err
		}
		sink := &engine.RawSink{}
		if err := sink.Save(m); err != nil {
			return err
		}
		return os.WriteFile(mo.filename, sink.Data, 0o644)

	case 'w':
		data, err := os.ReadFile(mo.filename)
		if err != nil {
			return err
		}
		src := engine.RawSource{Data: data}
		if err := src.Load(m); err != nil {
			return err
		}
		_, err = sess.WriteMem(m, len(data), sess.AutoErase)
		return err

	case 'v':
		data, err := os.ReadFile(mo.filename)
		if err != nil {
			return err
		}
		ref := part.NewMem(m.Desc, m.Type, m.Size, m.PageSize)
		if err := (engine.RawSource{Data: data}).Load(ref); err != nil {
			return err
		}
		if _, err := sess.ReadMem(m, nil); err != nil {
			return err
		}
		_, mismatches, err := sess.VerifyMem(m, ref, len(data))
		if err != nil {
			n := 0
			for _, mm := range mismatches {
				if mm.ReadOnly {
					continue
				}
				n++
				fmt.Fprintf(os.Stderr, "verify mismatch at %#06x: device=%#02x file=%#02x\n", mm.Addr, mm.Dev, mm.Ref)
			}
			return fmt.Errorf("%d verification mismatch(es): %w", n, err)
		}
		return nil
	}
	return fmt.Errorf("unreachable op %c", mo.op)
}
