/*
 * avrdude-core - explicit session context (spec §5, §9).
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

// Package engine is the generic read/write/verify device I/O engine
// (spec §4.3-4.5) that drives a programmer.Backend against a part.Part.
// It is single-threaded and cooperative (spec §5): no operation here
// spawns a goroutine, and a Session is an ordinary value passed through
// the call chain rather than a package-global context.
package engine

import (
	"errors"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
	"github.com/rcornwell/avrdude-core/programmer/led"
	"github.com/rcornwell/avrdude-core/progress"
)

// Error taxonomy, spec §7. Kinds, not concrete types: every operation
// wraps one of these with errors.Is-compatible context.
var (
	ErrSetup             = errors.New("engine: setup error")
	ErrTransport         = errors.New("engine: transport error")
	ErrProtocolMismatch  = errors.New("engine: protocol mismatch")
	ErrDeviceFailure     = errors.New("engine: device reported failure")
	ErrSoftFail          = errors.New("engine: soft failure")
	ErrNotSupported      = errors.New("engine: operation not supported by programmer")
	ErrBootloaderOverlap = errors.New("engine: write refused, overlaps bootloader")
)

// Session is the explicit per-run context the spec's design notes ask for
// in place of a global mutable cx: the part/programmer pair plus the
// knobs that affect engine behaviour for this run.
type Session struct {
	Part *part.Part
	Prog *programmer.Handle

	AutoErase bool
	Verbose   int

	// OnProgress receives progress updates for the current operation, or
	// nil to discard them.
	OnProgress progress.Callback
}

func (s *Session) report(header string) *progress.Report {
	return progress.New(header, s.OnProgress)
}

func (s *Session) ledErr()      { s.Prog.LEDs.Set(led.ERR) }
func (s *Session) ledSet(w led.Which) { s.Prog.LEDs.Set(w) }
func (s *Session) ledClr(w led.Which) { s.Prog.LEDs.Clr(w) }
