/*
 * avrdude-core - programmer capability abstraction (spec §3 PROGRAMMER, §9).
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

// Package programmer models the uniform capability-based interface the
// engine drives every back-end through. The source models this as a
// struct of optional function pointers; we use a capability-set
// interface instead; a concrete back-end only implements the methods it
// actually supports and advertises the rest through Supports, the same
// way the teacher's Device interface keeps every device method
// mandatory but callers probe behaviour through explicit flags on the
// device struct rather than nil function pointers.
package programmer

import (
	"context"
	"errors"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer/led"
)

// Capability names one of the optional operations a back-end may support.
type Capability int

const (
	CapPagedWrite Capability = iota
	CapPagedLoad
	CapPageErase
	CapWriteSetup
	CapWriteByte
	CapReadByte
	CapReadSigBytes
	CapReadSIB
	CapSPI
	CapCmd
	CapCmdTPI
	CapFlashReadHook
	CapReadOnly
	CapParseExtParams
	CapChipErase
	CapProgramEnable
	CapUnlock
)

var ErrUnsupported = errors.New("programmer: capability not supported")

// ConnType enumerates the physical link a Backend rides on.
type ConnType int

const (
	ConnParallel ConnType = iota
	ConnSerial
	ConnUSB
	ConnSPI
	ConnLinuxGPIO
)

// Backend is the capability-set every concrete programmer implements.
// Open/Close/Enable/Disable/Initialize are mandatory; everything else is
// optional and probed with Supports before being invoked.
type Backend interface {
	ID() string
	Description() string
	Modes() part.Mode
	ConnType() ConnType

	Supports(Capability) bool

	Open(ctx context.Context, port string) error
	Close() error
	Enable() error
	Disable() error
	Initialize(ctx context.Context, p *part.Part) error
	Powerup() error
	Powerdown() error

	// Optional operations. A Backend that does not support one of these
	// still implements the method (returning ErrUnsupported) to satisfy
	// the interface; Supports is the contract callers must consult
	// first, the method return value is the enforcement.
	ProgramEnable(p *part.Part) error
	ChipErase(p *part.Part) error
	Unlock(p *part.Part) error

	Cmd(cmd *[4]byte) (*[4]byte, error)
	CmdTPI(out []byte, inLen int) ([]byte, error)
	SPI(out []byte) ([]byte, error)

	PagedWrite(m *part.Mem, page int, data []byte) error
	PagedLoad(m *part.Mem, page int, into []byte) error
	PageErase(m *part.Mem, page int) error

	WriteSetup(m *part.Mem) error
	WriteByte(p *part.Part, m *part.Mem, addr int, data byte) error
	ReadByte(p *part.Part, m *part.Mem, addr int) (byte, error)
	ReadSigBytes(p *part.Part) ([3]byte, error)
	ReadSIB(p *part.Part) ([]byte, error)

	ReadOnly(p *part.Part, m *part.Mem, addr int) bool

	ParseExtParams(params []string) error

	// FlashReadHook lets a back-end post-process a freshly read flash
	// buffer (e.g. to mask out its own resident bootloader) before the
	// engine reports it to the caller.
	FlashReadHook(m *part.Mem)
}

// Handle ties a Backend to the session-owned value object the spec calls
// PROGRAMMER: identifiers, pin assignments, timing knobs, LED state and a
// per-instance cookie-free backend (spec §9: "avoid the void-pointer
// cookie by parameterising the programmer type on its back-end state").
type Handle struct {
	Backend Backend

	IDs         []string
	Description string
	Modes       part.Mode
	Conn        ConnType

	Pins     map[string]Pin
	BaudRate int
	BitClock int // Hz
	ISPDelay int // microseconds

	LEDs *led.State
}

// Pin is a semantic-pin-to-physical-pin assignment with optional invert.
type Pin struct {
	Physical int
	Invert   bool
}

// NewHandle wires a Backend into a fresh session Handle with its own LED
// state, ready for Open/Initialize.
func NewHandle(b Backend) *Handle {
	return &Handle{
		Backend: b,
		IDs:     []string{b.ID()},
		Modes:   b.Modes(),
		Conn:    b.ConnType(),
		Pins:    map[string]Pin{},
		LEDs:    led.New(),
	}
}
