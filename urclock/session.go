/*
 * avrdude-core - Urclock session state (spec §3 "Urclock state").
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

package urclock

import (
	"errors"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/transport"
	"github.com/rcornwell/avrdude-core/xparam"
)

var (
	ErrSyncFailed        = errors.New("urclock: failed to synchronise with bootloader")
	ErrFramingError      = errors.New("urclock: response framing error")
	ErrNotInSync         = errors.New("urclock: command issued before sync")
	ErrBootloaderOverlap = errors.New("urclock: write refused, overlaps bootloader")
	ErrNeedBootSize      = errors.New("urclock: bootloader does not advertise READ_FLASH; -xbootsize= required")
)

// Features is the 5-bit capability flag set a bootloader conveys through
// its choice of sync bytes (spec §4.6 "5 bits are capability flags").
type Features struct {
	Urprotocol bool
	ChipErase  bool
	FlashRead  bool
	EEPROMRW   bool
	NorFlash   bool
}

// Metadata is the optional trailer below the bootloader (spec §4.6).
type Metadata struct {
	Filename   string
	Year       int
	Month      int
	Day        int
	Hour       int
	Minute     int
	StoreStart int
	StoreSize  int
	MCode      byte // 0xff=none, 0=no-date, 1=date-only, 2..254=filename length incl nul.
}

// Session is the Urclock back-end's session-long state (spec §3). It is
// an explicit value owned by one urclock.Backend instance, never a
// package global, matching the engine.Session design (spec §9).
type Session struct {
	Transport transport.Transport

	// Sync bytes learnt from the bootloader, and the features/mcuid they
	// encode. Zero until Sync succeeds.
	Insync byte
	OK     byte
	Synced bool
	MCUID  int
	Features Features

	Part *part.Part

	// extAddr caches the last universal LOAD_ADDRESS extended-address
	// byte sent under STK500v1-compat addressing, so a run of addresses
	// within the same 64K bank doesn't resend it (spec §4.6 addressing).
	extAddr    byte
	haveExtAddr bool

	// Vector-bootloader geometry, discovered or user-supplied.
	VectorNum  int
	HasVector  bool
	BootStart  int
	HasBootStart bool

	// EmulateCE is set when the bootloader lacks CHIP_ERASE; the next
	// flash write marks the whole application region allocated so the
	// engine writes 0xff across it (spec §4.6 "chip erase emulation").
	EmulateCE bool
	doneCE    bool

	Meta Metadata

	Knobs xparam.Knobs
}

// NewSession returns a Session ready for Sync, wired to the given
// transport and target part.
func NewSession(t transport.Transport, p *part.Part, k xparam.Knobs) *Session {
	s := &Session{Transport: t, Part: p, Knobs: k}
	if k.HasVectorNum {
		s.VectorNum, s.HasVector = k.VectorNum, true
	}
	if k.HasBootSize && p != nil && p.Flash() != nil {
		s.BootStart = p.Flash().Size - k.BootSize
		s.HasBootStart = true
	}
	return s
}

// addrIs16Bit reports whether urprotocol byte addresses fit in 16 bits
// for this part's flash (spec §4.6 addressing: "16-bit if flash ≤ 64 KiB
// else 24-bit").
func (s *Session) addrIs16Bit() bool {
	fl := s.Part.Flash()
	return fl == nil || fl.Size <= 1<<16
}
