/*
 * avrdude-core - TPI sub-protocol (spec §4.8) for reduced-core AVRs.
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

// Package tpi implements the Tiny Programming Interface NVM command
// sequence: busy polling, pointer-register setup, section erase and word
// write, on top of a byte-stream Sender the way the generic engine drives
// every other back-end through a narrow capability method.
package tpi

import (
	"errors"
	"fmt"
)

// NVM instruction bytes.
const (
	opSLD    byte = 0x20 // Load from NVM (no increment).
	opSLDPI  byte = 0x24 // Load from NVM, post-increment pointer.
	opSST    byte = 0x60 // Store to NVM (no increment).
	opSSTPI  byte = 0x64 // Store to NVM, post-increment pointer.
	opSSTPRL byte = 0x68 // Set pointer register low.
	opSSTPRH byte = 0x69 // Set pointer register high.
	opSkey   byte = 0xE0 // Load SKEY to enter programming mode.
)

// I/O space addresses within the TPI address map.
const (
	ioNVMCSR  byte = 0x32
	ioNVMCMD  byte = 0x33
	ioTPISR   byte = 0x00
)

// NVMCMD values.
const (
	CmdNoOp       byte = 0x00
	CmdChipErase  byte = 0x10
	CmdSectionErase byte = 0x14
	CmdWordWrite  byte = 0x1D
)

const nvmbsyBit = 1 << 1
const nvmenBit = 1 << 1

// SKEY is the 8-byte key written to NVMPROG.KEY to unlock NVM programming.
var SKEY = [8]byte{0xFF, 0x88, 0xD8, 0xCD, 0x45, 0xAB, 0x89, 0x12}

var ErrBusyTimeout = errors.New("tpi: NVM busy timeout")
var ErrProgramEnable = errors.New("tpi: program enable did not set NVMEN")

// Sender is the minimal capability a programmer.Backend must expose for
// the TPI layer: a raw byte-stream exchange over the already-framed wire
// (bitbang package handles start/parity/stop framing below this).
type Sender interface {
	CmdTPI(out []byte, inLen int) ([]byte, error)
}

func inSS(b Sender, ioAddr byte) (byte, error) {
	// SIN opcode: 0b1011_aabb_bbbb in the real encoding; we keep this
	// abstracted behind CmdTPI which owns the exact framing bits.
	out, err := b.CmdTPI([]byte{0xB0 | (ioAddr&0x30)<<2 | (ioAddr & 0x0f), 0}, 1)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("tpi: short read from io %#x", ioAddr)
	}
	return out[0], nil
}

func outSS(b Sender, ioAddr, val byte) error {
	_, err := b.CmdTPI([]byte{0xA0 | (ioAddr&0x30)<<2 | (ioAddr & 0x0f), val}, 0)
	return err
}

// WaitNVMBusy polls NVMCSR.NVMBSY until clear or attempts are exhausted.
func WaitNVMBusy(b Sender, attempts int) error {
	for i := 0; i < attempts; i++ {
		v, err := inSS(b, ioNVMCSR)
		if err != nil {
			return err
		}
		if v&nvmbsyBit == 0 {
			return nil
		}
	}
	return ErrBusyTimeout
}

// SetPointer loads the 16-bit NVM pointer register (low then high byte).
func SetPointer(b Sender, addr int) error {
	if _, err := b.CmdTPI([]byte{opSSTPRL, byte(addr)}, 0); err != nil {
		return err
	}
	_, err := b.CmdTPI([]byte{opSSTPRH, byte(addr >> 8)}, 0)
	return err
}

// LoadPostIncrement issues SLD_PI and returns the byte read, advancing the
// pointer register by one.
func LoadPostIncrement(b Sender) (byte, error) {
	out, err := b.CmdTPI([]byte{opSLDPI}, 1)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, errors.New("tpi: short response to SLD_PI")
	}
	return out[0], nil
}

// StorePostIncrement issues SST_PI with the given byte.
func StorePostIncrement(b Sender, data byte) error {
	_, err := b.CmdTPI([]byte{opSSTPI, data}, 0)
	return err
}

// setCmd waits for NVM idle and then sets NVMCMD, the common prelude to
// every NVM operation (spec §4.8 "poll, set NVMCMD, ..."); the poll after
// the operation is left to each caller.
func setCmd(b Sender, cmd byte) error {
	if err := WaitNVMBusy(b, 32); err != nil {
		return err
	}
	return outSS(b, ioNVMCMD, cmd)
}

// ChipErase erases the whole NVM space: SOUT NVMCMD=CHIP_ERASE, pointer to
// the first flash byte, SST 0xFF to trigger it, then poll until done.
func ChipErase(b Sender, flashOffset int) error {
	if err := setCmd(b, CmdChipErase); err != nil {
		return err
	}
	if err := SetPointer(b, flashOffset); err != nil {
		return err
	}
	if _, err := b.CmdTPI([]byte{opSST, 0xFF}, 0); err != nil {
		return err
	}
	return WaitNVMBusy(b, 32)
}

// SectionErase erases the NVM section containing addr.
func SectionErase(b Sender, addr int) error {
	if err := setCmd(b, CmdSectionErase); err != nil {
		return err
	}
	if err := SetPointer(b, addr); err != nil {
		return err
	}
	if _, err := b.CmdTPI([]byte{opSST, 0xFF}, 0); err != nil {
		return err
	}
	return WaitNVMBusy(b, 32)
}

// WordWrite writes a 16-bit word at addr: SECTION_ERASE then WORD_WRITE,
// per spec §4.4 "if writing a fuse, first issue SECTION_ERASE then
// WORD_WRITE".
func WordWrite(b Sender, addr int, lo, hi byte) error {
	if err := SectionErase(b, addr); err != nil {
		return err
	}
	if err := setCmd(b, CmdWordWrite); err != nil {
		return err
	}
	if err := SetPointer(b, addr); err != nil {
		return err
	}
	if err := StorePostIncrement(b, lo); err != nil {
		return err
	}
	if err := StorePostIncrement(b, hi); err != nil {
		return err
	}
	return WaitNVMBusy(b, 32)
}

// ProgramEnable sends the 8-byte SKEY and polls TPISR.NVMEN up to 10
// times, per spec §4.8.
func ProgramEnable(b Sender) error {
	out := make([]byte, 0, 9)
	out = append(out, opSkey)
	out = append(out, SKEY[:]...)
	if _, err := b.CmdTPI(out, 0); err != nil {
		return err
	}
	for i := 0; i < 10; i++ {
		v, err := inSS(b, ioTPISR)
		if err != nil {
			return err
		}
		if v&nvmenBit != 0 {
			return nil
		}
	}
	return ErrProgramEnable
}

// NWordWrites validates spec §4.4's TPI paged-write chunk size: only
// 1, 2 or 4 sixteen-bit word writes per chunk are legal; 3 and anything
// above 4 are rejected.
func NWordWrites(n int) error {
	switch n {
	case 1, 2, 4:
		return nil
	default:
		return fmt.Errorf("tpi: n_word_writes=%d rejected (must be 1, 2 or 4)", n)
	}
}
