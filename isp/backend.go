/*
 * avrdude-core - bit-banged GPIO ISP/TPI programmer.Backend (spec §2
 * "Bit-bang ISP", "TPI sub-protocol", §4.8, §8 scenario 4).
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

package isp

import (
	"context"
	"fmt"

	"periph.io/x/conn/v3/physic"

	"github.com/rcornwell/avrdude-core/bitbang"
	"github.com/rcornwell/avrdude-core/opcode"
	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
	"github.com/rcornwell/avrdude-core/tpi"
)

// Backend drives an ISP or TPI target directly over four GPIO lines: ISP
// universal commands are built from a part.Mem's opcode.Op templates and
// clocked a byte at a time, while TPI commands go through the tpi
// package's NVM sequencing with this Backend itself as the tpi.Sender
// (bitbang owns the start/parity/stop framing one level down). Which mode
// applies is decided in Initialize from the target part's Modes, so one
// Backend drives both families without duplicating the GPIO plumbing.
type Backend struct {
	programmer.Base

	Pins bitbang.Pins
	Freq physic.Frequency

	link    *bitbang.Link
	tpiMode bool
}

// NewBackend returns a Backend ready for Open; claiming the GPIO pins
// happens there, not here, so construction never touches hardware.
func NewBackend(pins bitbang.Pins, freq physic.Frequency) *Backend {
	return &Backend{Pins: pins, Freq: freq}
}

func (b *Backend) ID() string          { return "isp-bitbang" }
func (b *Backend) Description() string { return "bit-banged GPIO ISP/TPI programmer" }
func (b *Backend) Modes() part.Mode    { return part.ModeISP | part.ModeTPI }
func (b *Backend) ConnType() programmer.ConnType { return programmer.ConnLinuxGPIO }

func (b *Backend) Supports(cap programmer.Capability) bool {
	switch cap {
	case programmer.CapCmd, programmer.CapCmdTPI, programmer.CapWriteByte,
		programmer.CapReadByte, programmer.CapReadSigBytes,
		programmer.CapProgramEnable, programmer.CapChipErase:
		return true
	default:
		return false
	}
}

func (b *Backend) Open(_ context.Context, _ string) error {
	link, err := bitbang.New(b.Pins, b.Freq)
	if err != nil {
		return fmt.Errorf("isp: bitbang open: %w", err)
	}
	b.link = link
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) Enable() error  { return b.link.SetReset(true) }
func (b *Backend) Disable() error { return b.link.SetReset(false) }

// Initialize asserts reset and, for a TPI-class part, runs the SKEY
// unlock sequence immediately (TPI has no separate universal Programming
// Enable command, unlike ISP, whose Programming Enable is issued through
// the ordinary ProgramEnable capability call).
func (b *Backend) Initialize(_ context.Context, p *part.Part) error {
	b.tpiMode = p.Modes&part.ModeTPI != 0
	if err := b.link.SetReset(true); err != nil {
		return err
	}
	if b.tpiMode {
		return tpi.ProgramEnable(b)
	}
	return nil
}

func (b *Backend) Powerup() error   { return nil }
func (b *Backend) Powerdown() error { return b.link.SetReset(true) }

// ProgramEnable issues the part's Programming Enable opcode over ISP, or
// re-runs the TPI SKEY unlock.
func (b *Backend) ProgramEnable(p *part.Part) error {
	if b.tpiMode {
		return tpi.ProgramEnable(b)
	}
	fl := p.Flash()
	if fl == nil || fl.Ops[part.OpProgramEnable] == nil {
		return programmer.ErrUnsupported
	}
	var cmd [4]byte
	opcode.SetBits(fl.Ops[part.OpProgramEnable], &cmd)
	_, err := b.Cmd(&cmd)
	return err
}

// ChipErase issues the part's Chip Erase opcode over ISP, or the TPI NVM
// chip-erase sequence starting at flash offset 0.
func (b *Backend) ChipErase(p *part.Part) error {
	if b.tpiMode {
		return tpi.ChipErase(b, 0)
	}
	fl := p.Flash()
	if fl == nil || fl.Ops[part.OpChipErase] == nil {
		return programmer.ErrUnsupported
	}
	var cmd [4]byte
	opcode.SetBits(fl.Ops[part.OpChipErase], &cmd)
	_, err := b.Cmd(&cmd)
	return err
}

// Cmd clocks a raw 4-byte ISP universal command over the bit-bang link
// and returns the 4-byte reply (byte 3 usually carries an Output field,
// per the part's opcode.Op template).
func (b *Backend) Cmd(cmd *[4]byte) (*[4]byte, error) {
	var res [4]byte
	for i, c := range cmd {
		v, err := b.link.ClockByte(c)
		if err != nil {
			return nil, fmt.Errorf("isp: cmd byte %d: %w", i, err)
		}
		res[i] = v
	}
	return &res, nil
}

// CmdTPI sends out over the TPI byte stream and reads back inLen
// TPI-framed bytes, satisfying tpi.Sender.
func (b *Backend) CmdTPI(out []byte, inLen int) ([]byte, error) {
	for _, c := range out {
		if err := b.link.SendTPIByte(c); err != nil {
			return nil, fmt.Errorf("isp: tpi send: %w", err)
		}
	}
	if inLen == 0 {
		return nil, nil
	}
	in := make([]byte, inLen)
	for i := range in {
		v, err := b.link.RecvTPIByte()
		if err != nil {
			return nil, fmt.Errorf("isp: tpi recv: %w", err)
		}
		in[i] = v
	}
	return in, nil
}

// WriteByte writes one flash byte (low/high opcode template selected by
// address parity, word-addressed) or one EEPROM/generic byte.
func (b *Backend) WriteByte(_ *part.Part, m *part.Mem, addr int, data byte) error {
	if m.Type.IsFlash() {
		role := part.OpWriteLo
		if addr%2 != 0 {
			role = part.OpWriteHi
		}
		return b.doWriteOp(m, role, addr/2, data)
	}
	return b.doWriteOp(m, part.OpWrite, addr, data)
}

func (b *Backend) doWriteOp(m *part.Mem, role part.OpRole, addr int, data byte) error {
	op := m.Ops[role]
	if op == nil {
		return programmer.ErrUnsupported
	}
	var cmd [4]byte
	opcode.SetBits(op, &cmd)
	opcode.SetAddr(op, &cmd, uint32(addr))
	opcode.SetInput(op, &cmd, data)
	_, err := b.Cmd(&cmd)
	return err
}

// ReadByte reads one flash byte (low/high opcode template, word-addressed)
// or one EEPROM/generic byte.
func (b *Backend) ReadByte(_ *part.Part, m *part.Mem, addr int) (byte, error) {
	if m.Type.IsFlash() {
		role := part.OpReadLo
		if addr%2 != 0 {
			role = part.OpReadHi
		}
		return b.doReadOp(m, role, addr/2)
	}
	return b.doReadOp(m, part.OpRead, addr)
}

func (b *Backend) doReadOp(m *part.Mem, role part.OpRole, addr int) (byte, error) {
	op := m.Ops[role]
	if op == nil {
		return 0, programmer.ErrUnsupported
	}
	var cmd [4]byte
	opcode.SetBits(op, &cmd)
	opcode.SetAddr(op, &cmd, uint32(addr))
	res, err := b.Cmd(&cmd)
	if err != nil {
		return 0, err
	}
	return opcode.GetOutput(op, res), nil
}

// ReadSigBytes reads the part's three signature bytes through the
// signature Mem's Read Signature Byte opcode template.
func (b *Backend) ReadSigBytes(p *part.Part) ([3]byte, error) {
	var sig [3]byte
	m := p.FindMemByType(part.MemSignature)
	if m == nil || m.Ops[part.OpRead] == nil {
		return sig, programmer.ErrUnsupported
	}
	for i := range sig {
		v, err := b.doReadOp(m, part.OpRead, i)
		if err != nil {
			return sig, err
		}
		sig[i] = v
	}
	return sig, nil
}
