/*
 * avrdude-core - classic AVR ISP opcode templates (spec §2 "Bit-bang ISP",
 * §4.8 universal-command opcodes).
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

// Package isp builds the 32-bit opcode.Op templates for the classic AVR
// "universal command" ISP instruction set and wires them, together with
// the tpi package's NVM sequencing, into a programmer.Backend that drives
// real part.Mem.Ops over a bitbang.Link.
package isp

import "github.com/rcornwell/avrdude-core/opcode"

// literal fills n bits starting at start with the low n bits of value,
// most-significant bit first.
func literal(op *opcode.Op, start, n int, value uint32) {
	for i := 0; i < n; i++ {
		bit := (value>>uint(n-1-i))&1 != 0
		op.Bits[start+i] = opcode.Bit{Type: opcode.Value, Value: bit}
	}
}

// addrBits marks n bits starting at start as address bits hi, hi-1, ...,
// hi-n+1, most-significant first.
func addrBits(op *opcode.Op, start, n, hi int) {
	for i := 0; i < n; i++ {
		op.Bits[start+i] = opcode.Bit{Type: opcode.Address, BitNo: hi - i}
	}
}

// ioBits marks n bits starting at start as an Input or Output field, most
// significant bit first.
func ioBits(op *opcode.Op, start, n int, typ opcode.BitType) {
	for i := 0; i < n; i++ {
		op.Bits[start+i] = opcode.Bit{Type: typ, BitNo: n - 1 - i}
	}
}

// ProgramEnable builds the Programming Enable opcode (0xAC 0x53), the
// first command issued to an ISP target (spec §4.8).
func ProgramEnable() *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 8, 0xAC)
	literal(op, 8, 8, 0x53)
	return op
}

// ChipErase builds the Chip Erase opcode (0xAC 0x80).
func ChipErase() *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 8, 0xAC)
	literal(op, 8, 8, 0x80)
	return op
}

// readProgMem builds Read Program Memory Low/High Byte: byte0 = 0010
// H000, byte1:byte2 = 16-bit word address, byte3 = output data.
func readProgMem(high bool) *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 4, 0x2)
	literal(op, 4, 1, boolBit(high))
	addrBits(op, 8, 8, 15)
	addrBits(op, 16, 8, 7)
	ioBits(op, 24, 8, opcode.Output)
	return op
}

// ReadProgMemLow is the Read Program Memory Low Byte opcode (0x20 ...).
func ReadProgMemLow() *opcode.Op { return readProgMem(false) }

// ReadProgMemHigh is the Read Program Memory High Byte opcode (0x28 ...).
func ReadProgMemHigh() *opcode.Op { return readProgMem(true) }

// writeProgMem builds Write Program Memory Low/High Byte: byte0 = 0100
// H000, byte1:byte2 = 16-bit word address, byte3 = input data.
func writeProgMem(high bool) *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 4, 0x4)
	literal(op, 4, 1, boolBit(high))
	addrBits(op, 8, 8, 15)
	addrBits(op, 16, 8, 7)
	ioBits(op, 24, 8, opcode.Input)
	return op
}

// WriteProgMemLow is the Write Program Memory Low Byte opcode (0x40 ...).
func WriteProgMemLow() *opcode.Op { return writeProgMem(false) }

// WriteProgMemHigh is the Write Program Memory High Byte opcode (0x48 ...).
func WriteProgMemHigh() *opcode.Op { return writeProgMem(true) }

// ReadEEPROM builds the Read EEPROM Memory opcode (0xA0 ...): byte0 is
// literal, byte1's low 6 bits and all of byte2 carry the byte address,
// byte3 is the output data.
func ReadEEPROM() *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 8, 0xA0)
	addrBits(op, 10, 6, 13)
	addrBits(op, 16, 8, 7)
	ioBits(op, 24, 8, opcode.Output)
	return op
}

// WriteEEPROM builds the Write EEPROM Memory opcode (0xC0 ...).
func WriteEEPROM() *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 8, 0xC0)
	addrBits(op, 10, 6, 13)
	addrBits(op, 16, 8, 7)
	ioBits(op, 24, 8, opcode.Input)
	return op
}

// ReadSignatureByte builds the Read Signature Byte opcode (0x30 ...): the
// 2-bit index in byte2's low bits selects which of the part's three
// signature bytes comes back in byte3.
func ReadSignatureByte() *opcode.Op {
	op := &opcode.Op{}
	literal(op, 0, 8, 0x30)
	addrBits(op, 22, 2, 1)
	ioBits(op, 24, 8, opcode.Output)
	return op
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
