/*
 * avrdude-core - 32-bit opcode bit templates.
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

// Package opcode models the fixed 32-bit instruction templates that the
// generic ISP byte-at-a-time path and the legacy STK500v1 universal
// passthrough both build commands from. Each of the 32 bit positions in a
// template carries a role (ignore/literal/address/input/output) instead of
// a raw opcode byte, the same way the teacher's instruction decoder
// classifies each instruction field rather than hand-masking integers.
package opcode

// BitType is the role a single bit position plays in a template.
type BitType uint8

const (
	Ignore BitType = iota
	Value          // Literal 0/1 baked into the template.
	Address        // Distributes an address bit.
	Input          // Distributes a data bit being written.
	Output         // Gathers a response bit into the read result.
)

// Bit describes one of the 32 positions of an opcode template, numbered
// from bit 31 (first transmitted) down to bit 0.
type Bit struct {
	Type  BitType
	BitNo int  // Source bit number for Address/Input, dest bit number for Output.
	Value bool // Literal value when Type == Value.
}

// Op is a 32-bit opcode template, MSB-first.
type Op struct {
	Bits [32]Bit
}

// SetBits writes every Value bit of op into the 4-byte big-endian command.
func SetBits(op *Op, cmd *[4]byte) {
	for i, b := range op.Bits {
		if b.Type != Value || !b.Value {
			continue
		}
		setCmdBit(cmd, i, true)
	}
}

// SetAddr distributes the Address bits of op from addr into cmd.
func SetAddr(op *Op, cmd *[4]byte, addr uint32) {
	for i, b := range op.Bits {
		if b.Type != Address {
			continue
		}
		setCmdBit(cmd, i, (addr>>uint(b.BitNo))&1 != 0)
	}
}

// SetInput distributes the Input bits of op from data into cmd.
func SetInput(op *Op, cmd *[4]byte, data byte) {
	for i, b := range op.Bits {
		if b.Type != Input {
			continue
		}
		setCmdBit(cmd, i, (data>>uint(b.BitNo))&1 != 0)
	}
}

// GetOutput gathers the Output bits of op out of res into data.
func GetOutput(op *Op, res *[4]byte) (data byte) {
	for i, b := range op.Bits {
		if b.Type != Output {
			continue
		}
		if getCmdBit(res, i) {
			data |= 1 << uint(b.BitNo)
		}
	}
	return data
}

// bit position pos counts from 0 (MSB of cmd[0]) up to 31 (LSB of cmd[3]).
func setCmdBit(cmd *[4]byte, pos int, set bool) {
	byteIdx := pos / 8
	bitIdx := uint(7 - pos%8)
	if set {
		cmd[byteIdx] |= 1 << bitIdx
	} else {
		cmd[byteIdx] &^= 1 << bitIdx
	}
}

func getCmdBit(cmd *[4]byte, pos int) bool {
	byteIdx := pos / 8
	bitIdx := uint(7 - pos%8)
	return cmd[byteIdx]&(1<<bitIdx) != 0
}
