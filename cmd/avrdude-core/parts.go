/*
 * avrdude-core - built-in demo part catalog.
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

package main

import (
	"github.com/rcornwell/avrdude-core/isp"
	"github.com/rcornwell/avrdude-core/part"
)

// ispOps populates the ISP universal-command templates a classic
// (non-TPI) part needs on its flash, eeprom and signature regions, the
// same opcode.Op tables an avrdude.conf part stanza would carry under its
// own "memory" blocks.
func ispOps(flash, eeprom, sig *part.Mem) {
	flash.Ops[part.OpProgramEnable] = isp.ProgramEnable()
	flash.Ops[part.OpChipErase] = isp.ChipErase()
	flash.Ops[part.OpReadLo] = isp.ReadProgMemLow()
	flash.Ops[part.OpReadHi] = isp.ReadProgMemHigh()
	flash.Ops[part.OpWriteLo] = isp.WriteProgMemLow()
	flash.Ops[part.OpWriteHi] = isp.WriteProgMemHigh()
	if eeprom != nil {
		eeprom.Ops[part.OpRead] = isp.ReadEEPROM()
		eeprom.Ops[part.OpWrite] = isp.WriteEEPROM()
	}
	if sig != nil {
		sig.Ops[part.OpRead] = isp.ReadSignatureByte()
	}
}

// builtinParts stands in for the avrdude.conf parser this core deliberately
// excludes (spec §1 "Out of scope"): three representative parts, enough to
// drive the Urclock, ISP bit-bang and TPI bit-bang paths end to end without
// pulling in a config-file grammar the core doesn't own.
func builtinParts() part.Catalog {
	m328p := part.NewPart("ATmega328P", "m328p")
	m328p.Signature = [3]byte{0x1e, 0x95, 0x0f}
	m328p.Modes = part.ModeISP | part.ModeSPM
	m328p.BootGeometry = part.BootGeometry{VectorSize: 4, BootStart: 0x7800}
	flash := part.NewMem("flash", part.MemFlash, 32768, 128)
	flash.MinWriteDelay, flash.MaxWriteDelay = 4500, 4500
	eeprom := part.NewMem("eeprom", part.MemEEPROM, 1024, 4)
	eeprom.MinWriteDelay, eeprom.MaxWriteDelay = 3600, 3600
	sig := part.NewMem("signature", part.MemSignature, 3, 0)
	ispOps(flash, eeprom, sig)
	m328p.Mems = []*part.Mem{flash, eeprom, sig}

	t2313 := part.NewPart("ATtiny2313", "t2313")
	t2313.Signature = [3]byte{0x1e, 0x91, 0x0a}
	t2313.Modes = part.ModeISP
	tflash := part.NewMem("flash", part.MemFlash, 2048, 32)
	tflash.MinWriteDelay, tflash.MaxWriteDelay = 4500, 4500
	teeprom := part.NewMem("eeprom", part.MemEEPROM, 128, 4)
	tsig := part.NewMem("signature", part.MemSignature, 3, 0)
	ispOps(tflash, teeprom, tsig)
	t2313.Mems = []*part.Mem{tflash, teeprom, tsig}

	// t10 is an ATtiny10-class TPI target (spec §8 scenario 4): no
	// separate Programming Enable opcode and no EEPROM, just a small
	// paged flash driven by the tpi package's NVM command sequence
	// rather than opcode.Op templates.
	t10 := part.NewPart("ATtiny10", "t10")
	t10.Signature = [3]byte{0x1e, 0x90, 0x03}
	t10.Modes = part.ModeTPI
	t10flash := part.NewMem("flash", part.MemFlash, 1024, 16)
	t10flash.MinWriteDelay, t10flash.MaxWriteDelay = 4500, 4500
	t10flash.NWordWrites = 1
	t10.Mems = []*part.Mem{t10flash}

	return part.Catalog{m328p, t2313, t10}
}
