/*
 * avrdude-core - interrupt vector jump-opcode arithmetic and
 * vector-bootloader patching (spec §4.6, §8 "Vector/rjmp arithmetic").
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

package engine

import (
	"fmt"

	"github.com/rcornwell/avrdude-core/part"
)

// rjmpVectorLimit is the largest flash size (bytes) an rjmp can span on
// its own: 8 KiB = 4096 words, exactly the 12-bit signed offset's range.
const rjmpVectorLimit = 8192

// RjmpOpcode encodes a word-distance jump as an rjmp instruction, wrapping
// dist modulo flashWords so small parts wrap the way real silicon does.
func RjmpOpcode(dist, flashWords int) uint16 {
	if flashWords <= 0 {
		flashWords = 4096
	}
	d := dist % flashWords
	if d < 0 {
		d += flashWords
	}
	return 0xC000 | uint16(d&0x0FFF)
}

// DistRjmp decodes an rjmp instruction back to a signed word distance,
// the inverse of RjmpOpcode for the same flashWords.
func DistRjmp(op uint16, flashWords int) int {
	if flashWords <= 0 {
		flashWords = 4096
	}
	d := int(op & 0x0FFF)
	if half := flashWords / 2; d >= half {
		d -= flashWords
	}
	return d
}

// JmpOpcode encodes a byte address as the two 16-bit words of a 32-bit
// jmp instruction (low word first, matching AVR flash byte order).
func JmpOpcode(byteAddr int) [4]byte {
	word := uint32(byteAddr) / 2
	fw := uint16(0x940C) | uint16((word>>21)&1)<<8 | uint16((word>>17)&0xF)<<4 | uint16((word>>16)&1)
	sw := uint16(word & 0xFFFF)
	return [4]byte{byte(fw), byte(fw >> 8), byte(sw), byte(sw >> 8)}
}

// AddrJmp decodes a jmp instruction's two words back to a byte address.
func AddrJmp(fw, sw uint16) int {
	word := uint32(sw) | uint32(fw&1)<<16 | uint32((fw>>4)&0xF)<<17 | uint32((fw>>8)&1)<<21
	return int(word) * 2
}

// encodeJump writes the appropriate jump-to-target instruction at from,
// choosing rjmp for parts with flash no larger than rjmpVectorLimit and
// jmp otherwise, per spec §4.6.
func encodeJump(buf []byte, from, target, flashSize int) {
	if flashSize <= rjmpVectorLimit {
		dist := (target-from)/2 - 1
		op := RjmpOpcode(dist, flashSize/2)
		buf[from], buf[from+1] = byte(op), byte(op>>8)
		return
	}
	op := JmpOpcode(target)
	copy(buf[from:from+4], op[:])
}

// PatchVectorTable implements the vector-bootloader patch (spec §4.6):
// the reset vector at address 0 becomes a jump to bootStart, and the
// vecNum-th vector slot becomes a jump back to the application's
// original reset target, which is recovered by decoding the image's own
// first vector. force allows patching even when the recovered entry
// falls outside the application code area.
func PatchVectorTable(m *part.Mem, vecNum, vecSize, bootStart int, force bool) error {
	if !m.Type.IsFlash() {
		return fmt.Errorf("%w: vector patch target is not flash", ErrSetup)
	}
	flashSize := m.Size
	appEntry := decodeFirstVector(m.Buf, vecSize, flashSize)

	codeStart := vecNum * vecSize
	if !force && (appEntry < codeStart || appEntry >= flashSize) {
		return fmt.Errorf("%w: recovered application entry %#x outside code area [%#x,%#x)",
			ErrBootloaderOverlap, appEntry, codeStart, flashSize)
	}

	slot := vecNum * vecSize
	if slot+vecSize > bootStart {
		return fmt.Errorf("%w: vector slot %d overlaps bootloader at %#x", ErrBootloaderOverlap, vecNum, bootStart)
	}

	encodeJump(m.Buf, 0, bootStart, flashSize)
	for i := 0; i < vecSize; i++ {
		m.Tags[i] |= part.TagAllocated
	}
	encodeJump(m.Buf, slot, appEntry, flashSize)
	for i := slot; i < slot+vecSize; i++ {
		m.Tags[i] |= part.TagAllocated
	}
	return nil
}

// decodeFirstVector decodes the target address of the reset vector
// (address 0) in an uploaded image, to recover where the application
// originally expected to start.
func decodeFirstVector(buf []byte, vecSize, flashSize int) int {
	if len(buf) < 4 {
		return 0
	}
	if vecSize <= 4 && flashSize <= rjmpVectorLimit {
		op := uint16(buf[0]) | uint16(buf[1])<<8
		dist := DistRjmp(op, flashSize/2)
		target := (dist + 1) * 2
		if target < 0 {
			target += flashSize
		}
		return target % flashSize
	}
	fw := uint16(buf[0]) | uint16(buf[1])<<8
	sw := uint16(buf[2]) | uint16(buf[3])<<8
	return AddrJmp(fw, sw)
}
