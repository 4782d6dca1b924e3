/*
 * avrdude-core - AVR memory region model.
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

package part

import "github.com/rcornwell/avrdude-core/opcode"

// Allocation tag bits. Only Allocated matters to the core; the rest are
// reserved for the file-format layer that sets them.
const (
	TagAllocated byte = 1 << iota
)

// OpRole names an opcode slot in a memory's per-opcode template array.
type OpRole int

const (
	OpRead OpRole = iota
	OpWrite
	OpPagedRead
	OpPagedWrite
	OpLoadExtAddr
	OpWritePage
	OpChipErase
	OpProgramEnable
	OpReadLo
	OpReadHi
	OpWriteLo
	OpWriteHi
	OpLoadedPage
	opRoleCount
)

// Mem is one memory region of a part: flash, eeprom, fuses, lock,
// signature, sigrow, userrow, sram, io, sib, or an unknown config-sourced
// region. Size-d Buf/Tags are allocated once, when the part is
// instantiated for a session, and owned by the part for its lifetime.
type Mem struct {
	Desc     string  // Canonical or alias-resolved descriptor name.
	Type     MemType
	Size     int
	PageSize int // 0 or 1 means unpaged.
	NumPages int
	InitVal  byte   // Factory init value (fuses/lock).
	Bitmask  uint16 // Active-bit mask (fuses/lock); low byte, or both bytes for a 2-byte fuse.

	MinWriteDelay int // microseconds
	MaxWriteDelay int // microseconds
	PwroffAfterWr bool

	// NWordWrites is the TPI paged-write chunk size in 16-bit words (1, 2
	// or 4); zero means "unset, default to 1" for non-TPI memories.
	NWordWrites int

	Readback [2]byte // Write-polling readback bytes.

	Ops [opRoleCount]*opcode.Op

	Buf  []byte
	Tags []byte
}

// NewMem allocates a region's data/tag buffers.
func NewMem(desc string, typ MemType, size, pageSize int) *Mem {
	m := &Mem{
		Desc:     desc,
		Type:     typ,
		Size:     size,
		PageSize: pageSize,
		Buf:      make([]byte, size),
		Tags:     make([]byte, size),
	}
	if pageSize > 1 {
		m.NumPages = size / pageSize
	}
	return m
}

// IsPaged reports whether this region is accessed a page at a time.
func (m *Mem) IsPaged() bool { return m.PageSize > 1 }

// Allocated reports whether byte i carries the ALLOCATED tag.
func (m *Mem) Allocated(i int) bool {
	return i >= 0 && i < len(m.Tags) && m.Tags[i]&TagAllocated != 0
}

// Fill sets the whole buffer to v without touching tags, mirroring the
// generic read engine's "zero-fill to 0xff" step.
func (m *Mem) Fill(v byte) {
	for i := range m.Buf {
		m.Buf[i] = v
	}
}

// HiAddr returns mem_hiaddr(m): for flash-type memories, the smallest even
// index strictly greater than the highest non-0xff byte, so callers can
// stop reading early; for anything else, the full size. DisableTrim turns
// the flash early-stop off globally, matching the source's one global
// flag.
var DisableTrim bool

func (m *Mem) HiAddr() int {
	if DisableTrim || !m.Type.IsFlash() {
		return m.Size
	}
	hi := -1
	for i := len(m.Buf) - 1; i >= 0; i-- {
		if m.Buf[i] != 0xff {
			hi = i
			break
		}
	}
	if hi < 0 {
		return 0
	}
	hi++
	if hi%2 != 0 {
		hi++
	}
	if hi > m.Size {
		hi = m.Size
	}
	return hi
}
