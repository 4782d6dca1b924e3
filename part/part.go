/*
 * avrdude-core - AVR part descriptor.
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

// Package part models the AVR part/memory descriptor: memory regions,
// page geometry, opcode templates and fuse layout. A Part is immutable
// once loaded, the same way the teacher treats a loaded S370 device model
// as immutable for the run.
package part

// Mode is one bit of the programming-mode capability set.
type Mode uint16

const (
	ModeSPM Mode = 1 << iota
	ModeTPI
	ModeISP
	ModePDI
	ModeUPDI
	ModeHVSP
	ModeHVPP
	ModeDebugWIRE
	ModeJTAG
)

// Part is an immutable AVR part descriptor.
type Part struct {
	ID         string // Long identifier, e.g. "ATmega328P".
	ShortID    string
	FamilyID   string
	Modes      Mode
	Signature  [3]byte
	NumInterrupts int
	PagesPerErase int // Some parts erase several pages at once (n_page_erase).
	BootGeometry  BootGeometry
	HVUPDI        int // HV-UPDI variant, 0 if none.
	ChipEraseDelay int // microseconds
	ResetDisposition int

	Mems    []*Mem
	Aliases map[string]string // alias name -> canonical name

	// Opaque per-backend timing knobs the core passes through unexamined.
	Timing map[string]int
}

// BootGeometry describes boot-section layout for vector-bootloader patching.
type BootGeometry struct {
	VectorSize int // Bytes per interrupt vector (4 on rjmp parts, up to 8 on jmp-capable ones' encoded form).
	BootStart  int // Flash byte address where the bootloader begins.
}

// FindMem returns the region with the given canonical or alias name.
func (p *Part) FindMem(name string) *Mem {
	canon := name
	if a, ok := p.Aliases[name]; ok {
		canon = a
	}
	for _, m := range p.Mems {
		if m.Desc == canon || m.Desc == name {
			return m
		}
	}
	return nil
}

// FindMemByType returns the first region whose type contains every bit of
// want.
func (p *Part) FindMemByType(want MemType) *Mem {
	for _, m := range p.Mems {
		if m.Type&want == want {
			return m
		}
	}
	return nil
}

// FindFuseByOffset returns the individual fuse region that owns byte
// offset off within the collective fuses address space: its own base
// offset for a 1-byte fuse, or either of its two consecutive offsets for
// a 2-byte fuse.
func (p *Part) FindFuseByOffset(off int) *Mem {
	for _, m := range p.Mems {
		if !m.Type.IsFuses() || m.Desc == "fuses" {
			continue
		}
		base := m.Type.FuseOffset()
		if off == base || (m.Size == 2 && off == base+1) {
			return m
		}
	}
	return nil
}

// Flash is a convenience accessor for the part's primary flash region.
func (p *Part) Flash() *Mem { return p.FindMemByType(MemFlash) }
