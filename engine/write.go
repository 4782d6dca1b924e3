/*
 * avrdude-core - generic write engine (spec §4.4).
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
	"time"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
	"github.com/rcornwell/avrdude-core/progress"
	"github.com/rcornwell/avrdude-core/tpi"
)

// pollCycles bounds write_byte_default's readback retries: 5 cycles of
// max-delay waits before giving up (spec §4.4).
const pollCycles = 5

// WriteMem implements write_mem(pgm, part, mem, size, auto_erase): writes
// up to size bytes from mem.Buf where tagged ALLOCATED.
func (s *Session) WriteMem(m *part.Mem, size int, autoErase bool) (int, error) {
	if size > m.Size {
		size = m.Size
	}
	rep := s.report("Writing " + m.Desc)
	b := s.Prog.Backend

	var err error
	switch {
	case s.Part.Modes&part.ModeTPI != 0 && m.IsPaged():
		err = s.writeTPIPaged(m, size, rep)

	case m.IsPaged() && b.Supports(programmer.CapPagedWrite):
		err = s.writePaged(m, size, autoErase, rep)
		if err != nil {
			err = s.writeISPBytewise(m, size, rep)
		}

	case m.Type.IsFlash() && m.IsPaged():
		err = s.writeISPBytewise(m, size, rep)

	default:
		err = s.writeByteWise(m, size, rep)
	}

	if err != nil {
		s.ledErr()
		rep.Abort()
		return -1, fmt.Errorf("%w: writing %s: %v", ErrSoftFail, m.Desc, err)
	}
	rep.Done(size)
	return size, nil
}

func (s *Session) writeByteWise(m *part.Mem, size int, rep *progress.Report) error {
	b := s.Prog.Backend
	for i := 0; i < size; i++ {
		if !m.Allocated(i) {
			continue
		}
		if err := s.writeByteDefault(b, m, i, m.Buf[i]); err != nil {
			return err
		}
		rep.Update(i+1, size)
	}
	return nil
}

// writeISPBytewise is the ISP/bootloader byte path: for paged flash,
// tagged bytes load the device's page buffer and the last tainted byte of
// each page triggers write_page; non-paged memory calls write_byte on
// tagged bytes only.
func (s *Session) writeISPBytewise(m *part.Mem, size int, rep *progress.Report) error {
	b := s.Prog.Backend
	if !m.Type.IsFlash() || !m.IsPaged() {
		return s.writeByteWise(m, size, rep)
	}
	// Round size up to a word boundary.
	if size%2 != 0 {
		size++
		if size > m.Size {
			size = m.Size
		}
	}
	for page := 0; page*m.PageSize < size; page++ {
		base := page * m.PageSize
		end := base + m.PageSize
		if end > size {
			end = size
		}
		tainted := false
		lastTainted := -1
		for i := base; i < end; i++ {
			if !m.Allocated(i) {
				continue
			}
			if err := b.WriteByte(s.Part, m, i, m.Buf[i]); err != nil {
				return err
			}
			tainted = true
			lastTainted = i
		}
		if tainted && b.Supports(programmer.CapPageErase) {
			if err := b.PageErase(m, page); err != nil {
				return err
			}
		}
		_ = lastTainted
		rep.Update(end, size)
	}
	return nil
}

// writePaged implements the paged-write path: hole-filling, conditional
// page erase, paged_write.
func (s *Session) writePaged(m *part.Mem, size int, autoErase bool, rep *progress.Report) error {
	b := s.Prog.Backend
	effPage := m.PageSize
	numPages := (size + effPage - 1) / effPage

	for page := 0; page < numPages; page++ {
		base := page * effPage
		end := base + effPage
		if end > m.Size {
			end = m.Size
		}
		any, allFull := false, true
		for i := base; i < end; i++ {
			if m.Allocated(i) {
				any = true
			} else {
				allFull = false
			}
		}
		if !any {
			continue
		}
		if !allFull && b.Supports(programmer.CapPagedLoad) {
			cur := make([]byte, end-base)
			if err := b.PagedLoad(m, page, cur); err == nil {
				for i := base; i < end; i++ {
					if !m.Allocated(i) {
						m.Buf[i] = cur[i-base]
					}
				}
			}
		}
		if autoErase && b.Supports(programmer.CapPageErase) && !m.Type.IsEEPROM() {
			if err := b.PageErase(m, page); err != nil {
				return err
			}
		}
		if err := b.PagedWrite(m, page, m.Buf[base:end]); err != nil {
			return err
		}
		rep.Update(end, size)
	}
	return nil
}

// writeTPIPaged implements the TPI paged-write path: single-byte fuse
// writes defer to the byte path; otherwise writes are chunked in
// n_word_writes word groups, aligning size up to the chunk and resetting
// the pointer register whenever a gap is skipped.
func (s *Session) writeTPIPaged(m *part.Mem, size int, rep *progress.Report) error {
	b := s.Prog.Backend
	if m.Type.IsAFuse() && m.Size == 1 {
		return s.writeByteWise(m, size, rep)
	}
	nWordWrites := m.NWordWrites
	if nWordWrites <= 0 {
		nWordWrites = 1
	}
	if err := tpi.NWordWrites(nWordWrites); err != nil {
		nWordWrites = 1
	}
	chunk := 2 * nWordWrites
	aligned := ((size + chunk - 1) / chunk) * chunk
	if aligned > m.Size {
		aligned = m.Size
	}

	ptrSet := false
	lastAddr := -1
	for i := 0; i < aligned; i += chunk {
		any := false
		for j := i; j < i+chunk && j < aligned; j++ {
			if m.Allocated(j) {
				any = true
				break
			}
		}
		if !any {
			ptrSet = false
			continue
		}
		if !ptrSet || i != lastAddr+1 {
			if err := tpiSetPointer(b, i); err != nil {
				return err
			}
			ptrSet = true
		}
		for j := i; j < i+chunk && j < m.Size; j++ {
			if err := tpiStorePostIncrement(b, m.Buf[j]); err != nil {
				return err
			}
		}
		if err := tpiWaitNotBusy(b); err != nil {
			return err
		}
		lastAddr = i + chunk - 1
		rep.Update(i+chunk, aligned)
	}
	return nil
}

// writeByteDefault is write_byte_default (spec §4.4): bitmask-preserving,
// read-then-compare for read-only memories, poll-or-delay confirmation
// with bounded retries.
func (s *Session) writeByteDefault(b programmer.Backend, m *part.Mem, addr int, data byte) error {
	if m.Type.IsReadOnly() || b.ReadOnly(s.Part, m, addr) {
		cur, err := b.ReadByte(s.Part, m, addr)
		if err != nil {
			return err
		}
		if cur == data {
			return nil
		}
		return fmt.Errorf("%w: %s addr %#x is read-only", ErrDeviceFailure, m.Desc, addr)
	}

	mask := part.MemBitmask(s.Part, m, addr)
	if mask != 0xff {
		base := m.InitVal
		if cur, err := b.ReadByte(s.Part, m, addr); err == nil {
			base = cur
		}
		data = (base &^ mask) | (data & mask)
	}

	if s.Part.Modes&part.ModeTPI != 0 {
		if addr%2 != 0 {
			return fmt.Errorf("%w: TPI byte write requires even address", ErrSetup)
		}
		if m.Type.IsAFuse() {
			if err := tpi.SectionErase(b, addr); err != nil {
				return err
			}
		}
	}

	if !b.Supports(programmer.CapWriteByte) {
		return fmt.Errorf("%w: no write primitive for %s", ErrNotSupported, m.Desc)
	}

	if s.Part.ID != "AT90S1200" {
		if cur, err := b.ReadByte(s.Part, m, addr); err == nil && cur == data {
			return nil
		}
	}

	if err := b.WriteByte(s.Part, m, addr, data); err != nil {
		return err
	}

	if b.Supports(programmer.CapReadByte) {
		for i := 0; i < pollCycles; i++ {
			cur, err := b.ReadByte(s.Part, m, addr)
			if err == nil && cur == data {
				return nil
			}
			time.Sleep(time.Duration(m.MaxWriteDelay) * time.Microsecond)
		}
	} else {
		time.Sleep(time.Duration(m.MaxWriteDelay) * time.Microsecond)
		return nil
	}

	if m.PwroffAfterWr {
		if err := b.Powerdown(); err == nil {
			time.Sleep(10 * time.Millisecond)
			_ = b.Powerup()
		}
		return fmt.Errorf("%w: write to %s addr %#x not confirmed after power cycle", ErrDeviceFailure, m.Desc, addr)
	}
	return fmt.Errorf("%w: write to %s addr %#x not confirmed", ErrDeviceFailure, m.Desc, addr)
}
