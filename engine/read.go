/*
 * avrdude-core - generic read engine (spec §4.3).
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
	"github.com/rcornwell/avrdude-core/programmer"
)

// ReadMem implements read_mem(pgm, part, mem, verify_ref): reads the
// entirety of mem into mem.Buf. If verifyRef is non-nil, only bytes
// tagged ALLOCATED in verifyRef are read; everything else is left at the
// 0xff fill. Returns mem.HiAddr() on success.
func (s *Session) ReadMem(m *part.Mem, verifyRef *part.Mem) (int, error) {
	m.Fill(0xff)
	rep := s.report("Reading " + m.Desc)
	b := s.Prog.Backend

	needed := func(i int) bool {
		return verifyRef == nil || verifyRef.Allocated(i)
	}

	var err error
	switch {
	case s.Part.Modes&part.ModeTPI != 0 && m.IsPaged():
		err = s.readTPI(m, needed, rep)

	case m.IsPaged() && m.Size%m.PageSize == 0 && b.Supports(programmer.CapPagedLoad):
		err = s.readPaged(m, needed, rep)

	case m.Type.IsSignature() && b.Supports(programmer.CapReadSigBytes):
		sig, serr := b.ReadSigBytes(s.Part)
		if serr != nil {
			err = serr
			break
		}
		copy(m.Buf, sig[:])
		for i := range sig {
			m.Tags[i] |= part.TagAllocated
		}

	default:
		err = s.readByteWise(m, needed, rep)
	}

	if err != nil {
		s.ledErr()
		rep.Abort()
		if !b.Supports(programmer.CapReadByte) {
			return -1, fmt.Errorf("%w: no read primitive for %s: %v", ErrNotSupported, m.Desc, err)
		}
		return -1, fmt.Errorf("%w: reading %s: %v", ErrSoftFail, m.Desc, err)
	}

	b.FlashReadHook(m)
	hi := m.HiAddr()
	rep.Done(hi)
	return hi, nil
}

func (s *Session) readByteWise(m *part.Mem, needed func(int) bool, rep interface{ Update(int, int) }) error {
	b := s.Prog.Backend
	for i := 0; i < m.Size; i++ {
		if !needed(i) {
			continue
		}
		v, err := b.ReadByte(s.Part, m, i)
		if err != nil {
			return err
		}
		m.Buf[i] = v
		m.Tags[i] |= part.TagAllocated
		rep.Update(i+1, m.Size)
	}
	return nil
}

func (s *Session) readPaged(m *part.Mem, needed func(int) bool, rep interface{ Update(int, int) }) error {
	b := s.Prog.Backend
	for page := 0; page < m.NumPages; page++ {
		base := page * m.PageSize
		any := false
		for i := base; i < base+m.PageSize; i++ {
			if needed(i) {
				any = true
				break
			}
		}
		if !any {
			continue
		}
		buf := make([]byte, m.PageSize)
		if err := b.PagedLoad(m, page, buf); err != nil {
			// Fall back to byte-wise for the remainder of this page.
			for i := base; i < base+m.PageSize; i++ {
				if !needed(i) {
					continue
				}
				v, rerr := b.ReadByte(s.Part, m, i)
				if rerr != nil {
					return rerr
				}
				m.Buf[i] = v
				m.Tags[i] |= part.TagAllocated
			}
			rep.Update(base+m.PageSize, m.Size)
			continue
		}
		copy(m.Buf[base:base+m.PageSize], buf)
		for i := base; i < base+m.PageSize; i++ {
			m.Tags[i] |= part.TagAllocated
		}
		rep.Update(base+m.PageSize, m.Size)
	}
	return nil
}

// readTPI implements the TPI pageable-memory path: NVM-busy poll, set
// pointer register, SLD_PI (load with post-increment) per byte, re-setting
// the pointer when a gap in needed bytes is skipped.
func (s *Session) readTPI(m *part.Mem, needed func(int) bool, rep interface{ Update(int, int) }) error {
	b := s.Prog.Backend
	if !b.Supports(programmer.CapCmdTPI) {
		return ErrNotSupported
	}
	if err := tpiWaitNotBusy(b); err != nil {
		return err
	}
	ptrSet := false
	lastAddr := -1
	for i := 0; i < m.Size; i++ {
		if !needed(i) {
			ptrSet = false
			continue
		}
		if !ptrSet || i != lastAddr+1 {
			if err := tpiSetPointer(b, i); err != nil {
				return err
			}
			ptrSet = true
		}
		v, err := tpiLoadPostIncrement(b)
		if err != nil {
			return err
		}
		m.Buf[i] = v
		m.Tags[i] |= part.TagAllocated
		lastAddr = i
		rep.Update(i+1, m.Size)
	}
	return nil
}
