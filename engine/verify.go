/*
 * avrdude-core - verify engine (spec §4.5).
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
	"log/slog"

	"github.com/rcornwell/avrdude-core/part"
)

// maxROMismatchLog and maxVerboseMismatch bound how many individual
// mismatch lines VerifyMem will ever hand the caller's logger, per spec
// §4.5 ("log up to 10" / "accumulate up to a cap").
const (
	maxROMismatchLog   = 10
	maxVerboseMismatch = 100
)

// Mismatch describes one byte that failed verification.
type Mismatch struct {
	Addr     int
	Dev, Ref byte
	ReadOnly bool // In a known-protected area; not counted as a real error.
}

// VerifyMem implements verify_mem(pgm, part_dev, part_ref, mem, size):
// compares dev's buffer against ref's buffer byte by byte, only where ref
// is tagged ALLOCATED. Returns size on a clean verify (all mismatches
// either within protected areas, or differing only in unused mask bits);
// returns -1 and the mismatch list once a real error is found, unless
// Verbose requests accumulation up to maxVerboseMismatch.
func (s *Session) VerifyMem(dev, ref *part.Mem, size int) (int, []Mismatch, error) {
	if size > ref.Size {
		size = ref.Size
	}
	b := s.Prog.Backend
	var mismatches []Mismatch
	roCount := 0
	realError := false

	for i := 0; i < size; i++ {
		if !ref.Allocated(i) {
			continue
		}
		dv, rv := dev.Buf[i], ref.Buf[i]
		if dv == rv {
			continue
		}

		protected := dev.Type.IsReadOnly() || b.ReadOnly(s.Part, dev, i)
		if protected {
			roCount++
			if roCount <= maxROMismatchLog {
				mismatches = append(mismatches, Mismatch{Addr: i, Dev: dv, Ref: rv, ReadOnly: true})
			}
			continue
		}

		mask := s.verifyMask(dev, i)
		if (dv^rv)&mask == 0 {
			// Only unused bits differ: warn, not an error.
			slog.Warn("verify: only unused bits differ", "mem", dev.Desc, "addr", i, "device", dv, "file", rv)
			continue
		}

		realError = true
		mismatches = append(mismatches, Mismatch{Addr: i, Dev: dv, Ref: rv})
		if s.Verbose == 0 || len(mismatches) >= maxVerboseMismatch {
			break
		}
	}

	if realError {
		s.ledErr()
		return -1, mismatches, fmt.Errorf("%w: verify mismatch in %s", ErrDeviceFailure, dev.Desc)
	}
	return size, mismatches, nil
}

// verifyMask picks the bitmask that decides whether a verify mismatch is
// real: fuse and lock regions use mem_bitmask (part.MemBitmask); every
// other region compares all eight bits. No intersection with an ISP
// part's fuse read/write opcode masks is applied.
func (s *Session) verifyMask(m *part.Mem, addr int) byte {
	if m.Type.IsAFuse() || m.Type.IsLock() {
		return part.MemBitmask(s.Part, m, addr)
	}
	return 0xff
}
