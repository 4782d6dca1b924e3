/*
 * avrdude-core - file-format boundary contract (spec §3, §9).
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

// FileSource supplies bytes and allocation tags into a Mem, the engine's
// only contact point with whatever file format (ihex, raw binary, elf)
// produced them; the engine itself never parses a file.
type FileSource interface {
	// Load fills m.Buf/m.Tags for the bytes this source provides,
	// tagging each filled byte ALLOCATED. It never resizes m.
	Load(m *part.Mem) error
}

// FileSink drains a Mem's tagged bytes into whatever output format the
// caller wants, the mirror image of FileSource.
type FileSink interface {
	Save(m *part.Mem) error
}

// RawSource loads a flat, untagged byte image starting at address 0,
// tagging every byte it supplies ALLOCATED. This is the "raw binary"
// input format: no addressing metadata, no holes.
type RawSource struct {
	Data []byte
}

func (r RawSource) Load(m *part.Mem) error {
	if len(r.Data) > m.Size {
		return fmt.Errorf("%w: raw image of %d bytes exceeds %s size %d", ErrSetup, len(r.Data), m.Desc, m.Size)
	}
	copy(m.Buf, r.Data)
	for i := range r.Data {
		m.Tags[i] |= part.TagAllocated
	}
	return nil
}

// RawSink copies every tagged byte of m into a flat buffer the size of
// the memory, leaving untagged bytes at their current value.
type RawSink struct {
	Data []byte
}

func (r *RawSink) Save(m *part.Mem) error {
	r.Data = make([]byte, m.Size)
	copy(r.Data, m.Buf)
	return nil
}

// MemorySource wraps an already-populated Mem (e.g. one Mem's buffer
// feeding another as a verify reference) as a FileSource, so callers can
// pass either a real file or another Mem through the same interface.
type MemorySource struct {
	Mem *part.Mem
}

func (s MemorySource) Load(m *part.Mem) error {
	if s.Mem.Size != m.Size {
		return fmt.Errorf("%w: source size %d does not match %s size %d", ErrSetup, s.Mem.Size, m.Desc, m.Size)
	}
	copy(m.Buf, s.Mem.Buf)
	copy(m.Tags, s.Mem.Tags)
	return nil
}
