/*
 * avrdude-core - Urclock programmer.Backend adapter.
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

package urclock

import (
	"context"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
	"github.com/rcornwell/avrdude-core/transport"
	"github.com/rcornwell/avrdude-core/xparam"
)

// Backend wires a Session into the generic engine's programmer.Backend
// capability set, so the same read/write/verify engine that drives an
// ISP or TPI back-end also drives an Urclock bootloader.
type Backend struct {
	programmer.Base
	Sess *Session

	port string
	baud int
}

// NewBackend returns a Backend ready for Open; the bootloader's own
// sync/discovery happen in Initialize, once a transport is open.
func NewBackend(t transport.Transport, p *part.Part, k xparam.Knobs, baud int) *Backend {
	if baud == 0 {
		baud = 115200
	}
	return &Backend{Sess: NewSession(t, p, k), baud: baud}
}

func (b *Backend) ID() string          { return "urclock" }
func (b *Backend) Description() string { return "Urclock/urboot serial bootloader" }
func (b *Backend) Modes() part.Mode    { return part.ModeSPM }
func (b *Backend) ConnType() programmer.ConnType { return programmer.ConnSerial }

func (b *Backend) Supports(cap programmer.Capability) bool {
	switch cap {
	case programmer.CapPagedWrite, programmer.CapPagedLoad, programmer.CapPageErase,
		programmer.CapChipErase, programmer.CapReadSigBytes, programmer.CapReadOnly:
		return true
	default:
		return false
	}
}

func (b *Backend) Open(ctx context.Context, port string) error {
	b.port = port
	return b.Sess.Transport.Open(ctx, port, transport.Params{BaudRate: b.baud, DataBits: 8, StopBits: 1})
}

func (b *Backend) Close() error { return b.Sess.Transport.Close() }

func (b *Backend) Enable() error  { return nil }
func (b *Backend) Disable() error { return nil }

// Initialize runs the bootloader handshake: sync, then bootloader
// discovery, after which the Backend is ready to drive paged I/O.
func (b *Backend) Initialize(ctx context.Context, p *part.Part) error {
	b.Sess.Part = p
	if err := b.Sess.Sync(); err != nil {
		return err
	}
	return b.Sess.Discover()
}

func (b *Backend) Powerup() error   { return nil }
func (b *Backend) Powerdown() error { return nil }

func memKindOf(m *part.Mem) memKind {
	if m.Type.IsEEPROM() {
		return memEEPROM
	}
	return memFlash
}

// ChipErase issues a real CHIP_ERASE when the bootloader has one,
// otherwise arms chip-erase emulation for the next flash write.
func (b *Backend) ChipErase(p *part.Part) error {
	if b.Sess.Features.ChipErase {
		return b.Sess.ChipErase()
	}
	b.Sess.EmulateCE = true
	b.Sess.doneCE = false
	return nil
}

// PagedWrite patches the vector table and applies any pending
// chip-erase emulation before writing the first flash page, then writes
// page through the Urclock wire protocol.
func (b *Backend) PagedWrite(m *part.Mem, page int, data []byte) error {
	kind := memKindOf(m)
	addr := page * pageSizeOrOne(m)
	if kind == memFlash {
		b.Sess.ApplyChipEraseEmulation(m)
		if addr == 0 {
			if err := b.Sess.PatchVectorBootloader(m); err != nil {
				return err
			}
			data = m.Buf[addr : addr+len(data)]
		}
	}
	return b.Sess.WritePage(kind, addr, data)
}

func (b *Backend) PagedLoad(m *part.Mem, page int, into []byte) error {
	kind := memKindOf(m)
	addr := page * pageSizeOrOne(m)
	data, err := b.Sess.ReadPage(kind, addr, len(into))
	if err != nil {
		return err
	}
	copy(into, data)
	return nil
}

func (b *Backend) PageErase(m *part.Mem, page int) error {
	kind := memKindOf(m)
	return b.Sess.PageErase(kind, page*pageSizeOrOne(m))
}

// ReadSigBytes returns the part's configured signature: Urclock
// identifies its target through the sync-byte mcuid rather than a wire
// signature read, so this is a pass-through, not a device query.
func (b *Backend) ReadSigBytes(p *part.Part) ([3]byte, error) {
	return p.Signature, nil
}

// ReadOnly reports the bootloader's own flash pages as protected (spec
// §4.6 "Writing past blstart is refused").
func (b *Backend) ReadOnly(p *part.Part, m *part.Mem, addr int) bool {
	return m.Type.IsFlash() && b.Sess.HasBootStart && addr >= b.Sess.BootStart
}
