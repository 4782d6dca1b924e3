/*
 * avrdude-core - Urclock command set and <cmd><params><EOP> framing
 * (spec §4.6 "Commands").
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
	"errors"
	"fmt"

	"github.com/rcornwell/avrdude-core/transport"
)

var ErrNoChipErase = errors.New("urclock: bootloader does not support CHIP_ERASE")

// transact sends <cmd><params><EOP> and reads <INSYNC>[respLen bytes]<OK>,
// any other command-then-response exchange being reported by this
// bootloader as a plain GET_SYNC (spec §4.6 "any other command behaves as
// GET_SYNC"), which surfaces here as a framing mismatch.
func (s *Session) transact(cmd byte, params []byte, respLen int) ([]byte, error) {
	if !s.Synced {
		return nil, ErrNotInSync
	}
	out := make([]byte, 0, len(params)+2)
	out = append(out, cmd)
	out = append(out, params...)
	out = append(out, cmdEOP)
	if err := s.Transport.Send(out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFramingError, err)
	}

	hdr := make([]byte, 1)
	if n, err := s.Transport.Recv(hdr, transport.DefaultRecvTimeout); err != nil || n < 1 || hdr[0] != s.Insync {
		return nil, ErrFramingError
	}

	var payload []byte
	if respLen > 0 {
		payload = make([]byte, respLen)
		n, err := s.Transport.Recv(payload, transport.DefaultRecvTimeout)
		if err != nil || n < respLen {
			return nil, ErrFramingError
		}
	}

	tail := make([]byte, 1)
	if n, err := s.Transport.Recv(tail, transport.DefaultRecvTimeout); err != nil || n < 1 || tail[0] != s.OK {
		return nil, ErrFramingError
	}
	return payload, nil
}

// loadAddress positions the bootloader's address pointer at byteAddr.
// Under urprotocol the address travels inline with the paged command
// itself (no separate round trip); under STK500v1-compat it is a
// distinct LOAD_ADDRESS transaction, preceded by a cached
// extended-address universal command when the bank has changed.
func (s *Session) loadAddress(byteAddr int) error {
	extCmd, addrBytes := s.encodeAddress(byteAddr)
	if extCmd != nil {
		if _, err := s.transact(extCmd[0], extCmd[1:], 1); err != nil {
			return err
		}
	}
	if s.Features.Urprotocol {
		return nil
	}
	_, err := s.transact(cmdLoadAddress, addrBytes, 0)
	return err
}

func (s *Session) pagedCmd(kind memKind, read bool) byte {
	if s.Features.Urprotocol {
		switch {
		case read && kind == memFlash:
			return cmdURReadPageFl
		case read && kind == memEEPROM:
			return cmdURReadPageEE
		case !read && kind == memFlash:
			return cmdURProgPageFl
		default:
			return cmdURProgPageEE
		}
	}
	if read {
		return cmdReadPage
	}
	return cmdProgPage
}

func memChar(kind memKind) byte {
	if kind == memFlash {
		return 'F'
	}
	return 'E'
}

// WritePage writes one page of data starting at byteAddr (spec §4.6
// "paged writes must equal page size for flash, <= max(page,256) for
// EEPROM" is enforced by the caller, which knows the part's page
// geometry; this layer only refuses an address past the bootloader).
func (s *Session) WritePage(kind memKind, byteAddr int, data []byte) error {
	if s.HasBootStart && byteAddr+len(data) > s.BootStart {
		return fmt.Errorf("%w: page at %#x overlaps bootloader at %#x", ErrBootloaderOverlap, byteAddr, s.BootStart)
	}
	if err := s.loadAddress(byteAddr); err != nil {
		return err
	}
	cmd := s.pagedCmd(kind, false)
	var params []byte
	if s.Features.Urprotocol {
		_, addrBytes := s.encodeAddress(byteAddr)
		params = append(params, addrBytes...)
	}
	params = append(params, s.encodeLength(len(data))...)
	if !s.Features.Urprotocol {
		params = append(params, memChar(kind))
	}
	params = append(params, data...)
	_, err := s.transact(cmd, params, 0)
	return err
}

// ReadPage reads one page of length bytes starting at byteAddr.
func (s *Session) ReadPage(kind memKind, byteAddr, length int) ([]byte, error) {
	if err := s.loadAddress(byteAddr); err != nil {
		return nil, err
	}
	cmd := s.pagedCmd(kind, true)
	var params []byte
	if s.Features.Urprotocol {
		_, addrBytes := s.encodeAddress(byteAddr)
		params = append(params, addrBytes...)
	}
	params = append(params, s.encodeLength(length)...)
	if !s.Features.Urprotocol {
		params = append(params, memChar(kind))
	}
	return s.transact(cmd, params, length)
}

// PageErase erases the page starting at byteAddr (Urclock-specific;
// classic STK500v1 has no page-erase command of its own).
func (s *Session) PageErase(kind memKind, byteAddr int) error {
	if s.HasBootStart && byteAddr >= s.BootStart {
		return fmt.Errorf("%w: erase at %#x overlaps bootloader at %#x", ErrBootloaderOverlap, byteAddr, s.BootStart)
	}
	if err := s.loadAddress(byteAddr); err != nil {
		return err
	}
	var params []byte
	if s.Features.Urprotocol {
		_, addrBytes := s.encodeAddress(byteAddr)
		params = append(params, addrBytes...)
	} else {
		params = append(params, memChar(kind))
	}
	_, err := s.transact(cmdPageErase, params, 0)
	return err
}

// ChipErase issues CHIP_ERASE when the bootloader advertises it;
// otherwise callers should rely on EmulateCE instead.
func (s *Session) ChipErase() error {
	if !s.Features.ChipErase {
		return ErrNoChipErase
	}
	_, err := s.transact(cmdChipErase, nil, 0)
	if err == nil {
		s.doneCE = true
	}
	return err
}

// LeaveProgmode issues LEAVE_PROGMODE. No feature bit gates it: the
// command is sent whatever the bootloader advertised, and a framing
// error in the reply is returned to the caller.
func (s *Session) LeaveProgmode() error {
	_, err := s.transact(cmdLeaveProgmode, nil, 0)
	return err
}
