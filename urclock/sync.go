/*
 * avrdude-core - Urclock sync-byte learning (spec §4.6 "Synchronisation").
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

import "fmt"

// deriveFeatures decodes the ~16 bits of information a bootloader conveys
// through its chosen (insync, ok) pair: 11 bits of mcuid, 5 bits of
// capability flags (spec §4.6, §8 testable property 5).
func deriveFeatures(insync, ok byte) (mcuid int, f Features) {
	combined := int(insync)*255 + int(ok)
	mcuid = combined >> 5
	bits := combined & 0x1f
	f.Urprotocol = bits&0x01 != 0
	f.ChipErase = bits&0x02 != 0
	f.FlashRead = bits&0x04 != 0
	f.EEPROMRW = bits&0x08 != 0
	f.NorFlash = bits&0x10 != 0
	return mcuid, f
}

// Sync performs the GET_SYNC/EOP handshake: repeatedly sends the request
// and reads a candidate (insync, ok) pair, accepting only when two
// consecutive attempts agree, and aborting after syncAttempts tries. Recv
// is bounded to syncRecvTimeout throughout so a failed attempt never
// risks tripping the bootloader's watchdog.
func (s *Session) Sync() error {
	var lastInsync, lastOK byte
	haveLast := false
	for attempt := 0; attempt < syncAttempts; attempt++ {
		_ = s.Transport.Drain(false)
		if err := s.Transport.Send([]byte{cmdGetSync, cmdEOP}); err != nil {
			return fmt.Errorf("%w: %v", ErrSyncFailed, err)
		}
		buf := make([]byte, 2)
		n, err := s.Transport.Recv(buf, syncRecvTimeout)
		if err != nil || n < 2 {
			haveLast = false
			continue
		}
		insync, ok := buf[0], buf[1]
		if haveLast && insync == lastInsync && ok == lastOK {
			s.acceptSync(insync, ok)
			return nil
		}
		lastInsync, lastOK = insync, ok
		haveLast = true
	}
	return ErrSyncFailed
}

// acceptSync records a confirmed (insync, ok) pair, remapping the
// reserved (0xff, 0xfe) pair onto the classic STK500v1 bytes for
// optiboot/compat bootloaders that carry no feature information at all.
func (s *Session) acceptSync(insync, ok byte) {
	if insync == 0xff && ok == 0xfe {
		s.Insync, s.OK = classicInsync, classicOK
		s.Synced = true
		s.MCUID = -1
		s.Features = Features{}
		s.EmulateCE = true
		return
	}
	s.Insync, s.OK = insync, ok
	s.Synced = true
	s.MCUID, s.Features = deriveFeatures(insync, ok)
	s.EmulateCE = !s.Features.ChipErase
}
