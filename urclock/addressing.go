/*
 * avrdude-core - Urclock/STK500v1-compat addressing (spec §4.6 "Addressing").
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

// cmdUniversal and the extended-address opcode it carries under
// STK500v1-compat mode, sent before the first address and again whenever
// bits 16..23 of the word address change (see encodeAddress).
const (
	cmdUniversal       byte = 0x56
	universalLoadExtAddr byte = 0x4D
)

// encodeAddress returns the on-wire address bytes for byteAddr, plus (for
// STK500v1-compat mode only) an optional extended-address universal
// command that must be sent first, when the cached extension byte has
// changed (spec §4.6 "a separate extended-address universal command
// cached to avoid redundant emission").
func (s *Session) encodeAddress(byteAddr int) (extCmd []byte, addrBytes []byte) {
	if s.Features.Urprotocol {
		if s.addrIs16Bit() {
			return nil, []byte{byte(byteAddr), byte(byteAddr >> 8)}
		}
		return nil, []byte{byte(byteAddr), byte(byteAddr >> 8), byte(byteAddr >> 16)}
	}

	word := byteAddr / 2
	extByte := byte(word >> 16)
	if !s.haveExtAddr || s.extAddr != extByte {
		extCmd = []byte{cmdUniversal, universalLoadExtAddr, 0x00, extByte, 0x00}
		s.extAddr = extByte
		s.haveExtAddr = true
	}
	return extCmd, []byte{byte(word), byte(word >> 8)}
}

// encodeLength returns the on-wire page-length field: big-endian, 1 byte
// under urprotocol when page <= 256 (0 encodes 256), else 2 bytes; always
// 2 bytes big-endian under STK500v1-compat (spec §4.6 "Addressing").
func (s *Session) encodeLength(n int) []byte {
	if s.Features.Urprotocol && n <= 256 {
		return []byte{byte(n)} // n==256 wraps to 0x00, the documented encoding.
	}
	return []byte{byte(n >> 8), byte(n)}
}
