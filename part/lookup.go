/*
 * avrdude-core - part/memory lookup (spec §4.1).
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

import "bytes"

// Catalog is an ordered list of known parts, e.g. loaded from a
// configuration file by an external collaborator (out of scope here).
type Catalog []*Part

// LocatePart finds a part by long or short identifier. The comparison is
// exact and case-sensitive; callers normalize case upstream.
func LocatePart(parts Catalog, id string) *Part {
	for _, p := range parts {
		if p.ID == id || p.ShortID == id {
			return p
		}
	}
	return nil
}

// LocatePartBySignature finds a part by its three-byte device signature.
func LocatePartBySignature(parts Catalog, sig [3]byte) *Part {
	for _, p := range parts {
		if bytes.Equal(p.Signature[:], sig[:]) {
			return p
		}
	}
	return nil
}

// knownName is one entry of the fixed canonical-name table; namePattern
// and the associated MemType classify every region a config file or
// wire-probed descriptor can name. Unknown names are appended to a
// part's Aliases at runtime (self-referential, canonical->canonical) so
// later lookups within the same session stay stable, mirroring the
// source's "unknown names are appended so subsequent lookups are
// stable within a session" behaviour.
var knownNames = map[string]MemType{
	"flash":       MemFlash,
	"application": MemApplication,
	"apptable":    MemApptable,
	"boot":        MemBoot,
	"eeprom":      MemEEPROM,
	"fuses":       MemFuses,
	"lock":        MemLock,
	"signature":   MemSignature,
	"sigrow":      MemSigrow,
	"calibration": MemCalibration,
	"userrow":     MemUserrow,
	"bootrow":     MemBootrow,
	"sram":        MemSRAM,
	"io":          MemIO,
	"sib":         MemSIB,
}

// defaultAliases resolves historical/alternate spellings to the canonical
// descriptor name, stored with the part rather than globally so a part
// loaded from config can extend it.
var defaultAliases = map[string]string{
	"lockbits": "lock",
	"usersig":  "userrow",
	"efuse":    "fuse2",
	"hfuse":    "fuse1",
	"lfuse":    "fuse0",
}

// NewPart builds a Part with the default alias table pre-populated; a
// config loader (out of scope) is expected to add to Mems and may extend
// Aliases further.
func NewPart(id, shortID string) *Part {
	aliases := make(map[string]string, len(defaultAliases))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	return &Part{ID: id, ShortID: shortID, Aliases: aliases}
}

// RegisterUnknownName records name as its own canonical alias so that a
// later LocateMem(name) within the same session resolves without
// re-consulting any external table.
func (p *Part) RegisterUnknownName(name string) {
	if p.Aliases == nil {
		p.Aliases = map[string]string{}
	}
	if _, ok := p.Aliases[name]; !ok {
		p.Aliases[name] = name
	}
}

// MemBitmask implements mem_bitmask(part, mem, addr): spec §4.1 case (a)
// collective fuses region delegates to the individual fuse and shifts the
// high byte for 2-byte fuses, (b) a 2-byte "a_fuse" region shifts by
// high-byte addressing, (c) a multi-byte lock region slices per byte, (d)
// otherwise the plain Bitmask.
func MemBitmask(p *Part, m *Mem, addr int) byte {
	switch {
	case m.Desc == "fuses":
		fuse := p.FindFuseByOffset(addr)
		if fuse == nil {
			return 0xff
		}
		if fuse.Size == 2 && addr == fuse.Type.FuseOffset()+1 {
			return byte(fuse.Bitmask >> 8)
		}
		return byte(fuse.Bitmask)

	case m.Type.IsAFuse() && m.Size == 2:
		if addr > 0 {
			return byte(m.Bitmask >> 8)
		}
		return byte(m.Bitmask)

	case m.Type.IsLock() && m.Size > 1:
		// Each byte of a multi-byte lock region has its own full 8-bit
		// mask slice; there is nothing to shift per-address.
		if addr < 0 || addr >= m.Size {
			return 0
		}
		return byte(m.Bitmask)

	default:
		return byte(m.Bitmask & 0xff)
	}
}
