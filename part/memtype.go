/*
 * avrdude-core - AVR memory type bitfield.
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

// MemType is the low 4 bits fuse offset plus a region identity and a set
// of attribute bits, all packed into one value the way the original tool
// packs them into a C bitfield.
type MemType uint32

const (
	fuseOffsetMask MemType = 0x0f // Low 4 bits: fuse offset 0-10.

	// Region identity, mid bits.
	kindEEPROM MemType = 1 << (4 + iota)
	kindFlash
	kindApplication
	kindApptable
	kindBoot
	kindFuses
	kindLock
	kindSigrow
	kindSignature
	kindCalibration
	kindUserrow
	kindBootrow
	kindSRAM
	kindIO
	kindSIB
)

const (
	// Attributes, high bits.
	attrInFlash MemType = 1 << (20 + iota)
	attrIsAFuse
	attrUserType
	attrInSigrow
	attrReadOnly
)

// Exported region kinds used by canonical-name lookup.
const (
	MemEEPROM      = kindEEPROM
	MemFlash       = kindFlash | attrInFlash
	MemApplication = kindApplication | attrInFlash
	MemApptable    = kindApptable | attrInFlash
	MemBoot        = kindBoot | attrInFlash
	MemFuses       = kindFuses | attrIsAFuse
	MemLock        = kindLock
	MemSigrow      = kindSigrow | attrInSigrow
	MemSignature   = kindSignature | attrInSigrow | attrReadOnly
	MemCalibration = kindCalibration | attrInSigrow | attrReadOnly
	MemUserrow     = kindUserrow | attrUserType
	MemBootrow     = kindBootrow | attrInFlash
	MemSRAM        = kindSRAM
	MemIO          = kindIO
	MemSIB         = kindSIB | attrReadOnly
)

// FuseOffset returns the packed fuse offset (0-10), valid only when IsAFuse.
func (t MemType) FuseOffset() int { return int(t & fuseOffsetMask) }

// WithFuseOffset returns t with its low 4 bits set to off.
func (t MemType) WithFuseOffset(off int) MemType {
	return (t &^ fuseOffsetMask) | MemType(off&0x0f)
}

func (t MemType) has(bits MemType) bool { return t&bits == bits }

func (t MemType) IsFlash() bool       { return t.has(attrInFlash) }
func (t MemType) IsAFuse() bool       { return t.has(attrIsAFuse) }
func (t MemType) IsUserType() bool    { return t.has(attrUserType) }
func (t MemType) IsInSigrow() bool    { return t.has(attrInSigrow) }
func (t MemType) IsReadOnly() bool    { return t.has(attrReadOnly) }
func (t MemType) IsEEPROM() bool      { return t.has(kindEEPROM) }
func (t MemType) IsApplication() bool { return t.has(kindApplication) }
func (t MemType) IsBoot() bool        { return t.has(kindBoot) }
func (t MemType) IsFuses() bool       { return t.has(kindFuses) }
func (t MemType) IsLock() bool        { return t.has(kindLock) }
func (t MemType) IsSignature() bool   { return t.has(kindSignature) }
