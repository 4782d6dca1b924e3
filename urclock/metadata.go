/*
 * avrdude-core - Urclock metadata trailer (spec §4.6 "Metadata trailer").
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

// NoMetadata marks a Metadata value as "no trailer at all".
const NoMetadata byte = 0xff

// storeFieldWidth is 2 bytes for parts with flash <= 64 KiB, else 4,
// matching flash address width (spec §4.6).
func storeFieldWidth(flashSize int) int {
	if flashSize <= 1<<16 {
		return 2
	}
	return 4
}

func encodeWidth(v, w int) []byte {
	b := make([]byte, w)
	for i := 0; i < w; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func decodeWidth(b []byte) int {
	v := 0
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int(b[i])
	}
	return v
}

// trailerLen returns the byte length of md's encoding, given the mcode
// that selects which optional fields are present (spec §4.6 "mcode ∈
// {0xff=none, 0=no-date, 1=date-only, 2..254=filename length incl nul}").
func trailerLen(mcode byte, flashSize int) int {
	if mcode == NoMetadata {
		return 0
	}
	n := 1 + 2*storeFieldWidth(flashSize) // mcode + storestart + storesize
	if mcode >= 1 {
		n += 6 // yyyy(2) mm dd hr mn
	}
	if mcode >= 2 {
		n += int(mcode)
	}
	return n
}

// EncodeMetadata lays md out in increasing-address order: filename (if
// any), then date fields, then store start/size, then mcode last — the
// byte immediately below the bootloader, at a fixed offset regardless of
// filename length, so discovery can read it without first knowing the
// trailer's total size.
func EncodeMetadata(md Metadata, flashSize int) []byte {
	if md.MCode == NoMetadata {
		return nil
	}
	w := storeFieldWidth(flashSize)
	var out []byte
	if md.MCode >= 2 {
		fn := make([]byte, md.MCode)
		copy(fn, md.Filename)
		out = append(out, fn...)
	}
	if md.MCode >= 1 {
		out = append(out, byte(md.Year), byte(md.Year>>8), byte(md.Month), byte(md.Day), byte(md.Hour), byte(md.Minute))
	}
	out = append(out, encodeWidth(md.StoreStart, w)...)
	out = append(out, encodeWidth(md.StoreSize, w)...)
	out = append(out, md.MCode)
	return out
}

// DecodeMetadata parses a trailer whose last byte is mcode (window[len-1])
// and returns the decoded Metadata plus how many of window's trailing
// bytes it consumed. window must be at least as long as the trailer mcode
// implies; a shorter window is an error.
func DecodeMetadata(window []byte, flashSize int) (Metadata, int, error) {
	if len(window) == 0 {
		return Metadata{}, 0, fmt.Errorf("urclock: empty metadata window")
	}
	mcode := window[len(window)-1]
	if mcode == NoMetadata {
		return Metadata{MCode: NoMetadata}, 0, nil
	}
	n := trailerLen(mcode, flashSize)
	if n > len(window) {
		return Metadata{}, 0, fmt.Errorf("urclock: metadata window too short for mcode %d", mcode)
	}
	buf := window[len(window)-n:]
	cursor := 0
	md := Metadata{MCode: mcode}
	if mcode >= 2 {
		fn := buf[cursor : cursor+int(mcode)]
		end := len(fn)
		for i, b := range fn {
			if b == 0 {
				end = i
				break
			}
		}
		md.Filename = string(fn[:end])
		cursor += int(mcode)
	}
	if mcode >= 1 {
		md.Year = int(buf[cursor]) | int(buf[cursor+1])<<8
		md.Month = int(buf[cursor+2])
		md.Day = int(buf[cursor+3])
		md.Hour = int(buf[cursor+4])
		md.Minute = int(buf[cursor+5])
		cursor += 6
	}
	w := storeFieldWidth(flashSize)
	md.StoreStart = decodeWidth(buf[cursor : cursor+w])
	cursor += w
	md.StoreSize = decodeWidth(buf[cursor : cursor+w])
	return md, n, nil
}
