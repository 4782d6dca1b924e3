/*
 * avrdude-core - default (unsupported) Backend implementation.
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

package programmer

import "github.com/rcornwell/avrdude-core/part"

// Base gives every optional Backend method a not-supported default so a
// concrete back-end only has to implement what it actually offers and
// override Supports for the capabilities it adds.
type Base struct{}

func (Base) Supports(Capability) bool { return false }

func (Base) ProgramEnable(*part.Part) error { return ErrUnsupported }
func (Base) ChipErase(*part.Part) error     { return ErrUnsupported }
func (Base) Unlock(*part.Part) error        { return ErrUnsupported }

func (Base) Cmd(*[4]byte) (*[4]byte, error)      { return nil, ErrUnsupported }
func (Base) CmdTPI([]byte, int) ([]byte, error)  { return nil, ErrUnsupported }
func (Base) SPI([]byte) ([]byte, error)          { return nil, ErrUnsupported }

func (Base) PagedWrite(*part.Mem, int, []byte) error    { return ErrUnsupported }
func (Base) PagedLoad(*part.Mem, int, []byte) error     { return ErrUnsupported }
func (Base) PageErase(*part.Mem, int) error             { return ErrUnsupported }

func (Base) WriteSetup(*part.Mem) error { return ErrUnsupported }
func (Base) WriteByte(*part.Part, *part.Mem, int, byte) error { return ErrUnsupported }
func (Base) ReadByte(*part.Part, *part.Mem, int) (byte, error) {
	return 0, ErrUnsupported
}
func (Base) ReadSigBytes(*part.Part) ([3]byte, error) { return [3]byte{}, ErrUnsupported }
func (Base) ReadSIB(*part.Part) ([]byte, error)       { return nil, ErrUnsupported }

func (Base) ReadOnly(*part.Part, *part.Mem, int) bool { return false }

func (Base) ParseExtParams([]string) error { return nil }

func (Base) FlashReadHook(*part.Mem) {}
