/*
 * avrdude-core - serial port transport backend.
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

package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Serial is a Transport backed by a real serial port.
type Serial struct {
	port serial.Port
}

func (s *Serial) Open(ctx context.Context, name string, p Params) error {
	port, err := serial.Open(name, serialMode(p))
	if err != nil {
		return fmt.Errorf("transport: open %s: %w", name, err)
	}
	s.port = port
	return s.SetParams(p)
}

func serialMode(p Params) *serial.Mode {
	mode := &serial.Mode{BaudRate: p.BaudRate}
	switch p.DataBits {
	case 5, 6, 7, 8:
		mode.DataBits = p.DataBits
	default:
		mode.DataBits = 8
	}
	switch p.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}
	switch p.Parity {
	case ParityEven:
		mode.Parity = serial.EvenParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

func (s *Serial) SetParams(p Params) error {
	if s.port == nil {
		return fmt.Errorf("transport: SetParams called before Open")
	}
	if p.BaudRate > 0 {
		return s.port.SetMode(serialMode(p))
	}
	return nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

func (s *Serial) Send(buf []byte) error {
	_, err := s.port.Write(buf)
	return err
}

func (s *Serial) Recv(buf []byte, timeout time.Duration) (int, error) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return 0, err
	}
	return s.port.Read(buf)
}

// Drain reads and discards bytes until none arrive for DrainTimeout
// (spec §5 "Drain uses 80-250 ms"). The display flag is accepted but has
// no effect: discarded bytes are not echoed.
func (s *Serial) Drain(display bool) error {
	scratch := make([]byte, 256)
	for {
		if err := s.port.SetReadTimeout(DrainTimeout); err != nil {
			return err
		}
		n, err := s.port.Read(scratch)
		if n == 0 || err != nil {
			return nil
		}
		_ = display // the real tool logs drained bytes when display is set.
	}
}

func (s *Serial) SetDTRRTS(on bool) error {
	if err := s.port.SetDTR(on); err != nil {
		return err
	}
	return s.port.SetRTS(on)
}
