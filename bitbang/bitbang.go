/*
 * avrdude-core - bit-banged ISP/TPI framing over discrete GPIO pins
 * (spec §4.8).
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

// Package bitbang drives SCK/SDI/SDO pins directly the way a GPIO-only
// ISP/TPI programmer must, framing each TPI byte as start(0), 8 data
// bits LSB-first, even parity, two stop(1) bits (spec §4.8), and
// clocking plain ISP bytes MSB-first with no framing overhead.
package bitbang

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	_ "periph.io/x/host/v3" // Registers the platform GPIO driver at init.
)

// Pins names the four signals a bit-bang link drives: clock, data-in to
// the target (SDI/MOSI), data-out from the target (SDO/MISO), and reset.
type Pins struct {
	SCK, SDI, SDO, Reset gpio.PinIO
}

// Link drives Pins at a caller-chosen clock period.
type Link struct {
	Pins   Pins
	Period time.Duration // One SCK half-period.
}

// New returns a Link clocked at freq, idle clock low.
func New(p Pins, freq physic.Frequency) (*Link, error) {
	if freq == 0 {
		return nil, fmt.Errorf("bitbang: zero clock frequency")
	}
	if err := p.SCK.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("bitbang: init SCK: %w", err)
	}
	return &Link{Pins: p, Period: freq.Period() / 2}, nil
}

func (l *Link) tick() {
	_ = l.Pins.SCK.Out(gpio.High)
	time.Sleep(l.Period)
	_ = l.Pins.SCK.Out(gpio.Low)
	time.Sleep(l.Period)
}

// ClockByte shifts out out MSB-first while shifting in a reply byte,
// the plain ISP wire format (no start/stop/parity framing): SDI (to the
// target) is set before the rising edge, SDO (from the target) is sampled
// on the rising edge.
func (l *Link) ClockByte(out byte) (byte, error) {
	var in byte
	for bit := 7; bit >= 0; bit-- {
		level := gpio.Low
		if out&(1<<uint(bit)) != 0 {
			level = gpio.High
		}
		if err := l.Pins.SDI.Out(level); err != nil {
			return 0, err
		}
		_ = l.Pins.SCK.Out(gpio.High)
		time.Sleep(l.Period)
		if l.Pins.SDO.Read() == gpio.High {
			in |= 1 << uint(bit)
		}
		_ = l.Pins.SCK.Out(gpio.Low)
		time.Sleep(l.Period)
	}
	return in, nil
}

// tpiFrame returns the 11 bits (start..stop) of a TPI-framed byte, LSB
// first after the start bit, with an even-parity bit before the two
// stop bits, ordered index 0 (start) .. index 10 (first stop). The second
// stop bit is not part of the frame; SendTPIByte clocks it separately.
func tpiFrame(b byte) [11]int {
	var frame [11]int
	frame[0] = 0 // start bit
	ones := 0
	for i := 0; i < 8; i++ {
		bit := int((b >> uint(i)) & 1)
		frame[1+i] = bit
		ones += bit
	}
	frame[9] = ones % 2 // even parity
	frame[10] = 1       // first stop bit; second stop is the idle-high line state
	return frame
}

// SendTPIByte clocks one TPI-framed byte out on SDI: SCK toggled by the
// host, SDI driven before the rising edge (falling-edge "set" semantics
// realised as "set, then clock high to latch" since the target samples
// on the rising edge of the host-driven clock).
func (l *Link) SendTPIByte(b byte) error {
	frame := tpiFrame(b)
	for _, bit := range frame {
		level := gpio.Low
		if bit != 0 {
			level = gpio.High
		}
		if err := l.Pins.SDI.Out(level); err != nil {
			return err
		}
		l.tick()
	}
	// Second stop bit: line idles high for one more bit period.
	if err := l.Pins.SDI.Out(gpio.High); err != nil {
		return err
	}
	l.tick()
	return nil
}

// RecvTPIByte samples one TPI-framed byte from SDO: waits for the start
// bit (line low), samples 8 data bits LSB-first, then the parity and
// stop bits, returning an error if parity fails to check out.
func (l *Link) RecvTPIByte() (byte, error) {
	for l.Pins.SDO.Read() != gpio.Low {
		l.tick()
	}
	l.tick() // Consume the start bit's own period.

	var b byte
	ones := 0
	for i := 0; i < 8; i++ {
		l.tick()
		if l.Pins.SDO.Read() == gpio.High {
			b |= 1 << uint(i)
			ones++
		}
	}
	l.tick()
	parity := l.Pins.SDO.Read() == gpio.High
	if parity != (ones%2 == 1) {
		return 0, fmt.Errorf("bitbang: TPI parity error on received byte %#x", b)
	}
	l.tick() // First stop bit.
	l.tick() // Second stop bit.
	return b, nil
}

// SetReset drives the target's reset pin, active-low on every AVR ISP
// and TPI interface.
func (l *Link) SetReset(asserted bool) error {
	level := gpio.High
	if asserted {
		level = gpio.Low
	}
	return l.Pins.Reset.Out(level)
}
