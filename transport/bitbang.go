/*
 * avrdude-core - bit-bang GPIO transport (spec §4.8).
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

	"periph.io/x/conn/v3/physic"

	"github.com/rcornwell/avrdude-core/bitbang"
)

// BitBang adapts a bitbang.Link to the Transport contract: Send/Recv
// clock plain ISP bytes; TPI byte framing is handled one level down by
// the tpi package calling bitbang directly where framing matters.
type BitBang struct {
	Link *bitbang.Link
	Pins bitbang.Pins
}

func (b *BitBang) Open(ctx context.Context, port string, p Params) error {
	freq := physic.Frequency(p.BaudRate) * physic.Hertz
	if freq == 0 {
		freq = 100 * physic.KiloHertz
	}
	link, err := bitbang.New(b.Pins, freq)
	if err != nil {
		return fmt.Errorf("transport: bitbang open: %w", err)
	}
	b.Link = link
	return nil
}

func (b *BitBang) SetParams(Params) error { return nil }

func (b *BitBang) Close() error { return nil }

func (b *BitBang) Send(buf []byte) error {
	for _, c := range buf {
		if _, err := b.Link.ClockByte(c); err != nil {
			return err
		}
	}
	return nil
}

func (b *BitBang) Recv(buf []byte, timeout time.Duration) (int, error) {
	for i := range buf {
		v, err := b.Link.ClockByte(0xff)
		if err != nil {
			return i, err
		}
		buf[i] = v
	}
	return len(buf), nil
}

func (b *BitBang) Drain(bool) error { return nil }

func (b *BitBang) SetDTRRTS(on bool) error {
	return b.Link.SetReset(on)
}
