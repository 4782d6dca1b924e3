/*
 * avrdude-core - byte-stream transport contract (spec §6).
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

// Package transport is the byte-stream contract every programmer backend
// rides on: open/send/recv/drain/set_dtr_rts/close, the narrow interface
// spec §6 says the core consumes rather than implements transport
// drivers wholesale. Three concrete backends live alongside it: a serial
// port, a "net:host:port" TCP peer, and a bit-banged GPIO link.
package transport

import (
	"context"
	"time"
)

// Params carries the serial line parameters a Transport.Open may need;
// TCP and bit-bang backends ignore fields that don't apply to them.
type Params struct {
	BaudRate int
	DataBits int // 5, 6, 7 or 8
	StopBits int // 1 or 2
	Parity   Parity
	Local    bool // Local-mode: ignore modem control lines.
}

type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// Transport is the byte-stream contract: open, configure, move bytes,
// drain, toggle DTR/RTS, close.
type Transport interface {
	Open(ctx context.Context, port string, p Params) error
	SetParams(p Params) error
	Close() error

	Send(buf []byte) error
	Recv(buf []byte, timeout time.Duration) (int, error)
	Drain(display bool) error
	SetDTRRTS(on bool) error
}

// DefaultRecvTimeout is the transport's baseline recv timeout for serial
// links (spec §5 timeouts: "starts at 5000 ms for serial").
const DefaultRecvTimeout = 5000 * time.Millisecond

// SyncRecvTimeout narrows the recv timeout during Urclock sync attempts
// so a failed sync doesn't trip the bootloader watchdog (spec §4.6).
const SyncRecvTimeout = 100 * time.Millisecond

// DrainTimeout bounds how long Drain waits for stray bytes to stop
// arriving before giving up (spec §5: "Drain uses 80-250 ms").
const DrainTimeout = 150 * time.Millisecond

// ChipEraseTimeout widens the recv timeout around a chip-erase operation,
// scaled to flash size and bounded at 20s (spec §5).
func ChipEraseTimeout(flashSize, pageSize int) time.Duration {
	if pageSize <= 0 {
		pageSize = 1
	}
	ms := 500 + (flashSize/pageSize)*20
	if ms > 20000 {
		ms = 20000
	}
	return time.Duration(ms) * time.Millisecond
}
