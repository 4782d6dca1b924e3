/*
 * avrdude-core - "net:host:port" TCP peer transport.
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
	"net"
	"strings"
	"time"
)

// TCP is a peer transport for avrdude's "net:host:port" port syntax: a
// programmer that exposes its serial line over a plain TCP socket
// instead of a local device node.
type TCP struct {
	conn net.Conn
}

// ParseNetPort splits "net:host:port" into a dialable "host:port". It
// returns ok=false for any string not using the net: prefix.
func ParseNetPort(port string) (hostPort string, ok bool) {
	const prefix = "net:"
	if !strings.HasPrefix(port, prefix) {
		return "", false
	}
	return port[len(prefix):], true
}

func (t *TCP) Open(ctx context.Context, port string, _ Params) error {
	hostPort, ok := ParseNetPort(port)
	if !ok {
		return fmt.Errorf("transport: %q is not a net:host:port address", port)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", hostPort, err)
	}
	t.conn = conn
	return nil
}

// SetParams is a no-op for a TCP peer transport: line parameters are the
// bootloader's concern on the far side of the socket.
func (t *TCP) SetParams(Params) error { return nil }

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	return t.conn.Close()
}

func (t *TCP) Send(buf []byte) error {
	_, err := t.conn.Write(buf)
	return err
}

func (t *TCP) Recv(buf []byte, timeout time.Duration) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	return t.conn.Read(buf)
}

func (t *TCP) Drain(display bool) error {
	scratch := make([]byte, 256)
	for {
		if err := t.conn.SetReadDeadline(time.Now().Add(DrainTimeout)); err != nil {
			return err
		}
		n, err := t.conn.Read(scratch)
		if n == 0 || err != nil {
			return nil
		}
		_ = display
	}
}

// SetDTRRTS has no meaning over a TCP peer link.
func (t *TCP) SetDTRRTS(bool) error { return nil }
