/*
 * avrdude-core - progress/timing context (spec §3, §4.3-4.5).
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

// Package progress tracks a single operation's monotonic epoch and
// reports percent-complete to a caller-supplied callback, the way the
// teacher's timer/event packages drive periodic work off a monotonic
// clock rather than wall time.
package progress

import "time"

// Callback is invoked with a percent in [0,100], or -1 to signal the
// operation aborted, plus a short header describing the current op
// ("Reading flash", "Writing eeprom", ...).
type Callback func(header string, percent int)

// Report drives Callback calls for one read/write/verify operation.
type Report struct {
	header   string
	cb       Callback
	epoch    time.Time
	lastPct  int
	reported bool
}

// New starts a Report for the given operation header. The epoch is
// established on this first call, per-operation, never package-global.
func New(header string, cb Callback) *Report {
	if cb == nil {
		cb = func(string, int) {}
	}
	return &Report{header: header, cb: cb, epoch: time.Now(), lastPct: -1}
}

// Elapsed returns microseconds since the report's epoch.
func (r *Report) Elapsed() int64 {
	return time.Since(r.epoch).Microseconds()
}

// Update reports progress as done/total, but only invokes the callback
// when the integer percent actually changes, the same way the source
// avoids redrawing a percent bar every byte.
func (r *Report) Update(done, total int) {
	pct := 100
	if total > 0 {
		pct = done * 100 / total
		if pct > 100 {
			pct = 100
		}
	}
	if pct == r.lastPct {
		return
	}
	r.lastPct = pct
	r.reported = true
	r.cb(r.header, pct)
}

// Abort terminates the report with -1, per spec §4.3/§4.4/§7 failure
// semantics ("terminate the progress report with -1").
func (r *Report) Abort() {
	r.lastPct = -1
	r.cb(r.header, -1)
}

// Done reports a clean 100% completion if one hasn't already been sent.
func (r *Report) Done(total int) {
	r.Update(total, total)
}
