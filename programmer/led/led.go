/*
 * avrdude-core - LED state machine (spec §4.7).
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

// Package led implements the four-LED exit-state machine (RDY/ERR/PGM/VFY)
// described in spec §4.7, rate-limited the way the teacher's event queue
// rate-limits device timing events rather than toggling on every tick.
package led

import "time"

// Which identifies one of the four logical LEDs, plus the three
// pseudo-LEDs BEG/END/NOP used to drive the state machine.
type Which int

const (
	RDY Which = iota
	ERR
	PGM
	VFY
	numLEDs

	BEG Which = 100 + iota // Pseudo: clear all at session start.
	END                    // Pseudo: assert final exit state.
	NOP                    // Pseudo: tick, no change requested.
)

// FMax bounds how often the physical state may change, except for forced
// ON/OFF transitions and each LED's first-ever set.
const FMax = 2.5 // Hz

// minInterval is the minimum time between physical toggles of a given LED.
var minInterval = time.Duration(1000.0/(2*FMax)) * time.Millisecond

// State holds the session-long LED bits. Owned by the programmer instance
// for the duration of setup()..teardown(), never a package global (spec §9
// "replace the global mutable context with an explicit session value").
type State struct {
	last [numLEDs]time.Time
	set  [numLEDs]bool // ever-set, for "first set lights immediately"
	now_ [numLEDs]bool // logical desired bits
	chg  [numLEDs]bool // toggle-needed bits
	phy  [numLEDs]bool // physical state bits
	end  [numLEDs]bool // bits to hold on program exit
}

// New returns a State with every LED off.
func New() *State { return &State{} }

// Set requests which be lit.
func (s *State) Set(which Which) { s.update(which, true) }

// Clr requests which be cleared.
func (s *State) Clr(which Which) { s.update(which, false) }

// Tick applies NOP: flush any pending rate-limited toggle whose interval
// has elapsed. A real driver calls this periodically (or opportunistically
// before querying Physical) so toggles don't indefinitely stall during a
// long quiet period.
func (s *State) Tick(now time.Time) {
	for i := Which(0); i < numLEDs; i++ {
		s.applyIfDue(i, now)
	}
}

func (s *State) update(which Which, on bool) {
	now := time.Now()
	switch which {
	case BEG:
		for i := Which(0); i < numLEDs; i++ {
			s.now_[i] = false
			s.phy[i] = false
			s.chg[i] = false
			s.end[i] = false
		}
		return
	case END:
		s.phy[RDY] = false
		s.now_[RDY] = false
		for i := Which(0); i < numLEDs; i++ {
			if i == RDY {
				continue
			}
			s.phy[i] = s.end[i]
			s.now_[i] = s.end[i]
		}
		return
	case NOP:
		s.Tick(now)
		return
	}

	if which < 0 || which >= numLEDs {
		return
	}
	s.now_[which] = on
	// If an error is being raised, latch whichever of PGM/VFY is
	// currently lit into end so the exit state reflects where the
	// failure happened (spec §4.7 "When ERR is raised...").
	if which == ERR && on {
		s.end[PGM] = s.now_[PGM]
		s.end[VFY] = s.now_[VFY]
		s.end[ERR] = true
	} else if which != ERR {
		s.end[which] = on
	}
	s.applyIfDue(which, now)
}

func (s *State) applyIfDue(which Which, now time.Time) {
	if s.now_[which] == s.phy[which] {
		s.chg[which] = false
		return
	}
	first := !s.set[which]
	due := first || now.Sub(s.last[which]) >= minInterval
	if !due {
		s.chg[which] = true
		return
	}
	s.phy[which] = s.now_[which]
	s.chg[which] = false
	s.set[which] = true
	s.last[which] = now
}

// Physical reports the current physical (rate-limited) state of which.
func (s *State) Physical(which Which) bool {
	if which < 0 || which >= numLEDs {
		return false
	}
	return s.phy[which]
}

// Pending reports whether which has a toggle waiting on the rate limiter.
func (s *State) Pending(which Which) bool {
	if which < 0 || which >= numLEDs {
		return false
	}
	return s.chg[which]
}

// ExitMeaning classifies the accumulated end-state per the table in
// spec §4.7, for diagnostics / tests.
func (s *State) ExitMeaning() string {
	pgm, vfy, err := s.end[PGM], s.end[VFY], s.end[ERR]
	switch {
	case !err:
		return "success"
	case !pgm && !vfy:
		return "non-rw-error"
	case pgm && !vfy:
		return "error-during-read-write-erase"
	case !pgm && vfy:
		return "verify-error-only"
	default:
		return "both"
	}
}
