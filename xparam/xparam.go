/*
 * avrdude-core - "-x" extended-parameter scanner.
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

// Package xparam parses avrdude's "-x" extended-parameter strings
// (xbootsize=512, xvectornum=2, xrestore, xshowmeta, ...), the Urclock
// knobs spec §3/§4.6 call "user-overridable", using a byte-position
// cursor in the same style as the teacher's config-line scanner.
package xparam

import (
	"fmt"
	"strconv"
	"unicode"
)

// Param is one parsed "-x" token: a bare flag, or name=value.
type Param struct {
	Name     string
	Value    string // Empty for a bare flag.
	HasValue bool
}

// cursor walks one "-x" argument's characters left to right.
type cursor struct {
	s   string
	pos int
}

func (c *cursor) isEOL() bool { return c.pos >= len(c.s) }

func (c *cursor) peek() byte {
	if c.isEOL() {
		return 0
	}
	return c.s[c.pos]
}

// Parse splits one "-x" argument into a Param. avrdude allows a single
// argument to carry several comma-separated knobs ("xbootsize=512,xrestore");
// ParseAll handles that; Parse handles exactly one knob.
func Parse(s string) (Param, error) {
	c := &cursor{s: s}
	var name []byte
	for !c.isEOL() {
		b := c.peek()
		if b == '=' {
			break
		}
		if !(unicode.IsLetter(rune(b)) || unicode.IsNumber(rune(b)) || b == '_') {
			return Param{}, fmt.Errorf("xparam: invalid character %q in %q", b, s)
		}
		name = append(name, b)
		c.pos++
	}
	if len(name) == 0 {
		return Param{}, fmt.Errorf("xparam: empty knob name in %q", s)
	}
	if c.isEOL() {
		return Param{Name: string(name)}, nil
	}
	c.pos++ // consume '='
	return Param{Name: string(name), Value: c.s[c.pos:], HasValue: true}, nil
}

// ParseAll splits a comma-separated "-x" argument into its Params.
func ParseAll(s string) ([]Param, error) {
	var out []Param
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			p, err := Parse(s[start:i])
			if err != nil {
				return nil, err
			}
			out = append(out, p)
			start = i + 1
		}
	}
	return out, nil
}

// Int returns p.Value parsed as a base-10 (or 0x-prefixed hex) integer.
func (p Param) Int() (int, error) {
	if !p.HasValue {
		return 0, fmt.Errorf("xparam: %s has no value", p.Name)
	}
	v, err := strconv.ParseInt(p.Value, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("xparam: %s=%s is not an integer: %w", p.Name, p.Value, err)
	}
	return int(v), nil
}

// Knobs is the decoded set of Urclock -x options spec §3/§4.6 names.
type Knobs struct {
	BootSize     int
	HasBootSize  bool
	VectorNum    int
	HasVectorNum bool
	Restore      bool
	ShowMeta     bool
	NoMeta       bool
}

// ParseKnobs decodes every "-x" argument the caller collected into a
// Knobs set, ignoring knobs this core doesn't model (a CLI layer outside
// the core may recognise more).
func ParseKnobs(args []string) (Knobs, error) {
	var k Knobs
	for _, arg := range args {
		params, err := ParseAll(arg)
		if err != nil {
			return k, err
		}
		for _, p := range params {
			switch p.Name {
			case "xbootsize":
				v, err := p.Int()
				if err != nil {
					return k, err
				}
				k.BootSize, k.HasBootSize = v, true
			case "xvectornum":
				v, err := p.Int()
				if err != nil {
					return k, err
				}
				k.VectorNum, k.HasVectorNum = v, true
			case "xrestore":
				k.Restore = true
			case "xshowmeta":
				k.ShowMeta = true
			case "xnometadata":
				k.NoMeta = true
			}
		}
	}
	return k, nil
}
