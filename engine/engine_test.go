package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/programmer"
)

// fakeBackend is a minimal in-memory Backend: ReadByte/WriteByte operate
// on a plain byte slice standing in for "the device", separate from the
// Mem buffer the engine reads into/writes from.
type fakeBackend struct {
	programmer.Base
	dev       []byte
	readErr   error
	writeErr  error
	ro        map[int]bool
	noReadCap bool
}

func newFakeBackend(size int) *fakeBackend {
	dev := make([]byte, size)
	for i := range dev {
		dev[i] = 0xff
	}
	return &fakeBackend{dev: dev, ro: map[int]bool{}}
}

func (f *fakeBackend) ID() string             { return "fake" }
func (f *fakeBackend) Description() string    { return "fake test backend" }
func (f *fakeBackend) Modes() part.Mode       { return part.ModeISP }
func (f *fakeBackend) ConnType() programmer.ConnType { return programmer.ConnSerial }
func (f *fakeBackend) Open(context.Context, string) error { return nil }
func (f *fakeBackend) Close() error                       { return nil }
func (f *fakeBackend) Enable() error                      { return nil }
func (f *fakeBackend) Disable() error                     { return nil }
func (f *fakeBackend) Initialize(context.Context, *part.Part) error { return nil }
func (f *fakeBackend) Powerup() error                      { return nil }
func (f *fakeBackend) Powerdown() error                    { return nil }

func (f *fakeBackend) Supports(c programmer.Capability) bool {
	switch c {
	case programmer.CapReadByte:
		return !f.noReadCap
	case programmer.CapWriteByte:
		return true
	default:
		return false
	}
}

func (f *fakeBackend) ReadByte(_ *part.Part, _ *part.Mem, addr int) (byte, error) {
	if f.noReadCap {
		return 0, programmer.ErrUnsupported
	}
	if f.readErr != nil {
		return 0, f.readErr
	}
	return f.dev[addr], nil
}

func (f *fakeBackend) WriteByte(_ *part.Part, _ *part.Mem, addr int, data byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.dev[addr] = data
	return nil
}

func (f *fakeBackend) ReadOnly(_ *part.Part, _ *part.Mem, addr int) bool {
	return f.ro[addr]
}

func newTestSession(b programmer.Backend) (*Session, *part.Part) {
	p := part.NewPart("t2313", "t2313")
	h := programmer.NewHandle(b)
	s := &Session{Part: p, Prog: h}
	return s, p
}

func TestReadMemByteWise(t *testing.T) {
	b := newFakeBackend(16)
	for i := range b.dev {
		b.dev[i] = byte(0x10 + i)
	}
	s, _ := newTestSession(b)
	m := part.NewMem("eeprom", part.MemEEPROM, 16, 0)

	hi, err := s.ReadMem(m, nil)
	if err != nil {
		t.Fatalf("ReadMem: %v", err)
	}
	if hi != 16 {
		t.Fatalf("hi = %d, want 16 (eeprom is not trimmed)", hi)
	}
	for i := range m.Buf {
		if m.Buf[i] != byte(0x10+i) {
			t.Fatalf("buf[%d] = %#x, want %#x", i, m.Buf[i], 0x10+i)
		}
		if !m.Allocated(i) {
			t.Fatalf("byte %d not tagged allocated", i)
		}
	}
}

func TestReadMemHonoursVerifyRef(t *testing.T) {
	b := newFakeBackend(8)
	for i := range b.dev {
		b.dev[i] = byte(i)
	}
	s, _ := newTestSession(b)
	m := part.NewMem("eeprom", part.MemEEPROM, 8, 0)
	ref := part.NewMem("eeprom-ref", part.MemEEPROM, 8, 0)
	ref.Tags[2] |= part.TagAllocated
	ref.Tags[5] |= part.TagAllocated

	if _, err := s.ReadMem(m, ref); err != nil {
		t.Fatalf("ReadMem: %v", err)
	}
	for i := 0; i < 8; i++ {
		want := i == 2 || i == 5
		if m.Allocated(i) != want {
			t.Fatalf("byte %d allocated=%v, want %v", i, m.Allocated(i), want)
		}
	}
	if m.Buf[2] != 2 || m.Buf[5] != 5 {
		t.Fatalf("selected bytes not read correctly: %v", m.Buf)
	}
	if m.Buf[0] != 0xff {
		t.Fatalf("unneeded byte 0 should stay at fill value, got %#x", m.Buf[0])
	}
}

func TestReadMemReportsNotSupported(t *testing.T) {
	b := &fakeBackend{dev: make([]byte, 4), noReadCap: true}
	s, _ := newTestSession(b)
	m := part.NewMem("eeprom", part.MemEEPROM, 4, 0)

	_, err := s.ReadMem(m, nil)
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("ReadMem err = %v, want wrapping ErrNotSupported", err)
	}
}

func TestWriteMemByteWiseRoundTrip(t *testing.T) {
	b := newFakeBackend(8)
	s, _ := newTestSession(b)
	m := part.NewMem("eeprom", part.MemEEPROM, 8, 0)
	m.InitVal = 0xff
	m.Bitmask = 0xff
	for i := 0; i < 8; i++ {
		m.Buf[i] = byte(0x80 + i)
		m.Tags[i] |= part.TagAllocated
	}

	n, err := s.WriteMem(m, 8, false)
	if err != nil {
		t.Fatalf("WriteMem: %v", err)
	}
	if n != 8 {
		t.Fatalf("WriteMem returned %d, want 8", n)
	}
	for i := 0; i < 8; i++ {
		if b.dev[i] != byte(0x80+i) {
			t.Fatalf("dev[%d] = %#x, want %#x", i, b.dev[i], 0x80+i)
		}
	}
}

func TestWriteMemRefusesReadOnlyMismatch(t *testing.T) {
	b := newFakeBackend(4)
	b.dev[1] = 0x55
	b.ro[1] = true
	s, _ := newTestSession(b)
	m := part.NewMem("sig", part.MemSignature, 4, 0)
	m.Buf[1] = 0x99
	m.Tags[1] |= part.TagAllocated

	if _, err := s.WriteMem(m, 4, false); err == nil {
		t.Fatalf("expected write to read-only mismatch to fail")
	}
}

func TestWriteMemReadOnlyMatchSucceeds(t *testing.T) {
	b := newFakeBackend(4)
	b.dev[1] = 0x99
	b.ro[1] = true
	s, _ := newTestSession(b)
	m := part.NewMem("sig", part.MemSignature, 4, 0)
	m.Buf[1] = 0x99
	m.Tags[1] |= part.TagAllocated

	if _, err := s.WriteMem(m, 4, false); err != nil {
		t.Fatalf("write matching read-only byte should succeed: %v", err)
	}
}

func TestVerifyMemCleanMatch(t *testing.T) {
	s, _ := newTestSession(newFakeBackend(4))
	dev := part.NewMem("eeprom", part.MemEEPROM, 4, 0)
	ref := part.NewMem("eeprom", part.MemEEPROM, 4, 0)
	for i := 0; i < 4; i++ {
		dev.Buf[i] = byte(i)
		ref.Buf[i] = byte(i)
		ref.Tags[i] |= part.TagAllocated
	}
	n, mism, err := s.VerifyMem(dev, ref, 4)
	if err != nil || n != 4 || len(mism) != 0 {
		t.Fatalf("VerifyMem = (%d, %v, %v), want (4, [], nil)", n, mism, err)
	}
}

func TestVerifyMemRealMismatch(t *testing.T) {
	s, _ := newTestSession(newFakeBackend(4))
	dev := part.NewMem("eeprom", part.MemEEPROM, 4, 0)
	ref := part.NewMem("eeprom", part.MemEEPROM, 4, 0)
	ref.Tags[0] |= part.TagAllocated
	dev.Buf[0] = 0x01
	ref.Buf[0] = 0x02

	n, mism, err := s.VerifyMem(dev, ref, 4)
	if err == nil || n != -1 || len(mism) != 1 {
		t.Fatalf("VerifyMem = (%d, %v, %v), want (-1, [1 mismatch], error)", n, mism, err)
	}
}

func TestVerifyMemProtectedAreaDoesNotFail(t *testing.T) {
	b := newFakeBackend(4)
	b.ro[0] = true
	s, _ := newTestSession(b)
	dev := part.NewMem("sig", part.MemSignature, 4, 0)
	ref := part.NewMem("sig", part.MemSignature, 4, 0)
	ref.Tags[0] |= part.TagAllocated
	dev.Buf[0] = 0x01
	ref.Buf[0] = 0x02

	n, mism, err := s.VerifyMem(dev, ref, 4)
	if err != nil || n != 4 {
		t.Fatalf("VerifyMem = (%d, %v, %v), want clean pass (protected mismatch)", n, mism, err)
	}
	if len(mism) != 1 || !mism[0].ReadOnly {
		t.Fatalf("expected one read-only mismatch recorded, got %v", mism)
	}
}
