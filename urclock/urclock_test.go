package urclock

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rcornwell/avrdude-core/part"
	"github.com/rcornwell/avrdude-core/transport"
	"github.com/rcornwell/avrdude-core/xparam"
)

type fakeTransport struct {
	toSend []byte
	sent   [][]byte
}

func (f *fakeTransport) Open(context.Context, string, transport.Params) error { return nil }
func (f *fakeTransport) SetParams(transport.Params) error                    { return nil }
func (f *fakeTransport) Close() error                                        { return nil }

func (f *fakeTransport) Send(buf []byte) error {
	f.sent = append(f.sent, append([]byte(nil), buf...))
	return nil
}

func (f *fakeTransport) Recv(buf []byte, _ time.Duration) (int, error) {
	if len(f.toSend) == 0 {
		return 0, io.EOF
	}
	n := copy(buf, f.toSend)
	f.toSend = f.toSend[n:]
	return n, nil
}

func (f *fakeTransport) Drain(bool) error      { return nil }
func (f *fakeTransport) SetDTRRTS(bool) error { return nil }

func newTestPart() *part.Part {
	p := part.NewPart("t841", "t841")
	fl := part.NewMem("flash", part.MemFlash, 8192, 64)
	p.Mems = append(p.Mems, fl)
	return p
}

func TestSyncAcceptsAgreeingPair(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{0x55, 0x54, 0x55, 0x54}}
	s := NewSession(ft, newTestPart(), xparam.Knobs{})
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !s.Synced || s.Insync != 0x55 || s.OK != 0x54 {
		t.Fatalf("Sync state = %+v", s)
	}
	if !s.Features.Urprotocol || !s.Features.ChipErase {
		t.Fatalf("Features = %+v, want all set", s.Features)
	}
}

func TestSyncRemapsReservedPair(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{0xff, 0xfe, 0xff, 0xfe}}
	s := NewSession(ft, newTestPart(), xparam.Knobs{})
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if s.Insync != classicInsync || s.OK != classicOK {
		t.Fatalf("Sync = (%#x,%#x), want classic pair", s.Insync, s.OK)
	}
	if !s.EmulateCE {
		t.Fatalf("EmulateCE not set for classic remap")
	}
}

func TestSyncAbortsWithoutAgreement(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, newTestPart(), xparam.Knobs{})
	if err := s.Sync(); err == nil {
		t.Fatalf("expected Sync to fail with no data available")
	}
}

func TestEncodeAddressURProtocol(t *testing.T) {
	s := NewSession(&fakeTransport{}, newTestPart(), xparam.Knobs{})
	s.Features.Urprotocol = true
	ext, addr := s.encodeAddress(0x1234)
	if ext != nil {
		t.Fatalf("urprotocol addressing should never emit an extended-address command")
	}
	if len(addr) != 2 || addr[0] != 0x34 || addr[1] != 0x12 {
		t.Fatalf("addr = %x, want little-endian 0x1234", addr)
	}
}

func TestEncodeAddressCompatCachesExtension(t *testing.T) {
	s := NewSession(&fakeTransport{}, newTestPart(), xparam.Knobs{})
	ext1, _ := s.encodeAddress(0) // First call always emits (no cache yet).
	if ext1 == nil {
		t.Fatalf("first compat address should emit the extended-address command")
	}
	ext2, addr2 := s.encodeAddress(0x10000) // word 0x8000, still extByte 0.
	if ext2 != nil {
		t.Fatalf("unchanged extension byte should not re-emit the command")
	}
	if len(addr2) != 2 {
		t.Fatalf("compat address must be 2 bytes")
	}
	ext3, _ := s.encodeAddress(0x20000) // word 0x10000, extByte 1: changed.
	if ext3 == nil {
		t.Fatalf("changed extension byte should re-emit the command")
	}
}

func TestEncodeLength(t *testing.T) {
	s := NewSession(&fakeTransport{}, newTestPart(), xparam.Knobs{})
	s.Features.Urprotocol = true
	if got := s.encodeLength(64); len(got) != 1 || got[0] != 64 {
		t.Fatalf("encodeLength(64) = %x", got)
	}
	if got := s.encodeLength(256); len(got) != 1 || got[0] != 0 {
		t.Fatalf("encodeLength(256) = %x, want [0x00] (wraps)", got)
	}
	s.Features.Urprotocol = false
	if got := s.encodeLength(64); len(got) != 2 || got[0] != 0 || got[1] != 64 {
		t.Fatalf("compat encodeLength(64) = %x, want big-endian 2 bytes", got)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	md := Metadata{
		Filename:   "ab",
		Year:       2026, Month: 3, Day: 14, Hour: 9, Minute: 30,
		StoreStart: 0x1000, StoreSize: 0x200,
		MCode: 5,
	}
	enc := EncodeMetadata(md, 32768)
	if len(enc) == 0 {
		t.Fatalf("EncodeMetadata produced nothing")
	}
	got, n, err := DecodeMetadata(enc, 32768)
	if err != nil {
		t.Fatalf("DecodeMetadata: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d bytes, want %d", n, len(enc))
	}
	if got.Filename != "ab" || got.Year != 2026 || got.Month != 3 || got.Day != 14 ||
		got.Hour != 9 || got.Minute != 30 || got.StoreStart != 0x1000 || got.StoreSize != 0x200 {
		t.Fatalf("round trip = %+v, want %+v", got, md)
	}
}

func TestMetadataNoneSkipsEncoding(t *testing.T) {
	if enc := EncodeMetadata(Metadata{MCode: NoMetadata}, 32768); enc != nil {
		t.Fatalf("EncodeMetadata(NoMetadata) = %v, want nil", enc)
	}
}

func TestApplyChipEraseEmulationOnlyCoversApplicationArea(t *testing.T) {
	m := part.NewMem("flash", part.MemFlash, 8, 0)
	s := &Session{EmulateCE: true, HasBootStart: true, BootStart: 6}
	s.ApplyChipEraseEmulation(m)
	for i := 0; i < 6; i++ {
		if m.Buf[i] != 0xff || !m.Allocated(i) {
			t.Fatalf("byte %d not erased/tagged", i)
		}
	}
	for i := 6; i < 8; i++ {
		if m.Buf[i] != 0 || m.Allocated(i) {
			t.Fatalf("bootloader byte %d was touched", i)
		}
	}
	if !s.doneCE {
		t.Fatalf("doneCE not set")
	}
}

// syncedSession builds a Session that has already completed Sync, so
// transact (and everything built on it) is reachable without running
// the handshake in every test.
func syncedSession(ft *fakeTransport, p *part.Part) *Session {
	s := NewSession(ft, p, xparam.Knobs{})
	s.Synced = true
	s.Insync, s.OK = classicInsync, classicOK
	return s
}

func TestWritePageCompatFramesBytes(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{
		classicInsync, 0x00, classicOK, // extended-address universal command
		classicInsync, classicOK, // LOAD_ADDRESS
		classicInsync, classicOK, // PROG_PAGE
	}}
	s := syncedSession(ft, newTestPart())
	data := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	if err := s.WritePage(memFlash, 0x10, data); err != nil {
		t.Fatalf("WritePage: %v", err)
	}
	if len(ft.sent) != 3 {
		t.Fatalf("sent %d transactions, want 3: %x", len(ft.sent), ft.sent)
	}
	wantExt := []byte{cmdUniversal, universalLoadExtAddr, 0x00, 0x00, 0x00, cmdEOP}
	wantLoadAddr := []byte{cmdLoadAddress, 0x08, 0x00, cmdEOP} // word address 0x10/2 = 8
	wantProg := []byte{cmdProgPage, 0x00, 0x04, 'F', 0xAA, 0xBB, 0xCC, 0xDD, cmdEOP}
	for i, want := range [][]byte{wantExt, wantLoadAddr, wantProg} {
		if string(ft.sent[i]) != string(want) {
			t.Fatalf("sent[%d] = % x, want % x", i, ft.sent[i], want)
		}
	}
}

func TestReadPageURProtocolFramesBytes(t *testing.T) {
	payload := make([]byte, 64)
	for i := range payload {
		payload[i] = byte(i)
	}
	toSend := append([]byte{classicInsync}, payload...)
	toSend = append(toSend, classicOK)
	ft := &fakeTransport{toSend: toSend}
	s := syncedSession(ft, newTestPart())
	s.Features.Urprotocol = true

	got, err := s.ReadPage(memFlash, 0x200, 64)
	if err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("ReadPage payload = % x, want % x", got, payload)
	}
	if len(ft.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1: %x", len(ft.sent), ft.sent)
	}
	want := []byte{cmdURReadPageFl, 0x00, 0x02, 64, cmdEOP}
	if string(ft.sent[0]) != string(want) {
		t.Fatalf("sent = % x, want % x", ft.sent[0], want)
	}
}

func TestPageEraseCompatFramesBytes(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{
		classicInsync, classicOK, // LOAD_ADDRESS
		classicInsync, classicOK, // PAGE_ERASE
	}}
	s := syncedSession(ft, newTestPart())
	s.haveExtAddr, s.extAddr = true, 0 // word 0x20 stays in bank 0, no ext command.

	if err := s.PageErase(memEEPROM, 0x40); err != nil {
		t.Fatalf("PageErase: %v", err)
	}
	if len(ft.sent) != 2 {
		t.Fatalf("sent %d transactions, want 2: %x", len(ft.sent), ft.sent)
	}
	wantLoadAddr := []byte{cmdLoadAddress, 0x20, 0x00, cmdEOP}
	wantErase := []byte{cmdPageErase, 'E', cmdEOP}
	if string(ft.sent[0]) != string(wantLoadAddr) {
		t.Fatalf("sent[0] = % x, want % x", ft.sent[0], wantLoadAddr)
	}
	if string(ft.sent[1]) != string(wantErase) {
		t.Fatalf("sent[1] = % x, want % x", ft.sent[1], wantErase)
	}
}

func TestChipEraseFramesBytes(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{classicInsync, classicOK}}
	s := syncedSession(ft, newTestPart())
	s.Features.ChipErase = true

	if err := s.ChipErase(); err != nil {
		t.Fatalf("ChipErase: %v", err)
	}
	want := []byte{cmdChipErase, cmdEOP}
	if len(ft.sent) != 1 || string(ft.sent[0]) != string(want) {
		t.Fatalf("sent = %x, want [% x]", ft.sent, want)
	}
	if !s.doneCE {
		t.Fatalf("doneCE not set after ChipErase")
	}
}

func TestLeaveProgmodeFramesBytes(t *testing.T) {
	ft := &fakeTransport{toSend: []byte{classicInsync, classicOK}}
	s := syncedSession(ft, newTestPart())

	if err := s.LeaveProgmode(); err != nil {
		t.Fatalf("LeaveProgmode: %v", err)
	}
	want := []byte{cmdLeaveProgmode, cmdEOP}
	if len(ft.sent) != 1 || string(ft.sent[0]) != string(want) {
		t.Fatalf("sent = %x, want [% x]", ft.sent, want)
	}
}

func TestPatchVectorBootloaderRestoreSkipsPatch(t *testing.T) {
	m := part.NewMem("flash", part.MemFlash, 8192, 64)
	m.Buf[0], m.Buf[1] = 0x00, 0xc0 // rjmp with distance 0 (0xc000), tagged allocated below.
	for i := range m.Tags {
		m.Tags[i] = part.TagAllocated
	}
	s := &Session{
		Part:      newTestPart(),
		HasVector: true, VectorNum: 1,
		HasBootStart: true, BootStart: 8000,
		Knobs: xparam.Knobs{Restore: true},
	}
	before := append([]byte(nil), m.Buf...)
	if err := s.PatchVectorBootloader(m); err != nil {
		t.Fatalf("PatchVectorBootloader: %v", err)
	}
	for i := range before {
		if m.Buf[i] != before[i] {
			t.Fatalf("byte %d changed despite -xrestore", i)
		}
	}
}
