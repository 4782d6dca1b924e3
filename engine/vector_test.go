package engine

import "testing"

func TestRjmpRoundTrip(t *testing.T) {
	const flashWords = 4096 // 8 KiB part, full 12-bit range.
	for d := -flashWords / 2; d < flashWords/2; d++ {
		if d%2 != 0 || d == 0 {
			continue
		}
		op := RjmpOpcode(d, flashWords)
		got := DistRjmp(op, flashWords)
		if got != d {
			t.Fatalf("DistRjmp(RjmpOpcode(%d)) = %d, want %d", d, got, d)
		}
	}
}

func TestRjmpRoundTripSmallFlash(t *testing.T) {
	const flashWords = 1024 // ATtiny2313-class: 2 KiB flash.
	for d := -flashWords / 2; d < flashWords/2; d += 2 {
		if d == 0 {
			continue
		}
		op := RjmpOpcode(d, flashWords)
		got := DistRjmp(op, flashWords)
		if got != d {
			t.Fatalf("small-flash DistRjmp(RjmpOpcode(%d)) = %d, want %d", d, got, d)
		}
	}
}

func TestJmpRoundTrip(t *testing.T) {
	const flashSize = 1 << 17 // 128 KiB, forces jmp not rjmp.
	for addr := 0; addr < flashSize; addr += 2048 {
		op := JmpOpcode(addr)
		fw := uint16(op[0]) | uint16(op[1])<<8
		sw := uint16(op[2]) | uint16(op[3])<<8
		got := AddrJmp(fw, sw)
		if got != addr {
			t.Fatalf("AddrJmp(JmpOpcode(%#x)) = %#x, want %#x", addr, got, addr)
		}
	}
}
