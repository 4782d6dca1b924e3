package part

import "testing"

func newTestPart() *Part {
	p := NewPart("ATmega328P", "m328p")
	fuses := NewMem("fuses", MemFuses, 3, 0)
	lfuse := NewMem("lfuse", MemFuses.WithFuseOffset(0), 1, 0)
	lfuse.Bitmask = 0xff
	lfuse.InitVal = 0x62
	hfuse := NewMem("hfuse", MemFuses.WithFuseOffset(1), 1, 0)
	hfuse.Bitmask = 0x0f
	p.Mems = []*Mem{fuses, lfuse, hfuse}
	return p
}

func TestMemBitmaskFusesDelegatesToIndividualFuse(t *testing.T) {
	p := newTestPart()
	fuses := p.FindMem("fuses")
	lfuse := p.FindMem("lfuse")

	got := MemBitmask(p, fuses, 0)
	want := MemBitmask(p, lfuse, 0)
	if got != want {
		t.Fatalf("collective fuses bitmask = %#x, want %#x (individual fuse)", got, want)
	}
}

func TestMemBitmaskTwoByteFuseShiftsHighByte(t *testing.T) {
	p := NewPart("ATtiny10", "t10")
	efuse := NewMem("efuse", MemFuses.WithFuseOffset(0), 2, 0)
	efuse.Bitmask = 0x0fff // low byte 0xff, high byte 0x0f
	p.Mems = []*Mem{efuse}

	if got := MemBitmask(p, efuse, 0); got != 0xff {
		t.Fatalf("low byte mask = %#x, want 0xff", got)
	}
	if got := MemBitmask(p, efuse, 1); got != 0x0f {
		t.Fatalf("high byte mask = %#x, want 0x0f", got)
	}
}

func TestMemBitmaskDefault(t *testing.T) {
	p := NewPart("x", "x")
	lock := NewMem("lock", MemLock, 1, 0)
	lock.Bitmask = 0xfc
	p.Mems = []*Mem{lock}
	if got := MemBitmask(p, lock, 0); got != 0xfc {
		t.Fatalf("default bitmask = %#x, want 0xfc", got)
	}
}

// Fuse write scenario from spec §8 end-to-end scenario 3: writing 0xA5 to
// a fuse whose current value is 0x3C under mask 0x0F keeps the unmasked
// high nibble from the existing value.
func TestFuseWriteMaskScenario(t *testing.T) {
	const current = 0x3C
	const newVal = 0xA5
	const mask = 0x0F

	result := (byte(current) &^ byte(mask)) | (byte(newVal) & byte(mask))
	if result != 0x35 {
		t.Fatalf("fuse write result = %#x, want 0x35", result)
	}
}

func TestHiAddrEvenAndWithinSize(t *testing.T) {
	flash := NewMem("flash", MemFlash, 0x8000, 128)
	flash.Fill(0xff)
	for i := 0; i <= 0x3c1f; i++ {
		flash.Buf[i] = byte(i)
	}
	hi := flash.HiAddr()
	if hi%2 != 0 {
		t.Fatalf("HiAddr %#x is not even", hi)
	}
	if hi > flash.Size {
		t.Fatalf("HiAddr %#x exceeds size %#x", hi, flash.Size)
	}
	if hi != 0x3c20 {
		t.Fatalf("HiAddr = %#x, want 0x3c20", hi)
	}
	for i := hi; i < flash.Size; i++ {
		if flash.Buf[i] != 0xff {
			t.Fatalf("byte %#x beyond HiAddr is %#x, want 0xff", i, flash.Buf[i])
		}
	}
}

func TestHiAddrDisabledTrimReturnsFullSize(t *testing.T) {
	DisableTrim = true
	defer func() { DisableTrim = false }()
	flash := NewMem("flash", MemFlash, 256, 128)
	flash.Fill(0xff)
	flash.Buf[0] = 0x12
	if hi := flash.HiAddr(); hi != flash.Size {
		t.Fatalf("HiAddr with DisableTrim = %#x, want %#x", hi, flash.Size)
	}
}
