package tpi

import "testing"

type fakeSender struct {
	calls   [][]byte
	busyFor int // number of busy polls to report busy before clearing
	busySeen int
}

func (f *fakeSender) CmdTPI(out []byte, inLen int) ([]byte, error) {
	f.calls = append(f.calls, append([]byte(nil), out...))
	if inLen == 0 {
		return nil, nil
	}
	// Respond to NVMCSR polls (SIN-style frame we build in inSS) as not
	// busy after busyFor polls, and to SLD_PI/SIN TPISR as ready.
	if len(out) == 1 {
		switch out[0] {
		case opSLDPI:
			return []byte{0xAB}, nil
		}
	}
	f.busySeen++
	if f.busySeen <= f.busyFor {
		return []byte{nvmbsyBit}, nil
	}
	return []byte{0}, nil
}

func TestChipEraseSequence(t *testing.T) {
	f := &fakeSender{}
	if err := ChipErase(f, 0); err != nil {
		t.Fatalf("ChipErase: %v", err)
	}
	// Expect: NVMCMD set via outSS, pointer low/high, SST 0xFF, final poll.
	sawSetCmd, sawPointer, sawSST := false, false, false
	for _, c := range f.calls {
		switch {
		case len(c) == 2 && c[0]&0xA0 == 0xA0 && c[1] == CmdChipErase:
			sawSetCmd = true
		case len(c) == 2 && (c[0] == opSSTPRL || c[0] == opSSTPRH):
			sawPointer = true
		case len(c) == 2 && c[0] == opSST && c[1] == 0xFF:
			sawSST = true
		}
	}
	if !sawSetCmd || !sawPointer || !sawSST {
		t.Fatalf("ChipErase did not emit expected wire sequence: %v", f.calls)
	}
}

func TestWaitNVMBusyTimesOut(t *testing.T) {
	f := &fakeSender{busyFor: 100}
	if err := WaitNVMBusy(f, 5); err != ErrBusyTimeout {
		t.Fatalf("WaitNVMBusy = %v, want ErrBusyTimeout", err)
	}
}

func TestNWordWritesRejectsThreeAndAboveFour(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		if err := NWordWrites(n); err != nil {
			t.Errorf("NWordWrites(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{0, 3, 5, 8} {
		if err := NWordWrites(n); err == nil {
			t.Errorf("NWordWrites(%d) = nil, want error", n)
		}
	}
}

func TestLoadPostIncrement(t *testing.T) {
	f := &fakeSender{}
	v, err := LoadPostIncrement(f)
	if err != nil {
		t.Fatalf("LoadPostIncrement: %v", err)
	}
	if v != 0xAB {
		t.Fatalf("LoadPostIncrement = %#x, want 0xab", v)
	}
}
