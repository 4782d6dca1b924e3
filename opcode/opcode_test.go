package opcode

import "testing"

// byteWriteTemplate mimics a typical ISP "Write Program Memory" opcode:
// fixed top nibble, a 7-bit address field and an 8-bit data field.
func byteWriteTemplate() *Op {
	op := &Op{}
	op.Bits[0] = Bit{Type: Value, Value: false}
	op.Bits[1] = Bit{Type: Value, Value: true}
	op.Bits[2] = Bit{Type: Value, Value: false}
	op.Bits[3] = Bit{Type: Value, Value: false}
	for i := 0; i < 7; i++ {
		op.Bits[4+i] = Bit{Type: Address, BitNo: 6 - i}
	}
	for i := 0; i < 8; i++ {
		op.Bits[24+i] = Bit{Type: Input, BitNo: 7 - i}
	}
	return op
}

func TestSetBitsValue(t *testing.T) {
	op := byteWriteTemplate()
	var cmd [4]byte
	SetBits(op, &cmd)
	if cmd[0] != 0x40 {
		t.Fatalf("SetBits: got %08b, want %08b", cmd[0], 0x40)
	}
}

func TestSetAddrRoundTrip(t *testing.T) {
	op := byteWriteTemplate()
	var cmd [4]byte
	SetBits(op, &cmd)
	SetAddr(op, &cmd, 0x55)
	got := (uint32(cmd[0]) << 3) | uint32(cmd[1]>>5)
	if got&0x7f != 0x55 {
		t.Fatalf("SetAddr: got %#x, want %#x", got&0x7f, 0x55)
	}
}

func TestSetInputGetOutputRoundTrip(t *testing.T) {
	op := byteWriteTemplate()
	var cmd [4]byte
	SetInput(op, &cmd, 0xA5)
	readOp := &Op{}
	for i := 0; i < 8; i++ {
		readOp.Bits[24+i] = Bit{Type: Output, BitNo: 7 - i}
	}
	if got := GetOutput(readOp, &cmd); got != 0xA5 {
		t.Fatalf("GetOutput: got %#x, want %#x", got, 0xA5)
	}
}

func TestIgnoreBitsLeaveCmdUntouched(t *testing.T) {
	op := &Op{}
	var cmd [4]byte
	cmd[0] = 0xFF
	SetAddr(op, &cmd, 0xFFFFFFFF)
	SetInput(op, &cmd, 0xFF)
	if cmd[0] != 0xFF {
		t.Fatalf("Ignore bits must not be touched, got %#x", cmd[0])
	}
}
