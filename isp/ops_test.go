package isp

import (
	"testing"

	"github.com/rcornwell/avrdude-core/opcode"
)

func TestProgramEnableCmdBytes(t *testing.T) {
	var cmd [4]byte
	opcode.SetBits(ProgramEnable(), &cmd)
	if cmd[0] != 0xAC || cmd[1] != 0x53 {
		t.Fatalf("ProgramEnable cmd = % x, want ac 53 .. ..", cmd)
	}
}

func TestChipEraseCmdBytes(t *testing.T) {
	var cmd [4]byte
	opcode.SetBits(ChipErase(), &cmd)
	if cmd[0] != 0xAC || cmd[1] != 0x80 {
		t.Fatalf("ChipErase cmd = % x, want ac 80 .. ..", cmd)
	}
}

func TestReadProgMemAddressAndHighByteSelector(t *testing.T) {
	var lo, hi [4]byte
	opL, opH := ReadProgMemLow(), ReadProgMemHigh()
	opcode.SetBits(opL, &lo)
	opcode.SetBits(opH, &hi)
	if lo[0] != 0x20 || hi[0] != 0x28 {
		t.Fatalf("byte0 = %#x/%#x, want 0x20/0x28", lo[0], hi[0])
	}
	opcode.SetAddr(opL, &lo, 0x1234)
	if lo[1] != 0x12 || lo[2] != 0x34 {
		t.Fatalf("address bytes = %#x %#x, want 0x12 0x34", lo[1], lo[2])
	}
}

func TestWriteProgMemInputByte(t *testing.T) {
	var cmd [4]byte
	op := WriteProgMemLow()
	opcode.SetBits(op, &cmd)
	opcode.SetAddr(op, &cmd, 0x0001)
	opcode.SetInput(op, &cmd, 0xA5)
	if cmd[0] != 0x40 || cmd[3] != 0xA5 {
		t.Fatalf("cmd = % x, want 40 .. .. a5", cmd)
	}
}

func TestReadEEPROMOutputByte(t *testing.T) {
	op := ReadEEPROM()
	var cmd [4]byte
	opcode.SetBits(op, &cmd)
	opcode.SetAddr(op, &cmd, 0x03FF)
	cmd[3] = 0x7E // simulated device response
	if cmd[0] != 0xA0 {
		t.Fatalf("byte0 = %#x, want 0xa0", cmd[0])
	}
	if got := opcode.GetOutput(op, &cmd); got != 0x7E {
		t.Fatalf("GetOutput = %#x, want 0x7e", got)
	}
}

func TestReadSignatureByteAddressing(t *testing.T) {
	op := ReadSignatureByte()
	for idx := 0; idx < 3; idx++ {
		var cmd [4]byte
		opcode.SetBits(op, &cmd)
		opcode.SetAddr(op, &cmd, uint32(idx))
		if cmd[0] != 0x30 {
			t.Fatalf("byte0 = %#x, want 0x30", cmd[0])
		}
		cmd[3] = byte(0x1e + idx)
		if got := opcode.GetOutput(op, &cmd); got != byte(0x1e+idx) {
			t.Fatalf("signature byte %d = %#x, want %#x", idx, got, 0x1e+idx)
		}
	}
}
