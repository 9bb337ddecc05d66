package rv64

import "testing"

func div(rd, rs1, rs2 uint32) uint32  { return encodeR(opOp, 0b100, 0b0000001, rd, rs1, rs2) }
func divu(rd, rs1, rs2 uint32) uint32 { return encodeR(opOp, 0b101, 0b0000001, rd, rs1, rs2) }
func rem(rd, rs1, rs2 uint32) uint32  { return encodeR(opOp, 0b110, 0b0000001, rd, rs1, rs2) }
func remu(rd, rs1, rs2 uint32) uint32 { return encodeR(opOp, 0b111, 0b0000001, rd, rs1, rs2) }
func mulh(rd, rs1, rs2 uint32) uint32 { return encodeR(opOp, 0b001, 0b0000001, rd, rs1, rs2) }
func mulhu(rd, rs1, rs2 uint32) uint32 {
	return encodeR(opOp, 0b011, 0b0000001, rd, rs1, rs2)
}

func exec1(t *testing.T, cpu *CPU, insn uint32) {
	t.Helper()
	if err := cpu.Execute(insn); err != nil {
		t.Fatalf("execute 0x%08x: %v", insn, err)
	}
}

func TestDivByZero(t *testing.T) {
	cpu := NewCPU(NewBus())
	dividend := int64(-7)
	cpu.WriteReg(10, uint64(dividend))
	cpu.WriteReg(11, 0)
	exec1(t, cpu, div(12, 10, 11))
	if v := int64(cpu.ReadReg(12)); v != -1 {
		t.Fatalf("div by zero = %d, want -1", v)
	}

	exec1(t, cpu, rem(13, 10, 11))
	if v := int64(cpu.ReadReg(13)); v != -7 {
		t.Fatalf("rem by zero = %d, want dividend -7", v)
	}

	exec1(t, cpu, divu(14, 10, 11))
	if v := cpu.ReadReg(14); v != ^uint64(0) {
		t.Fatalf("divu by zero = 0x%x, want UINT64_MAX", v)
	}

	exec1(t, cpu, remu(15, 10, 11))
	if v := cpu.ReadReg(15); v != uint64(dividend) {
		t.Fatalf("remu by zero = 0x%x, want dividend", v)
	}
}

func TestDivOverflow(t *testing.T) {
	cpu := NewCPU(NewBus())
	cpu.WriteReg(10, uint64(1)<<63) // INT64_MIN
	cpu.WriteReg(11, ^uint64(0))    // -1

	exec1(t, cpu, div(12, 10, 11))
	if v := cpu.ReadReg(12); v != uint64(1)<<63 {
		t.Fatalf("INT64_MIN/-1 = 0x%x, want INT64_MIN", v)
	}

	exec1(t, cpu, rem(13, 10, 11))
	if v := cpu.ReadReg(13); v != 0 {
		t.Fatalf("INT64_MIN%%-1 = %d, want 0", v)
	}
}

func TestMulhSigned(t *testing.T) {
	cpu := NewCPU(NewBus())
	// -1 * -1 = 1; high 64 bits of the 128-bit product are 0.
	cpu.WriteReg(10, ^uint64(0)) // -1
	cpu.WriteReg(11, ^uint64(0)) // -1
	exec1(t, cpu, mulh(12, 10, 11))
	if v := int64(cpu.ReadReg(12)); v != 0 {
		t.Fatalf("mulh(-1,-1) high = %d, want 0", v)
	}

	// -2 * 2^62 = -2^63, whose 128-bit two's complement has -1 (all ones)
	// in the high 64 bits.
	cpu.WriteReg(10, ^uint64(1)) // -2
	cpu.WriteReg(11, uint64(1)<<62)
	exec1(t, cpu, mulh(13, 10, 11))
	if v := int64(cpu.ReadReg(13)); v != -1 {
		t.Fatalf("mulh(-2, 2^62) high = %d, want -1", v)
	}
}

func TestMulhuUnsigned(t *testing.T) {
	cpu := NewCPU(NewBus())
	cpu.WriteReg(10, ^uint64(0)) // UINT64_MAX
	cpu.WriteReg(11, 2)
	exec1(t, cpu, mulhu(12, 10, 11))
	// UINT64_MAX * 2 = 2^65 - 2, high 64 bits = 1.
	if v := cpu.ReadReg(12); v != 1 {
		t.Fatalf("mulhu(MAX,2) high = %d, want 1", v)
	}
}

func TestIllegalInstructionReturnsException(t *testing.T) {
	cpu := NewCPU(NewBus())
	err := cpu.Execute(0x7f) // opcode bits all set in low 7, not a valid opcode
	if err == nil {
		t.Fatalf("expected illegal instruction error")
	}
	exc, ok := err.(ExceptionError)
	if !ok || exc.Cause != CauseIllegalInsn {
		t.Fatalf("err = %v, want CauseIllegalInsn", err)
	}
}
