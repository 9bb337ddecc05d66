package rv64

// Minimal instruction encoders used only by this package's tests, so test
// programs can be built from named fields instead of hand-computed hex.

func encodeR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeI(opcode, funct3, rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	lo := u & 0x1f
	hi := (u >> 5) & 0x7f
	return (hi << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (lo << 7) | opcode
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b11 := (u >> 11) & 1
	b12 := (u >> 12) & 1
	b1_4 := (u >> 1) & 0xf
	b5_10 := (u >> 5) & 0x3f
	return (b12 << 31) | (b5_10 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b1_4 << 8) | (b11 << 7) | opcode
}

func encodeU(opcode, rd uint32, imm int32) uint32 {
	return (uint32(imm) & 0xfffff000) | (rd << 7) | opcode
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 1
	b10_1 := (u >> 1) & 0x3ff
	b11 := (u >> 11) & 1
	b19_12 := (u >> 12) & 0xff
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

func addi(rd, rs1 uint32, imm int32) uint32 { return encodeI(opOpImm, 0b000, rd, rs1, imm) }
func add(rd, rs1, rs2 uint32) uint32        { return encodeR(opOp, 0b000, 0, rd, rs1, rs2) }
func sub(rd, rs1, rs2 uint32) uint32        { return encodeR(opOp, 0b000, 0b0100000, rd, rs1, rs2) }
func sw(rs1, rs2 uint32, imm int32) uint32  { return encodeS(opStore, 0b010, rs1, rs2, imm) }
func lw(rd, rs1 uint32, imm int32) uint32   { return encodeI(opLoad, 0b010, rd, rs1, imm) }
func sd(rs1, rs2 uint32, imm int32) uint32  { return encodeS(opStore, 0b011, rs1, rs2, imm) }
func ld(rd, rs1 uint32, imm int32) uint32   { return encodeI(opLoad, 0b011, rd, rs1, imm) }
func lui(rd uint32, imm int32) uint32       { return encodeU(opLui, rd, imm) }
func auipc(rd uint32, imm int32) uint32     { return encodeU(opAuipc, rd, imm) }
func jal(rd uint32, imm int32) uint32       { return encodeJ(opJal, rd, imm) }
func jalr(rd, rs1 uint32, imm int32) uint32 { return encodeI(opJalr, 0b000, rd, rs1, imm) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return encodeB(opBranch, 0b000, rs1, rs2, imm) }
func bne(rs1, rs2 uint32, imm int32) uint32 { return encodeB(opBranch, 0b001, rs1, rs2, imm) }
func ecall() uint32                         { return 0x00000073 }
func csrrw(rd, csr uint32, rs1 uint32) uint32 {
	return encodeI(opSystem, 0b001, rd, rs1, int32(csr))
}
func csrrs(rd, csr uint32, rs1 uint32) uint32 {
	return encodeI(opSystem, 0b010, rd, rs1, int32(csr))
}
func amoadd_w(rd, rs1, rs2 uint32) uint32 {
	return encodeR(opAMO, 0b010, 0b0000000, rd, rs1, rs2)
}
func amoswap_d(rd, rs1, rs2 uint32) uint32 {
	return encodeR(opAMO, 0b011, 0b0000100, rd, rs1, rs2)
}
