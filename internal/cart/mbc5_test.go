package cart

import "testing"

func TestMBC5_DirectBankingNoZeroRemap(t *testing.T) {
	rom := make([]byte, 512*1024)
	for bank := 0; bank < 8; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC5(rom, 0)

	// Bank 1 is the power-on default for the switchable window.
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank read got %02X want 01", got)
	}

	// Unlike MBC1/MBC3, writing 0 selects bank 0 directly — no remap to 1.
	m.Write(0x2000, 0x00)
	if got := m.Read(0x4000); got != 0x00 {
		t.Fatalf("bank0 direct-select got %02X want 00", got)
	}

	m.Write(0x2000, 0x05)
	if got := m.Read(0x4000); got != 0x05 {
		t.Fatalf("bank5 read got %02X want 05", got)
	}
}

func TestMBC5_HighBankBit(t *testing.T) {
	rom := make([]byte, 0x200*0x4000)
	rom[0x101*0x4000] = 0xAB
	m := NewMBC5(rom, 0)

	m.Write(0x2000, 0x01) // low 8 bits
	m.Write(0x3000, 0x01) // bit 8
	if got := m.Read(0x4000); got != 0xAB {
		t.Fatalf("bank 0x101 read got %02X want AB", got)
	}
}

func TestMBC5_RAMBanking(t *testing.T) {
	m := NewMBC5(make([]byte, 0x8000), 8*0x2000)
	m.Write(0x0000, 0x0A) // enable
	m.Write(0x4000, 0x03) // bank 3
	m.Write(0xA000, 0x42)
	if got := m.Read(0xA000); got != 0x42 {
		t.Fatalf("ram bank3 RW got %02X want 42", got)
	}
}
