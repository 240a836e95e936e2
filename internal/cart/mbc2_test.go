package cart

import "testing"

func TestMBC2_NibbleRAM(t *testing.T) {
	m := NewMBC2(make([]byte, 0x8000))

	// Address bit 8 clear selects the RAM-enable register.
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0xF7)
	if got := m.Read(0xA000); got != 0xF7 {
		t.Fatalf("nibble RAM got %02X want high nibble forced to F (0xF7)", got)
	}
	// Only the low nibble is actually stored.
	m.Write(0xA000, 0x03)
	if got := m.Read(0xA000); got != 0xF3 {
		t.Fatalf("nibble RAM got %02X want F3", got)
	}
}

func TestMBC2_ROMBankSelect(t *testing.T) {
	rom := make([]byte, 256*1024)
	rom[3*0x4000] = 0x55
	m := NewMBC2(rom)

	// Address bit 8 set selects the ROM-bank register.
	m.Write(0x0100, 0x03)
	if got := m.Read(0x4000); got != 0x55 {
		t.Fatalf("bank3 read got %02X want 55", got)
	}

	m.Write(0x0100, 0x00)
	if got := m.Read(0x4000); got != rom[0x4000] {
		t.Fatalf("bank0 write should remap to bank1")
	}
}

func TestMBC2_RAMDisabledReadsFF(t *testing.T) {
	m := NewMBC2(make([]byte, 0x8000))
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM got %02X want FF", got)
	}
}
