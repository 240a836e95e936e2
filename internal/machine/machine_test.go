package machine

import (
	"encoding/binary"
	"testing"

	"github.com/mgorin/gmboy-go/internal/bus"
)

// buildROM makes a synthetic ROM-only cartridge image with a valid header,
// the same construction cart's own tests use.
func buildROM(cartType, romSizeCode, ramSizeCode byte, size int) []byte {
	rom := make([]byte, size)
	copy(rom[0x0134:0x0144], []byte("TESTROM"))
	rom[0x0143] = 0x00
	rom[0x0144], rom[0x0145] = '0', '1'
	rom[0x0147] = cartType
	rom[0x0148] = romSizeCode
	rom[0x0149] = ramSizeCode
	rom[0x014B] = 0x33
	rom[0x014C] = 0x01

	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - rom[addr] - 1
	}
	rom[0x014D] = hsum

	var gsum uint16
	for i := 0; i < len(rom); i++ {
		if i == 0x014E || i == 0x014F {
			continue
		}
		gsum += uint16(rom[i])
	}
	binary.BigEndian.PutUint16(rom[0x014E:0x0150], gsum)
	return rom
}

func TestLoadROMStartsAt0x0100(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 32*1024) // ROM-only, 32KiB, no RAM
	// NOP-fill so StepFrame has well-defined opcodes to execute.
	for i := 0x0100; i < len(rom); i++ {
		rom[i] = 0x00
	}
	m, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	if m.cpu.PC != 0x0100 {
		t.Fatalf("expected PC=0x0100 after LoadROM, got %#04x", m.cpu.PC)
	}
}

func TestStepFrameAdvancesFrameCounter(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 32*1024)
	for i := 0x0100; i < len(rom); i++ {
		rom[i] = 0x00 // NOP sled
	}
	m, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	m.StepFrame()
	if m.FrameCounter() != 1 {
		t.Fatalf("expected frame counter 1, got %d", m.FrameCounter())
	}
	fb := m.FrameBuffer()
	if len(fb) != 160*144 {
		t.Fatalf("expected a 160x144 frame buffer, got %d pixels", len(fb))
	}
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 32*1024)
	for i := 0x0100; i < len(rom); i++ {
		rom[i] = 0x00
	}
	m, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	m.StepFrame()
	m.StepFrame()
	snap := m.SaveState()

	fresh, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	if err := fresh.LoadState(snap); err != nil {
		t.Fatalf("LoadState error: %v", err)
	}
	if fresh.cpu.PC != m.cpu.PC {
		t.Fatalf("expected PC to round-trip: got %#04x want %#04x", fresh.cpu.PC, m.cpu.PC)
	}
}

func TestLoadStateRejectsDifferentROM(t *testing.T) {
	romA := buildROM(0x00, 0x00, 0x00, 32*1024)
	romB := buildROM(0x00, 0x00, 0x00, 32*1024)
	romB[0x0134] = 'X' // change title -> different header checksum
	var hsum byte
	for addr := 0x0134; addr <= 0x014C; addr++ {
		hsum = hsum - romB[addr] - 1
	}
	romB[0x014D] = hsum

	a, err := LoadROM(romA)
	if err != nil {
		t.Fatalf("LoadROM(a) error: %v", err)
	}
	snap := a.SaveState()

	b, err := LoadROM(romB)
	if err != nil {
		t.Fatalf("LoadROM(b) error: %v", err)
	}
	if err := b.LoadState(snap); err == nil {
		t.Fatalf("expected LoadState to reject a state captured for a different ROM")
	}
}

func TestRewindRestoresPreviousFrame(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 32*1024)
	for i := 0x0100; i < len(rom); i++ {
		rom[i] = 0x00
	}
	m, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	m.StepFrame()
	m.PushRewindPoint()
	pcAfterOne := m.cpu.PC
	m.StepFrame()
	m.StepFrame()
	if !m.Rewind() {
		t.Fatalf("expected Rewind to succeed with a pushed snapshot")
	}
	if m.cpu.PC != pcAfterOne {
		t.Fatalf("expected PC restored to %#04x, got %#04x", pcAfterOne, m.cpu.PC)
	}
	if m.Rewind() {
		t.Fatalf("expected Rewind to fail once the ring is empty")
	}
}

func TestSetButtonsReachesBus(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 32*1024)
	m, err := LoadROM(rom)
	if err != nil {
		t.Fatalf("LoadROM error: %v", err)
	}
	m.SetButtons(bus.JoypA)
	m.Bus().Write(0xFF00, 0x10) // select buttons (P15 low is action buttons... see joypad.go)
	if m.Bus().Read(0xFF00)&0x01 != 0 {
		t.Fatalf("expected A button line low (pressed)")
	}
}
