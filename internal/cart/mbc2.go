package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC2 implements cart types 0x05/0x06: up to 256KB ROM and 512x4-bit
// built-in RAM addressed by the low nibble of each byte (the high nibble
// always reads back as 0xF).
type MBC2 struct {
	rom []byte
	ram [512]byte // only the low nibble of each entry is meaningful

	romBank    byte
	ramEnabled bool
}

func NewMBC2(rom []byte) *MBC2 {
	return &MBC2{rom: rom, romBank: 1}
}

func (m *MBC2) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romByte(int(addr))
	case addr < 0x8000:
		off := int(m.romBank)*0x4000 + int(addr-0x4000)
		return m.romByte(off)
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		idx := int(addr-0xA000) & 0x1FF
		return m.ram[idx] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) romByte(off int) byte {
	if off >= 0 && off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC2) Write(addr uint16, value byte) {
	switch {
	case addr < 0x4000:
		// Bit 8 of the address selects RAM-enable (0) vs ROM-bank-select (1).
		if addr&0x0100 == 0 {
			m.ramEnabled = (value & 0x0F) == 0x0A
		} else {
			m.romBank = value & 0x0F
			if m.romBank == 0 {
				m.romBank = 1
			}
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		idx := int(addr-0xA000) & 0x1FF
		m.ram[idx] = value & 0x0F
	}
}

type mbc2State struct {
	ROMBank    byte
	RAMEnabled bool
}

func (m *MBC2) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc2State{m.romBank, m.ramEnabled})
	return buf.Bytes()
}

func (m *MBC2) LoadState(data []byte) {
	var s mbc2State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.romBank, m.ramEnabled = s.ROMBank, s.RAMEnabled
}

func (m *MBC2) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram[:])
	return out
}

func (m *MBC2) LoadRAM(data []byte) {
	if len(data) == 0 {
		return
	}
	copy(m.ram[:], data)
}
