package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC1 implements ROM/RAM banking for cart types 0x01-0x03: up to 2MB ROM
// (125 usable banks after the 0/20/40/60 remap) and up to 32KB RAM.
type MBC1 struct {
	rom []byte
	ram []byte

	romBankLow5       byte // lower 5 bits of ROM bank number (0->1 remapped)
	ramBankOrRomHigh2 byte // ROM bank bits 5-6 (both modes); also RAM bank and bank-0 region high bits in mode1
	ramEnabled        bool
	modeSelect        byte // 0: ROM banking (default), 1: RAM banking
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, romBankLow5: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	return m
}

func (m *MBC1) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		if m.modeSelect == 0 {
			if int(addr) < len(m.rom) {
				return m.rom[addr]
			}
			return 0xFF
		}
		// mode 1: apply high bits to bank 0 region
		bank := int(m.ramBankOrRomHigh2&0x03) << 5
		return m.romByte(bank*0x4000 + int(addr))
	case addr < 0x8000:
		bank := int(m.effectiveROMBank())
		return m.romByte(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		if off := m.ramOffset(addr); off >= 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC1) romByte(off int) byte {
	if off >= 0 && off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC1) ramOffset(addr uint16) int {
	ramBank := 0
	if m.modeSelect == 1 {
		ramBank = int(m.ramBankOrRomHigh2 & 0x03)
	}
	return ramBank*0x2000 + int(addr-0xA000)
}

func (m *MBC1) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		m.romBankLow5 = value & 0x1F
		if m.romBankLow5 == 0 {
			m.romBankLow5 = 1
		}
	case addr < 0x6000:
		m.ramBankOrRomHigh2 = value & 0x03
	case addr < 0x8000:
		m.modeSelect = value & 0x01
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		if off := m.ramOffset(addr); off >= 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

func (m *MBC1) effectiveROMBank() byte {
	high := m.ramBankOrRomHigh2 & 0x03
	return m.romBankLow5 | (high << 5)
}

type mbc1State struct {
	RAMEnabled bool
	Low5       byte
	High2      byte
	Mode       byte
}

func (m *MBC1) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc1State{m.ramEnabled, m.romBankLow5, m.ramBankOrRomHigh2, m.modeSelect})
	return buf.Bytes()
}

func (m *MBC1) LoadState(data []byte) {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.ramEnabled, m.romBankLow5, m.ramBankOrRomHigh2, m.modeSelect = s.RAMEnabled, s.Low5, s.High2, s.Mode
}

func (m *MBC1) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}
