package cart

import (
	"bytes"
	"encoding/gob"
)

// MBC3 implements ROM/RAM banking plus the optional real-time clock for
// cart types 0x0F-0x13:
//   - 0000-1FFF: RAM/RTC enable (0x0A in low nibble)
//   - 2000-3FFF: ROM bank, 7 bits (0 maps to 1, unlike MBC5's direct banking)
//   - 4000-5FFF: RAM bank 0-3, or RTC register select 0x08-0x0C when hasRTC
//   - 6000-7FFF: RTC latch (0-then-1 write snapshots the live clock)
//   - A000-BFFF: external RAM, or the selected latched RTC register
type MBC3 struct {
	rom []byte
	ram []byte
	rtc *rtc

	ramRTCEnabled bool
	romBank       byte // 7 bits (1..127)
	ramBank       byte // 0..3
	rtcSelected   byte // 0x08-0x0C when addressing the clock instead of RAM
	addressingRTC bool
}

func NewMBC3(rom []byte, ramSize int, hasRTC bool) *MBC3 {
	m := &MBC3{rom: rom, romBank: 1}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
	}
	if hasRTC {
		m.rtc = newRTC()
	}
	return m
}

func (m *MBC3) Read(addr uint16) byte {
	switch {
	case addr < 0x4000:
		return m.romByte(int(addr))
	case addr < 0x8000:
		bank := int(m.romBank & 0x7F)
		if bank == 0 {
			bank = 1
		}
		return m.romByte(bank*0x4000 + int(addr-0x4000))
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramRTCEnabled {
			return 0xFF
		}
		if m.addressingRTC && m.rtc != nil {
			return m.rtc.readSelected()
		}
		rb := int(m.ramBank & 0x03)
		if off := rb*0x2000 + int(addr-0xA000); len(m.ram) > 0 && off < len(m.ram) {
			return m.ram[off]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) romByte(off int) byte {
	if off >= 0 && off < len(m.rom) {
		return m.rom[off]
	}
	return 0xFF
}

func (m *MBC3) Write(addr uint16, value byte) {
	switch {
	case addr < 0x2000:
		m.ramRTCEnabled = (value & 0x0F) == 0x0A
	case addr < 0x4000:
		v := value & 0x7F
		if v == 0 {
			v = 1
		}
		m.romBank = v
	case addr < 0x6000:
		if value <= 0x03 {
			m.ramBank = value & 0x03
			m.addressingRTC = false
		} else if m.rtc != nil && value >= 0x08 && value <= 0x0C {
			m.rtcSelected = value
			m.addressingRTC = true
			m.rtc.selectRegister(value)
		}
	case addr < 0x8000:
		if m.rtc != nil {
			m.rtc.writeLatch(value)
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		if !m.ramRTCEnabled {
			return
		}
		if m.addressingRTC && m.rtc != nil {
			m.rtc.writeSelected(value)
			return
		}
		rb := int(m.ramBank & 0x03)
		if off := rb*0x2000 + int(addr-0xA000); len(m.ram) > 0 && off < len(m.ram) {
			m.ram[off] = value
		}
	}
}

// TickRTC advances the real-time clock by one second. The machine calls
// this at a 1Hz cadence derived from the emulated clock; no-op without RTC.
func (m *MBC3) TickRTC() {
	if m.rtc != nil {
		m.rtc.tick()
	}
}

type mbc3State struct {
	RAMRTCEnabled bool
	ROMBank       byte
	RAMBank       byte
	RTCSelected   byte
	AddressingRTC bool
}

func (m *MBC3) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc3State{m.ramRTCEnabled, m.romBank, m.ramBank, m.rtcSelected, m.addressingRTC})
	return buf.Bytes()
}

func (m *MBC3) LoadState(data []byte) {
	var s mbc3State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	m.ramRTCEnabled, m.romBank, m.ramBank = s.RAMRTCEnabled, s.ROMBank, s.RAMBank
	m.rtcSelected, m.addressingRTC = s.RTCSelected, s.AddressingRTC
	if m.rtc != nil {
		m.rtc.selectRegister(m.rtcSelected)
	}
}

func (m *MBC3) SaveRAM() []byte {
	if len(m.ram) == 0 {
		return nil
	}
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC3) LoadRAM(data []byte) {
	if len(m.ram) == 0 || len(data) == 0 {
		return
	}
	copy(m.ram, data)
}

func (m *MBC3) SaveRTC() []byte {
	if m.rtc == nil {
		return nil
	}
	return m.rtc.save()
}

func (m *MBC3) LoadRTC(data []byte) {
	if m.rtc == nil || len(data) == 0 {
		return
	}
	m.rtc.load(data)
}
