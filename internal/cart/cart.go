// Package cart decodes DMG cartridge headers and routes ROM/RAM accesses
// through the appropriate memory bank controller.
package cart

import "fmt"

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Implementations can be ROM-only or MBC variants. Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000–0x7FFF) and external RAM (0xA000–0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000–0x7FFF) and external RAM writes (0xA000–0xBFFF).
	Write(addr uint16, value byte)
	// SaveState/LoadState serialize internal banking registers for save states.
	// External RAM and RTC bytes are saved separately via BatteryBacked/RTCBacked.
	SaveState() []byte
	LoadState(data []byte)
}

// BatteryBacked is implemented by cartridges with persistable external RAM.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// RTCBacked is implemented by cartridges with a real-time clock (MBC3).
type RTCBacked interface {
	SaveRTC() []byte
	LoadRTC(data []byte)
}

// UnsupportedFeatureError reports a cart type this core does not implement.
type UnsupportedFeatureError struct {
	CartType byte
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported cartridge type 0x%02X", e.CartType)
}

// RomMalformedError reports a ROM image that fails basic structural checks.
type RomMalformedError struct {
	Reason string
}

func (e *RomMalformedError) Error() string { return "malformed ROM: " + e.Reason }

// unsupportedCartTypes lists codes spec.md explicitly excludes: MMM01, HuC1/3,
// Pocket Camera and Bandai TAMA5, plus MBC6/MBC7 which share the table's
// tail and are never wired to a banking implementation here.
var unsupportedCartTypes = map[byte]bool{
	0x0B: true, 0x0C: true, 0x0D: true, // MMM01 (+RAM)(+BATTERY)
	0x0E: true, // HuC1 placeholder some headers emit
	0x20: true, // MBC6
	0x22: true, // MBC7
	0xFC: true, // Pocket Camera
	0xFD: true, // Bandai TAMA5
	0xFE: true, // HuC3
	0xFF: true, // HuC1+RAM+BATTERY
}

// NewCartridge parses the header and constructs the matching MBC. It never
// mutates rom; MBCs hold a read-only view over it.
func NewCartridge(rom []byte) (Cartridge, error) {
	h, err := ParseHeader(rom)
	if err != nil {
		return nil, &RomMalformedError{Reason: err.Error()}
	}
	if unsupportedCartTypes[h.CartType] {
		return nil, &UnsupportedFeatureError{CartType: h.CartType}
	}
	switch h.CartType {
	case 0x00, 0x08, 0x09: // ROM ONLY, ROM+RAM, ROM+RAM+BATTERY
		return NewROMOnly(rom, h.RAMSizeBytes), nil
	case 0x01, 0x02, 0x03: // MBC1, MBC1+RAM, MBC1+RAM+BATTERY
		return NewMBC1(rom, h.RAMSizeBytes), nil
	case 0x05, 0x06: // MBC2, MBC2+BATTERY
		return NewMBC2(rom), nil
	case 0x0F, 0x10, 0x11, 0x12, 0x13: // MBC3(+TIMER)(+RAM)(+BATTERY)
		hasRTC := h.CartType == 0x0F || h.CartType == 0x10
		return NewMBC3(rom, h.RAMSizeBytes, hasRTC), nil
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E: // MBC5 variants
		return NewMBC5(rom, h.RAMSizeBytes), nil
	default:
		return nil, &UnsupportedFeatureError{CartType: h.CartType}
	}
}
