// Package bus wires the CPU-visible 64KB address space to the cartridge,
// work RAM, high RAM, PPU, APU-facing IO, and the timer/DMA/joypad
// peripherals, and drives their per-cycle ticking.
package bus

import (
	"bytes"
	"encoding/gob"
	"io"
	"os"

	"github.com/mgorin/gmboy-go/internal/apu"
	"github.com/mgorin/gmboy-go/internal/cart"
	"github.com/mgorin/gmboy-go/internal/ppu"
)

// cyclesPerSecond is the DMG master clock; used to derive a 1Hz tick for
// cartridges with a real-time clock (MBC3).
const cyclesPerSecond = 4194304

// defaultSampleRate is the host audio rate the APU generates at before
// DrainAudio resamples to whatever the host actually requests.
const defaultSampleRate = 48000

// Bus wires CPU-visible address space to cartridge, WRAM, HRAM, and IO.
type Bus struct {
	cart cart.Cartridge

	// Work RAM (WRAM) 8 KiB at 0xC000-0xDFFF; Echo 0xE000-0xFDFF mirrors C000-DDFF.
	wram [0x2000]byte

	// High RAM (HRAM) 0xFF80-0xFFFE (127 bytes)
	hram [0x7F]byte

	// PPU encapsulates VRAM/OAM and LCDC/STAT timing
	ppu *ppu.PPU

	// APU encapsulates the 4-channel sound generator and its mixer
	apu *apu.APU

	// Interrupt registers
	ie    byte // IE at 0xFFFF
	ifReg byte // IF at 0xFF0F (lower 5 bits used)

	// JOYP
	joypSelect byte // bits 5-4 as last written
	joypad     byte // bitmask of pressed buttons (1=pressed)
	joypLower4 byte // last computed lower 4 bits (active-low), for edge detection

	// Timer
	div             byte // FF04 (upper 8 bits of internal divider)
	tima            byte // FF05
	tma             byte // FF06
	tac             byte // FF07 (lower 3 bits used)
	timaReloadDelay int  // cycles remaining until TIMA reloads from TMA after overflow
	divInternal     uint16

	// Serial
	sb byte      // FF01 data
	sc byte      // FF02 control (bit7 start, bit0 clock source; completed immediately)
	sw io.Writer // sink for serial output (optional)

	// OAM DMA
	dma       byte // FF46
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	// Boot ROM support
	bootROM     []byte
	bootEnabled bool

	// MBC3 RTC tick accumulator
	rtcCycleAccum int

	debugTimer bool
}

// rtcTicker is implemented by cartridges with a real-time clock.
type rtcTicker interface{ TickRTC() }

// New constructs a Bus with a cartridge built from rom's header.
func New(rom []byte) (*Bus, error) {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return nil, err
	}
	return NewWithCartridge(c), nil
}

// NewWithCartridge wires a provided cartridge implementation.
func NewWithCartridge(c cart.Cartridge) *Bus {
	b := &Bus{cart: c}
	b.ppu = ppu.New(func(bit int) { b.ifReg |= 1 << bit })
	b.apu = apu.New(defaultSampleRate)
	if os.Getenv("GB_DEBUG_TIMER") != "" {
		b.debugTimer = true
	}
	return b
}

// PPU returns the internal PPU for rendering/host access.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// APU returns the internal APU for audio-draining host access.
func (b *Bus) APU() *apu.APU { return b.apu }

// Cart returns the underlying cartridge for battery/RTC dump operations.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 && len(b.bootROM) >= 0x100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		mirror := addr - 0x2000
		return b.wram[mirror-0xC000]
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr == 0xFF00:
		return b.readJOYP()
	case addr == 0xFF04:
		return b.readDIV()
	case addr == 0xFF05:
		return b.readTIMA()
	case addr == 0xFF06:
		return b.readTMA()
	case addr == 0xFF07:
		return b.readTAC()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr >= 0xFF10 && addr <= 0xFF26, addr >= 0xFF30 && addr <= 0xFF3F:
		return b.apu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFFFF:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		mirror := addr - 0x2000
		if mirror >= 0xC000 && mirror <= 0xDDFF {
			b.wram[mirror-0xC000] = value
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF00:
		b.writeJOYPSelect(value)
	case addr == 0xFF04:
		b.writeDIV(value)
	case addr == 0xFF05:
		b.writeTIMA(value)
	case addr == 0xFF06:
		b.writeTMA(value)
	case addr == 0xFF07:
		b.writeTAC(value)
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if (b.sc & 0x80) != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.ifReg |= 1 << 3
			b.sc &^= 0x80
		}
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xFF10 && addr <= 0xFF26, addr >= 0xFF30 && addr <= 0xFF3F:
		b.apu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.startOAMDMA(value)
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr == 0xFFFF:
		b.ie = value
	}
}

// SetSerialWriter sets a sink that receives bytes written via the serial port.
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// SetBootROM loads a DMG boot ROM mapped at 0x0000-0x00FF until disabled via
// a non-zero write to 0xFF50.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

// Tick advances timer, PPU, DMA, and (at 1Hz) cartridge RTC state by the
// given number of T-cycles.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	for i := 0; i < cycles; i++ {
		b.tickTimer()
		if b.ppu != nil {
			b.ppu.Tick(1)
		}
		if b.apu != nil {
			b.apu.Tick(1)
		}
		b.tickDMA()

		b.rtcCycleAccum++
		if b.rtcCycleAccum >= cyclesPerSecond {
			b.rtcCycleAccum -= cyclesPerSecond
			if rt, ok := b.cart.(rtcTicker); ok {
				rt.TickRTC()
			}
		}
	}
}

type busState struct {
	WRAM      [0x2000]byte
	HRAM      [0x7F]byte
	IE, IF    byte
	JoypSel   byte
	Joypad    byte
	JoypL4    byte
	DIV       byte
	TIMA      byte
	TMA       byte
	TAC       byte
	TIMARelay int
	SB, SC    byte
	DivInt    uint16
	DMA       byte
	DMAActive bool
	DMASrc    uint16
	DMAIdx    int
	BootEn    bool
	RTCAccum  int
}

// SaveState serializes bus-owned state followed by the PPU's and
// cartridge's own sub-states, each length-prefixed by gob's own framing.
func (b *Bus) SaveState() []byte {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	s := busState{
		WRAM: b.wram, HRAM: b.hram,
		IE: b.ie, IF: b.ifReg,
		JoypSel: b.joypSelect, Joypad: b.joypad, JoypL4: b.joypLower4,
		DIV: b.div, TIMA: b.tima, TMA: b.tma, TAC: b.tac, TIMARelay: b.timaReloadDelay,
		SB: b.sb, SC: b.sc, DivInt: b.divInternal,
		DMA: b.dma, DMAActive: b.dmaActive, DMASrc: b.dmaSrc, DMAIdx: b.dmaIndex,
		BootEn: b.bootEnabled, RTCAccum: b.rtcCycleAccum,
	}
	_ = enc.Encode(s)
	if b.ppu != nil {
		_ = enc.Encode(b.ppu.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	if b.apu != nil {
		_ = enc.Encode(b.apu.SaveState())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	_ = enc.Encode(b.cart.SaveState())
	if bb, ok := b.cart.(cart.BatteryBacked); ok {
		_ = enc.Encode(bb.SaveRAM())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	if rb, ok := b.cart.(cart.RTCBacked); ok {
		_ = enc.Encode(rb.SaveRTC())
	} else {
		_ = enc.Encode([]byte(nil))
	}
	return buf.Bytes()
}

func (b *Bus) LoadState(data []byte) {
	dec := gob.NewDecoder(bytes.NewReader(data))
	var s busState
	if err := dec.Decode(&s); err != nil {
		return
	}
	b.wram = s.WRAM
	b.hram = s.HRAM
	b.ie, b.ifReg = s.IE, s.IF
	b.joypSelect, b.joypad, b.joypLower4 = s.JoypSel, s.Joypad, s.JoypL4
	b.div, b.tima, b.tma, b.tac, b.timaReloadDelay = s.DIV, s.TIMA, s.TMA, s.TAC, s.TIMARelay
	b.sb, b.sc, b.divInternal = s.SB, s.SC, s.DivInt
	b.dma, b.dmaActive, b.dmaSrc, b.dmaIndex = s.DMA, s.DMAActive, s.DMASrc, s.DMAIdx
	b.bootEnabled = s.BootEn
	b.rtcCycleAccum = s.RTCAccum

	var ps []byte
	if err := dec.Decode(&ps); err == nil && b.ppu != nil {
		b.ppu.LoadState(ps)
	}
	var as []byte
	if err := dec.Decode(&as); err == nil && b.apu != nil {
		b.apu.LoadState(as)
	}
	var cs []byte
	if err := dec.Decode(&cs); err == nil {
		b.cart.LoadState(cs)
	}
	var ram []byte
	if err := dec.Decode(&ram); err == nil {
		if bb, ok := b.cart.(cart.BatteryBacked); ok {
			bb.LoadRAM(ram)
		}
	}
	var rtcData []byte
	if err := dec.Decode(&rtcData); err == nil {
		if rb, ok := b.cart.(cart.RTCBacked); ok {
			rb.LoadRTC(rtcData)
		}
	}
}
