// Package machine owns a cartridge, bus, and CPU together and drives them
// as one unit: load a ROM, step whole frames, feed buttons in, drain
// frames/audio out, and save/restore the whole thing as one blob. It is
// the Go expression of the core's external boundary.
package machine

import (
	"github.com/mgorin/gmboy-go/internal/bus"
	"github.com/mgorin/gmboy-go/internal/cart"
	"github.com/mgorin/gmboy-go/internal/core/errkind"
	"github.com/mgorin/gmboy-go/internal/corestate"
	"github.com/mgorin/gmboy-go/internal/cpu"
)

// Machine owns a cartridge/bus/CPU triple and advances them one frame at
// a time.
type Machine struct {
	bus         *bus.Bus
	cpu         *cpu.CPU
	romChecksum byte
	frameCount  uint64
	rewind      *rewindBuffer
}

// LoadROM parses rom's header, constructs the matching cartridge/MBC, and
// resets the CPU to the typical post-boot-ROM DMG state starting at 0x0100
// (no boot ROM is run; SetBootROM on the returned Machine's Bus can be used
// separately if a boot ROM image is available).
func LoadROM(rom []byte) (*Machine, error) {
	b, err := bus.New(rom)
	if err != nil {
		return nil, err
	}
	c := cpu.New(b)
	c.ResetNoBoot()
	c.SetPC(0x0100)
	initPostBootIO(b)

	h, err := cart.ParseHeader(rom)
	if err != nil {
		return nil, err
	}
	return &Machine{
		bus:         b,
		cpu:         c,
		romChecksum: h.HeaderChecksum,
		rewind:      newRewindBuffer(defaultRewindCapacity),
	}, nil
}

// initPostBootIO writes the IO register values a real DMG boot ROM leaves
// behind, since ResetNoBoot only covers CPU registers. Grounded on
// cmd/cpurunner/main.go's no-boot-ROM initialization block.
func initPostBootIO(b *bus.Bus) {
	b.Write(0xFF00, 0xCF)
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	b.Write(0xFF40, 0x91) // LCDC on with BG, 0x8000 tile data, sprites off
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFFFF, 0x00) // IE
}

// Bus exposes the underlying bus for host code that needs direct register
// access (e.g. a debugger) beyond this package's boundary API.
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the underlying CPU for tooling that needs direct register
// access (e.g. acceptance-test harnesses polling for a success pattern).
func (m *Machine) CPU() *cpu.CPU { return m.cpu }

// AttachBattery restores external RAM and/or RTC bytes into the loaded
// cartridge, validating their length against what the cartridge reports
// for its own current contents rather than silently truncating.
func (m *Machine) AttachBattery(ram, rtc []byte) error {
	c := m.bus.Cart()
	if bb, ok := c.(cart.BatteryBacked); ok && len(ram) > 0 {
		want := len(bb.SaveRAM())
		if want != 0 && len(ram) != want {
			return &errkind.BatteryIoShape{Want: want, Got: len(ram)}
		}
		bb.LoadRAM(ram)
	}
	if rb, ok := c.(cart.RTCBacked); ok && len(rtc) > 0 {
		rb.LoadRTC(rtc)
	}
	return nil
}

// StepFrame runs the CPU/bus/PPU/APU forward until the PPU reports a
// completed frame (154 scanlines of 456 dots, 70224 T-cycles on DMG
// timing), rather than spending a fixed T-cycle budget: a call entered
// mid-frame, or a final instruction that overshoots the line 153 boundary,
// still stops exactly at the next VBlank instead of drifting off it. It
// reports a non-nil error if the CPU hit a reached-but-undefined opcode
// (see CPU.Fault); the caller should treat the frame, and the machine, as
// done at that point.
func (m *Machine) StepFrame() error {
	for {
		m.cpu.Step()
		if err := m.cpu.Fault(); err != nil {
			return err
		}
		if m.bus.PPU().FrameReady() {
			break
		}
	}
	m.frameCount++
	return nil
}

// Step executes exactly one CPU instruction (ticking bus/PPU/APU along the
// way) and returns the T-cycles it consumed. Acceptance-test harnesses use
// this to poll CPU registers between instructions rather than waiting for
// a whole frame to elapse.
func (m *Machine) Step() int { return m.cpu.Step() }

// SetButtons sets which buttons are currently pressed, using the
// bus.Joyp* bitmask constants.
func (m *Machine) SetButtons(mask byte) { m.bus.SetJoypadState(mask) }

// FrameCounter returns the number of frames StepFrame has completed.
func (m *Machine) FrameCounter() uint64 { return m.frameCount }

// FrameBuffer returns the most recently completed frame as packed RGB565,
// row-major, 160x144.
func (m *Machine) FrameBuffer() []uint16 { return m.bus.PPU().FrameBuffer() }

// DrainAudio fills dst (interleaved stereo float32 in [-1,1]) with
// generated samples at the APU's native sample rate, returning the number
// of frames written.
func (m *Machine) DrainAudio(dst []float32) int {
	return m.bus.APU().DrainAudio(dst, 48000)
}

// DumpBattery returns the cartridge's external RAM contents, or nil if the
// cartridge has none.
func (m *Machine) DumpBattery() []byte {
	if bb, ok := m.bus.Cart().(cart.BatteryBacked); ok {
		return bb.SaveRAM()
	}
	return nil
}

// DumpRTC returns the cartridge's real-time-clock register bytes, or nil
// if the cartridge has no RTC.
func (m *Machine) DumpRTC() []byte {
	if rb, ok := m.bus.Cart().(cart.RTCBacked); ok {
		return rb.SaveRTC()
	}
	return nil
}

// SaveState serializes the whole machine (bus, which chains PPU/APU/
// cartridge, plus the CPU) into one self-describing blob tied to the
// loaded ROM's header checksum.
func (m *Machine) SaveState() []byte {
	return corestate.Encode(m.romChecksum, m.bus.SaveState(), m.cpu.SaveState())
}

// LoadState restores a blob produced by SaveState, rejecting one captured
// against a different ROM or an incompatible format.
func (m *Machine) LoadState(data []byte) error {
	busState, cpuState, err := corestate.Decode(data, m.romChecksum)
	if err != nil {
		return &errkind.SaveStateIncompatible{Reason: err.Error()}
	}
	m.bus.LoadState(busState)
	m.cpu.LoadState(cpuState)
	return nil
}

// PushRewindPoint snapshots the current state into the rewind ring,
// evicting the oldest snapshot once the ring is full.
func (m *Machine) PushRewindPoint() { m.rewind.push(m.SaveState()) }

// Rewind restores the most recently pushed rewind snapshot and removes it
// from the ring. It reports false if the ring is empty.
func (m *Machine) Rewind() bool {
	data, ok := m.rewind.pop()
	if !ok {
		return false
	}
	return m.LoadState(data) == nil
}
