// Package corestate wraps the core's per-subsystem gob save-state records
// (bus, CPU, and everything the bus already chains: PPU, APU, cartridge) in
// one self-describing envelope, so a load can refuse a state that belongs
// to a different ROM or a future wire format instead of decoding garbage.
package corestate

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Magic identifies a gmboy save-state blob.
const Magic = "GMB1"

// Version is bumped whenever the envelope or its sub-records change shape
// in a way older loaders can't decode.
const Version = 1

// Envelope is the on-disk/on-wire representation. BusState already
// contains the PPU/APU/cartridge sub-records the bus chains internally;
// CPUState is carried alongside since the CPU owns its own registers.
type Envelope struct {
	Magic          string
	Version        int
	ROMChecksum    byte
	BusState       []byte
	CPUState       []byte
}

// Encode builds a save-state blob for the given ROM header checksum and
// subsystem states.
func Encode(romChecksum byte, busState, cpuState []byte) []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(Envelope{
		Magic:       Magic,
		Version:     Version,
		ROMChecksum: romChecksum,
		BusState:    busState,
		CPUState:    cpuState,
	})
	return buf.Bytes()
}

// Decode validates the envelope's magic/version/ROM checksum against the
// currently loaded ROM and returns the bus/CPU sub-records to restore.
func Decode(data []byte, wantROMChecksum byte) (busState, cpuState []byte, err error) {
	var env Envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("corestate: decode: %w", err)
	}
	if env.Magic != Magic {
		return nil, nil, fmt.Errorf("corestate: bad magic %q", env.Magic)
	}
	if env.Version != Version {
		return nil, nil, fmt.Errorf("corestate: unsupported version %d (want %d)", env.Version, Version)
	}
	if env.ROMChecksum != wantROMChecksum {
		return nil, nil, fmt.Errorf("corestate: state is for a different ROM (checksum %02X, loaded %02X)", env.ROMChecksum, wantROMChecksum)
	}
	return env.BusState, env.CPUState, nil
}
