package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSaveLoadStateRoundTripAssertions exercises the same round trip as
// TestSaveLoadStateRoundTrip but via testify's require, the pack's one
// assertion library (stretchr/testify, pulled in by
// RetroCodeRamen-Nitro-Core-DX's go.mod), for the save-state path this
// core leans on most heavily.
func TestSaveLoadStateRoundTripAssertions(t *testing.T) {
	rom := buildROM(0x00, 0x00, 0x00, 0x8000)
	m, err := LoadROM(rom)
	require.NoError(t, err)

	m.StepFrame()
	m.StepFrame()
	wantFrames := m.FrameCounter()

	blob := m.SaveState()
	require.NotEmpty(t, blob)

	m2, err := LoadROM(rom)
	require.NoError(t, err)
	require.NoError(t, m2.LoadState(blob))

	require.Equal(t, m.CPU().PC, m2.CPU().PC)
	require.Equal(t, wantFrames, m.FrameCounter())
}
