package host

import (
	"encoding/binary"
	"time"

	"github.com/mgorin/gmboy-go/internal/machine"
)

// sampleRate must match internal/machine.Machine.DrainAudio's fixed rate.
const sampleRate = 48000

// stream implements io.Reader by pulling interleaved stereo float32 PCM
// from the Machine's APU and converting it to signed 16-bit little-endian
// frames, which is what ebiten's audio.Context wants fed to it. Adapted
// from the teacher's internal/ui.apuStream: same "convert on Read, pad
// with silence rather than block" shape, simplified to this core's
// DrainAudio API instead of a push/pull stereo-sample ring.
type stream struct {
	m     *machine.Machine
	mono  bool
	muted *bool
	buf   []float32
}

func newStream(m *machine.Machine, mono bool, muted *bool) *stream {
	return &stream{m: m, mono: mono, muted: muted}
}

func (s *stream) Read(p []byte) (int, error) {
	if len(p) < 4 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	if s.muted != nil && *s.muted {
		for i := range p {
			p[i] = 0
		}
		time.Sleep(5 * time.Millisecond)
		return len(p), nil
	}

	frames := len(p) / 4
	if cap(s.buf) < frames*2 {
		s.buf = make([]float32, frames*2)
	}
	fbuf := s.buf[:frames*2]
	n := s.m.DrainAudio(fbuf)

	i := 0
	for f := 0; f < n && i+3 < len(p); f++ {
		l := fbuf[f*2]
		r := fbuf[f*2+1]
		if s.mono {
			mixed := (l + r) / 2
			v := floatToInt16(mixed)
			binary.LittleEndian.PutUint16(p[i:], uint16(v))
			binary.LittleEndian.PutUint16(p[i+2:], uint16(v))
		} else {
			binary.LittleEndian.PutUint16(p[i:], uint16(floatToInt16(l)))
			binary.LittleEndian.PutUint16(p[i+2:], uint16(floatToInt16(r)))
		}
		i += 4
	}
	// Pad any shortfall with silence; ebiten's player wants Read to fill p.
	for ; i+3 < len(p); i += 4 {
		binary.LittleEndian.PutUint16(p[i:], 0)
		binary.LittleEndian.PutUint16(p[i+2:], 0)
	}
	return len(p), nil
}

func floatToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
