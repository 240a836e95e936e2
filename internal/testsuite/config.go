// Package testsuite loads acceptance-test expectations for the
// Mooneye/Blargg ROM harness from a TOML config file, the one place this
// core needs a declarative file format rather than CLI flags.
package testsuite

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// RegisterPattern names the six 8-bit registers a Mooneye acceptance ROM
// leaves set on success or failure, per the original Rust harness's
// Fibonacci-success / 0x42-failure convention.
type RegisterPattern struct {
	B, C, D, E, H, L byte
}

// Matches reports whether the CPU's current B/C/D/E/H/L match this pattern.
func (p RegisterPattern) Matches(b, c, d, e, h, l byte) bool {
	return p.B == b && p.C == c && p.D == d && p.E == e && p.H == h && p.L == l
}

// successPattern is the magic Fibonacci sequence Mooneye ROMs leave in
// B..L to signal a pass.
var successPattern = RegisterPattern{B: 3, C: 5, D: 8, E: 13, H: 21, L: 34}

// failPattern is the magic all-0x42 sequence Mooneye ROMs leave in B..L
// to signal a failure.
var failPattern = RegisterPattern{B: 0x42, C: 0x42, D: 0x42, E: 0x42, H: 0x42, L: 0x42}

// SuccessPattern and FailPattern expose the two well-known patterns for
// callers that want to poll directly instead of going through Case.Outcome.
func SuccessPattern() RegisterPattern { return successPattern }
func FailPattern() RegisterPattern    { return failPattern }

// Case is one ROM's acceptance-test entry: where to find it, how long to
// allow it to run, and (for non-Mooneye ROMs that don't use the register
// convention) an optional serial-output substring to watch for instead.
type Case struct {
	Name          string        `toml:"name"`
	ROMPath       string        `toml:"rom_path"`
	TimeoutSecs   int           `toml:"timeout_secs"`
	SerialSuccess string        `toml:"serial_success"` // optional, e.g. "Passed"
	SerialFailure string        `toml:"serial_failure"` // optional, e.g. "Failed"
}

// Timeout returns the case's timeout as a time.Duration, defaulting to 10s.
func (c Case) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Config is the top-level acceptance-test config file shape.
type Config struct {
	Cases []Case `toml:"case"`
}

// LoadConfig reads and parses a TOML acceptance-test config file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("testsuite: load config %s: %w", path, err)
	}
	return cfg, nil
}
