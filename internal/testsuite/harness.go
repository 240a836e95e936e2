package testsuite

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/mgorin/gmboy-go/internal/machine"
)

// Result is the outcome of running one acceptance-test case.
type Result struct {
	Case    Case
	Passed  bool
	Detail  string
	Elapsed time.Duration
}

// Run loads c.ROMPath and steps it instruction-by-instruction until the
// Mooneye register success/failure pattern appears, a serial-output
// substring from the config matches, or the case's timeout elapses.
// Grounded on original_source/core/tests/mooneye/util.rs's
// run_mooneye_rom_path loop (register-pattern poll with a wall-clock
// timeout) and cmd/cpurunner's serial-substring "-auto" detection.
func Run(c Case) Result {
	start := time.Now()
	rom, err := os.ReadFile(c.ROMPath)
	if err != nil {
		return Result{Case: c, Passed: false, Detail: fmt.Sprintf("read ROM: %v", err)}
	}
	m, err := machine.LoadROM(rom)
	if err != nil {
		return Result{Case: c, Passed: false, Detail: fmt.Sprintf("load ROM: %v", err)}
	}

	var serial bytes.Buffer
	useSerial := c.SerialSuccess != "" || c.SerialFailure != ""
	if useSerial {
		m.Bus().SetSerialWriter(&serial)
	}

	deadline := start.Add(c.Timeout())
	for time.Now().Before(deadline) {
		m.Step()

		if useSerial {
			out := serial.String()
			if c.SerialSuccess != "" && bytes.Contains([]byte(out), []byte(c.SerialSuccess)) {
				return Result{Case: c, Passed: true, Elapsed: time.Since(start)}
			}
			if c.SerialFailure != "" && bytes.Contains([]byte(out), []byte(c.SerialFailure)) {
				return Result{Case: c, Passed: false, Detail: "serial reported failure: " + out, Elapsed: time.Since(start)}
			}
			continue
		}

		cpu := m.CPU()
		if successPattern.Matches(cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L) {
			return Result{Case: c, Passed: true, Elapsed: time.Since(start)}
		}
		if failPattern.Matches(cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L) {
			return Result{Case: c, Passed: false, Detail: "CPU left the Mooneye failure register pattern", Elapsed: time.Since(start)}
		}
	}
	return Result{Case: c, Passed: false, Detail: "timeout", Elapsed: time.Since(start)}
}

// RunAll runs every case in cfg and returns one Result per case, in order.
func RunAll(cfg Config) []Result {
	results := make([]Result, len(cfg.Cases))
	for i, c := range cfg.Cases {
		results[i] = Run(c)
	}
	return results
}
