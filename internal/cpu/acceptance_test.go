package cpu_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mgorin/gmboy-go/internal/testsuite"
)

// TestCPUInstrs runs real Blargg cpu_instrs-shaped ROMs through the CPU via
// internal/testsuite, generalizing the teacher's internal/emu/blargg_test.go
// opt-in-via-env-var pattern (skip by default; point BLARGG_DIR at a
// directory of .gb/.gbc ROMs and set RUN_BLARGG=1 to exercise this).
func TestCPUInstrs(t *testing.T) {
	if os.Getenv("RUN_BLARGG") == "" {
		t.Skip("set RUN_BLARGG=1 and BLARGG_DIR=<dir of .gb/.gbc ROMs> to run")
	}
	dir := os.Getenv("BLARGG_DIR")
	if dir == "" {
		t.Skip("BLARGG_DIR not set")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Skipf("blargg ROM dir missing: %s", dir)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		low := strings.ToLower(e.Name())
		if !strings.HasSuffix(low, ".gb") && !strings.HasSuffix(low, ".gbc") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		t.Run(name, func(t *testing.T) {
			res := testsuite.Run(testsuite.Case{
				Name:          name,
				ROMPath:       path,
				TimeoutSecs:   30,
				SerialSuccess: "Passed",
				SerialFailure: "Failed",
			})
			if !res.Passed {
				t.Fatalf("%s: %s", name, res.Detail)
			}
		})
	}
}
