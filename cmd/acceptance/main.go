// Command acceptance runs Mooneye/Blargg-style acceptance ROMs against the
// core, either from a TOML config file (-config) or a single ROM (-rom),
// grounded on cmd/cpurunner's flag-based CLI and the register-pattern poll
// loop from original_source/core/tests/mooneye/util.rs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mgorin/gmboy-go/internal/testsuite"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML acceptance-test config (see internal/testsuite/config.go)")
	romPath := flag.String("rom", "", "run a single ROM instead of a config file")
	timeoutSecs := flag.Int("timeout", 10, "per-case timeout in seconds when using -rom")
	serialSuccess := flag.String("serial-success", "", "optional serial-output substring for success, instead of the Mooneye register pattern")
	serialFailure := flag.String("serial-failure", "", "optional serial-output substring for failure")
	flag.Parse()

	var cfg testsuite.Config
	switch {
	case *configPath != "":
		c, err := testsuite.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	case *romPath != "":
		cfg = testsuite.Config{Cases: []testsuite.Case{{
			Name:          *romPath,
			ROMPath:       *romPath,
			TimeoutSecs:   *timeoutSecs,
			SerialSuccess: *serialSuccess,
			SerialFailure: *serialFailure,
		}}}
	default:
		log.Fatal("either -config or -rom is required")
	}

	results := testsuite.RunAll(cfg)
	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%-6s %-40s %s  %v\n", status, r.Case.Name, r.Detail, r.Elapsed)
	}
	fmt.Printf("\n%d/%d passed\n", len(results)-failed, len(results))
	if failed > 0 {
		os.Exit(1)
	}
}
