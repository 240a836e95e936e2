// Package errkind gives the core's failure modes concrete, matchable
// types instead of an error-code enum, the way cart.UnsupportedFeatureError
// and cart.RomMalformedError already do for header parsing.
package errkind

import "fmt"

// RomMalformed reports a ROM image that fails basic structural checks.
// cart.RomMalformedError is the header-specific instance of this kind;
// this one covers malformed ROMs discovered outside header parsing (e.g.
// truncated bank data).
type RomMalformed struct{ Reason string }

func (e *RomMalformed) Error() string { return "malformed ROM: " + e.Reason }

// UnsupportedFeature reports a recognized-but-unimplemented cartridge or
// core feature (mirrors cart.UnsupportedFeatureError for non-cart cases).
type UnsupportedFeature struct{ Feature string }

func (e *UnsupportedFeature) Error() string { return "unsupported feature: " + e.Feature }

// BatteryIoShape reports a battery/RTC byte slice that doesn't match what
// the cartridge's MBC expects (wrong length, usually from a save file
// made for a different MBC or RAM size).
type BatteryIoShape struct {
	Want, Got int
}

func (e *BatteryIoShape) Error() string {
	return fmt.Sprintf("battery data has wrong shape: want %d bytes, got %d", e.Want, e.Got)
}

// SaveStateIncompatible reports a save state that can't be loaded into the
// current core: wrong magic/version, or a different ROM than the one the
// state was captured from.
type SaveStateIncompatible struct{ Reason string }

func (e *SaveStateIncompatible) Error() string { return "incompatible save state: " + e.Reason }

// InvariantViolation reports a core-internal invariant failing at runtime
// (a "this should never happen" defensive check), rather than silently
// continuing with corrupted state.
type InvariantViolation struct{ Reason string }

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Reason }
