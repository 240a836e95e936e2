package corestate

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := Encode(0x42, []byte("bus-bytes"), []byte("cpu-bytes"))
	busState, cpuState, err := Decode(data, 0x42)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if string(busState) != "bus-bytes" || string(cpuState) != "cpu-bytes" {
		t.Fatalf("unexpected decoded contents: bus=%q cpu=%q", busState, cpuState)
	}
}

func TestDecodeRejectsChecksumMismatch(t *testing.T) {
	data := Encode(0x42, []byte("bus"), []byte("cpu"))
	if _, _, err := Decode(data, 0x99); err == nil {
		t.Fatalf("expected an error decoding against a different ROM checksum")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("not a gob stream"), 0x00); err == nil {
		t.Fatalf("expected an error decoding a non-gob blob")
	}
}
