package cart

import (
	"bytes"
	"encoding/gob"
)

// rtc models the MBC3 real-time clock: seconds, minutes, hours, and a
// 9-bit day counter split into a low byte and a high byte carrying the
// day's bit 8, a halt flag (bit 6) and a day-overflow carry flag (bit 7).
//
// Registers only update from the live counter at the instant a 0-then-1
// write sequence is seen on the latch port (0x6000-0x7FFF); reads always
// come from the latched snapshot, matching real MBC3 behavior.
type rtc struct {
	seconds, minutes, hours byte
	dayLow                  byte
	dayHigh                 byte // bit0: day bit8, bit6: halt, bit7: day carry

	latchedSeconds, latchedMinutes, latchedHours byte
	latchedDayLow, latchedDayHigh                byte

	latchState byte // tracks the 0-then-1 write sequence
	selected   byte // which of the 5 RTC registers (0x08-0x0C) is selected
}

func newRTC() *rtc {
	return &rtc{latchState: 0xFF}
}

// tick advances the live counter by one second. The bus/machine calls this
// at a 1Hz cadence derived from the master clock; halted counters ignore it.
func (r *rtc) tick() {
	if r.dayHigh&0x40 != 0 { // halt
		return
	}
	r.seconds++
	if r.seconds < 60 {
		return
	}
	r.seconds = 0
	r.minutes++
	if r.minutes < 60 {
		return
	}
	r.minutes = 0
	r.hours++
	if r.hours < 24 {
		return
	}
	r.hours = 0
	day := uint16(r.dayLow) | uint16(r.dayHigh&0x01)<<8
	day++
	if day > 0x1FF {
		day = 0
		r.dayHigh |= 0x80 // overflow carry
	}
	r.dayLow = byte(day & 0xFF)
	r.dayHigh = (r.dayHigh &^ 0x01) | byte((day>>8)&0x01)
}

// writeLatch handles a byte written to 0x6000-0x7FFF: the 0-then-1
// transition copies the live counter into the latched snapshot read back
// through readSelected.
func (r *rtc) writeLatch(value byte) {
	if r.latchState == 0 && value == 1 {
		r.latchedSeconds, r.latchedMinutes, r.latchedHours = r.seconds, r.minutes, r.hours
		r.latchedDayLow, r.latchedDayHigh = r.dayLow, r.dayHigh
	}
	r.latchState = value
}

func (r *rtc) selectRegister(reg byte) { r.selected = reg }

func (r *rtc) readSelected() byte {
	switch r.selected {
	case 0x08:
		return r.latchedSeconds
	case 0x09:
		return r.latchedMinutes
	case 0x0A:
		return r.latchedHours
	case 0x0B:
		return r.latchedDayLow
	case 0x0C:
		return r.latchedDayHigh
	default:
		return 0xFF
	}
}

func (r *rtc) writeSelected(value byte) {
	switch r.selected {
	case 0x08:
		r.seconds = value % 60
	case 0x09:
		r.minutes = value % 60
	case 0x0A:
		r.hours = value % 24
	case 0x0B:
		r.dayLow = value
	case 0x0C:
		r.dayHigh = value & 0xC1
	}
}

type rtcState struct {
	Seconds, Minutes, Hours               byte
	DayLow, DayHigh                       byte
	LSeconds, LMinutes, LHours            byte
	LDayLow, LDayHigh                     byte
	LatchState, Selected                  byte
}

func (r *rtc) save() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(rtcState{
		Seconds: r.seconds, Minutes: r.minutes, Hours: r.hours,
		DayLow: r.dayLow, DayHigh: r.dayHigh,
		LSeconds: r.latchedSeconds, LMinutes: r.latchedMinutes, LHours: r.latchedHours,
		LDayLow: r.latchedDayLow, LDayHigh: r.latchedDayHigh,
		LatchState: r.latchState, Selected: r.selected,
	})
	return buf.Bytes()
}

func (r *rtc) load(data []byte) {
	var s rtcState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	r.seconds, r.minutes, r.hours = s.Seconds, s.Minutes, s.Hours
	r.dayLow, r.dayHigh = s.DayLow, s.DayHigh
	r.latchedSeconds, r.latchedMinutes, r.latchedHours = s.LSeconds, s.LMinutes, s.LHours
	r.latchedDayLow, r.latchedDayHigh = s.LDayLow, s.LDayHigh
	r.latchState, r.selected = s.LatchState, s.Selected
}
