package host

import (
	"strings"

	"github.com/mgorin/gmboy-go/internal/cart"
	"github.com/mgorin/gmboy-go/internal/ppu"
)

// namedPalettes are the classic handheld shade ramps a DMG display could be
// tinted with, RGB565-packed lightest-to-darkest. Index 0 (Green) matches
// ppu.DefaultPalette; the rest give players the same "pick a tint" choice
// later color-screen DMG clones and compatibility modes offered.
var namedPalettes = []struct {
	name string
	pal  ppu.Palette
}{
	{"green", ppu.DefaultPalette},
	{"sepia", ppu.Palette{rgb565(0xC6, 0xB4, 0x8A), rgb565(0x9C, 0x86, 0x5C), rgb565(0x5E, 0x4C, 0x33), rgb565(0x2B, 0x20, 0x14)}},
	{"blue", ppu.Palette{rgb565(0xC7, 0xE0, 0xF4), rgb565(0x8D, 0xB7, 0xDD), rgb565(0x46, 0x70, 0x9C), rgb565(0x17, 0x2A, 0x4D)}},
	{"red", ppu.Palette{rgb565(0xF4, 0xC9, 0xC0), rgb565(0xD9, 0x86, 0x78), rgb565(0x9C, 0x3D, 0x34), rgb565(0x4D, 0x13, 0x11)}},
	{"pastel", ppu.Palette{rgb565(0xF6, 0xEA, 0xE2), rgb565(0xE3, 0xC8, 0xD6), rgb565(0xA6, 0x9C, 0xC9), rgb565(0x5C, 0x56, 0x7E)}},
}

func rgb565(r, g, b byte) uint16 {
	return (uint16(r&0xF8) << 8) | (uint16(g&0xFC) << 3) | uint16(b>>3)
}

// PaletteByName resolves a palette name to its 4-shade ramp, falling back
// to DefaultPalette for an unrecognized name.
func PaletteByName(name string) ppu.Palette {
	for _, p := range namedPalettes {
		if p.name == strings.ToLower(name) {
			return p.pal
		}
	}
	return ppu.DefaultPalette
}

// PaletteNames lists the palettes in cycling order, for the in-app picker.
func PaletteNames() []string {
	names := make([]string, len(namedPalettes))
	for i, p := range namedPalettes {
		names[i] = p.name
	}
	return names
}

// compatTitleExact maps exact, normalized ROM titles to a preferred
// palette name. Grounded on the teacher's internal/emu/compat_tables.go
// title table, re-keyed from numeric IDs into this package's named
// ramps.
var compatTitleExact = map[string]string{
	"TETRIS":              "blue",
	"TETRIS DX":           "blue",
	"SUPER MARIO LAND":    "red",
	"SUPER MARIO LAND 2":  "red",
	"DR. MARIO":           "pastel",
	"DONKEY KONG":         "sepia",
	"THE LEGEND OF ZELDA": "green",
	"ZELDA":               "green",
	"METROID II":          "red",
	"KIRBY'S DREAM LAND":  "pastel",
	"MEGA MAN":            "blue",
	"MEGAMAN":             "blue",
	"WARIO LAND":          "sepia",
	"POKEMON YELLOW":      "pastel",
	"POKEMON RED":         "pastel",
	"POKEMON BLUE":        "pastel",
	"POCKET MONSTERS":     "pastel",
}

type containsRule struct {
	substr string
	name   string
}

// compatTitleContains applies broader substring heuristics for families
// whose exact title varies by region/revision.
var compatTitleContains = []containsRule{
	{"TETRIS", "blue"},
	{"MARIO", "red"},
	{"ZELDA", "green"},
	{"KIRBY", "pastel"},
	{"DONKEY KONG", "sepia"},
	{"METROID", "red"},
	{"MEGA MAN", "blue"},
	{"MEGAMAN", "blue"},
	{"WARIO", "sepia"},
	{"POKEMON", "pastel"},
	{"POCKET MONSTERS", "pastel"},
}

// AutoPaletteFromHeader picks a palette name for a ROM using its title,
// falling back to a header-checksum-derived choice for Nintendo-published
// titles not in the table, and to "green" for everything else. Grounded
// on the teacher's internal/emu/compat_tables.go autoCompatPaletteFromHeader.
func AutoPaletteFromHeader(h *cart.Header) string {
	if h == nil {
		return "green"
	}
	title := strings.TrimSpace(strings.TrimRight(h.Title, "\x00"))
	t := strings.ToUpper(title)
	if name, ok := compatTitleExact[t]; ok {
		return name
	}
	for _, r := range compatTitleContains {
		if strings.Contains(t, r.substr) {
			return r.name
		}
	}
	nintendo := false
	if h.OldLicensee == 0x33 {
		nintendo = strings.ToUpper(h.NewLicensee) == "01"
	} else {
		nintendo = h.OldLicensee == 0x01
	}
	if nintendo {
		names := PaletteNames()
		return names[int(h.HeaderChecksum)%len(names)]
	}
	return "green"
}
