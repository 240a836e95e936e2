package ppu

// render.go wires the previously-isolated BG/window fetcher (fetcher.go,
// scanline.go) into real per-line pixel production, adds sprite OAM scan
// and compositing, and exposes a 160x144 frame buffer.

const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Palette maps a 2-bit DMG shade index (0=lightest, 3=darkest) to an
// RGB565 color. Hosts can swap this in for a custom look; the zero value
// falls back to the classic DMG green tint via DefaultPalette.
type Palette [4]uint16

// DefaultPalette is a green-tinted DMG-style 4-shade ramp, RGB565-packed.
var DefaultPalette = Palette{
	rgb565(0x9B, 0xBC, 0x0F),
	rgb565(0x8B, 0xAC, 0x0F),
	rgb565(0x30, 0x62, 0x30),
	rgb565(0x0F, 0x38, 0x0F),
}

func rgb565(r, g, b byte) uint16 {
	return (uint16(r&0xF8) << 8) | (uint16(g&0xFC) << 3) | uint16(b>>3)
}

// Sprite is a screen-space-normalized OAM entry: X/Y are already offset
// by the hardware's 8/16 sprite origin, so X==0/Y==0 means the sprite's
// top-left pixel sits at the screen's top-left corner.
type Sprite struct {
	X, Y, Tile, Attr byte
	OAMIndex         int
}

// SetPalette installs a host-supplied 4-shade palette.
func (p *PPU) SetPalette(pal Palette) { p.palette = pal }

// FrameBuffer returns the most recently completed frame as packed RGB565,
// row-major, 160x144.
func (p *PPU) FrameBuffer() []uint16 { return p.frame[:] }

// FrameReady reports whether a VBlank (and thus a complete frame) has
// occurred since the last call, clearing the flag.
func (p *PPU) FrameReady() bool {
	r := p.frameReady
	p.frameReady = false
	return r
}

func (p *PPU) shadeFor(colorIdx, paletteReg byte) uint16 {
	shade := (paletteReg >> (colorIdx * 2)) & 0x03
	pal := p.palette
	if pal == (Palette{}) {
		pal = DefaultPalette
	}
	return pal[shade]
}

// renderScanline draws BG, window, and sprites for the current LY into the
// frame buffer. Called once per visible line, at the mode-3 to mode-0
// transition (this core's fixed 172 T-cycle mode-3 length is an accepted
// timing approximation, not pixel-accurate SCX/sprite-penalty timing).
func (p *PPU) renderScanline() {
	ly := p.ly
	if ly >= ScreenHeight {
		return
	}
	row := p.frame[int(ly)*ScreenWidth : int(ly)*ScreenWidth+ScreenWidth]

	var bgColorIdx [ScreenWidth]byte
	bgEnabled := (p.lcdc & 0x01) != 0
	if bgEnabled {
		mapBase := uint16(0x9800)
		if (p.lcdc & 0x08) != 0 {
			mapBase = 0x9C00
		}
		tileData8000 := (p.lcdc & 0x10) != 0
		bgColorIdx = RenderBGScanlineUsingFetcher(p, mapBase, tileData8000, p.scx, p.scy, ly)
	}

	windowEnabled := (p.lcdc&0x20) != 0 && bgEnabled && p.wy <= ly && p.wx <= 166
	if windowEnabled {
		wxStart := int(p.wx) - 7
		mapBase := uint16(0x9800)
		if (p.lcdc & 0x40) != 0 {
			mapBase = 0x9C00
		}
		tileData8000 := (p.lcdc & 0x10) != 0
		winRow := RenderWindowScanlineUsingFetcher(p, mapBase, tileData8000, wxStart, p.windowLine)
		start := wxStart
		if start < 0 {
			start = 0
		}
		for x := start; x < ScreenWidth; x++ {
			bgColorIdx[x] = winRow[x]
		}
		p.windowLine++
	}

	for x := 0; x < ScreenWidth; x++ {
		row[x] = p.shadeFor(bgColorIdx[x], p.bgp)
	}

	if (p.lcdc & 0x02) != 0 { // sprites enabled
		p.renderSprites(ly, row, bgColorIdx)
	}
}

// renderSprites performs the OAM scan (up to 10 sprites per line, lower-X
// then lower-OAM-index priority) and composites them over the already
// drawn BG/window row.
func (p *PPU) renderSprites(ly byte, row []uint16, bgColorIdx [ScreenWidth]byte) {
	tall := (p.lcdc & 0x04) != 0
	sprites := p.onScreenSpritesForLine(ly, tall)
	ci, useOBP1 := composeSpriteLineDetailed(p, sprites, ly, bgColorIdx, tall)
	for x := 0; x < ScreenWidth; x++ {
		if ci[x] == 0 {
			continue
		}
		palReg := p.obp0
		if useOBP1[x] {
			palReg = p.obp1
		}
		row[x] = p.shadeFor(ci[x], palReg)
	}
}

// onScreenSpritesForLine is the OAM scan: at most 10 sprites whose Y range
// covers ly, selected in OAM order (so ties resolve to the lowest index).
func (p *PPU) onScreenSpritesForLine(ly byte, tall bool) []Sprite {
	height := byte(8)
	if tall {
		height = 16
	}
	var out []Sprite
	for i := 0; i < 40 && len(out) < 10; i++ {
		base := i * 4
		sy := p.oam[base]
		sx := p.oam[base+1]
		screenY := int(sy) - 16
		if int(ly) < screenY || int(ly) >= screenY+int(height) {
			continue
		}
		out = append(out, Sprite{
			X: byte(int(sx) - 8), Y: byte(screenY),
			Tile: p.oam[base+2], Attr: p.oam[base+3], OAMIndex: i,
		})
	}
	return out
}

// composeSpriteLineDetailed resolves per-pixel sprite priority for a
// single scanline: lower X wins, ties broken by OAM index (lower drawn on
// top), and OBJ-to-BG priority (Attr bit 7) hides a sprite pixel behind a
// non-zero BG/window color index. Returns the winning sprite color index
// per pixel (0 = no sprite pixel, defer to BG) and which OBP register it
// selects.
func composeSpriteLineDetailed(mem VRAMReader, sprites []Sprite, ly byte, bgci [ScreenWidth]byte, tall bool) (ci [ScreenWidth]byte, useOBP1 [ScreenWidth]bool) {
	height := byte(8)
	if tall {
		height = 16
	}
	active := make([]Sprite, len(sprites))
	copy(active, sprites)
	for i := 1; i < len(active); i++ {
		for j := i; j > 0; j-- {
			a, b := active[j], active[j-1]
			if a.X < b.X || (a.X == b.X && a.OAMIndex < b.OAMIndex) {
				active[j], active[j-1] = b, a
			} else {
				break
			}
		}
	}

	for x := 0; x < ScreenWidth; x++ {
		for _, s := range active {
			screenX := int(s.X)
			if x < screenX || x >= screenX+8 {
				continue
			}
			yFlip := s.Attr&0x40 != 0
			xFlip := s.Attr&0x20 != 0
			line := int(ly) - int(s.Y)
			if yFlip {
				line = int(height) - 1 - line
			}
			tile := s.Tile
			if tall {
				tile &^= 0x01
				if line >= 8 {
					tile |= 0x01
					line -= 8
				}
			}
			addr := uint16(0x8000) + uint16(tile)*16 + uint16(line)*2
			lo := mem.Read(addr)
			hi := mem.Read(addr + 1)
			col := x - screenX
			if xFlip {
				col = 7 - col
			}
			bit := 7 - byte(col)
			idx := ((hi>>bit)&1)<<1 | ((lo >> bit) & 1)
			if idx == 0 {
				continue // transparent: fall through to the next sprite
			}
			if s.Attr&0x80 != 0 && bgci[x] != 0 {
				continue // OBJ-to-BG priority: BG/window wins
			}
			ci[x] = idx
			useOBP1[x] = s.Attr&0x10 != 0
			break
		}
	}
	return
}

// ComposeSpriteLine resolves sprite priority/transparency for one scanline
// and returns the winning sprite color index per pixel (0 = no sprite).
func ComposeSpriteLine(mem VRAMReader, sprites []Sprite, ly byte, bgci [ScreenWidth]byte, tall bool) [ScreenWidth]byte {
	ci, _ := composeSpriteLineDetailed(mem, sprites, ly, bgci, tall)
	return ci
}

// Read implements VRAMReader for the BG/window fetcher in fetcher.go and
// for sprite tile lookups in composeSpriteLineDetailed.
func (p *PPU) Read(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return p.vram[addr-0x8000]
	}
	return 0xFF
}
