package host

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/mgorin/gmboy-go/internal/bus"
	"github.com/mgorin/gmboy-go/internal/machine"
)

// gbFPS is the DMG's native refresh rate: 4194304 Hz / 70224 T-cycles/frame.
const gbFPS = 4194304.0 / 70224.0

// App is an ebiten.Game driving one Machine: input, pacing, audio, and
// save-state slots. Adapted from the teacher's internal/ui.App, trimmed to
// this core's Machine API (no CGB compat modes, no boot-ROM path, no ROM
// browser — a host embedding this picks the ROM before constructing App).
type App struct {
	cfg     Config
	m       *machine.Machine
	romPath string

	tex *ebiten.Image

	paused bool
	fast   bool
	turbo  int

	lastTime time.Time
	frameAcc float64

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioMuted  bool

	currentSlot int

	toastMsg   string
	toastUntil time.Time
}

// NewApp constructs a host App for an already-loaded Machine. romPath (if
// non-empty) anchors where save-state slot files are written. An empty
// cfg.Palette falls back to "green"; NewApp does not pick a palette from
// the ROM itself.
func NewApp(cfg Config, m *machine.Machine, romPath string) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)

	m.Bus().PPU().SetPalette(PaletteByName(cfg.Palette))

	a := &App{cfg: cfg, m: m, romPath: romPath, turbo: 1}
	a.lastTime = time.Now()
	a.audioCtx = audio.NewContext(sampleRate)
	return a
}

// Run hands control to ebiten's game loop.
func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) Update() error {
	if a.audioPlayer == nil {
		a.audioMuted = true
		s := newStream(a.m, !a.cfg.AudioStereo, &a.audioMuted)
		if p, err := a.audioCtx.NewPlayer(s); err == nil {
			a.audioPlayer = p
			a.audioPlayer.SetBufferSize(time.Duration(a.cfg.AudioBufferMs) * time.Millisecond)
			a.audioPlayer.Play()
		}
	}

	var btn byte
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		btn |= bus.JoypRight
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		btn |= bus.JoypLeft
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		btn |= bus.JoypUp
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		btn |= bus.JoypDown
	}
	if ebiten.IsKeyPressed(ebiten.KeyZ) {
		btn |= bus.JoypA
	}
	if ebiten.IsKeyPressed(ebiten.KeyX) {
		btn |= bus.JoypB
	}
	if ebiten.IsKeyPressed(ebiten.KeyEnter) {
		btn |= bus.JoypStart
	}
	if ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		btn |= bus.JoypSelectBtn
	}
	a.m.SetButtons(btn)

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)
	if inpututil.IsKeyJustPressed(ebiten.KeyF6) && a.turbo > 1 {
		a.turbo--
		a.toast(fmt.Sprintf("Turbo: x%d", a.turbo))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF7) && a.turbo < 10 {
		a.turbo++
		a.toast(fmt.Sprintf("Turbo: x%d", a.turbo))
	}

	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if inpututil.IsKeyJustPressed(k) {
			a.currentSlot = i
			a.toast(fmt.Sprintf("Slot set to %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if err := a.saveSlot(a.currentSlot); err != nil {
			a.toast("Save failed: " + err.Error())
		} else {
			a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		if err := a.loadSlot(a.currentSlot); err != nil {
			a.toast("Load failed: " + err.Error())
		} else {
			a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.m.PushRewindPoint()
		a.toast("Rewind point saved")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		if a.m.Rewind() {
			a.toast("Rewound")
		} else {
			a.toast("Nothing to rewind")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeftBracket) {
		a.cyclePalette(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRightBracket) {
		a.cyclePalette(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	muted := a.paused
	if muted != a.audioMuted {
		a.audioMuted = muted
	}

	if !a.paused {
		now := time.Now()
		dt := now.Sub(a.lastTime).Seconds()
		if dt < 0 {
			dt = 0
		}
		a.lastTime = now
		speed := 1.0
		if a.fast {
			speed = float64(max(2, a.turbo))
		}
		a.frameAcc += dt * gbFPS * speed
		steps := 0
		for a.frameAcc >= 1.0 && steps < 10 {
			a.m.PushRewindPoint()
			if err := a.m.StepFrame(); err != nil {
				a.paused = true
				a.toast("Stopped: " + err.Error())
				break
			}
			a.frameAcc -= 1.0
			steps++
		}
	} else {
		a.lastTime = time.Now()
	}
	return nil
}

func (a *App) cyclePalette(dir int) {
	names := PaletteNames()
	cur := 0
	for i, n := range names {
		if n == a.cfg.Palette {
			cur = i
			break
		}
	}
	cur = (cur + dir + len(names)) % len(names)
	a.cfg.Palette = names[cur]
	a.m.Bus().PPU().SetPalette(PaletteByName(a.cfg.Palette))
	a.toast("Palette: " + a.cfg.Palette)
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(RGB565ToRGBA(a.m.FrameBuffer()))
	screen.DrawImage(a.tex, nil)

	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.toastMsg, 4, 4)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

// RGB565ToRGBA unpacks a 160x144 RGB565 frame buffer into 8-bit RGBA bytes,
// for either ebiten.Image.WritePixels or PNG encoding.
func RGB565ToRGBA(fb []uint16) []byte {
	out := make([]byte, len(fb)*4)
	for i, px := range fb {
		r := byte((px>>11)&0x1F) << 3
		g := byte((px>>5)&0x3F) << 2
		b := byte(px&0x1F) << 3
		out[i*4+0] = r
		out[i*4+1] = g
		out[i*4+2] = b
		out[i*4+3] = 0xFF
	}
	return out
}

func (a *App) statePath(slot int) string {
	base := a.romPath
	if base == "" {
		base = "unknown.gb"
	}
	dir := filepath.Dir(base)
	if a.cfg.SaveDir != "" {
		dir = a.cfg.SaveDir
	}
	name := filepath.Base(base)
	return filepath.Join(dir, fmt.Sprintf("%s.slot%d.savestate", name, slot))
}

func (a *App) saveSlot(slot int) error {
	return os.WriteFile(a.statePath(slot), a.m.SaveState(), 0644)
}

func (a *App) loadSlot(slot int) error {
	data, err := os.ReadFile(a.statePath(slot))
	if err != nil {
		return err
	}
	return a.m.LoadState(data)
}
