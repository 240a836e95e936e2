package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mgorin/gmboy-go/internal/cart"
	"github.com/mgorin/gmboy-go/internal/host"
	"github.com/mgorin/gmboy-go/internal/machine"
)

type cliFlags struct {
	ROMPath string
	Scale   int
	Title   string
	Palette string
	SaveRAM bool

	Headless bool
	Frames   int
	PNGOut   string
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.StringVar(&f.Palette, "palette", "", "DMG shade palette (green, sepia, blue, red, pastel); empty auto-picks from the ROM title")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM/RTC to ROM.sav/.rtc on exit and load on start")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func mustRead(path string) []byte {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func savPath(romPath string) string    { return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".sav" }
func rtcPathFor(romPath string) string { return strings.TrimSuffix(romPath, filepath.Ext(romPath)) + ".rtc" }

func loadBattery(m *machine.Machine, romPath string) {
	ram, _ := os.ReadFile(savPath(romPath))
	rtc, _ := os.ReadFile(rtcPathFor(romPath))
	if len(ram) == 0 && len(rtc) == 0 {
		return
	}
	if err := m.AttachBattery(ram, rtc); err != nil {
		log.Printf("battery load: %v", err)
	}
}

func dumpBattery(m *machine.Machine, romPath string) {
	if data := m.DumpBattery(); len(data) > 0 {
		if err := os.WriteFile(savPath(romPath), data, 0644); err != nil {
			log.Printf("write %s: %v", savPath(romPath), err)
		}
	}
	if data := m.DumpRTC(); len(data) > 0 {
		if err := os.WriteFile(rtcPathFor(romPath), data, 0644); err != nil {
			log.Printf("write %s: %v", rtcPathFor(romPath), err)
		}
	}
}

func runHeadless(m *machine.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}
	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := m.StepFrame(); err != nil {
			return err
		}
	}
	dur := time.Since(start)

	rgba := host.RGB565ToRGBA(m.FrameBuffer())
	crc := crc32.ChecksumIEEE(rgba)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x", frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(rgba, 160, 144, pngPath); err != nil {
			return err
		}
		log.Printf("wrote %s", pngPath)
	}
	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			log.Fatalf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func saveFramePNG(pix []byte, w, h int, path string) error {
	img := &image.RGBA{Pix: make([]byte, len(pix)), Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
	copy(img.Pix, pix)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("-rom is required")
	}
	rom := mustRead(f.ROMPath)

	h, err := cart.ParseHeader(rom)
	if err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	m, err := machine.LoadROM(rom)
	if err != nil {
		log.Fatalf("load ROM: %v", err)
	}
	if f.SaveRAM {
		loadBattery(m, f.ROMPath)
	}

	if f.Headless {
		if err := runHeadless(m, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		if f.SaveRAM {
			dumpBattery(m, f.ROMPath)
		}
		return
	}

	palette := f.Palette
	if palette == "" {
		palette = host.AutoPaletteFromHeader(h)
	}
	cfg := host.Config{Title: f.Title, Scale: f.Scale, Palette: palette}
	app := host.NewApp(cfg, m, f.ROMPath)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	if f.SaveRAM {
		dumpBattery(m, f.ROMPath)
	}
}
