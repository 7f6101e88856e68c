package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/grayfoxier/scummvm/pkg/cli"
	"github.com/grayfoxier/scummvm/pkg/config"
	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/script"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"github.com/grayfoxier/scummvm/pkg/window"
	"github.com/grayfoxier/scummvm/pkg/world"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// writeGame writes a game directory whose single module exits at once.
func writeGame(t *testing.T, toml string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "scripts"), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(filepath.Join(dir, "scripts", "MAIN.CBOR"))
	if err != nil {
		t.Fatal(err)
	}
	m := &vm.Module{Name: "main", Entries: []uint16{0}, Code: vm.NewBuilder().Emit(vm.InsExit).Bytes()}
	if err := vm.WriteModule(f, m); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "strings.bin"), []byte("hello\x00world\x00"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

const gameTOML = `
title = "ite"
seed = 1

[script]
modules = ["scripts/main.cbor"]
strings = ["strings.bin"]

[[actors]]
name = "Rif"
protagonist = true
x = 400

[[scenes]]
number = 2
entrances = [[40, 80]]

[[animations]]
id = 3
frames = 4
`

func testApp(t *testing.T, dir string, headless bool) *Application {
	t.Helper()
	app := New(nil)
	app.log = quiet
	app.opts = &cli.Options{GamePath: dir, Headless: headless, LogLevel: "info"}
	if err := app.loadConfig(); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	return app
}

func TestNewSession_RunsHeadless(t *testing.T) {
	app := testApp(t, writeGame(t, gameTOML), true)
	s, err := app.newSession()
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if s.music != nil {
		t.Error("headless session should not create music")
	}
	if err := window.RunHeadless(context.Background(), s, quiet); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}
	if !s.engine.Terminated() || s.engine.Ticks() < 1 {
		t.Errorf("Terminated() = %v, Ticks() = %d", s.engine.Terminated(), s.engine.Ticks())
	}
}

func TestRun_Headless(t *testing.T) {
	dir := writeGame(t, gameTOML)
	t.Setenv("LOG_LEVEL", "")
	if err := New(nil).Run([]string{"--headless", "-l", "error", dir}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(dir string) []string
	}{
		{"bad flag", func(string) []string { return []string{"--frobnicate"} }},
		{"missing config", func(string) []string { return []string{"--headless", "-l", "error", "/nonexistent/game"} }},
		{"bad title override", func(dir string) []string { return []string{"--headless", "-l", "error", "--title", "dig", dir} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New(nil).Run(tt.args(writeGame(t, gameTOML))); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewSession_BadEntry(t *testing.T) {
	app := testApp(t, writeGame(t, gameTOML), true)
	app.cfg.Script.Entry = 9
	if _, err := app.newSession(); err == nil {
		t.Fatal("expected error for missing entry point")
	}
}

func TestLoadStrings(t *testing.T) {
	app := testApp(t, writeGame(t, gameTOML), true)
	cfg := app.cfg
	cfg.Script.Modules = append(cfg.Script.Modules, "scripts/main.cbor")
	bank, err := loadStrings(script.NewLoader(cfg.Dir), cfg)
	if err != nil {
		t.Fatalf("loadStrings: %v", err)
	}
	if got, ok := bank.String(0, 1); !ok || got != "world" {
		t.Errorf("String(0, 1) = %q, %v", got, ok)
	}
	if _, ok := bank.String(1, 0); ok {
		t.Error("module without a table should have no strings")
	}
}

func TestNewWorld(t *testing.T) {
	cfg, err := config.Parse(gameTOML)
	if err != nil {
		t.Fatal(err)
	}
	w := newWorld(cfg)

	p := w.Protagonist()
	if p == nil || p.Name != "Rif" {
		t.Fatalf("Protagonist() = %+v", p)
	}
	if diff := cmp.Diff(world.Location{X: 400}, p.Location); diff != "" {
		t.Errorf("location mismatch (-want +got):\n%s", diff)
	}
	if err := w.ChangeScene(2, 0); err != nil {
		t.Errorf("ChangeScene(2, 0): %v", err)
	}
	if !w.Animations().Has(3) {
		t.Error("animation 3 not registered")
	}
}

func TestSession_SkipSpeeches(t *testing.T) {
	app := testApp(t, writeGame(t, gameTOML), true)
	app.cfg.Run.ExitWhenIdle = false
	s, err := app.newSession()
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	s.display.Speak(display.Speech{Text: "Greetings, traveler", Voice: -1})
	s.SkipSpeeches()
	if err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.display.Speaking() {
		t.Error("speech still shown after skip")
	}
}

func TestSession_Size(t *testing.T) {
	app := testApp(t, writeGame(t, gameTOML+"\n[display]\nwidth = 640\nheight = 480\n"), true)
	s, err := app.newSession()
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	if w, h := s.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}
	if f := s.Frame(); f.Rect.Dx() != 640 || f.Rect.Dy() != 480 {
		t.Errorf("Frame() bounds = %v", f.Rect)
	}
}
