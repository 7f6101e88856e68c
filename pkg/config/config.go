// Package config handles the sagavm.toml game configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/script"
)

// FileName is the configuration file looked up in a game directory.
const FileName = "sagavm.toml"

// Config is a game configuration. Paths are relative to Dir.
type Config struct {
	Title    string `toml:"title"`
	TickRate int    `toml:"tick-rate"`
	Seed     uint64 `toml:"seed"`

	Limits  Limits    `toml:"limits"`
	Script  Script    `toml:"script"`
	Music   Music     `toml:"music"`
	Sound   Sound     `toml:"sound"`
	Display Display   `toml:"display"`
	Run     Run       `toml:"run"`
	Actors  []Actor   `toml:"actors"`
	Objects []Object  `toml:"objects"`
	Scenes  []Scene   `toml:"scenes"`
	Anims   []Anim    `toml:"animations"`

	// Dir is the directory containing the configuration file (set at load
	// time).
	Dir string `toml:"-"`
}

// Limits bounds the script threads. Zero keeps the engine default.
type Limits struct {
	StackDepth   int `toml:"stack-depth"`
	FrameDepth   int `toml:"frame-depth"`
	StepsPerTick int `toml:"steps-per-tick"`
}

// Script configures the script modules and their string tables.
type Script struct {
	Modules  []string `toml:"modules"`
	Strings  []string `toml:"strings"` // one table per module, "" for none
	Encoding string   `toml:"encoding"`
	Module   int      `toml:"entry-module"`
	Entry    int      `toml:"entry"`
}

// Music configures MIDI music.
type Music struct {
	SoundFont string   `toml:"soundfont"`
	Songs     []string `toml:"songs"`
}

// Sound configures sound effects and voices.
type Sound struct {
	Effects []Effect `toml:"effects"`
	Voices  string   `toml:"voices"` // fmt pattern, e.g. "voices/%d.wav"
}

// Effect is an entry of the sound effect table.
type Effect struct {
	File   string `toml:"file"`
	Volume int    `toml:"volume"`
}

// Display configures the screen.
type Display struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Scale  int `toml:"scale"`
}

// Run configures the session.
type Run struct {
	Headless     bool `toml:"headless"`
	ExitWhenIdle bool `toml:"exit-when-idle"`
	MaxTicks     int  `toml:"max-ticks"`
}

// Actor describes an actor present at start.
type Actor struct {
	Name        string `toml:"name"`
	Scene       int    `toml:"scene"`
	X           int    `toml:"x"`
	Y           int    `toml:"y"`
	Protagonist bool   `toml:"protagonist"`
	ScriptEntry int    `toml:"script-entry"`
}

// Object describes an object present at start.
type Object struct {
	Name        string `toml:"name"`
	Scene       int    `toml:"scene"`
	X           int    `toml:"x"`
	Y           int    `toml:"y"`
	Sprite      int    `toml:"sprite"`
	ScriptEntry int    `toml:"script-entry"`
}

// Scene describes a scene scripts can enter.
type Scene struct {
	Number    int      `toml:"number"`
	Module    int      `toml:"module"`
	Chapter   int      `toml:"chapter"`
	Height    int      `toml:"height"`
	Entrances [][2]int `toml:"entrances"`
}

// Anim describes a background animation.
type Anim struct {
	ID     int `toml:"id"`
	Frames int `toml:"frames"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Title:    string(opcode.ITE),
		TickRate: 60,
		Script:   Script{Encoding: string(script.UTF8)},
		Display:  Display{Width: 320, Height: 200, Scale: 2},
		Run:      Run{ExitWhenIdle: true},
		Dir:      ".",
	}
}

// Load parses a configuration file. path may name the file or the
// directory containing sagavm.toml. Unset fields keep their defaults.
func Load(path string) (*Config, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, FileName)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a configuration document over the defaults.
func Parse(doc string) (*Config, error) {
	c := Default()
	md, err := toml.Decode(doc, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}
	return c, nil
}

// TitleID returns the parsed title.
func (c *Config) TitleID() (opcode.Title, error) {
	return opcode.ParseTitle(c.Title)
}

// Validate reports every inconsistency in c.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.TitleID(); err != nil {
		errs = append(errs, err)
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick-rate must be positive, got %d", c.TickRate))
	}
	if c.Limits.StackDepth < 0 || c.Limits.FrameDepth < 0 || c.Limits.StepsPerTick < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if len(c.Script.Modules) == 0 {
		errs = append(errs, errors.New("script.modules is empty"))
	} else if c.Script.Module < 0 || c.Script.Module >= len(c.Script.Modules) {
		errs = append(errs, fmt.Errorf("script.entry-module %d out of range [0, %d)", c.Script.Module, len(c.Script.Modules)))
	}
	if c.Script.Entry < 0 {
		errs = append(errs, fmt.Errorf("script.entry must not be negative, got %d", c.Script.Entry))
	}
	if len(c.Script.Strings) > len(c.Script.Modules) {
		errs = append(errs, fmt.Errorf("script.strings has %d tables for %d modules", len(c.Script.Strings), len(c.Script.Modules)))
	}
	if _, err := script.ParseEncoding(c.Script.Encoding); err != nil {
		errs = append(errs, err)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size %dx%d is invalid", c.Display.Width, c.Display.Height))
	}
	if c.Run.MaxTicks < 0 {
		errs = append(errs, fmt.Errorf("run.max-ticks must not be negative, got %d", c.Run.MaxTicks))
	}
	for i, e := range c.Sound.Effects {
		if e.Volume < 0 || e.Volume > 255 {
			errs = append(errs, fmt.Errorf("sound.effects[%d].volume %d out of range [0, 255]", i, e.Volume))
		}
	}
	protagonists := 0
	for _, a := range c.Actors {
		if a.Protagonist {
			protagonists++
		}
	}
	if protagonists > 1 {
		errs = append(errs, fmt.Errorf("%d actors are marked protagonist", protagonists))
	}
	seen := make(map[int]bool, len(c.Scenes))
	for _, s := range c.Scenes {
		if seen[s.Number] {
			errs = append(errs, fmt.Errorf("scene %d defined twice", s.Number))
		}
		seen[s.Number] = true
	}
	return errors.Join(errs...)
}

// Path resolves a configured file name against Dir.
func (c *Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Dir, name)
}
