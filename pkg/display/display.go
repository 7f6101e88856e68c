// Package display is the default screen collaborator of the engine. It keeps
// the interface panel state, the status line, the text list, speech and the
// palette, and renders a frame into an image.RGBA.
package display

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
)

// Panel is the interface panel mode.
type Panel uint8

const (
	PanelNull Panel = iota
	PanelMain
	PanelOption
	PanelConverse
	PanelProtect
	PanelPlacard
	PanelMap
	PanelCutaway
	PanelVideo
)

var panelNames = [...]string{
	PanelNull:     "null",
	PanelMain:     "main",
	PanelOption:   "option",
	PanelConverse: "converse",
	PanelProtect:  "protect",
	PanelPlacard:  "placard",
	PanelMap:      "map",
	PanelCutaway:  "cutaway",
	PanelVideo:    "video",
}

func (p Panel) String() string {
	if int(p) < len(panelNames) {
		return panelNames[p]
	}
	return fmt.Sprintf("Panel(%d)", p)
}

// Render flags toggled by graphics events.
const (
	FlagPlacard uint32 = 1 << iota
	FlagPsychicProfile
)

// Portrait sides.
const (
	Left = iota
	Right
)

// Default screen geometry.
const (
	DefaultWidth  = 320
	DefaultHeight = 200
	statusHeight  = 12
)

// Display is the in-memory screen. It is not safe for concurrent use.
type Display struct {
	log    *slog.Logger
	width  int
	height int
	back   *image.RGBA
	frame  *image.RGBA

	pal       *Palette
	panel     Panel
	saved     Panel
	active    bool
	cursor    bool
	flags     uint32
	status    string
	portraits [2]int

	texts    map[int]*Text
	nextText int

	input     bool
	inputText []rune

	speech    *speech
	speechBox image.Rectangle
}

// Option configures a Display.
type Option func(*Display)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Display) {
		if l != nil {
			d.log = l
		}
	}
}

// WithSize sets the screen size in pixels.
func WithSize(width, height int) Option {
	return func(d *Display) {
		if width > 0 && height > 0 {
			d.width, d.height = width, height
		}
	}
}

// New creates a display with the default palette.
func New(opts ...Option) *Display {
	d := &Display{
		log:    slog.Default(),
		width:  DefaultWidth,
		height: DefaultHeight,
		pal:    NewPalette(),
		cursor: true,
		texts:  make(map[int]*Text),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.back = image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	d.frame = image.NewRGBA(d.back.Rect)
	return d
}

// Width returns the screen width.
func (d *Display) Width() int { return d.width }

// Height returns the screen height.
func (d *Display) Height() int { return d.height }

// Palette returns the palette.
func (d *Display) Palette() *Palette { return d.pal }

// Panel returns the current panel mode.
func (d *Display) Panel() Panel { return d.panel }

// SetPanel switches the panel mode.
func (d *Display) SetPanel(p Panel) {
	if p != d.panel {
		d.log.Debug("panel mode", "from", d.panel, "to", p)
	}
	d.panel = p
}

// RememberPanel saves the current panel mode for RestorePanel.
func (d *Display) RememberPanel() { d.saved = d.panel }

// RestorePanel returns to the panel mode saved by RememberPanel.
func (d *Display) RestorePanel() { d.SetPanel(d.saved) }

// Activate enables user input on the panel.
func (d *Display) Activate() { d.active = true }

// Deactivate disables user input on the panel.
func (d *Display) Deactivate() { d.active = false }

// Active reports whether the panel accepts user input.
func (d *Display) Active() bool { return d.active }

// ConverseClear drops the conversation reply list.
func (d *Display) ConverseClear() {
	for id, t := range d.texts {
		if t.Converse {
			delete(d.texts, id)
		}
	}
}

// ShowCursor shows or hides the mouse cursor.
func (d *Display) ShowCursor(show bool) { d.cursor = show }

// CursorVisible reports whether the cursor is shown.
func (d *Display) CursorVisible() bool { return d.cursor }

// SetFlag sets render flags.
func (d *Display) SetFlag(f uint32) { d.flags |= f }

// ClearFlag clears render flags.
func (d *Display) ClearFlag(f uint32) { d.flags &^= f }

// Flags returns the render flags.
func (d *Display) Flags() uint32 { return d.flags }

// Status returns the status line text.
func (d *Display) Status() string { return d.status }

// SetStatus sets the status line text.
func (d *Display) SetStatus(s string) { d.status = s }

// SetPortrait sets the portrait on side (Left or Right).
func (d *Display) SetPortrait(side, portrait int) {
	if side == Left || side == Right {
		d.portraits[side] = portrait
	}
}

// Portrait returns the portrait on side.
func (d *Display) Portrait(side int) int {
	if side == Left || side == Right {
		return d.portraits[side]
	}
	return 0
}

// FillRect fills r on the back buffer with palette entry index. r is
// clipped to the screen.
func (d *Display) FillRect(r image.Rectangle, index int) {
	draw.Draw(d.back, r.Intersect(d.back.Rect), image.NewUniform(d.pal.Base(index)), image.Point{}, draw.Src)
}

// SetSpeechBox sets the area scripted speech is laid out in.
func (d *Display) SetSpeechBox(r image.Rectangle) { d.speechBox = r }

// SpeechBox returns the scripted speech area.
func (d *Display) SpeechBox() image.Rectangle { return d.speechBox }

// BeginStatusInput starts reading a line typed on the status line.
func (d *Display) BeginStatusInput() {
	d.input = true
	d.inputText = d.inputText[:0]
}

// EndStatusInput stops reading input.
func (d *Display) EndStatusInput() { d.input = false }

// InputActive reports whether status line input is in progress.
func (d *Display) InputActive() bool { return d.input }

// InputRune appends r to the typed line. A backspace removes the last rune.
func (d *Display) InputRune(r rune) {
	if !d.input {
		return
	}
	if r == '\b' {
		if n := len(d.inputText); n > 0 {
			d.inputText = d.inputText[:n-1]
		}
		return
	}
	d.inputText = append(d.inputText, r)
}

// InputText returns the typed line.
func (d *Display) InputText() string { return string(d.inputText) }
