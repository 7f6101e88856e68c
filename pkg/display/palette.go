package display

import "image/color"

// NumColors is the number of palette entries.
const NumColors = 256

// FullBrightness is the brightness of an entry shown at its base color.
const FullBrightness = 256

// Palette is a 256-entry palette with per-entry brightness and a running
// fade.
type Palette struct {
	base  [NumColors]color.RGBA
	level [NumColors]int
	fade  *fade
}

type fade struct {
	from, to     int
	first, count int
	duration     int
	elapsed      int
}

// NewPalette returns the default palette at full brightness: the sixteen
// EGA colors followed by a gray ramp.
func NewPalette() *Palette {
	p := &Palette{}
	ega := [16]color.RGBA{
		{0x00, 0x00, 0x00, 0xff}, {0x00, 0x00, 0xaa, 0xff}, {0x00, 0xaa, 0x00, 0xff}, {0x00, 0xaa, 0xaa, 0xff},
		{0xaa, 0x00, 0x00, 0xff}, {0xaa, 0x00, 0xaa, 0xff}, {0xaa, 0x55, 0x00, 0xff}, {0xaa, 0xaa, 0xaa, 0xff},
		{0x55, 0x55, 0x55, 0xff}, {0x55, 0x55, 0xff, 0xff}, {0x55, 0xff, 0x55, 0xff}, {0x55, 0xff, 0xff, 0xff},
		{0xff, 0x55, 0x55, 0xff}, {0xff, 0x55, 0xff, 0xff}, {0xff, 0xff, 0x55, 0xff}, {0xff, 0xff, 0xff, 0xff},
	}
	copy(p.base[:], ega[:])
	for i := len(ega); i < NumColors; i++ {
		v := uint8(i)
		p.base[i] = color.RGBA{v, v, v, 0xff}
	}
	for i := range p.level {
		p.level[i] = FullBrightness
	}
	return p
}

// Base returns the undimmed color of entry i.
func (p *Palette) Base(i int) color.RGBA {
	return p.base[uint8(i)]
}

// SetColor sets the base color of entry i.
func (p *Palette) SetColor(i int, c color.RGBA) {
	p.base[uint8(i)] = c
}

// Color returns entry i at its current brightness.
func (p *Palette) Color(i int) color.RGBA {
	return dim(p.base[uint8(i)], p.level[uint8(i)])
}

// Brightness returns the current brightness of entry i.
func (p *Palette) Brightness(i int) int {
	return p.level[uint8(i)]
}

// ToBlack fades every entry from its current brightness to black over
// duration frames.
func (p *Palette) ToBlack(duration int) {
	p.Fade(p.level[0], 0, 0, NumColors, duration)
}

// FromBlack fades every entry from black to full brightness over duration
// frames.
func (p *Palette) FromBlack(duration int) {
	p.Fade(0, FullBrightness, 0, NumColors, duration)
}

// Fade fades count entries starting at first from one brightness to
// another over duration frames. A running fade is replaced. A duration of
// zero or less applies the end brightness at once.
func (p *Palette) Fade(from, to, first, count, duration int) {
	first = max(first, 0)
	count = min(count, NumColors-first)
	if count <= 0 {
		return
	}
	p.fade = &fade{from: from, to: to, first: first, count: count, duration: duration}
	if duration <= 0 {
		p.apply(to)
		p.fade = nil
		return
	}
	p.apply(from)
}

// Fading reports whether a fade is in progress.
func (p *Palette) Fading() bool {
	return p.fade != nil
}

// Step advances the running fade by one frame.
func (p *Palette) Step() {
	f := p.fade
	if f == nil {
		return
	}
	f.elapsed++
	if f.elapsed >= f.duration {
		p.apply(f.to)
		p.fade = nil
		return
	}
	p.apply(f.from + (f.to-f.from)*f.elapsed/f.duration)
}

func (p *Palette) apply(level int) {
	level = min(max(level, 0), FullBrightness)
	for i := p.fade.first; i < p.fade.first+p.fade.count; i++ {
		p.level[i] = level
	}
}

func dim(c color.RGBA, level int) color.RGBA {
	if level >= FullBrightness {
		return c
	}
	return color.RGBA{
		R: uint8(int(c.R) * level / FullBrightness),
		G: uint8(int(c.G) * level / FullBrightness),
		B: uint8(int(c.B) * level / FullBrightness),
		A: c.A,
	}
}
