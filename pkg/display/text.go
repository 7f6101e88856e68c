package display

import (
	"image"
	"image/draw"
	"maps"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Text is an entry of the text list.
type Text struct {
	Text     string
	X, Y     int
	Color    int // palette entry
	Centered bool
	Visible  bool
	Converse bool // part of the conversation reply list
}

var face font.Face = basicfont.Face7x13

// AddText adds a hidden text entry and returns its id.
func (d *Display) AddText(t Text) int {
	d.nextText++
	t.Visible = false
	d.texts[d.nextText] = &t
	return d.nextText
}

// ShowText makes a text entry visible.
func (d *Display) ShowText(id int) bool {
	t := d.texts[id]
	if t == nil {
		return false
	}
	t.Visible = true
	return true
}

// RemoveText drops a text entry.
func (d *Display) RemoveText(id int) bool {
	if _, ok := d.texts[id]; !ok {
		return false
	}
	delete(d.texts, id)
	return true
}

// Text returns a copy of a text entry.
func (d *Display) Text(id int) (Text, bool) {
	t := d.texts[id]
	if t == nil {
		return Text{}, false
	}
	return *t, true
}

// Texts returns the visible text entries in id order.
func (d *Display) Texts() []Text {
	var out []Text
	for _, id := range slices.Sorted(maps.Keys(d.texts)) {
		if t := d.texts[id]; t.Visible {
			out = append(out, *t)
		}
	}
	return out
}

// TextHeight returns the line height of the display font.
func TextHeight() int {
	return face.Metrics().Height.Ceil()
}

// Render composes the current frame and returns it. The returned image is
// reused by the next call.
func (d *Display) Render() *image.RGBA {
	draw.Draw(d.frame, d.frame.Rect, d.back, image.Point{}, draw.Src)
	for _, t := range d.Texts() {
		d.drawString(t.Text, t.X, t.Y, t.Color, t.Centered)
	}
	if s := d.speech; s != nil {
		box := d.speechBox
		if box.Empty() {
			box = image.Rect(0, 0, d.width, d.height/3)
		}
		d.drawString(s.text, box.Min.X+box.Dx()/2, box.Min.Y+TextHeight(), 15, true)
	}
	status := d.status
	if d.input {
		status = "> " + string(d.inputText)
	}
	if status != "" {
		d.drawString(status, 2, d.height-statusHeight+TextHeight()-3, 15, false)
	}
	d.applyPalette()
	return d.frame
}

func (d *Display) drawString(s string, x, y, index int, centered bool) {
	if centered {
		x -= font.MeasureString(face, s).Ceil() / 2
	}
	dr := &font.Drawer{
		Dst:  d.frame,
		Src:  image.NewUniform(d.pal.Base(index)),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(s)
}

// applyPalette dims the frame by the palette brightness of entry 0, which
// every full-screen fade drives.
func (d *Display) applyPalette() {
	level := d.pal.Brightness(0)
	if level >= FullBrightness {
		return
	}
	pix := d.frame.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i] = uint8(int(pix[i]) * level / FullBrightness)
		pix[i+1] = uint8(int(pix[i+1]) * level / FullBrightness)
		pix[i+2] = uint8(int(pix[i+2]) * level / FullBrightness)
	}
}
