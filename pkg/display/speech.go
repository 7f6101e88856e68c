package display

// Speech is a line spoken by one or more actors.
type Speech struct {
	Text   string
	Actors []int
	Voice  int // voice sample, or -1
	Flags  int
}

type speech struct {
	text      string
	remaining int
}

// minSpeechFrames is the shortest time a line stays on screen.
const minSpeechFrames = 60

// Speak shows a speech line. It stays up for a time proportional to its
// length and replaces any line already shown.
func (d *Display) Speak(s Speech) {
	d.speech = &speech{text: s.Text, remaining: max(minSpeechFrames, 4*len(s.Text))}
	d.log.Debug("speech", "text", s.Text, "actors", s.Actors, "voice", s.Voice)
}

// Speaking reports whether a speech line is shown.
func (d *Display) Speaking() bool {
	return d.speech != nil
}

// SkipSpeech ends the current line on the next Step.
func (d *Display) SkipSpeech() {
	if d.speech != nil {
		d.speech.remaining = 0
	}
}

// Step advances the palette fade and the speech timer by one frame. It
// reports whether a speech line ended.
func (d *Display) Step() (speechDone bool) {
	d.pal.Step()
	if s := d.speech; s != nil {
		s.remaining--
		if s.remaining <= 0 {
			d.speech = nil
			return true
		}
	}
	return false
}
