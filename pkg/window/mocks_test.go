package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// fakeSession records the calls made by Game.
type fakeSession struct {
	steps     int
	stepErr   error
	errAt     int // Step returns stepErr from this step on (1-based); 0 never
	clicks    int
	skips     int
	input     bool
	typed     []rune
	submitted int
	aborted   int
	replies   int
	chosen    []int
}

func (s *fakeSession) Step() error {
	s.steps++
	if s.errAt > 0 && s.steps >= s.errAt {
		return s.stepErr
	}
	return nil
}

func (s *fakeSession) Frame() *image.RGBA { return image.NewRGBA(image.Rect(0, 0, 320, 200)) }

func (s *fakeSession) Size() (int, int) { return 320, 200 }

func (s *fakeSession) Click()            { s.clicks++ }
func (s *fakeSession) SkipSpeeches()     { s.skips++ }
func (s *fakeSession) InputActive() bool { return s.input }
func (s *fakeSession) InputRune(r rune)  { s.typed = append(s.typed, r) }
func (s *fakeSession) SubmitInput()      { s.submitted++; s.input = false }
func (s *fakeSession) AbortInput()       { s.aborted++; s.input = false }
func (s *fakeSession) Replies() int      { return s.replies }

func (s *fakeSession) ChooseReply(i int) error {
	s.chosen = append(s.chosen, i)
	s.replies = 0
	return nil
}

// fakeInput replays one frame of input.
type fakeInput struct {
	keys  map[ebiten.Key]bool
	click bool
	chars []rune
}

func (f *fakeInput) keyJustPressed(k ebiten.Key) bool { return f.keys[k] }
func (f *fakeInput) clicked() bool                   { return f.click }
func (f *fakeInput) appendChars(buf []rune) []rune   { return append(buf, f.chars...) }
