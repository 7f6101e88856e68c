package app

import (
	"image"

	"github.com/grayfoxier/scummvm/pkg/audio"
	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/engine"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// session はエンジンと周辺の状態を1ティックずつ進める
type session struct {
	engine    *engine.Engine
	world     *world.World
	display   *display.Display
	music     *audio.Music // nil なら無音
	msPerTick int
}

// Step は1ティック進める
// スクリプトを実行した後に歩行・台詞・アニメーションを進め、
// 完了した待ちは次のティックで解除される
func (s *session) Step() error {
	if err := s.engine.Tick(); err != nil {
		return err
	}
	for _, id := range s.world.Step() {
		s.engine.NotifyWalkDone(id)
	}
	if s.display.Step() {
		s.engine.NotifySpeechDone()
	}
	s.world.Animations().Step(s.msPerTick)
	if s.music != nil {
		s.music.Step()
	}
	return nil
}

func (s *session) Frame() *image.RGBA { return s.display.Render() }

func (s *session) Size() (int, int) { return s.display.Width(), s.display.Height() }

func (s *session) Click() { s.engine.Click() }

// SkipSpeeches は表示中の台詞を飛ばす
func (s *session) SkipSpeeches() {
	s.engine.SkipSpeeches()
	if s.display.Speaking() {
		s.display.SkipSpeech()
	}
}

func (s *session) InputActive() bool { return s.display.InputActive() }

func (s *session) InputRune(r rune) { s.display.InputRune(r) }

func (s *session) SubmitInput() { s.engine.SubmitStatusInput(s.display.InputText()) }

func (s *session) AbortInput() { s.engine.AbortStatusInput() }

func (s *session) Replies() int { return len(s.engine.Replies()) }

func (s *session) ChooseReply(i int) error { return s.engine.ChooseReply(i) }
