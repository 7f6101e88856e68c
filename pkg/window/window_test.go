package window

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/grayfoxier/scummvm/pkg/engine"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestGame(s *fakeSession, in *fakeInput) *Game {
	g := NewGame(s, quiet)
	g.in = in
	return g
}

func TestLayout(t *testing.T) {
	g := newTestGame(&fakeSession{}, &fakeInput{})
	w, h := g.Layout(1280, 960)
	if w != 320 || h != 200 {
		t.Errorf("Layout() = (%d, %d), want (320, 200)", w, h)
	}
}

func TestUpdate_StepsSession(t *testing.T) {
	s := &fakeSession{}
	g := newTestGame(s, &fakeInput{})
	for range 3 {
		if err := g.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if s.steps != 3 {
		t.Errorf("steps = %d, want 3", s.steps)
	}
}

func TestUpdate_Input(t *testing.T) {
	tests := []struct {
		name  string
		in    fakeInput
		check func(t *testing.T, s *fakeSession)
	}{
		{
			name: "クリック",
			in:   fakeInput{click: true},
			check: func(t *testing.T, s *fakeSession) {
				if s.clicks != 1 {
					t.Errorf("clicks = %d, want 1", s.clicks)
				}
			},
		},
		{
			name: "スペースで台詞をスキップ",
			in:   fakeInput{keys: map[ebiten.Key]bool{ebiten.KeySpace: true}},
			check: func(t *testing.T, s *fakeSession) {
				if s.skips != 1 {
					t.Errorf("skips = %d, want 1", s.skips)
				}
			},
		},
		{
			name: "入力中でなければ文字は無視",
			in:   fakeInput{chars: []rune("42")},
			check: func(t *testing.T, s *fakeSession) {
				if len(s.typed) != 0 {
					t.Errorf("typed = %q, want none", string(s.typed))
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{}
			g := newTestGame(s, &tt.in)
			if err := g.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}
			tt.check(t, s)
			if s.steps != 1 {
				t.Errorf("steps = %d, want 1", s.steps)
			}
		})
	}
}

func TestUpdate_ChooseReply(t *testing.T) {
	tests := []struct {
		name    string
		replies int
		key     ebiten.Key
		want    []int
	}{
		{"1キーで最初の返答", 3, ebiten.Key1, []int{0}},
		{"3キーで3番目の返答", 3, ebiten.Key3, []int{2}},
		{"返答数を超えるキーは無視", 2, ebiten.Key3, nil},
		{"会話中でなければ無視", 0, ebiten.Key1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeSession{replies: tt.replies}
			g := newTestGame(s, &fakeInput{keys: map[ebiten.Key]bool{tt.key: true}})
			if err := g.Update(); err != nil {
				t.Fatalf("Update: %v", err)
			}
			if diff := cmp.Diff(tt.want, s.chosen); diff != "" {
				t.Errorf("chosen mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdate_StatusInput(t *testing.T) {
	s := &fakeSession{input: true}
	in := &fakeInput{chars: []rune("12")}
	g := newTestGame(s, in)

	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	in.chars = nil
	in.keys = map[ebiten.Key]bool{ebiten.KeyBackspace: true}
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	in.keys = map[ebiten.Key]bool{ebiten.KeyEnter: true}
	if err := g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if diff := cmp.Diff([]rune{'1', '2', '\b'}, s.typed); diff != "" {
		t.Errorf("typed mismatch (-want +got):\n%s", diff)
	}
	if s.submitted != 1 {
		t.Errorf("submitted = %d, want 1", s.submitted)
	}
}

func TestUpdate_EscapeAbortsInputBeforeQuitting(t *testing.T) {
	s := &fakeSession{input: true}
	g := newTestGame(s, &fakeInput{keys: map[ebiten.Key]bool{ebiten.KeyEscape: true}})

	if err := g.Update(); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	if s.aborted != 1 {
		t.Fatalf("aborted = %d, want 1", s.aborted)
	}
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("second Update = %v, want ebiten.Termination", err)
	}
}

func TestUpdate_SessionFinished(t *testing.T) {
	s := &fakeSession{errAt: 2, stepErr: engine.ErrTerminated}
	in := &fakeInput{}
	g := newTestGame(s, in)

	for range 4 {
		if err := g.Update(); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	if !g.Finished() || g.Err() != nil {
		t.Errorf("Finished() = %v, Err() = %v", g.Finished(), g.Err())
	}
	if s.steps != 2 {
		t.Errorf("steps = %d, want 2 (no stepping after finish)", s.steps)
	}

	in.keys = map[ebiten.Key]bool{ebiten.KeyEscape: true}
	if err := g.Update(); !errors.Is(err, ebiten.Termination) {
		t.Errorf("Update after finish = %v, want ebiten.Termination", err)
	}
}

func TestUpdate_SessionError(t *testing.T) {
	boom := errors.New("stack overflow")
	s := &fakeSession{errAt: 1, stepErr: boom}
	g := newTestGame(s, &fakeInput{})

	if err := g.Update(); !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want %v", err, boom)
	}
	if !errors.Is(g.Err(), boom) {
		t.Errorf("Err() = %v", g.Err())
	}
}

func TestRunHeadless(t *testing.T) {
	tests := []struct {
		name    string
		session fakeSession
		want    error
		steps   int
	}{
		{"正常終了", fakeSession{errAt: 5, stepErr: engine.ErrTerminated}, nil, 5},
		{"エラー", fakeSession{errAt: 3, stepErr: io.ErrUnexpectedEOF}, io.ErrUnexpectedEOF, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session
			err := RunHeadless(context.Background(), &s, quiet)
			if !errors.Is(err, tt.want) {
				t.Errorf("RunHeadless = %v, want %v", err, tt.want)
			}
			if s.steps != tt.steps {
				t.Errorf("steps = %d, want %d", s.steps, tt.steps)
			}
		})
	}
}

func TestRunHeadless_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &fakeSession{}
	if err := RunHeadless(ctx, s, quiet); !errors.Is(err, context.Canceled) {
		t.Errorf("RunHeadless = %v, want context.Canceled", err)
	}
	if s.steps != 0 {
		t.Errorf("steps = %d, want 0", s.steps)
	}
}
