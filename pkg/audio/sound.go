package audio

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grayfoxier/scummvm/pkg/fileutil"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Effect is an entry of the sound effect table.
type Effect struct {
	File   string
	Volume int // 0..MaxVolume
}

// Sounds plays sound effects and voice samples. Effects mix freely; a new
// voice replaces the one playing.
type Sounds struct {
	mu      sync.Mutex
	log     *slog.Logger
	fs      fileutil.FileSystem
	ctx     *audio.Context
	effects []Effect
	voices  string // fmt pattern for voice files, e.g. "voices/%d.wav"
	players []*audio.Player
	voice   *audio.Player
	muted   bool
}

// NewSounds creates a sound player for an effect table and a voice file
// pattern.
func NewSounds(ctx *audio.Context, fsys fileutil.FileSystem, effects []Effect, voices string, log *slog.Logger) *Sounds {
	if log == nil {
		log = slog.Default()
	}
	return &Sounds{log: log, fs: fsys, ctx: ctx, effects: effects, voices: voices}
}

// Effects returns the size of the effect table.
func (s *Sounds) Effects() int {
	return len(s.effects)
}

// Play starts effect fx. A looped effect repeats until Stop.
func (s *Sounds) Play(fx int, loop bool) error {
	if fx < 0 || fx >= len(s.effects) {
		return fmt.Errorf("%w: %d", ErrUnknownEffect, fx)
	}
	e := s.effects[fx]

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	p, err := s.newPlayer(e.File, loop)
	if err != nil {
		return err
	}
	p.SetVolume(s.level(e.Volume))
	p.Play()
	s.players = append(s.players, p)
	s.log.Debug("sound started", "fx", fx, "file", e.File, "loop", loop)
	return nil
}

// PlayVoice plays voice sample id.
func (s *Sounds) PlayVoice(id int) error {
	if s.voices == "" {
		return ErrNoVoices
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voice != nil {
		s.voice.Close()
		s.voice = nil
	}
	p, err := s.newPlayer(fmt.Sprintf(s.voices, id), false)
	if err != nil {
		return err
	}
	p.SetVolume(s.level(MaxVolume))
	p.Play()
	s.voice = p
	return nil
}

// VoicePlaying reports whether a voice sample is still playing.
func (s *Sounds) VoicePlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice != nil && s.voice.IsPlaying()
}

// Stop stops every effect and voice.
func (s *Sounds) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		p.Close()
	}
	s.players = s.players[:0]
	if s.voice != nil {
		s.voice.Close()
		s.voice = nil
	}
}

// SetMuted silences current and future sounds.
func (s *Sounds) SetMuted(muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = muted
	for _, p := range s.players {
		if muted {
			p.SetVolume(0)
		}
	}
}

// Active returns the number of effects still playing.
func (s *Sounds) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
	return len(s.players)
}

func (s *Sounds) newPlayer(name string, loop bool) (*audio.Player, error) {
	data, err := s.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, name, err)
	}
	if loop {
		return s.ctx.NewPlayer(audio.NewInfiniteLoop(stream, stream.Length()))
	}
	return s.ctx.NewPlayer(stream)
}

func (s *Sounds) level(volume int) float64 {
	if s.muted {
		return 0
	}
	return float64(min(max(volume, 0), MaxVolume)) / MaxVolume
}

// cleanupLocked closes effects that finished playing.
func (s *Sounds) cleanupLocked() {
	live := s.players[:0]
	for _, p := range s.players {
		if p.IsPlaying() {
			live = append(live, p)
		} else {
			p.Close()
		}
	}
	clear(s.players[len(live):])
	s.players = live
}
