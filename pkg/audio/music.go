package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grayfoxier/scummvm/pkg/fileutil"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// midiStream implements io.Reader for Ebitengine audio by rendering samples
// from a MIDI sequencer.
type midiStream struct {
	mu        sync.Mutex
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	left      []float32
	right     []float32
}

// Read renders 16-bit little-endian stereo. A stopped stream reads silence.
func (s *midiStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		clear(p)
		return len(p), nil
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}
	if cap(s.left) < samples {
		s.left = make([]float32, samples)
		s.right = make([]float32, samples)
	}
	left, right := s.left[:samples], s.right[:samples]
	s.sequencer.Render(left, right)

	for i := range samples {
		l := int16(clamp(left[i], -1, 1) * 32767)
		r := int16(clamp(right[i], -1, 1) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}
	return samples * 4, nil
}

func (s *midiStream) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func clamp(v, lo, hi float32) float32 {
	return min(max(v, lo), hi)
}

// Music plays songs from a song table through a SoundFont synthesizer.
// Play and Stop are called from the game loop while Ebitengine reads the
// stream from its own goroutine.
type Music struct {
	mu     sync.Mutex
	log    *slog.Logger
	fs     fileutil.FileSystem
	ctx    *audio.Context
	songs  []string
	synth  *meltysynth.Synthesizer
	player *audio.Player
	stream *midiStream
	song   int
	volume fader
	muted  bool
}

// NewMusic loads a SoundFont and returns a music player for songs, a table
// of MIDI file names indexed by song number. Empty names are unused numbers.
func NewMusic(ctx *audio.Context, fsys fileutil.FileSystem, soundFont string, songs []string, log *slog.Logger) (*Music, error) {
	if soundFont == "" {
		return nil, ErrNoSoundFont
	}
	data, err := fsys.ReadFile(soundFont)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSoundFontNotFound, soundFont)
	}
	sf, err := meltysynth.NewSoundFont(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}
	synth, err := meltysynth.NewSynthesizer(sf, meltysynth.NewSynthesizerSettings(SampleRate))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Music{
		log:    log,
		fs:     fsys,
		ctx:    ctx,
		songs:  songs,
		synth:  synth,
		song:   -1,
		volume: newFader(),
	}, nil
}

// Songs returns the size of the song table.
func (m *Music) Songs() int {
	return len(m.songs)
}

// Play starts song, replacing whatever is playing.
func (m *Music) Play(song int, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if song < 0 || song >= len(m.songs) || m.songs[song] == "" {
		return fmt.Errorf("%w: %d", ErrUnknownSong, song)
	}
	data, err := m.fs.ReadFile(m.songs[song])
	if err != nil {
		return fmt.Errorf("failed to read song %d: %w", song, err)
	}
	midi, err := meltysynth.NewMidiFile(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidFormat, m.songs[song], err)
	}

	m.stopLocked()
	seq := meltysynth.NewMidiFileSequencer(m.synth)
	seq.Play(midi, loop)
	m.stream = &midiStream{sequencer: seq}
	player, err := m.ctx.NewPlayer(m.stream)
	if err != nil {
		m.stream = nil
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	m.player = player
	m.song = song
	m.applyVolume(m.volume.current)
	m.player.Play()
	m.log.Debug("music started", "song", song, "file", m.songs[song], "loop", loop)
	return nil
}

// Stop stops the current song.
func (m *Music) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Music) stopLocked() {
	if m.stream != nil {
		m.stream.stop()
		m.stream = nil
	}
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.song = -1
}

// Playing returns the current song number, or -1.
func (m *Music) Playing() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.song
}

// SetVolume fades to volume (0..MaxVolume, negative for full) over the given
// number of frames.
func (m *Music) SetVolume(volume, frames int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume.set(volume, frames)
	if frames <= 0 {
		m.applyVolume(m.volume.current)
	}
}

// SetMuted silences the music without stopping it.
func (m *Music) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyVolume(m.volume.current)
}

// Step advances a running volume fade by one frame.
func (m *Music) Step() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyVolume(m.volume.step())
}

func (m *Music) applyVolume(v float64) {
	if m.player == nil {
		return
	}
	if m.muted {
		v = 0
	}
	m.player.SetVolume(v)
}
