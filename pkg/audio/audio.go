// Package audio provides the music and sound collaborators of the engine.
// Music is synthesized from Standard MIDI Files with go-meltysynth; sound
// effects and voices are WAV files. Both play through an Ebitengine audio
// context.
package audio

import (
	"errors"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate is the audio sample rate of every stream.
const SampleRate = 44100

var (
	// ErrNoSoundFont is returned when music is requested without a SoundFont.
	ErrNoSoundFont = errors.New("SoundFont file is required for MIDI playback")

	// ErrSoundFontNotFound is returned when the SoundFont file cannot be read.
	ErrSoundFontNotFound = errors.New("SoundFont file not found")

	// ErrUnknownSong is returned for a song number outside the song table.
	ErrUnknownSong = errors.New("unknown song")

	// ErrUnknownEffect is returned for an effect number outside the effect
	// table.
	ErrUnknownEffect = errors.New("unknown sound effect")

	// ErrInvalidFormat is returned when a MIDI or WAV file cannot be decoded.
	ErrInvalidFormat = errors.New("invalid audio file format")

	// ErrNoVoices is returned when voices are requested without a voice file
	// pattern.
	ErrNoVoices = errors.New("no voice files configured")
)

var (
	sharedCtx     *audio.Context
	sharedCtxOnce sync.Once
)

// Context returns the process-wide audio context. Ebitengine allows only
// one.
func Context() *audio.Context {
	sharedCtxOnce.Do(func() {
		if c := audio.CurrentContext(); c != nil {
			sharedCtx = c
			return
		}
		sharedCtx = audio.NewContext(SampleRate)
	})
	return sharedCtx
}

// MaxVolume is the script volume of full loudness.
const MaxVolume = 255

// fader moves a volume linearly to a target over a number of steps.
type fader struct {
	current float64
	target  float64
	delta   float64
}

func newFader() fader {
	return fader{current: 1, target: 1}
}

// set starts a fade to volume (0..MaxVolume, negative meaning full) lasting
// steps calls to step.
func (f *fader) set(volume, steps int) {
	if volume < 0 || volume > MaxVolume {
		volume = MaxVolume
	}
	f.target = float64(volume) / MaxVolume
	if steps <= 0 {
		f.current = f.target
		f.delta = 0
		return
	}
	f.delta = (f.target - f.current) / float64(steps)
}

// step advances the fade and returns the new volume.
func (f *fader) step() float64 {
	if f.delta != 0 {
		f.current += f.delta
		if (f.delta > 0 && f.current >= f.target) || (f.delta < 0 && f.current <= f.target) {
			f.current = f.target
			f.delta = 0
		}
	}
	return f.current
}
