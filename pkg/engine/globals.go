package engine

// NumGlobalFlags is the number of script-visible global flags.
const NumGlobalFlags = 32

// NumEthicsPoints is the number of ethics point slots. GetPoints and
// SetPoints address them by index and SetChapterPoints by chapter.
const NumEthicsPoints = 16

// GlobalFlags is the 32-bit flag word shared by every script.
type GlobalFlags uint32

// Set sets flag n. Out-of-range flags are ignored.
func (f *GlobalFlags) Set(n int) {
	if n >= 0 && n < NumGlobalFlags {
		*f |= 1 << n
	}
}

// Clear clears flag n.
func (f *GlobalFlags) Clear(n int) {
	if n >= 0 && n < NumGlobalFlags {
		*f &^= 1 << n
	}
}

// Test reports whether flag n is set.
func (f GlobalFlags) Test(n int) bool {
	return n >= 0 && n < NumGlobalFlags && f&(1<<n) != 0
}

type inputState uint8

const (
	inputIdle inputState = iota
	inputPending
	inputEntered
	inputAborted
)

// globals is the script-visible engine state that survives a snapshot.
type globals struct {
	Flags     GlobalFlags            `cbor:"1,keyasint"`
	Ethics    [NumEthicsPoints]int16 `cbor:"3,keyasint"`
	Barometer int                    `cbor:"4,keyasint"`

	SkipSpeeches          bool `cbor:"5,keyasint"`
	AbortEnabled          bool `cbor:"6,keyasint"`
	AbortSpeechesDisabled bool `cbor:"7,keyasint"`

	Input     inputState `cbor:"8,keyasint"`
	InputText string     `cbor:"9,keyasint,omitempty"`

	MouseClicks int  `cbor:"10,keyasint"`
	FramesEsc   int  `cbor:"11,keyasint"`
	PuzzleWon   bool `cbor:"12,keyasint"`

	MusicTrack           int  `cbor:"13,keyasint"`
	MusicLoop            int  `cbor:"14,keyasint"`
	ChapterPointsChanged bool `cbor:"15,keyasint"`

	Conversing int `cbor:"16,keyasint"` // thread id, 0 when no dialog is open
}

func (g *globals) reset() {
	*g = globals{AbortEnabled: true, MusicTrack: -1}
}
