package engine

import (
	"image"
	"image/color"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// Actors gives natives access to actors and objects.
// *world.World implements it.
type Actors interface {
	Actor(id world.ID) *world.Actor
	Object(id world.ID) *world.Object
	Protagonist() *world.Actor
	SetProtagonist(id world.ID)
	SetProtagState(state int)
	CenterOn(id world.ID)
	WalkTo(id world.ID, to world.Location) bool
	Throw(id world.ID, to world.Location, actionCycle int) bool
	Climb(id world.ID, z, sequence int) bool
}

// Inventory tracks carried objects. *world.World implements it.
type Inventory interface {
	Carry(id world.ID)
	Drop(id world.ID)
	Carried(id world.ID) bool
}

// Scenes manages the current scene. *world.World implements it.
type Scenes interface {
	ChangeScene(number, entrance int) error
	SceneNumber() int
	SceneModule() int
	SceneHeight() int
	Chapter() int
	SetChapter(chapter int)
	SetDoorState(door, state int)
	Zone(id world.ID) *world.Zone
}

// Animations drives background animations. *world.Animations implements it.
type Animations interface {
	Has(id int) bool
	Play(id int)
	Stop(id int)
	Finish(id int)
	Resume(id, cycles int)
	Link(from, to int)
	SetCycles(id, cycles int)
	SetFrameTime(id, ms int)
	CurrentFrame(id int) int
}

// Screen is the interface and text layer. *display.Display implements it.
type Screen interface {
	Width() int
	Height() int
	Panel() display.Panel
	SetPanel(p display.Panel)
	RememberPanel()
	RestorePanel()
	Activate()
	Deactivate()
	ConverseClear()
	ShowCursor(show bool)
	SetFlag(f uint32)
	ClearFlag(f uint32)
	FillRect(r image.Rectangle, index int)
	Status() string
	SetStatus(s string)
	SetPortrait(side, portrait int)
	AddText(t display.Text) int
	ShowText(id int) bool
	RemoveText(id int) bool
	BeginStatusInput()
	EndStatusInput()
	Speak(s display.Speech)
	SetSpeechBox(r image.Rectangle)
}

// Palette performs palette fades. *display.Palette implements it.
type Palette interface {
	Base(i int) color.RGBA
	SetColor(i int, c color.RGBA)
	ToBlack(duration int)
	FromBlack(duration int)
	Fade(from, to, first, count, duration int)
}

// Music plays the song table. *audio.Music implements it.
type Music interface {
	Songs() int
	Play(song int, loop bool) error
	Stop()
	SetVolume(volume, frames int)
}

// Sounds plays effects and voices. *audio.Sounds implements it.
type Sounds interface {
	Effects() int
	Play(fx int, loop bool) error
	PlayVoice(id int) error
	Stop()
}

// Strings resolves script string ids. script.Bank implements it.
type Strings interface {
	String(module, id int) (string, bool)
}

// silence stands in for the audio collaborators when none is configured.
type silence struct{}

func (silence) Songs() int                   { return 0 }
func (silence) Effects() int                 { return 0 }
func (silence) Play(int, bool) error         { return nil }
func (silence) PlayVoice(int) error          { return nil }
func (silence) Stop()                        {}
func (silence) SetVolume(volume, frames int) {}

type noStrings struct{}

func (noStrings) String(module, id int) (string, bool) { return "", false }
