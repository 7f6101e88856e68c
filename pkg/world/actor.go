package world

import "fmt"

// Action is what an actor is currently doing.
type Action uint8

const (
	ActionWait Action = iota
	ActionWalk
	ActionSpeak
	ActionAccept
	ActionStoop
	ActionFall
	ActionClimb
	ActionFreeze
	ActionPongFrames
	ActionCycleFrames
	ActionWalkToPoint
	ActionWalkToLink
)

var actionNames = [...]string{
	ActionWait:        "wait",
	ActionWalk:        "walk",
	ActionSpeak:       "speak",
	ActionAccept:      "accept",
	ActionStoop:       "stoop",
	ActionFall:        "fall",
	ActionClimb:       "climb",
	ActionFreeze:      "freeze",
	ActionPongFrames:  "pongFrames",
	ActionCycleFrames: "cycleFrames",
	ActionWalkToPoint: "walkToPoint",
	ActionWalkToLink:  "walkToLink",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", a)
}

// Moving reports whether an actor doing a is travelling toward a target.
func (a Action) Moving() bool {
	switch a {
	case ActionWalkToPoint, ActionWalkToLink, ActionFall, ActionClimb:
		return true
	}
	return false
}

// ActorFlags is the state bitset of an actor.
type ActorFlags uint16

const (
	FlagProtagonist ActorFlags = 1 << iota
	FlagFollower
	FlagBackwards
	FlagCycleOnce
	FlagCycleRandom
	FlagCycleReverse
	FlagFaceRequired
)

// Facing directions.
const (
	DirUp = iota
	DirUpRight
	DirRight
	DirDownRight
	DirDown
	DirDownLeft
	DirLeft
	DirUpLeft
)

// FrameRange is a run of sprite frames used for one action and direction.
type FrameRange struct {
	Index int
	Count int
}

// Actor is a scripted character.
type Actor struct {
	ID          ID
	Name        string
	Scene       int
	Location    Location
	FinalTarget Location
	ScriptEntry int

	Facing          int
	ActionDirection int
	Action          Action
	ActionCycle     int
	Flags           ActorFlags
	Target          ID

	Frame            int
	Frames           []FrameRange // indexed by frame type
	CycleSequence    int
	CycleDelay       int
	WalkSequence     int
	FacingMask       int
	FallVelocity     int
	FallAcceleration int
	Speed            int
}

// DefaultSpeed is the distance in world units an actor covers per frame.
const DefaultSpeed = 8

// Has reports whether all of f are set.
func (a *Actor) Has(f ActorFlags) bool {
	return a.Flags&f == f
}

// Set sets or clears f.
func (a *Actor) Set(f ActorFlags, on bool) {
	if on {
		a.Flags |= f
	} else {
		a.Flags &^= f
	}
}

// FrameRange returns the frame range of frameType, or false if the actor has
// none.
func (a *Actor) FrameRange(frameType int) (FrameRange, bool) {
	if frameType < 0 || frameType >= len(a.Frames) {
		return FrameRange{}, false
	}
	return a.Frames[frameType], true
}

// Object is an inanimate game object that can be carried.
type Object struct {
	ID          ID
	Name        string
	NameIndex   int
	Scene       int
	Location    Location
	Sprite      int
	ScriptEntry int
}

// Zone is a hit zone or step zone of the current scene.
type Zone struct {
	ID           ID
	ScriptNumber int
	Enabled      bool
}
