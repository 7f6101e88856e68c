package events

import "fmt"

// Kind selects when a record fires.
type Kind uint8

const (
	Oneshot   Kind = iota // fires once its scheduled tick is reached
	Immediate             // fires in the drain pass that reaches it
)

func (k Kind) String() string {
	switch k {
	case Oneshot:
		return "oneshot"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Category names the subsystem an event is executed against.
type Category uint8

const (
	Cursor Category = iota
	Graphics
	Palette
	Text
	Music
	Sound
	Animation
	Script
	Interface
)

var categoryNames = [...]string{
	Cursor:    "cursor",
	Graphics:  "graphics",
	Palette:   "palette",
	Text:      "text",
	Music:     "music",
	Sound:     "sound",
	Animation: "animation",
	Script:    "script",
	Interface: "interface",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Op is the operation performed within a category.
type Op uint8

const (
	Show Op = iota
	Hide
	SetFlag
	ClearFlag
	FillRect
	PalToBlack
	BlackToPal
	PalFade
	Display
	Remove
	ClearStatus
	SetStatus
	SetMode
	Play
	Stop
	ExecNonBlocking
	ThreadWake
)

var opNames = [...]string{
	Show:            "show",
	Hide:            "hide",
	SetFlag:         "setFlag",
	ClearFlag:       "clearFlag",
	FillRect:        "fillRect",
	PalToBlack:      "palToBlack",
	BlackToPal:      "blackToPal",
	PalFade:         "palFade",
	Display:         "display",
	Remove:          "remove",
	ClearStatus:     "clearStatus",
	SetStatus:       "setStatus",
	SetMode:         "setMode",
	Play:            "play",
	Stop:            "stop",
	ExecNonBlocking: "execNonBlocking",
	ThreadWake:      "threadWake",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}
