package vm

import "fmt"

// WaitKind identifies what a blocked thread is waiting for.
type WaitKind uint8

const (
	WaitNone   WaitKind = iota
	WaitDelay           // resume at a tick deadline
	WaitFrames          // resume when the frame counter reaches a target
	WaitWalk            // resume when an actor finishes moving
	WaitSpeech          // resume when speech playback finishes
	WaitDialog          // resume when a conversation reply is chosen
	WaitNamed           // resume on a ThreadWake event with a matching tag
)

// String returns the wait kind name.
func (k WaitKind) String() string {
	switch k {
	case WaitNone:
		return "none"
	case WaitDelay:
		return "delay"
	case WaitFrames:
		return "frames"
	case WaitWalk:
		return "walk"
	case WaitSpeech:
		return "speech"
	case WaitDialog:
		return "dialog"
	case WaitNamed:
		return "named"
	default:
		return fmt.Sprintf("WaitKind(%d)", k)
	}
}

// Well-known tags for Named waits.
const (
	TagPlacard         = "placard"
	TagRequest         = "request"
	TagWakeUp          = "wakeUp"
	TagStatusTextInput = "statusTextInput"
	TagDialogBegin     = "dialogBegin"
)

// WaitCondition is the condition a thread is blocked on. Only the field
// matching Kind is meaningful: Deadline for Delay and Frames, Actor for
// Walk, Tag for Named.
type WaitCondition struct {
	Kind     WaitKind
	Deadline int64
	Actor    ActorID
	Tag      string
}

// Delay returns a condition released at the given tick.
func Delay(deadline int64) WaitCondition {
	return WaitCondition{Kind: WaitDelay, Deadline: deadline}
}

// Frames returns a condition released when the frame counter reaches target.
func Frames(target int64) WaitCondition {
	return WaitCondition{Kind: WaitFrames, Deadline: target}
}

// Walk returns a condition released when actor stops moving.
func Walk(actor ActorID) WaitCondition {
	return WaitCondition{Kind: WaitWalk, Actor: actor}
}

// Speech returns a condition released when speech playback finishes.
func Speech() WaitCondition {
	return WaitCondition{Kind: WaitSpeech}
}

// Dialog returns a condition released when a conversation reply is chosen.
func Dialog() WaitCondition {
	return WaitCondition{Kind: WaitDialog}
}

// Named returns a condition released by a ThreadWake event carrying tag.
func Named(tag string) WaitCondition {
	return WaitCondition{Kind: WaitNamed, Tag: tag}
}

// Matches reports whether a wake signal for c releases a thread waiting on w.
// Timer kinds match on kind alone; the deadline is checked by the scheduler.
func (w WaitCondition) Matches(c WaitCondition) bool {
	if w.Kind != c.Kind || w.Kind == WaitNone {
		return false
	}
	switch w.Kind {
	case WaitWalk:
		return w.Actor == c.Actor
	case WaitNamed:
		return w.Tag == c.Tag
	default:
		return true
	}
}

// String returns a human-readable form for logs.
func (w WaitCondition) String() string {
	switch w.Kind {
	case WaitDelay, WaitFrames:
		return fmt.Sprintf("%s(%d)", w.Kind, w.Deadline)
	case WaitWalk:
		return fmt.Sprintf("walk(%d)", w.Actor)
	case WaitNamed:
		return fmt.Sprintf("named(%s)", w.Tag)
	default:
		return w.Kind.String()
	}
}
