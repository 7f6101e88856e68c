// Package world holds the in-memory game world scripts manipulate: actors,
// objects, the inventory, scenes with their doors and zones, and background
// animations. Motion is stepped explicitly by the host once per frame.
package world

import "fmt"

// ID is a game object id. The top bits carry the object type and the low
// bits the index within that type.
type ID uint16

// ObjectType is the kind of game object an ID refers to.
type ObjectType uint8

const (
	TypeNone ObjectType = iota
	TypeActor
	TypeObject
	TypeHitZone
	TypeStepZone
)

const (
	typeShift = 13
	indexMask = 1<<typeShift - 1
)

// Nothing is the null object id.
const Nothing ID = 0

// MakeID builds the id of the index-th object of type t.
func MakeID(t ObjectType, index int) ID {
	return ID(uint16(t)<<typeShift | uint16(index)&indexMask)
}

// Type returns the object type encoded in id.
func (id ID) Type() ObjectType {
	return ObjectType(id >> typeShift)
}

// Index returns the index encoded in id.
func (id ID) Index() int {
	return int(id & indexMask)
}

func (id ID) String() string {
	if id == Nothing {
		return "nothing"
	}
	return fmt.Sprintf("%s#%d", id.Type(), id.Index())
}

func (t ObjectType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeActor:
		return "actor"
	case TypeObject:
		return "object"
	case TypeHitZone:
		return "hitzone"
	case TypeStepZone:
		return "stepzone"
	default:
		return fmt.Sprintf("ObjectType(%d)", t)
	}
}

// Location is a position in world units. Screen coordinates are world units
// divided by LocationScale.
type Location struct {
	X, Y, Z int
}

// LocationScale is the number of world units per screen pixel.
const LocationScale = 4

// Add returns l offset by d.
func (l Location) Add(d Location) Location {
	return Location{l.X + d.X, l.Y + d.Y, l.Z + d.Z}
}

// Screen returns the location in screen pixels.
func (l Location) Screen() (x, y int) {
	return l.X >> 2, l.Y >> 2
}
