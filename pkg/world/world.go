package world

import (
	"fmt"
	"slices"
)

// Scene describes a scene that can be entered.
type Scene struct {
	Number    int
	Module    int // script module of the scene
	Chapter   int
	Height    int
	Entrances []Location
	HitZones  []Zone
	StepZones []Zone
}

// DoorClosed is the state of a closed door.
const DoorClosed = 0xff

// World is the mutable game state. It is not safe for concurrent use.
type World struct {
	actors   []*Actor
	objects  []*Object
	scenes   map[int]*Scene
	carried  []ID
	doors    map[int]int
	anims    *Animations
	scene    *Scene
	chapter  int
	protag   ID
	center   ID
	protagSt int
}

// New creates an empty world with a placeholder scene 0.
func New() *World {
	w := &World{
		scenes: make(map[int]*Scene),
		doors:  make(map[int]int),
		anims:  NewAnimations(),
	}
	w.scene = &Scene{}
	return w
}

// AddActor registers a. An actor without an id gets the next actor id. The
// first actor flagged as protagonist becomes the protagonist.
func (w *World) AddActor(a *Actor) ID {
	if a.ID == Nothing {
		a.ID = MakeID(TypeActor, len(w.actors))
	}
	if a.Speed == 0 {
		a.Speed = DefaultSpeed
	}
	w.actors = append(w.actors, a)
	if a.Has(FlagProtagonist) && w.protag == Nothing {
		w.protag = a.ID
		w.center = a.ID
	}
	return a.ID
}

// AddObject registers o. An object without an id gets the next object id.
func (w *World) AddObject(o *Object) ID {
	if o.ID == Nothing {
		o.ID = MakeID(TypeObject, len(w.objects))
	}
	w.objects = append(w.objects, o)
	return o.ID
}

// AddScene registers s, replacing any scene with the same number.
func (w *World) AddScene(s *Scene) {
	w.scenes[s.Number] = s
}

// Actor returns the actor with the given id, or nil.
func (w *World) Actor(id ID) *Actor {
	if id.Type() != TypeActor {
		return nil
	}
	for _, a := range w.actors {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Object returns the object with the given id, or nil.
func (w *World) Object(id ID) *Object {
	if id.Type() != TypeObject {
		return nil
	}
	for _, o := range w.objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Actors returns every actor in registration order.
func (w *World) Actors() []*Actor {
	return slices.Clone(w.actors)
}

// Protagonist returns the protagonist, or nil.
func (w *World) Protagonist() *Actor {
	return w.Actor(w.protag)
}

// SetProtagonist moves the protagonist flag to id.
func (w *World) SetProtagonist(id ID) {
	if old := w.Protagonist(); old != nil {
		old.Set(FlagProtagonist, false)
	}
	if a := w.Actor(id); a != nil {
		a.Set(FlagProtagonist, true)
		w.protag = id
	}
}

// ProtagState returns the protagonist state set by scripts.
func (w *World) ProtagState() int {
	return w.protagSt
}

// SetProtagState sets the protagonist state.
func (w *World) SetProtagState(state int) {
	w.protagSt = state
}

// Center returns the actor the camera follows.
func (w *World) Center() ID {
	return w.center
}

// CenterOn makes the camera follow id.
func (w *World) CenterOn(id ID) {
	w.center = id
}

// Inventory

// Carry adds id to the inventory if it is not already carried.
func (w *World) Carry(id ID) {
	if !w.Carried(id) {
		w.carried = append(w.carried, id)
	}
}

// Drop removes id from the inventory.
func (w *World) Drop(id ID) {
	if i := slices.Index(w.carried, id); i >= 0 {
		w.carried = slices.Delete(w.carried, i, i+1)
	}
}

// Carried reports whether id is in the inventory.
func (w *World) Carried(id ID) bool {
	return slices.Contains(w.carried, id)
}

// Inventory returns the carried objects in pickup order.
func (w *World) Inventory() []ID {
	return slices.Clone(w.carried)
}

// Scenes

// ChangeScene enters scene number at the given entrance. Doors reset and the
// protagonist is placed at the entrance when the scene defines it.
func (w *World) ChangeScene(number, entrance int) error {
	s, ok := w.scenes[number]
	if !ok {
		return fmt.Errorf("world: unknown scene %d", number)
	}
	w.scene = s
	if s.Chapter != 0 {
		w.chapter = s.Chapter
	}
	clear(w.doors)
	if p := w.Protagonist(); p != nil {
		p.Scene = number
		p.Action = ActionWait
		if entrance >= 0 && entrance < len(s.Entrances) {
			p.Location = s.Entrances[entrance]
		}
	}
	return nil
}

// SceneNumber returns the current scene number.
func (w *World) SceneNumber() int {
	return w.scene.Number
}

// SceneModule returns the script module of the current scene.
func (w *World) SceneModule() int {
	return w.scene.Module
}

// SceneHeight returns the height of the current scene in pixels.
func (w *World) SceneHeight() int {
	return w.scene.Height
}

// Chapter returns the current chapter.
func (w *World) Chapter() int {
	return w.chapter
}

// SetChapter sets the current chapter.
func (w *World) SetChapter(chapter int) {
	w.chapter = chapter
}

// DoorState returns the state of a door in the current scene. Doors start
// open.
func (w *World) DoorState(door int) int {
	return w.doors[door]
}

// SetDoorState sets the state of a door in the current scene.
func (w *World) SetDoorState(door, state int) {
	w.doors[door] = state
}

// Zone returns the hit zone or step zone id of the current scene, or nil.
func (w *World) Zone(id ID) *Zone {
	var zones []Zone
	switch id.Type() {
	case TypeHitZone:
		zones = w.scene.HitZones
	case TypeStepZone:
		zones = w.scene.StepZones
	default:
		return nil
	}
	if i := id.Index(); i < len(zones) {
		return &zones[i]
	}
	return nil
}

// Animations returns the background animation set.
func (w *World) Animations() *Animations {
	return w.anims
}
