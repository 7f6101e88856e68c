package world

import (
	"maps"
	"slices"
)

// Anim is a background animation of the current scene.
type Anim struct {
	ID        int
	Frames    int
	Frame     int
	Cycles    int // remaining repeats; negative repeats forever
	FrameTime int // milliseconds per frame
	Playing   bool
	Finishing bool
	Link      int // animation started when this one stops, or -1

	elapsed int
}

// DefaultFrameTime is the frame time of a new animation.
const DefaultFrameTime = 100

// Animations is the set of background animations keyed by id.
type Animations struct {
	anims map[int]*Anim
}

// NewAnimations creates an empty set.
func NewAnimations() *Animations {
	return &Animations{anims: make(map[int]*Anim)}
}

// Add registers an animation with the given frame count.
func (s *Animations) Add(id, frames int) *Anim {
	a := &Anim{ID: id, Frames: max(frames, 1), FrameTime: DefaultFrameTime, Link: -1}
	s.anims[id] = a
	return a
}

// Get returns the animation, or nil.
func (s *Animations) Get(id int) *Anim {
	return s.anims[id]
}

// Has reports whether id is a known animation.
func (s *Animations) Has(id int) bool {
	_, ok := s.anims[id]
	return ok
}

// Play starts id from its current frame.
func (s *Animations) Play(id int) {
	if a := s.anims[id]; a != nil {
		a.Playing = true
		a.Finishing = false
		a.elapsed = 0
	}
}

// Stop stops id on its current frame.
func (s *Animations) Stop(id int) {
	if a := s.anims[id]; a != nil {
		a.Playing = false
	}
}

// Finish lets id play to the end of its current cycle and stop.
func (s *Animations) Finish(id int) {
	if a := s.anims[id]; a != nil {
		a.Finishing = true
	}
}

// Resume restarts a stopped animation with a new repeat count.
func (s *Animations) Resume(id, cycles int) {
	if a := s.anims[id]; a != nil {
		a.Cycles = cycles
		a.Playing = true
		a.Finishing = false
	}
}

// Link makes to start when from stops.
func (s *Animations) Link(from, to int) {
	if a := s.anims[from]; a != nil {
		a.Link = to
	}
}

// SetCycles sets the repeat count.
func (s *Animations) SetCycles(id, cycles int) {
	if a := s.anims[id]; a != nil {
		a.Cycles = cycles
	}
}

// SetFrameTime sets the milliseconds per frame.
func (s *Animations) SetFrameTime(id, ms int) {
	if a := s.anims[id]; a != nil {
		a.FrameTime = max(ms, 1)
	}
}

// CurrentFrame returns the current frame of id, or 0 if it is unknown.
func (s *Animations) CurrentFrame(id int) int {
	if a := s.anims[id]; a != nil {
		return a.Frame
	}
	return 0
}

// Step advances every playing animation by ms milliseconds, in id order.
func (s *Animations) Step(ms int) {
	for _, id := range slices.Sorted(maps.Keys(s.anims)) {
		a := s.anims[id]
		if !a.Playing {
			continue
		}
		a.elapsed += ms
		for a.Playing && a.elapsed >= a.FrameTime {
			a.elapsed -= a.FrameTime
			s.advance(a)
		}
	}
}

func (s *Animations) advance(a *Anim) {
	a.Frame++
	if a.Frame < a.Frames {
		return
	}
	a.Frame = 0
	switch {
	case a.Finishing || a.Cycles == 0:
		a.Playing = false
		a.Finishing = false
		if next := s.anims[a.Link]; next != nil && a.Link != a.ID {
			next.Playing = true
			next.elapsed = 0
		}
	case a.Cycles > 0:
		a.Cycles--
	}
}
