package world

// followDistance is how far a follower lets its target get before it starts
// walking after it.
const followDistance = 32 * LocationScale

// WalkTo starts actor id walking to the point. It reports whether motion
// started; an unknown actor or one already standing there does not move.
func (w *World) WalkTo(id ID, to Location) bool {
	a := w.Actor(id)
	if a == nil || a.Location == to {
		return false
	}
	a.FinalTarget = to
	a.Action = ActionWalkToPoint
	a.ActionCycle = 0
	return true
}

// Throw starts actor id falling to the point.
func (w *World) Throw(id ID, to Location, actionCycle int) bool {
	a := w.Actor(id)
	if a == nil {
		return false
	}
	a.FinalTarget = to
	a.Action = ActionFall
	a.ActionCycle = actionCycle
	return true
}

// Climb starts actor id climbing to height z.
func (w *World) Climb(id ID, z, sequence int) bool {
	a := w.Actor(id)
	if a == nil {
		return false
	}
	a.FinalTarget = a.Location
	a.FinalTarget.Z = z
	a.CycleSequence = sequence
	a.Action = ActionClimb
	return true
}

// Step advances every moving actor by one frame and returns the ids of the
// actors that arrived, in registration order.
func (w *World) Step() []ID {
	var arrived []ID
	for _, a := range w.actors {
		if a.Has(FlagFollower) && !a.Action.Moving() {
			w.follow(a)
		}
		if !a.Action.Moving() {
			continue
		}
		a.Location = approach(a.Location, a.FinalTarget, a.Speed)
		a.ActionCycle++
		if a.Location == a.FinalTarget {
			a.Action = ActionWait
			a.Set(FlagBackwards, false)
			arrived = append(arrived, a.ID)
		}
	}
	w.anims.Step(frameMillis)
	return arrived
}

// frameMillis is the animation time that passes per Step.
const frameMillis = 1000 / 60

func (w *World) follow(a *Actor) {
	t := w.Actor(a.Target)
	if t == nil || t.Scene != a.Scene {
		return
	}
	if abs(t.Location.X-a.Location.X) > followDistance || abs(t.Location.Y-a.Location.Y) > followDistance {
		dest := t.Location
		dest.Z = a.Location.Z
		w.WalkTo(a.ID, dest)
	}
}

func approach(from, to Location, speed int) Location {
	return Location{
		X: toward(from.X, to.X, speed),
		Y: toward(from.Y, to.Y, speed),
		Z: toward(from.Z, to.Z, speed),
	}
}

func toward(v, target, step int) int {
	switch {
	case v < target:
		return min(v+step, target)
	case v > target:
		return max(v-step, target)
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
