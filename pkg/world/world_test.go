package world

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestID(t *testing.T) {
	tests := []struct {
		id        ID
		wantType  ObjectType
		wantIndex int
		wantStr   string
	}{
		{Nothing, TypeNone, 0, "nothing"},
		{MakeID(TypeActor, 0), TypeActor, 0, "actor#0"},
		{MakeID(TypeObject, 17), TypeObject, 17, "object#17"},
		{MakeID(TypeHitZone, 3), TypeHitZone, 3, "hitzone#3"},
		{MakeID(TypeStepZone, 8191), TypeStepZone, 8191, "stepzone#8191"},
	}
	for _, tt := range tests {
		t.Run(tt.wantStr, func(t *testing.T) {
			if tt.id.Type() != tt.wantType || tt.id.Index() != tt.wantIndex {
				t.Errorf("id %#x = (%s, %d), want (%s, %d)", uint16(tt.id), tt.id.Type(), tt.id.Index(), tt.wantType, tt.wantIndex)
			}
			if got := tt.id.String(); got != tt.wantStr {
				t.Errorf("String() = %q, want %q", got, tt.wantStr)
			}
		})
	}
}

func newTestWorld() (*World, ID, ID) {
	w := New()
	hero := w.AddActor(&Actor{Name: "rif", Flags: FlagProtagonist})
	friend := w.AddActor(&Actor{Name: "okk", Location: Location{X: 400, Y: 400}})
	w.AddScene(&Scene{
		Number:    2,
		Module:    5,
		Chapter:   1,
		Height:    137,
		Entrances: []Location{{X: 40, Y: 80}},
		HitZones:  []Zone{{ScriptNumber: 3, Enabled: true}},
	})
	return w, hero, friend
}

func TestWorld_Lookup(t *testing.T) {
	w, hero, friend := newTestWorld()
	obj := w.AddObject(&Object{Name: "rock"})

	if w.Protagonist() == nil || w.Protagonist().ID != hero {
		t.Fatalf("protagonist = %v, want %s", w.Protagonist(), hero)
	}
	if w.Center() != hero {
		t.Errorf("center = %s, want %s", w.Center(), hero)
	}
	if w.Actor(obj) != nil {
		t.Error("an object id must not resolve to an actor")
	}
	if w.Object(obj) == nil || w.Object(friend) != nil {
		t.Error("object lookup mismatch")
	}
	if w.Actor(MakeID(TypeActor, 9)) != nil {
		t.Error("unknown actor resolved")
	}

	w.SetProtagonist(friend)
	if !w.Actor(friend).Has(FlagProtagonist) || w.Actor(hero).Has(FlagProtagonist) {
		t.Error("protagonist flag did not move")
	}
}

func TestWorld_Inventory(t *testing.T) {
	w := New()
	a := MakeID(TypeObject, 1)
	b := MakeID(TypeObject, 2)
	w.Carry(a)
	w.Carry(b)
	w.Carry(a)
	if diff := cmp.Diff([]ID{a, b}, w.Inventory()); diff != "" {
		t.Errorf("inventory mismatch (-want +got):\n%s", diff)
	}
	w.Drop(a)
	w.Drop(a)
	if w.Carried(a) || !w.Carried(b) {
		t.Errorf("after drop: inventory = %v", w.Inventory())
	}
}

func TestWorld_ChangeScene(t *testing.T) {
	w, hero, _ := newTestWorld()
	w.SetDoorState(4, DoorClosed)

	if err := w.ChangeScene(9, 0); err == nil {
		t.Error("ChangeScene to an unknown scene should fail")
	}
	if err := w.ChangeScene(2, 0); err != nil {
		t.Fatalf("ChangeScene: %v", err)
	}
	if w.SceneNumber() != 2 || w.SceneModule() != 5 || w.Chapter() != 1 || w.SceneHeight() != 137 {
		t.Errorf("scene = (%d, %d, %d, %d)", w.SceneNumber(), w.SceneModule(), w.Chapter(), w.SceneHeight())
	}
	if got := w.Actor(hero).Location; got != (Location{X: 40, Y: 80}) {
		t.Errorf("protagonist at %v, want the entrance", got)
	}
	if w.DoorState(4) != 0 {
		t.Error("doors should reset on scene change")
	}

	z := w.Zone(MakeID(TypeHitZone, 0))
	if z == nil || z.ScriptNumber != 3 {
		t.Fatalf("Zone = %v", z)
	}
	z.Enabled = false
	if w.Zone(MakeID(TypeHitZone, 0)).Enabled {
		t.Error("zone changes should persist")
	}
	if w.Zone(MakeID(TypeStepZone, 0)) != nil || w.Zone(MakeID(TypeActor, 0)) != nil {
		t.Error("missing zones should be nil")
	}
}

func TestWorld_WalkArrives(t *testing.T) {
	w, hero, _ := newTestWorld()
	if w.WalkTo(hero, Location{}) {
		t.Error("walking to the current location should not start motion")
	}
	if !w.WalkTo(hero, Location{X: 20, Y: -12}) {
		t.Fatal("WalkTo did not start motion")
	}
	var arrivals [][]ID
	for range 4 {
		arrivals = append(arrivals, w.Step())
	}
	want := [][]ID{nil, nil, {hero}, nil}
	if diff := cmp.Diff(want, arrivals); diff != "" {
		t.Errorf("arrivals mismatch (-want +got):\n%s", diff)
	}
	if a := w.Actor(hero); a.Action != ActionWait || a.Location != (Location{X: 20, Y: -12}) {
		t.Errorf("actor = %v at %v", a.Action, a.Location)
	}
}

func TestWorld_ThrowAndClimb(t *testing.T) {
	w, hero, _ := newTestWorld()
	w.Throw(hero, Location{X: 8, Z: -8}, 24)
	if got := w.Step(); len(got) != 1 {
		t.Errorf("fall arrivals = %v", got)
	}
	w.Climb(hero, 16, 2)
	if w.Actor(hero).Action != ActionClimb {
		t.Fatal("Climb did not start")
	}
	w.Step()
	w.Step()
	if got := w.Step(); len(got) != 1 || w.Actor(hero).Location.Z != 16 {
		t.Errorf("climb arrivals = %v, z = %d", got, w.Actor(hero).Location.Z)
	}
}

func TestWorld_FollowerWalksAfterTarget(t *testing.T) {
	w, hero, friend := newTestWorld()
	f := w.Actor(friend)
	f.Target = hero
	f.Set(FlagFollower, true)
	w.Step()
	if f.Action != ActionWalkToPoint {
		t.Errorf("follower action = %v, want walkToPoint", f.Action)
	}
}

func TestAnimations(t *testing.T) {
	s := NewAnimations()
	s.Add(1, 3)
	s.Add(2, 2)
	s.SetFrameTime(1, 10)
	s.SetFrameTime(2, 10)
	s.SetCycles(1, 1)
	s.SetCycles(2, -1)
	s.Link(1, 2)
	s.Play(1)

	s.Step(20)
	if got := s.CurrentFrame(1); got != 2 {
		t.Errorf("frame after 20ms = %d, want 2", got)
	}
	s.Step(40) // wraps once, uses the repeat, wraps again and stops
	if s.Get(1).Playing {
		t.Error("animation 1 should have stopped after its repeat")
	}
	if !s.Get(2).Playing {
		t.Error("linked animation 2 should have started")
	}

	s.Finish(2)
	s.Step(20)
	if s.Get(2).Playing {
		t.Error("finished animation should stop at the end of its cycle")
	}

	if s.Has(7) || s.CurrentFrame(7) != 0 {
		t.Error("unknown animation should report nothing")
	}
	s.Play(7) // no-op
}

// Walking always arrives, after as many steps as the longest axis needs.
func TestPropertyWalkArrives(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("walk arrives in bounded steps", prop.ForAll(
		func(x, y int) bool {
			w := New()
			id := w.AddActor(&Actor{})
			to := Location{X: x, Y: y}
			if !w.WalkTo(id, to) {
				return to == (Location{})
			}
			steps := (max(abs(x), abs(y)) + DefaultSpeed - 1) / DefaultSpeed
			for i := 1; i <= steps; i++ {
				got := w.Step()
				if (len(got) == 1) != (i == steps) {
					return false
				}
			}
			return w.Actor(id).Location == to
		},
		gen.IntRange(-500, 500),
		gen.IntRange(-500, 500),
	))

	properties.TestingRun(t)
}
