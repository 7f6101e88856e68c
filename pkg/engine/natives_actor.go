package engine

import (
	"math"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// Walk flags of ScriptWalk, ScriptWalkRelative, ThrowActor and ScriptClimb.
const (
	walkBackPedal = 1 << 0
	walkAsync     = 1 << 1
	walkUseAngle  = 1 << 2
	walkFace      = 1 << 5

	facingMask = 0xf
)

// Cycle flags of CycleFrames.
const (
	cyclePong    = 1 << 0
	cycleOnce    = 1 << 1
	cycleRandom  = 1 << 2
	cycleReverse = 1 << 3
)

// inventoryScene is the scene number of carried objects.
const inventoryScene = -1

// objSpriteBase is the first object sprite of the ITE sprite list.
const objSpriteBase = 9

// throwAcceleration is the fall acceleration of a thrown actor.
const throwAcceleration = -20

func actorID(id world.ID) vm.ActorID { return vm.ActorID(int16(id)) }

func (e *Engine) actor(c *call, id world.ID) *world.Actor {
	a := e.actors.Actor(id)
	if a == nil {
		e.log.Warn("invalid actor id", "actor", id.String(), "thread", c.t.ID)
	}
	return a
}

func (e *Engine) object(c *call, id world.ID) *world.Object {
	o := e.actors.Object(id)
	if o == nil {
		e.log.Warn("invalid object id", "object", id.String(), "thread", c.t.ID)
	}
	return o
}

// waitWalk blocks t until a finishes moving.
func (e *Engine) waitWalk(t *vm.Thread, a *world.Actor) {
	e.wait(t, vm.Walk(actorID(a.ID)))
}

// realLocation resolves a script walk target. With walkUseAngle, x is an
// angle in 1/256 turns and y a distance. The location of relativeTo, when
// it names an actor or object, is added.
func (e *Engine) realLocation(loc world.Location, relativeTo world.ID, flags int) world.Location {
	if flags&walkUseAngle != 0 {
		angle := float64(loc.X&0xff) * 2 * math.Pi / 256
		distance := float64(loc.Y)
		loc.X = int(math.Round(distance * math.Cos(angle)))
		loc.Y = int(math.Round(distance * math.Sin(angle)))
	}
	if relativeTo == world.Nothing {
		return loc
	}
	if a := e.actors.Actor(relativeTo); a != nil {
		loc.X += a.Location.X
		loc.Y += a.Location.Y
	} else if o := e.actors.Object(relativeTo); o != nil {
		loc.X += o.Location.X
		loc.Y += o.Location.Y
	}
	return loc
}

func (e *Engine) sfTakeObject(c *call) error {
	o := e.object(c, c.id())
	if o == nil {
		return nil
	}
	if o.Scene != inventoryScene {
		o.Scene = inventoryScene
		e.inv.Carry(o.ID)
	}
	return nil
}

func (e *Engine) sfIsCarried(c *call) error {
	o := e.actors.Object(c.id())
	c.retBool(o != nil && o.Scene == inventoryScene)
	return nil
}

func (e *Engine) sfDropObject(c *call) error {
	id := c.id()
	sprite := c.int()
	x := c.int()
	y := c.int()
	o := e.object(c, id)
	if o == nil {
		return nil
	}
	if o.Scene == inventoryScene {
		e.inv.Drop(o.ID)
	}
	o.Scene = e.scenes.SceneNumber()
	o.Sprite = e.spriteID(sprite)
	o.Location.X = x
	o.Location.Y = y
	return nil
}

func (e *Engine) spriteID(n int) int {
	if e.titleIs(opcode.IHNM) {
		return n
	}
	return objSpriteBase + n
}

func (e *Engine) sfSetObjImage(c *call) error {
	o := e.object(c, c.id())
	sprite := c.int()
	if o != nil {
		o.Sprite = e.spriteID(sprite)
	}
	return nil
}

func (e *Engine) sfGetObjImage(c *call) error {
	o := e.object(c, c.id())
	if o == nil {
		c.ret(0)
		return nil
	}
	if e.titleIs(opcode.IHNM) {
		c.ret(int32(o.Sprite))
	} else {
		c.ret(int32(o.Sprite - objSpriteBase))
	}
	return nil
}

func (e *Engine) sfSetObjName(c *call) error {
	o := e.object(c, c.id())
	name := c.int()
	if o != nil {
		o.NameIndex = name
	}
	return nil
}

func (e *Engine) sfScriptWalkTo(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	if a == nil {
		return nil
	}
	a.Set(world.FlagFollower, false)
	if e.actors.WalkTo(a.ID, world.Location{X: x, Y: y, Z: a.Location.Z}) {
		e.waitWalk(c.t, a)
	}
	return nil
}

func (e *Engine) sfScriptWalkToAsync(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	if a == nil {
		return nil
	}
	a.Set(world.FlagFollower, false)
	e.actors.WalkTo(a.ID, world.Location{X: x, Y: y, Z: a.Location.Z})
	return nil
}

func (e *Engine) sfScriptWalk(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	flags := int(uint16(c.int()))
	if a == nil {
		return nil
	}
	e.walk(c, a, world.Location{X: x, Y: y, Z: a.Location.Z}, world.Nothing, flags)
	return nil
}

func (e *Engine) sfScriptWalkRelative(c *call) error {
	a := e.actor(c, c.id())
	rel := c.id()
	x := c.int()
	y := c.int()
	flags := int(uint16(c.int()))
	if a == nil {
		return nil
	}
	e.walk(c, a, world.Location{X: x, Y: y, Z: a.Location.Z}, rel, flags)
	return nil
}

func (e *Engine) walk(c *call, a *world.Actor, loc world.Location, rel world.ID, flags int) {
	loc = e.realLocation(loc, rel, flags)
	a.Set(world.FlagFollower, false)
	if e.actors.WalkTo(a.ID, loc) && flags&walkAsync == 0 {
		e.waitWalk(c.t, a)
	}
	if flags&walkBackPedal != 0 {
		a.Set(world.FlagBackwards, true)
	}
	a.Set(world.FlagFaceRequired, flags&walkFace != 0)
	a.FacingMask = flags & facingMask
}

func (e *Engine) sfScriptMoveRelative(c *call) error {
	a := e.actor(c, c.id())
	rel := c.id()
	x := c.int()
	y := c.int()
	flags := int(uint16(c.int()))
	if a == nil {
		return nil
	}
	a.Location = e.realLocation(world.Location{X: x, Y: y, Z: a.Location.Z}, rel, flags)
	a.FacingMask = flags & facingMask
	return nil
}

func (e *Engine) sfScriptSpecialWalk(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	seq := c.int()
	if a == nil {
		return nil
	}
	e.actors.WalkTo(a.ID, world.Location{X: x, Y: y, Z: a.Location.Z})
	a.WalkSequence = seq
	return nil
}

func (e *Engine) sfScriptMoveTo(c *call) error {
	id := c.id()
	x := c.int()
	y := c.int()
	if a := e.actors.Actor(id); a != nil {
		a.Location.X = x
		a.Location.Y = y
	} else if o := e.actors.Object(id); o != nil {
		o.Location.X = x
		o.Location.Y = y
	}
	return nil
}

func (e *Engine) sfSetActorZ(c *call) error {
	id := c.id()
	z := c.int()
	if a := e.actors.Actor(id); a != nil {
		a.Location.Z = z
	} else if o := e.actors.Object(id); o != nil {
		o.Location.Z = z
	}
	return nil
}

func (e *Engine) sfThrowActor(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	c.int()
	cycle := c.int()
	flags := c.int()
	if a == nil {
		return nil
	}
	e.actors.Throw(a.ID, world.Location{X: x, Y: y, Z: a.Location.Z}, cycle)
	a.FallAcceleration = throwAcceleration
	a.FallVelocity = -(a.FallAcceleration * cycle) / 2
	a.ActionCycle--
	if flags&walkAsync == 0 {
		e.waitWalk(c.t, a)
	}
	return nil
}

func (e *Engine) sfScriptClimb(c *call) error {
	a := e.actor(c, c.id())
	z := c.int()
	seq := c.int()
	flags := int(uint16(c.int()))
	if a == nil {
		return nil
	}
	a.Set(world.FlagFollower, false)
	e.actors.Climb(a.ID, z, seq)
	a.ActionCycle = 1
	if flags&walkAsync == 0 {
		e.waitWalk(c.t, a)
	}
	return nil
}

func (e *Engine) sfWaitWalk(c *call) error {
	a := e.actor(c, c.id())
	if a == nil {
		return nil
	}
	switch a.Action {
	case world.ActionWalkToPoint, world.ActionWalkToLink, world.ActionFall:
		e.waitWalk(c.t, a)
	}
	return nil
}

func (e *Engine) sfSetActorFacing(c *call) error {
	a := e.actor(c, c.id())
	dir := c.int()
	if a == nil {
		return nil
	}
	a.Facing = dir
	a.ActionDirection = dir
	a.Target = world.Nothing
	return nil
}

func (e *Engine) sfFaceTowards(c *call) error {
	a := e.actor(c, c.id())
	target := c.id()
	if a != nil {
		a.Target = target
	}
	return nil
}

func (e *Engine) sfSetFollower(c *call) error {
	a := e.actor(c, c.id())
	target := c.id()
	if a == nil {
		return nil
	}
	a.Target = target
	a.Set(world.FlagFollower, target != world.Nothing)
	return nil
}

func (e *Engine) sfSetActorState(c *call) error {
	a := e.actor(c, c.id())
	action := world.Action(c.int())
	if a == nil {
		return nil
	}
	if action == world.ActionWalkToPoint {
		e.sched.WakeAll(vm.Walk(actorID(a.ID)))
	}
	a.Action = action
	a.Set(world.FlagBackwards, false)
	return nil
}

func (e *Engine) sfCycleFrames(c *call) error {
	a := e.actor(c, c.id())
	flags := c.int()
	seq := c.int()
	delay := c.int()
	if a == nil {
		return nil
	}
	if flags&cyclePong != 0 {
		a.Action = world.ActionPongFrames
	} else {
		a.Action = world.ActionCycleFrames
	}
	a.Set(world.FlagCycleOnce, flags&cycleOnce != 0)
	a.Set(world.FlagCycleRandom, flags&cycleRandom != 0)
	a.Set(world.FlagCycleReverse, flags&cycleReverse != 0)
	a.Set(world.FlagBackwards, flags&cycleReverse != 0)
	a.CycleSequence = seq
	a.CycleDelay = delay
	a.ActionCycle = 0
	return nil
}

func (e *Engine) sfSetFrame(c *call) error {
	a := e.actor(c, c.id())
	frameType := c.int()
	offset := c.int()
	if a == nil {
		return nil
	}
	r, ok := a.FrameRange(frameType)
	if !ok {
		e.log.Warn("invalid frame type", "actor", a.ID.String(), "type", frameType)
	}
	a.Frame = r.Index + offset
	if a.Action != world.ActionFall {
		a.Action = world.ActionFreeze
	}
	return nil
}

func (e *Engine) sfPlaceActor(c *call) error {
	a := e.actor(c, c.id())
	x := c.int()
	y := c.int()
	dir := c.int()
	frameType := c.int()
	offset := c.int()
	if a == nil {
		return nil
	}
	a.Location.X = x
	a.Location.Y = y
	a.Facing = dir
	a.ActionDirection = dir
	if frameType >= 0 {
		r, ok := a.FrameRange(frameType)
		if !ok || r.Count <= offset {
			e.log.Warn("wrong frame offset", "actor", a.ID.String(), "type", frameType, "offset", offset)
		}
		a.Frame = r.Index + offset
		a.Action = world.ActionFreeze
	} else {
		a.Action = world.ActionWait
	}
	a.Target = world.Nothing
	return nil
}

func (e *Engine) sfSwapActors(c *call) error {
	a1 := e.actor(c, c.id())
	a2 := e.actor(c, c.id())
	if a1 == nil || a2 == nil {
		return nil
	}
	a1.Location, a2.Location = a2.Location, a1.Location
	switch {
	case a1.Has(world.FlagProtagonist):
		e.actors.SetProtagonist(a2.ID)
		e.actors.CenterOn(a2.ID)
	case a2.Has(world.FlagProtagonist):
		e.actors.SetProtagonist(a1.ID)
		e.actors.CenterOn(a1.ID)
	}
	return nil
}

func (e *Engine) sfChangeActorScene(c *call) error {
	a := e.actor(c, c.id())
	scene := c.int()
	if a != nil {
		a.Scene = scene
	}
	return nil
}

func (e *Engine) sfGetActorX(c *call) error {
	if a := e.actor(c, c.id()); a != nil {
		c.ret(int32(a.Location.X >> 2))
	}
	return nil
}

func (e *Engine) sfGetActorY(c *call) error {
	if a := e.actor(c, c.id()); a != nil {
		c.ret(int32(a.Location.Y >> 2))
	}
	return nil
}

func (e *Engine) sfDoCenterActor(c *call) error {
	if a := e.actor(c, c.id()); a != nil {
		e.actors.CenterOn(a.ID)
	}
	return nil
}

func (e *Engine) sfSetProtagState(c *call) error {
	e.actors.SetProtagState(c.int())
	return nil
}

// sfScriptDoAction runs the script entry point of an object, actor or zone
// on a new thread. The thread is spawned by the event queue.
func (e *Engine) sfScriptDoAction(c *call) error {
	id := c.id()
	action := c.int32()
	theObject := c.int32()
	withObject := c.int32()

	var module, entry int
	switch id.Type() {
	case world.TypeObject:
		o := e.object(c, id)
		if o == nil || o.ScriptEntry <= 0 {
			return nil
		}
		entry = o.ScriptEntry
	case world.TypeActor:
		a := e.actor(c, id)
		if a == nil || a.ScriptEntry <= 0 {
			return nil
		}
		entry = a.ScriptEntry
		if !a.Has(world.FlagProtagonist) && !a.Has(world.FlagFollower) {
			module = e.scenes.SceneModule()
		}
	case world.TypeHitZone, world.TypeStepZone:
		z := e.scenes.Zone(id)
		if z == nil {
			return nil
		}
		entry = z.ScriptNumber
		module = e.scenes.SceneModule()
	default:
		return vm.NewInvalidIDError("object", int(id))
	}

	e.events.Queue(events.Record{
		Kind:     events.Oneshot,
		Category: events.Script,
		Op:       events.ExecNonBlocking,
		Params:   [events.NumParams]int32{int32(module), int32(entry), action, theObject, withObject, int32(id)},
	})
	return nil
}

func (e *Engine) sfScriptGotoScene(c *call) error {
	scene := c.int()
	entrance := c.int()

	if (e.titleIs(opcode.ITE) && scene < 0) || (e.titleIs(opcode.IHNM) && scene == 0) {
		e.Terminate()
		return nil
	}
	if e.screen.Panel() == display.PanelConverse {
		e.screen.SetPanel(display.PanelMain)
	}
	if err := e.changeScene(scene, entrance); err != nil {
		e.log.Warn("scene change failed", "scene", scene, "entrance", entrance, "error", err)
	}
	switch e.screen.Panel() {
	case display.PanelPlacard, display.PanelCutaway, display.PanelVideo:
		e.screen.ShowCursor(true)
		e.screen.SetPanel(display.PanelMain)
	}
	e.screen.SetStatus("")
	return nil
}

func (e *Engine) sfVsetTrack(c *call) error {
	chapter := c.int()
	scene := c.int()
	entrance := c.int()
	e.scenes.SetChapter(chapter)
	if err := e.changeScene(scene, entrance); err != nil {
		e.log.Warn("scene change failed", "chapter", chapter, "scene", scene, "error", err)
	}
	return nil
}

// changeScene drops the pending event chains of the old scene and switches
// scenes. Threads waiting for a ThreadWake record that was dropped are
// released.
func (e *Engine) changeScene(scene, entrance int) error {
	var tags []string
	for _, n := range e.events.Pending() {
		if n.Record.Category == events.Script && n.Record.Op == events.ThreadWake {
			tags = append(tags, n.Record.Tag)
		}
	}
	e.events.Clear()
	for _, tag := range tags {
		e.sched.WakeAll(vm.Named(tag))
	}
	return e.scenes.ChangeScene(scene, entrance)
}

func (e *Engine) sfSceneEq(c *call) error {
	c.retBool(c.int() == e.scenes.SceneNumber())
	return nil
}

func (e *Engine) sfScriptSceneID(c *call) error {
	c.ret(int32(e.scenes.SceneNumber()))
	return nil
}

func (e *Engine) sfScriptOpenDoor(c *call) error {
	e.scenes.SetDoorState(c.int(), 0)
	return nil
}

func (e *Engine) sfScriptCloseDoor(c *call) error {
	e.scenes.SetDoorState(c.int(), world.DoorClosed)
	return nil
}

func (e *Engine) sfSetDoorState(c *call) error {
	door := c.int()
	state := c.int()
	e.scenes.SetDoorState(door, state)
	return nil
}

func (e *Engine) sfEnableZone(c *call) error {
	id := c.id()
	flag := c.bool()
	if id.Type() == world.TypeNone {
		return nil
	}
	if z := e.scenes.Zone(id); z != nil {
		z.Enabled = flag
	}
	return nil
}
