// Package engine hosts the script runtime of a SAGA game: it owns the
// scheduler, the event queue and the global script state, binds the native
// function catalog to the world, display and audio collaborators, and
// advances everything one tick at a time.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// ErrTerminated is returned by Tick when the session ends normally.
var ErrTerminated = errors.New("engine terminated")

// DefaultTickRate is the number of ticks per second.
const DefaultTickRate = 60

// Engine is the script runtime context. It is driven from a single
// goroutine and is not safe for concurrent use.
type Engine struct {
	title   opcode.Title
	log     *slog.Logger
	session uuid.UUID
	modules []*vm.Module
	table   *vm.OpcodeTable
	sched   *vm.Scheduler
	events  *events.Queue
	random  *rand.Rand

	actors  Actors
	inv     Inventory
	scenes  Scenes
	anims   Animations
	screen  Screen
	palette Palette
	music   Music
	sounds  Sounds
	strings Strings

	tickRate     int
	stackDepth   int
	frameDepth   int
	maxSteps     int
	maxTicks     int64
	timeout      time.Duration
	exitWhenIdle bool

	tick       int64
	frame      int64
	terminated bool
	globals    globals
	conversing *vm.Thread
	replies    []Reply

	placardText   int
	placardPanel  display.Panel
	demoHelpLines int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The engine tags it with the session id.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSession sets the session id instead of generating one.
func WithSession(id uuid.UUID) Option {
	return func(e *Engine) { e.session = id }
}

// WithSeed makes Rand deterministic.
func WithSeed(seed uint64) Option {
	return func(e *Engine) { e.random = rand.New(rand.NewPCG(seed, seed)) }
}

// WithTickRate sets the number of ticks per second used to convert
// millisecond durations.
func WithTickRate(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.tickRate = n
		}
	}
}

// WithLimits sets the per-thread stack and frame depth and the per-tick
// instruction budget. Zero keeps the default.
func WithLimits(stackDepth, frameDepth, maxSteps int) Option {
	return func(e *Engine) {
		e.stackDepth = stackDepth
		e.frameDepth = frameDepth
		e.maxSteps = maxSteps
	}
}

// WithMaxTicks ends the session after n ticks. Zero means no limit.
func WithMaxTicks(n int64) Option {
	return func(e *Engine) { e.maxTicks = n }
}

// WithTimeout ends the session after d of game time.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithExitWhenIdle ends the session once no thread is left and no event is
// pending.
func WithExitWhenIdle(exit bool) Option {
	return func(e *Engine) { e.exitWhenIdle = exit }
}

// WithWorld binds the actor, inventory, scene and animation collaborators
// to w.
func WithWorld(w *world.World) Option {
	return func(e *Engine) {
		e.actors = w
		e.inv = w
		e.scenes = w
		e.anims = w.Animations()
	}
}

// WithDisplay binds the screen and palette collaborators to d.
func WithDisplay(d *display.Display) Option {
	return func(e *Engine) {
		e.screen = d
		e.palette = d.Palette()
	}
}

// WithActors sets the actor collaborator.
func WithActors(a Actors) Option { return func(e *Engine) { e.actors = a } }

// WithInventory sets the inventory collaborator.
func WithInventory(i Inventory) Option { return func(e *Engine) { e.inv = i } }

// WithScenes sets the scene collaborator.
func WithScenes(s Scenes) Option { return func(e *Engine) { e.scenes = s } }

// WithAnimations sets the animation collaborator.
func WithAnimations(a Animations) Option { return func(e *Engine) { e.anims = a } }

// WithScreen sets the screen collaborator.
func WithScreen(s Screen) Option { return func(e *Engine) { e.screen = s } }

// WithPalette sets the palette collaborator.
func WithPalette(p Palette) Option { return func(e *Engine) { e.palette = p } }

// WithMusic sets the music collaborator.
func WithMusic(m Music) Option {
	return func(e *Engine) {
		if m != nil {
			e.music = m
		}
	}
}

// WithSounds sets the sound collaborator.
func WithSounds(s Sounds) Option {
	return func(e *Engine) {
		if s != nil {
			e.sounds = s
		}
	}
}

// WithStrings sets the string table collaborator.
func WithStrings(s Strings) Option {
	return func(e *Engine) {
		if s != nil {
			e.strings = s
		}
	}
}

// New creates an engine running modules with the opcode layout of title.
// Collaborators not supplied through options default to an empty in-memory
// world and display and silent audio.
func New(title opcode.Title, modules []*vm.Module, opts ...Option) (*Engine, error) {
	now := uint64(time.Now().UnixNano())
	e := &Engine{
		title:    title,
		log:      slog.Default(),
		modules:  modules,
		random:   rand.New(rand.NewPCG(now, now)),
		music:    silence{},
		sounds:   silence{},
		strings:  noStrings{},
		tickRate: DefaultTickRate,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.session == uuid.Nil {
		e.session = uuid.New()
	}
	e.log = e.log.With("session", e.session.String())

	if e.actors == nil || e.inv == nil || e.scenes == nil || e.anims == nil {
		w := world.New()
		WithWorld(w)(e)
	}
	if e.screen == nil || e.palette == nil {
		WithDisplay(display.New(display.WithLogger(e.log)))(e)
	}
	if e.timeout > 0 {
		e.maxTicks = e.msToTicks(int(e.timeout / time.Millisecond))
	}

	table, err := vm.NewOpcodeTable(title, e.natives(), e.sfNull)
	if err != nil {
		return nil, err
	}
	e.table = table

	vmOpts := []vm.Option{
		vm.WithLogger(e.log),
		vm.WithStackDepth(e.stackDepth),
		vm.WithFrameDepth(e.frameDepth),
		vm.WithMaxStepsPerTick(e.maxSteps),
	}
	e.sched = vm.NewScheduler(vm.NewInterpreter(table, append(vmOpts, vm.WithDialog(e))...), vmOpts...)
	e.events = events.New(func() int64 { return e.tick }, events.WithLogger(e.log))
	e.globals.reset()

	e.log.Info("engine created", "title", string(title), "modules", len(modules))
	return e, nil
}

// Title returns the game title.
func (e *Engine) Title() opcode.Title { return e.title }

// Session returns the session id.
func (e *Engine) Session() uuid.UUID { return e.session }

// Table returns the opcode table.
func (e *Engine) Table() *vm.OpcodeTable { return e.table }

// Ticks returns the number of ticks run so far.
func (e *Engine) Ticks() int64 { return e.tick }

// Frame returns the frame counter.
func (e *Engine) Frame() int64 { return e.frame }

// Scheduler returns the thread scheduler.
func (e *Engine) Scheduler() *vm.Scheduler { return e.sched }

// Events returns the event queue.
func (e *Engine) Events() *events.Queue { return e.events }

// Terminated reports whether the session has ended.
func (e *Engine) Terminated() bool { return e.terminated }

// Terminate ends the session. The next Tick returns ErrTerminated.
func (e *Engine) Terminate() {
	if !e.terminated {
		e.log.Info("engine terminated", "tick", e.tick)
	}
	e.terminated = true
}

// Tick advances the runtime by one tick: every runnable thread runs until
// it blocks, then due events fire, then expired timer waits are released so
// those threads resume on the next tick.
func (e *Engine) Tick() error {
	if e.terminated {
		return ErrTerminated
	}
	e.tick++
	e.frame++

	if err := e.sched.Run(e.tick); err != nil {
		return fmt.Errorf("tick %d: %w", e.tick, err)
	}
	if err := e.events.Drain(e.tick, e); err != nil {
		return fmt.Errorf("tick %d: %w", e.tick, err)
	}
	e.sched.ReleaseTimers(e.tick, e.frame)

	switch {
	case e.maxTicks > 0 && e.tick >= e.maxTicks:
		e.log.Info("tick limit reached", "ticks", e.tick)
		e.Terminate()
	case e.exitWhenIdle && e.sched.Len() == 0 && e.events.Empty():
		e.log.Info("all threads finished", "tick", e.tick)
		e.Terminate()
	}
	if e.terminated {
		return ErrTerminated
	}
	return nil
}

// Spawn starts a thread at entry of a loaded module. args are pushed in
// order before the thread first runs; it runs from the next tick.
func (e *Engine) Spawn(module, entry int, args []int32, owner vm.ActorID) (*vm.Thread, error) {
	if module < 0 || module >= len(e.modules) {
		return nil, vm.NewResourceRangeError("module", module, len(e.modules))
	}
	return e.sched.Spawn(e.modules[module], module, entry, args, owner)
}

// Queue adds an event chain head.
func (e *Engine) Queue(rec events.Record) events.Handle { return e.events.Queue(rec) }

// Chain links rec after the chain containing h.
func (e *Engine) Chain(h events.Handle, rec events.Record) (events.Handle, error) {
	return e.events.Chain(h, rec)
}

// Wake clears t's wait if it matches c.
func (e *Engine) Wake(t *vm.Thread, c vm.WaitCondition) bool { return e.sched.Wake(t, c) }

// WakeAll clears every wait matching c.
func (e *Engine) WakeAll(c vm.WaitCondition) int { return e.sched.WakeAll(c) }

// KillThreadsOf aborts every thread owned by actor except caller.
func (e *Engine) KillThreadsOf(actor vm.ActorID, caller *vm.Thread) int {
	return e.sched.KillThreadsOf(actor, caller)
}

// NotifyWalkDone releases threads waiting for actor to arrive.
func (e *Engine) NotifyWalkDone(actor world.ID) {
	e.sched.WakeAll(vm.Walk(actorID(actor)))
}

// NotifySpeechDone releases threads waiting for the current speech.
func (e *Engine) NotifySpeechDone() {
	e.sched.WakeAll(vm.Speech())
}

// msToTicks converts a millisecond duration to ticks, rounding up.
func (e *Engine) msToTicks(ms int) int64 {
	if ms <= 0 {
		return 0
	}
	return (int64(ms)*int64(e.tickRate) + 999) / 1000
}

// wait blocks t on c, warning when an earlier wait is overwritten.
func (e *Engine) wait(t *vm.Thread, c vm.WaitCondition) {
	if prev, replaced := t.Wait(c); replaced {
		e.log.Warn("thread wait replaced", "thread", t.ID, "previous", prev.String(), "wait", c.String())
	}
}

// text resolves a string of the module t runs.
func (e *Engine) text(t *vm.Thread, id int) string {
	s, ok := e.strings.String(t.ModuleIndex, id)
	if !ok {
		e.log.Warn("missing script string", "module", t.ModuleIndex, "string", id, "thread", t.ID)
	}
	return s
}
