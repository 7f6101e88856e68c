package engine

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
)

// Script control, interface and bookkeeping natives.

func (e *Engine) sfPutString(c *call) error {
	e.log.Debug("script print", "thread", c.t.ID, "text", e.text(c.t, c.int()))
	return nil
}

func (e *Engine) sfWait(c *call) error {
	n := c.int()
	if !e.globals.SkipSpeeches {
		e.wait(c.t, vm.Delay(e.tick+int64(n)))
	}
	return nil
}

func (e *Engine) sfWaitFrames(c *call) error {
	n := c.int()
	if !e.globals.SkipSpeeches {
		e.wait(c.t, vm.Frames(e.frame+int64(n)))
	}
	return nil
}

func (e *Engine) sfWaitFramesEsc(c *call) error {
	c.ret(int32(e.globals.FramesEsc))
	return nil
}

func (e *Engine) sfStatusBar(c *call) error {
	e.screen.SetStatus(e.text(c.t, c.int()))
	return nil
}

func (e *Engine) sfMainMode(c *call) error {
	if p := e.actors.Protagonist(); p != nil {
		e.actors.CenterOn(p.ID)
	}
	e.screen.Activate()
	e.screen.SetPanel(display.PanelMain)
	return nil
}

func (e *Engine) sfLockUser(c *call) error {
	if c.bool() {
		e.screen.Deactivate()
	} else {
		e.screen.Activate()
	}
	return nil
}

func (e *Engine) sfPreDialog(c *call) error {
	e.screen.Deactivate()
	e.screen.ConverseClear()
	e.screen.SetPanel(display.PanelNull)
	return nil
}

func (e *Engine) sfKillActorThreads(c *call) error {
	actor := c.actor()
	if n := e.sched.KillThreadsOf(actor, c.t); n > 0 {
		e.log.Debug("killed actor threads", "actor", actor, "count", n)
	}
	return nil
}

// sfGetNumber reads a number from the status line. The first call opens the
// input prompt and blocks; the call is repeated once the input is submitted
// or aborted and then returns the number, or -1 when aborted.
func (e *Engine) sfGetNumber(c *call) error {
	switch e.globals.Input {
	case inputIdle, inputPending:
		e.globals.Input = inputPending
		e.globals.InputText = ""
		e.screen.BeginStatusInput()
		e.wait(c.t, vm.Named(vm.TagStatusTextInput))
		c.retry()
	case inputAborted:
		c.ret(-1)
		e.globals.Input = inputIdle
	default:
		n, _ := strconv.Atoi(strings.TrimSpace(e.globals.InputText))
		c.ret(int32(n))
		e.globals.Input = inputIdle
		e.globals.InputText = ""
	}
	return nil
}

// SubmitStatusInput completes a pending status-line input with text.
func (e *Engine) SubmitStatusInput(text string) {
	if e.globals.Input != inputPending {
		return
	}
	e.globals.Input = inputEntered
	e.globals.InputText = text
	e.screen.EndStatusInput()
	e.sched.WakeAll(vm.Named(vm.TagStatusTextInput))
}

// AbortStatusInput cancels a pending status-line input.
func (e *Engine) AbortStatusInput() {
	if e.globals.Input != inputPending {
		return
	}
	e.globals.Input = inputAborted
	e.globals.InputText = ""
	e.screen.EndStatusInput()
	e.sched.WakeAll(vm.Named(vm.TagStatusTextInput))
}

func (e *Engine) sfCheckUserInterrupt(c *call) error {
	c.retBool(e.globals.SkipSpeeches)
	return nil
}

func (e *Engine) sfEnableEscape(c *call) error {
	if c.bool() {
		e.globals.AbortEnabled = true
	} else {
		e.globals.SkipSpeeches = false
		e.globals.AbortEnabled = false
	}
	return nil
}

func (e *Engine) sfDisableAbortSpeeches(c *call) error {
	e.globals.AbortSpeechesDisabled = c.bool()
	return nil
}

// SkipSpeeches is called when the player presses escape. It has no effect
// while scripts disable escape.
func (e *Engine) SkipSpeeches() {
	if e.globals.AbortEnabled && !e.globals.AbortSpeechesDisabled {
		e.globals.SkipSpeeches = true
		e.globals.FramesEsc++
	}
}

// ResumeSpeeches clears the skip flag once the player is back in control.
func (e *Engine) ResumeSpeeches() { e.globals.SkipSpeeches = false }

func (e *Engine) sfRand(c *call) error {
	n := c.int()
	if n <= 0 {
		c.ret(0)
		return nil
	}
	c.ret(int32(e.random.IntN(n)))
	return nil
}

func (e *Engine) sfSetGlobalFlag(c *call) error {
	e.globals.Flags.Set(c.int())
	return nil
}

func (e *Engine) sfClearGlobalFlag(c *call) error {
	e.globals.Flags.Clear(c.int())
	return nil
}

func (e *Engine) sfTestGlobalFlag(c *call) error {
	c.retBool(e.globals.Flags.Test(c.int()))
	return nil
}

// GlobalFlags returns the global flag word.
func (e *Engine) GlobalFlags() GlobalFlags { return e.globals.Flags }

func (e *Engine) sfGetPoints(c *call) error {
	i := c.int()
	if i < 0 || i >= NumEthicsPoints {
		c.ret(0)
		return nil
	}
	c.ret(int32(e.globals.Ethics[i]))
	return nil
}

func (e *Engine) sfSetPoints(c *call) error {
	i := c.int()
	p := c.int()
	if i < 0 || i >= NumEthicsPoints {
		e.log.Warn("point index out of range", "index", i, "thread", c.t.ID)
		return nil
	}
	e.globals.Ethics[i] = int16(p)
	return nil
}

func (e *Engine) sfSetChapterPoints(c *call) error {
	ethics := c.int()
	barometer := c.int()
	chapter := e.scenes.Chapter()
	if chapter >= 0 && chapter < NumEthicsPoints {
		e.globals.Ethics[chapter] = int16(ethics)
	}
	if barometer != 0 {
		e.globals.Barometer = ethics * 256 / barometer
	}
	e.globals.ChapterPointsChanged = true
	return nil
}

// Barometer returns the spiritual barometer set by SetChapterPoints.
func (e *Engine) Barometer() int { return e.globals.Barometer }

// portraitBgIndex is the palette entry behind the portraits.
const portraitBgIndex = 254

func (e *Engine) sfSetPortraitBgColor(c *call) error {
	r := c.int()
	g := c.int()
	b := c.int()
	e.palette.SetColor(portraitBgIndex, color.RGBA{uint8(r << 2), uint8(g << 2), uint8(b << 2), 0xff})
	return nil
}

func (e *Engine) sfSetSpeechBox(c *call) error {
	l := c.int()
	t := c.int()
	r := c.int()
	b := c.int()
	e.screen.SetSpeechBox(image.Rect(l, t, r, b))
	return nil
}

func (e *Engine) sfDebugShowData(c *call) error {
	e.screen.SetStatus(fmt.Sprintf("Reached breakpoint %d", c.int()))
	return nil
}

func (e *Engine) sfGetMouseClicks(c *call) error {
	c.ret(int32(e.globals.MouseClicks))
	return nil
}

func (e *Engine) sfResetMouseClicks(c *call) error {
	e.globals.MouseClicks = 0
	return nil
}

// Click counts a mouse click for GetMouseClicks.
func (e *Engine) Click() { e.globals.MouseClicks++ }

func (e *Engine) sfShowControls(c *call) error {
	return nil
}

func (e *Engine) sfShowMap(c *call) error {
	e.screen.SetPanel(display.PanelMap)
	return nil
}

func (e *Engine) sfPuzzleWon(c *call) error {
	c.retBool(e.globals.PuzzleWon)
	return nil
}

// SetPuzzleWon records the outcome of the puzzle minigame.
func (e *Engine) SetPuzzleWon(won bool) { e.globals.PuzzleWon = won }

// sfShowProtect would show the copy protection prompt. Protection is never
// enforced, so it returns immediately.
func (e *Engine) sfShowProtect(c *call) error {
	return nil
}

func (e *Engine) sfProtectResult(c *call) error {
	c.ret(c.int32())
	return nil
}

func (e *Engine) sfScriptStartCutAway(c *call) error {
	cut := c.int()
	c.int()
	fade := c.int()
	e.log.Debug("cutaway started", "cutaway", cut, "fade", fade)
	e.screen.RememberPanel()
	e.screen.SetPanel(display.PanelCutaway)
	return nil
}

func (e *Engine) sfReturnFromCutAway(c *call) error {
	if e.endCutaway() {
		e.wait(c.t, vm.Named(vm.TagWakeUp))
	}
	return nil
}

func (e *Engine) sfEndCutAway(c *call) error {
	e.endCutaway()
	return nil
}

// endCutaway returns from a cutaway or video and reports whether one was
// showing. Threads waiting on the wake-up tag resume after the next drain.
func (e *Engine) endCutaway() bool {
	if p := e.screen.Panel(); p != display.PanelCutaway && p != display.PanelVideo {
		return false
	}
	e.screen.RestorePanel()
	e.events.Queue(events.Record{
		Kind:     events.Oneshot,
		Category: events.Script,
		Op:       events.ThreadWake,
		Tag:      vm.TagWakeUp,
	})
	return true
}

func (e *Engine) sfScriptStartVideo(c *call) error {
	vid := c.int()
	fade := c.int()
	e.log.Debug("video started", "video", vid, "fade", fade)
	e.screen.RememberPanel()
	e.screen.SetPanel(display.PanelVideo)
	return nil
}

func (e *Engine) sfScriptReturnFromVideo(c *call) error {
	e.endCutaway()
	return nil
}

func (e *Engine) sfScriptEndVideo(c *call) error {
	e.endCutaway()
	return nil
}

func (e *Engine) sfShowDemoHelpBg(c *call) error {
	e.screen.SetPanel(display.PanelConverse)
	return nil
}

// demoHelpLine is the height of one demo help line in pixels.
const demoHelpLine = 10

func (e *Engine) sfAddDemoHelpTextLine(c *call) error {
	s := e.text(c.t, c.int())
	id := e.screen.AddText(display.Text{
		Text:     s,
		X:        e.screen.Width() / 2,
		Y:        60 + e.demoHelpLines*demoHelpLine,
		Color:    15,
		Centered: true,
		Converse: true,
	})
	e.demoHelpLines++
	e.events.Queue(events.Record{
		Kind:     events.Oneshot,
		Category: events.Text,
		Op:       events.Display,
		Params:   [events.NumParams]int32{int32(id)},
	})
	return nil
}

func (e *Engine) sfShowDemoHelpPage(c *call) error {
	e.demoHelpLines = 0
	e.screen.SetPanel(display.PanelPlacard)
	return nil
}

func (e *Engine) sfDemoSetInteractive(c *call) error {
	if !c.bool() {
		e.screen.Deactivate()
		e.screen.SetPanel(display.PanelNull)
	}
	return nil
}

func (e *Engine) sfDemoIsInteractive(c *call) error {
	c.ret(0)
	return nil
}

// titleIs reports whether the engine runs t.
func (e *Engine) titleIs(t opcode.Title) bool { return e.title == t }
