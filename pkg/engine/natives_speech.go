package engine

import (
	"slices"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
)

// maxSpeechActors bounds the actors of one simultaneous speech.
const maxSpeechActors = 8

// maxVoice is the highest valid voice sample id.
const maxVoice = 4000

// ihnmUnvoicedStrings is the first IHNM string id that has no voice.
const ihnmUnvoicedStrings = 338

// placardColor is the fill color behind placard text.
const placardColor = 138

// placardTextColor is the palette entry of placard text.
const placardTextColor = 15

// normalFadeMillis is the length of a placard or script palette fade.
const normalFadeMillis = 320

func (e *Engine) fadeTicks() int64 { return e.msToTicks(normalFadeMillis) }

func (e *Engine) sfSimulSpeech(c *call) error { return e.simulSpeech(c, false) }

func (e *Engine) sfSimulSpeech2(c *call) error { return e.simulSpeech(c, true) }

func (e *Engine) simulSpeech(c *call, withFlags bool) error {
	strID := c.int()
	count := c.int()
	var flags int
	if withFlags {
		flags = c.int()
	}
	if count > maxSpeechActors {
		return vm.NewArgBoundError("speech actors", count, maxSpeechActors)
	}
	actors := make([]int, 0, max(count, 0))
	for range count {
		actors = append(actors, int(c.id()))
	}

	voice := -1
	if m := c.t.Module; m != nil && len(m.Voices) > 0 {
		if withFlags || !e.titleIs(opcode.IHNM) || strID < ihnmUnvoicedStrings {
			voice = m.Voice(strID)
		}
		if voice <= 0 || voice > maxVoice {
			voice = -1
		}
	}

	e.screen.Speak(display.Speech{
		Text:   e.text(c.t, strID),
		Actors: actors,
		Voice:  voice,
		Flags:  flags,
	})
	if voice > 0 {
		if err := e.sounds.PlayVoice(voice); err != nil {
			e.log.Warn("voice playback failed", "voice", voice, "error", err)
		}
	}
	e.wait(c.t, vm.Speech())
	return nil
}

func (e *Engine) sfScriptText(c *call) error {
	strID := c.int()
	flags := c.int()
	color := c.int()
	x := c.int()
	y := c.int()
	e.log.Debug("non-actor speech", "string", strID, "color", color, "x", x, "y", y)
	e.screen.Speak(display.Speech{Text: e.text(c.t, strID), Voice: -1, Flags: flags})
	return nil
}

func (e *Engine) sfSetPortrait(c *call) error {
	e.screen.SetPortrait(display.Right, c.int())
	return nil
}

func (e *Engine) sfSetProtagPortrait(c *call) error {
	e.screen.SetPortrait(display.Left, c.int())
	return nil
}

func (e *Engine) sfPlacard(c *call) error {
	e.wait(c.t, vm.Named(vm.TagPlacard))
	e.showPlacard(e.text(c.t, c.int()), display.FlagPlacard)
	return nil
}

func (e *Engine) sfPlacardOff(c *call) error {
	e.wait(c.t, vm.Named(vm.TagPlacard))
	e.clearPlacard(display.FlagPlacard)
	return nil
}

func (e *Engine) sfPsychicProfile(c *call) error {
	e.wait(c.t, vm.Named(vm.TagPlacard))
	e.showPlacard(e.text(c.t, c.int()), display.FlagPsychicProfile)
	return nil
}

func (e *Engine) sfPsychicProfileOff(c *call) error {
	e.wait(c.t, vm.Named(vm.TagPlacard))
	e.clearPlacard(display.FlagPsychicProfile)
	return nil
}

func (e *Engine) sceneHeight() int {
	if h := e.scenes.SceneHeight(); h > 0 {
		return h
	}
	return e.screen.Height()
}

// showPlacard queues the placard sequence: hide the cursor, fade to black,
// clear the scene, show text, fade back in and wake the placard waiters.
func (e *Engine) showPlacard(text string, flag uint32) {
	e.placardPanel = e.screen.Panel()
	e.screen.RememberPanel()
	e.screen.SetPanel(display.PanelPlacard)

	height := e.sceneHeight()
	e.placardText = e.screen.AddText(display.Text{
		Text:     text,
		X:        e.screen.Width() / 2,
		Y:        (height - display.TextHeight()) / 2,
		Color:    placardTextColor,
		Centered: true,
	})

	fade := e.fadeTicks()
	e.sequence(
		events.Record{Kind: events.Oneshot, Category: events.Cursor, Op: events.Hide},
		events.Record{Kind: events.Immediate, Category: events.Palette, Op: events.PalToBlack, Duration: fade},
		events.Record{Kind: events.Oneshot, Category: events.Interface, Op: events.ClearStatus, Duration: fade},
		events.Record{Kind: events.Oneshot, Category: events.Graphics, Op: events.SetFlag,
			Params: [events.NumParams]int32{int32(flag)}},
		events.Record{Kind: events.Oneshot, Category: events.Graphics, Op: events.FillRect,
			Params: [events.NumParams]int32{placardColor, 0, int32(height), 0, int32(e.screen.Width())}},
		events.Record{Kind: events.Oneshot, Category: events.Text, Op: events.Display,
			Params: [events.NumParams]int32{int32(e.placardText)}},
		events.Record{Kind: events.Immediate, Category: events.Palette, Op: events.BlackToPal, Duration: fade},
		events.Record{Kind: events.Oneshot, Category: events.Script, Op: events.ThreadWake, Duration: fade,
			Tag: vm.TagPlacard},
	)
}

// clearPlacard queues the reverse of showPlacard.
func (e *Engine) clearPlacard(flag uint32) {
	fade := e.fadeTicks()
	e.sequence(
		events.Record{Kind: events.Immediate, Category: events.Palette, Op: events.PalToBlack, Duration: fade},
		events.Record{Kind: events.Oneshot, Category: events.Graphics, Op: events.ClearFlag, Duration: fade,
			Params: [events.NumParams]int32{int32(flag)}},
		events.Record{Kind: events.Oneshot, Category: events.Text, Op: events.Remove,
			Params: [events.NumParams]int32{int32(e.placardText)}},
		events.Record{Kind: events.Oneshot, Category: events.Interface, Op: events.SetMode,
			Params: [events.NumParams]int32{int32(e.placardPanel)}},
		events.Record{Kind: events.Oneshot, Category: events.Cursor, Op: events.Show},
		events.Record{Kind: events.Immediate, Category: events.Palette, Op: events.BlackToPal, Duration: fade},
		events.Record{Kind: events.Oneshot, Category: events.Script, Op: events.ThreadWake, Duration: fade,
			Tag: vm.TagPlacard},
	)
}

// sequence queues recs as one chain.
func (e *Engine) sequence(recs ...events.Record) events.Handle {
	if len(recs) == 0 {
		return 0
	}
	head := e.events.Queue(recs[0])
	h := head
	for _, rec := range recs[1:] {
		var err error
		if h, err = e.events.Chain(h, rec); err != nil {
			e.log.Error("event chain broken", "event", rec.String(), "error", err)
			break
		}
	}
	return head
}

// Reply is a conversation reply offered to the player.
type Reply struct {
	ID   int32  `cbor:"1,keyasint"`
	Text string `cbor:"2,keyasint"`

	textID int
}

// replyMargin is the left edge of the reply list in pixels.
const replyMargin = 8

// DialogBegin makes t the conversing thread and clears the reply list. If
// another thread is conversing, t waits for that dialog to finish.
func (e *Engine) DialogBegin(t *vm.Thread) bool {
	if e.conversing != nil && e.conversing != t {
		e.wait(t, vm.Named(vm.TagDialogBegin))
		return false
	}
	e.conversing = t
	e.clearReplies()
	return true
}

// Reply adds a reply with the text of string str to the open dialog.
func (e *Engine) Reply(t *vm.Thread, id, str int) error {
	if t != e.conversing {
		e.log.Warn("reply outside a dialog", "thread", t.ID, "reply", id)
		return nil
	}
	e.addReply(Reply{ID: int32(id), Text: e.text(t, str)})
	return nil
}

func (e *Engine) addReply(r Reply) {
	r.textID = e.screen.AddText(display.Text{
		Text:     r.Text,
		X:        replyMargin,
		Y:        e.screen.Height()*2/3 + len(e.replies)*display.TextHeight(),
		Color:    15,
		Converse: true,
	})
	e.replies = append(e.replies, r)
}

// DialogEnd shows the reply list and blocks t until FinishDialog or
// ChooseReply. A dialog without replies closes at once with reply -1.
func (e *Engine) DialogEnd(t *vm.Thread) error {
	if t != e.conversing {
		e.log.Warn("dialog end outside a dialog", "thread", t.ID)
		return nil
	}
	if len(e.replies) == 0 {
		e.log.Warn("dialog without replies", "thread", t.ID)
		return e.closeDialog(-1)
	}
	for _, r := range e.replies {
		e.screen.ShowText(r.textID)
	}
	e.screen.Activate()
	e.screen.SetPanel(display.PanelConverse)
	e.wait(t, vm.Dialog())
	return nil
}

// Replies returns the replies of the open dialog in offer order.
func (e *Engine) Replies() []Reply {
	return slices.Clone(e.replies)
}

// ChooseReply completes the open dialog with the i-th offered reply.
func (e *Engine) ChooseReply(i int) error {
	if i < 0 || i >= len(e.replies) {
		return vm.NewResourceRangeError("reply", i, len(e.replies))
	}
	return e.FinishDialog(e.replies[i].ID)
}

// FinishDialog completes the open dialog with reply. The conversing thread
// finds reply on top of its stack when it resumes, and threads waiting to
// begin a dialog are released.
func (e *Engine) FinishDialog(reply int32) error {
	if t := e.conversing; t != nil && t.WaitCondition() == vm.Dialog() {
		e.screen.SetPanel(display.PanelNull)
		e.sched.Wake(t, vm.Dialog())
	}
	return e.closeDialog(reply)
}

func (e *Engine) closeDialog(reply int32) error {
	var err error
	if t := e.conversing; t != nil {
		err = t.Push(reply)
	}
	e.conversing = nil
	e.clearReplies()
	e.sched.WakeAll(vm.Named(vm.TagDialogBegin))
	return err
}

func (e *Engine) clearReplies() {
	e.screen.ConverseClear()
	e.replies = e.replies[:0]
}

// Conversing returns the thread waiting for a dialog reply, or nil.
func (e *Engine) Conversing() *vm.Thread { return e.conversing }
