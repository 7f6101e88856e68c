package engine

import (
	"fmt"
	"image"

	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/vm"
)

// Execute performs one due event record. It implements events.Executor.
func (e *Engine) Execute(rec *events.Record) error {
	p := rec.Params
	switch rec.Category {
	case events.Cursor:
		switch rec.Op {
		case events.Show:
			e.screen.ShowCursor(true)
		case events.Hide:
			e.screen.ShowCursor(false)
		default:
			return unknownEvent(rec)
		}

	case events.Graphics:
		switch rec.Op {
		case events.SetFlag:
			e.screen.SetFlag(uint32(p[0]))
		case events.ClearFlag:
			e.screen.ClearFlag(uint32(p[0]))
		case events.FillRect:
			// color, top, bottom, left, right
			e.screen.FillRect(image.Rect(int(p[3]), int(p[1]), int(p[4]), int(p[2])), int(p[0]))
		default:
			return unknownEvent(rec)
		}

	case events.Palette:
		switch rec.Op {
		case events.PalToBlack:
			e.palette.ToBlack(int(rec.Duration))
		case events.BlackToPal:
			e.palette.FromBlack(int(rec.Duration))
		case events.PalFade:
			e.palette.Fade(int(p[0]), int(p[1]), int(p[2]), int(p[3]), int(rec.Duration))
		default:
			return unknownEvent(rec)
		}

	case events.Text:
		var ok bool
		switch rec.Op {
		case events.Display:
			ok = e.screen.ShowText(int(p[0]))
		case events.Remove:
			ok = e.screen.RemoveText(int(p[0]))
		default:
			return unknownEvent(rec)
		}
		if !ok {
			return vm.NewInvalidIDError("text", int(p[0]))
		}

	case events.Interface:
		switch rec.Op {
		case events.ClearStatus:
			e.screen.SetStatus("")
		case events.SetStatus:
			e.screen.SetStatus(rec.Tag)
		case events.SetMode:
			e.screen.SetPanel(display.Panel(p[0]))
		default:
			return unknownEvent(rec)
		}

	case events.Music:
		switch rec.Op {
		case events.Play:
			return e.music.Play(int(p[0]), p[1] != 0)
		case events.Stop:
			e.music.Stop()
		default:
			return unknownEvent(rec)
		}

	case events.Sound:
		switch rec.Op {
		case events.Play:
			return e.sounds.Play(int(p[0]), p[1] != 0)
		case events.Stop:
			e.sounds.Stop()
		default:
			return unknownEvent(rec)
		}

	case events.Animation:
		switch rec.Op {
		case events.Play:
			e.anims.Play(int(p[0]))
		case events.Stop:
			e.anims.Stop(int(p[0]))
		default:
			return unknownEvent(rec)
		}

	case events.Script:
		switch rec.Op {
		case events.ExecNonBlocking:
			return e.execScript(p)
		case events.ThreadWake:
			n := e.sched.WakeAll(vm.Named(rec.Tag))
			e.log.Debug("threads woken", "tag", rec.Tag, "count", n)
		default:
			return unknownEvent(rec)
		}

	default:
		return unknownEvent(rec)
	}
	return nil
}

// execScript starts the entry point of an action. p holds module, entry,
// action, the object, the with-object and the actor.
func (e *Engine) execScript(p [events.NumParams]int32) error {
	owner := vm.ActorID(int16(p[5]))
	t, err := e.Spawn(int(p[0]), int(p[1]), nil, owner)
	if err != nil {
		return err
	}
	t.Vars[vm.VarAction] = p[2]
	t.Vars[vm.VarTheObject] = p[3]
	t.Vars[vm.VarWithObject] = p[4]
	return nil
}

func unknownEvent(rec *events.Record) error {
	return vm.NewRuntimeError(vm.ErrorInvalidOperand, fmt.Sprintf("unsupported event %s", rec))
}
