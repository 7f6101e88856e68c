package engine

import (
	"fmt"
	"strings"

	"github.com/grayfoxier/scummvm/pkg/opcode"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// call is the argument cursor of one native call. Arguments are popped left
// to right; reads past argc yield zero and arguments left unread are
// discarded when the native returns, so every call pops exactly argc.
type call struct {
	t       *vm.Thread
	args    *vm.Args
	argc    int
	left    int
	reenter bool
}

func (c *call) int32() int32 {
	if c.left == 0 {
		return 0
	}
	c.left--
	return c.args.Int32()
}

func (c *call) int() int { return int(int16(c.int32())) }

func (c *call) id() world.ID { return world.ID(uint16(c.int32())) }

func (c *call) actor() vm.ActorID { return vm.ActorID(c.int()) }

func (c *call) bool() bool { return c.int32() != 0 }

// rest pops every remaining argument.
func (c *call) rest() []int32 {
	out := make([]int32, 0, c.left)
	for c.left > 0 {
		out = append(out, c.int32())
	}
	return out
}

// retry makes the interpreter re-execute the call once the thread is woken.
// Nothing may have been popped.
func (c *call) retry() {
	c.reenter = true
	c.t.Reenter()
}

func (c *call) ret(v int32) { c.t.ReturnValue = v }

func (c *call) retBool(b bool) {
	if b {
		c.ret(1)
	} else {
		c.ret(0)
	}
}

type native func(c *call) error

func (e *Engine) bind(fn native) vm.NativeFunc {
	return func(t *vm.Thread, argc int) error {
		c := &call{t: t, args: t.Args(), argc: argc, left: argc}
		if err := fn(c); err != nil {
			return err
		}
		if !c.reenter {
			c.args.Skip(c.left)
		}
		return c.args.Err()
	}
}

// natives returns the native catalog for the engine's title.
func (e *Engine) natives() map[opcode.Kind]vm.NativeFunc {
	impl := map[opcode.Kind]native{
		opcode.PutString:          e.sfPutString,
		opcode.Wait:               e.sfWait,
		opcode.TakeObject:         e.sfTakeObject,
		opcode.IsCarried:          e.sfIsCarried,
		opcode.StatusBar:          e.sfStatusBar,
		opcode.MainMode:           e.sfMainMode,
		opcode.ScriptWalkTo:       e.sfScriptWalkTo,
		opcode.ScriptDoAction:     e.sfScriptDoAction,
		opcode.SetActorFacing:     e.sfSetActorFacing,
		opcode.StartBgdAnim:       e.sfStartBgdAnim,
		opcode.StopBgdAnim:        e.sfStopBgdAnim,
		opcode.LockUser:           e.sfLockUser,
		opcode.PreDialog:          e.sfPreDialog,
		opcode.KillActorThreads:   e.sfKillActorThreads,
		opcode.FaceTowards:        e.sfFaceTowards,
		opcode.SetFollower:        e.sfSetFollower,
		opcode.ScriptGotoScene:    e.sfScriptGotoScene,
		opcode.SetObjImage:        e.sfSetObjImage,
		opcode.SetObjName:         e.sfSetObjName,
		opcode.GetObjImage:        e.sfGetObjImage,
		opcode.GetNumber:          e.sfGetNumber,
		opcode.ScriptOpenDoor:     e.sfScriptOpenDoor,
		opcode.ScriptCloseDoor:    e.sfScriptCloseDoor,
		opcode.SetBgdAnimSpeed:    e.sfSetBgdAnimSpeed,
		opcode.DoCenterActor:      e.sfDoCenterActor,
		opcode.StartBgdAnimSpeed:  e.sfStartBgdAnimSpeed,
		opcode.ScriptWalkToAsync:  e.sfScriptWalkToAsync,
		opcode.EnableZone:         e.sfEnableZone,
		opcode.SetActorState:      e.sfSetActorState,
		opcode.ScriptMoveTo:       e.sfScriptMoveTo,
		opcode.SceneEq:            e.sfSceneEq,
		opcode.DropObject:         e.sfDropObject,
		opcode.FinishBgdAnim:      e.sfFinishBgdAnim,
		opcode.SwapActors:         e.sfSwapActors,
		opcode.SimulSpeech:        e.sfSimulSpeech,
		opcode.ScriptWalk:         e.sfScriptWalk,
		opcode.CycleFrames:        e.sfCycleFrames,
		opcode.SetFrame:           e.sfSetFrame,
		opcode.SetPortrait:        e.sfSetPortrait,
		opcode.SetProtagPortrait:  e.sfSetProtagPortrait,
		opcode.ChainBgdAnim:       e.sfChainBgdAnim,
		opcode.ScriptSpecialWalk:  e.sfScriptSpecialWalk,
		opcode.PlaceActor:         e.sfPlaceActor,
		opcode.CheckUserInterrupt: e.sfCheckUserInterrupt,
		opcode.ScriptWalkRelative: e.sfScriptWalkRelative,
		opcode.ScriptMoveRelative: e.sfScriptMoveRelative,
		opcode.SimulSpeech2:       e.sfSimulSpeech2,
		opcode.Placard:            e.sfPlacard,
		opcode.PlacardOff:         e.sfPlacardOff,
		opcode.PsychicProfile:     e.sfPsychicProfile,
		opcode.PsychicProfileOff:  e.sfPsychicProfileOff,
		opcode.SetProtagState:     e.sfSetProtagState,
		opcode.ResumeBgdAnim:      e.sfResumeBgdAnim,
		opcode.ThrowActor:         e.sfThrowActor,
		opcode.WaitWalk:           e.sfWaitWalk,
		opcode.ScriptSceneID:      e.sfScriptSceneID,
		opcode.ChangeActorScene:   e.sfChangeActorScene,
		opcode.ScriptClimb:        e.sfScriptClimb,
		opcode.SetDoorState:       e.sfSetDoorState,
		opcode.SetActorZ:          e.sfSetActorZ,
		opcode.ScriptText:         e.sfScriptText,
		opcode.GetActorX:          e.sfGetActorX,
		opcode.GetActorY:          e.sfGetActorY,
		opcode.PlayMusic:          e.sfPlayMusic,
		opcode.ShowControls:       e.sfShowControls,
		opcode.ShowMap:            e.sfShowMap,
		opcode.PuzzleWon:          e.sfPuzzleWon,
		opcode.EnableEscape:       e.sfEnableEscape,
		opcode.PlaySound:          e.sfPlaySound,
		opcode.PlayLoopedSound:    e.sfPlayLoopedSound,
		opcode.GetDeltaFrame:      e.sfGetDeltaFrame,
		opcode.ShowProtect:        e.sfShowProtect,
		opcode.ProtectResult:      e.sfProtectResult,
		opcode.Rand:               e.sfRand,
		opcode.FadeMusic:          e.sfFadeMusic,
		opcode.PlayVoice:          e.sfPlayVoice,
		opcode.SetChapterPoints:   e.sfSetChapterPoints,
		opcode.SetPortraitBgColor: e.sfSetPortraitBgColor,
		opcode.ScriptStartCutAway: e.sfScriptStartCutAway,
		opcode.ReturnFromCutAway:  e.sfReturnFromCutAway,
		opcode.EndCutAway:         e.sfEndCutAway,
		opcode.GetMouseClicks:     e.sfGetMouseClicks,
		opcode.ResetMouseClicks:   e.sfResetMouseClicks,
		opcode.WaitFrames:         e.sfWaitFrames,
		opcode.ScriptFade:         e.sfScriptFade,

		opcode.ScriptStartVideo:      e.sfScriptStartVideo,
		opcode.ScriptReturnFromVideo: e.sfScriptReturnFromVideo,
		opcode.ScriptEndVideo:        e.sfScriptEndVideo,
		opcode.ShowDemoHelpBg:        e.sfShowDemoHelpBg,
		opcode.AddDemoHelpTextLine:   e.sfAddDemoHelpTextLine,
		opcode.ShowDemoHelpPage:      e.sfShowDemoHelpPage,
		opcode.VstopFX:               e.sfVstopFX,
		opcode.VstopLoopedFX:         e.sfVstopFX,
		opcode.DemoSetInteractive:    e.sfDemoSetInteractive,
		opcode.DemoIsInteractive:     e.sfDemoIsInteractive,
		opcode.VsetTrack:             e.sfVsetTrack,
		opcode.GetPoints:             e.sfGetPoints,
		opcode.SetGlobalFlag:         e.sfSetGlobalFlag,
		opcode.ClearGlobalFlag:       e.sfClearGlobalFlag,
		opcode.TestGlobalFlag:        e.sfTestGlobalFlag,
		opcode.SetPoints:             e.sfSetPoints,
		opcode.SetSpeechBox:          e.sfSetSpeechBox,
		opcode.DebugShowData:         e.sfDebugShowData,
		opcode.WaitFramesEsc:         e.sfWaitFramesEsc,
		opcode.QueueMusic:            e.sfQueueMusic,
		opcode.DisableAbortSpeeches:  e.sfDisableAbortSpeeches,
	}

	out := make(map[opcode.Kind]vm.NativeFunc, len(opcode.Kinds()))
	for _, k := range opcode.Kinds() {
		if fn, ok := impl[k]; ok {
			out[k] = e.bind(fn)
		} else {
			out[k] = e.bind(e.stub(k))
		}
	}
	out[opcode.Null] = e.sfNull
	return out
}

// sfNull pops its arguments and does nothing.
func (e *Engine) sfNull(t *vm.Thread, argc int) error {
	a := t.Args()
	a.Skip(argc)
	return a.Err()
}

// stub stands in for natives that have no effect outside the original
// renderer. It logs the call and discards the arguments.
func (e *Engine) stub(k opcode.Kind) native {
	return func(c *call) error {
		args := c.rest()
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = fmt.Sprint(v)
		}
		e.log.Debug("STUB: "+k.String()+"("+strings.Join(parts, ", ")+")", "thread", c.t.ID)
		return nil
	}
}
