// Package opcode defines the native opcode kinds callable from script
// bytecode and the per-title tables that map opcode numbers to kinds.
// The VM dispatches through a table built from a Layout; the engine
// supplies one native function per Kind.
package opcode

import (
	"fmt"
	"strings"
)

// Kind identifies a native script function independently of its opcode
// number, which differs between titles.
type Kind uint8

// Native function kinds. The Args line lists the arguments in the order the
// native pops them.
const (
	// Null pops its declared argument count and does nothing.
	// Args: [argc values]
	Null Kind = iota

	// PutString logs a string from the string table.
	// Args: [stringId]
	PutString

	// Wait blocks the thread for a number of ticks.
	// Args: [ticks]
	Wait

	// TakeObject moves an object into the inventory.
	// Args: [objectId]
	TakeObject

	// IsCarried returns 1 if the object is in the inventory.
	// Args: [objectId]
	IsCarried

	// StatusBar sets the status line text.
	// Args: [stringId]
	StatusBar

	// MainMode returns the interface to the main panel.
	// Args: []
	MainMode

	// ScriptWalkTo walks an actor and blocks until it arrives.
	// Args: [actorId, x, y]
	ScriptWalkTo

	// ScriptDoAction runs an object's script entry point as a new thread.
	// Args: [objectId, action, theObject, withObject]
	ScriptDoAction

	// SetActorFacing sets an actor's direction.
	// Args: [actorId, direction]
	SetActorFacing

	// StartBgdAnim starts a background animation.
	// Args: [animId, cycles]
	StartBgdAnim

	// StopBgdAnim stops a background animation.
	// Args: [animId]
	StopBgdAnim

	// LockUser disables or enables user input.
	// Args: [lock]
	LockUser

	// PreDialog prepares the interface for a conversation.
	// Args: []
	PreDialog

	// KillActorThreads aborts every other thread owned by an actor.
	// Args: [actorId]
	KillActorThreads

	// FaceTowards makes an actor face an object.
	// Args: [actorId, objectId]
	FaceTowards

	// SetFollower makes an actor follow another object.
	// Args: [actorId, objectId]
	SetFollower

	// ScriptGotoScene changes the current scene.
	// Args: [sceneNumber, entrance]
	ScriptGotoScene

	// SetObjImage sets an object's sprite.
	// Args: [objectId, spriteId]
	SetObjImage

	// SetObjName sets an object's name string.
	// Args: [objectId, nameIndex]
	SetObjName

	// GetObjImage returns an object's sprite.
	// Args: [objectId]
	GetObjImage

	// GetNumber reads a number typed on the status line. Two-phase: the
	// first call blocks, the re-entered call returns the value.
	// Args: []
	GetNumber

	// ScriptOpenDoor opens a door.
	// Args: [doorNumber]
	ScriptOpenDoor

	// ScriptCloseDoor closes a door.
	// Args: [doorNumber]
	ScriptCloseDoor

	// SetBgdAnimSpeed sets a background animation's frame time.
	// Args: [animId, speed]
	SetBgdAnimSpeed

	// CycleColors is unimplemented in every known title.
	// Args: [argc values]
	CycleColors

	// DoCenterActor makes the camera follow an actor.
	// Args: [actorId]
	DoCenterActor

	// StartBgdAnimSpeed starts a background animation at a speed.
	// Args: [animId, cycles, speed]
	StartBgdAnimSpeed

	// ScriptWalkToAsync walks an actor without blocking.
	// Args: [actorId, x, y]
	ScriptWalkToAsync

	// EnableZone enables or disables a hit zone or step zone.
	// Args: [zoneId, flag]
	EnableZone

	// SetActorState sets an actor's current action.
	// Args: [actorId, action]
	SetActorState

	// ScriptMoveTo places an actor or object.
	// Args: [objectId, x, y]
	ScriptMoveTo

	// SceneEq returns 1 if the given scene is the current scene.
	// Args: [sceneNumber]
	SceneEq

	// DropObject removes an object from the inventory into the scene.
	// Args: [objectId, spriteId, x, y]
	DropObject

	// FinishBgdAnim lets a background animation finish its cycle.
	// Args: [animId]
	FinishBgdAnim

	// SwapActors swaps two actors' locations and protagonist status.
	// Args: [actorId1, actorId2]
	SwapActors

	// SimulSpeech makes several actors say a string and blocks.
	// Args: [stringId, actorCount, actorId...]
	SimulSpeech

	// ScriptWalk walks an actor with flags.
	// Args: [actorId, x, y, walkFlags]
	ScriptWalk

	// CycleFrames cycles an actor's frames.
	// Args: [actorId, flags, frameSequence, delay]
	CycleFrames

	// SetFrame freezes an actor on a frame.
	// Args: [actorId, frameType, frameOffset]
	SetFrame

	// SetPortrait sets the right-hand portrait.
	// Args: [portrait]
	SetPortrait

	// SetProtagPortrait sets the left-hand portrait.
	// Args: [portrait]
	SetProtagPortrait

	// ChainBgdAnim links two background animations.
	// Args: [animId1, animId, cycles, speed]
	ChainBgdAnim

	// ScriptSpecialWalk walks an actor with a special frame sequence.
	// Args: [actorId, x, y, frameSequence]
	ScriptSpecialWalk

	// PlaceActor places an actor with direction and frame.
	// Args: [actorId, x, y, direction, frameType, frameOffset]
	PlaceActor

	// CheckUserInterrupt returns 1 if the user skipped the cinematic.
	// Args: []
	CheckUserInterrupt

	// ScriptWalkRelative walks an actor relative to an object.
	// Args: [actorId, objectId, x, y, walkFlags]
	ScriptWalkRelative

	// ScriptMoveRelative places an actor relative to an object.
	// Args: [actorId, objectId, x, y, walkFlags]
	ScriptMoveRelative

	// SimulSpeech2 is SimulSpeech with speech flags.
	// Args: [stringId, actorCount, flags, actorId...]
	SimulSpeech2

	// Placard fades to a text card and blocks until it is shown.
	// Args: [stringId]
	Placard

	// PlacardOff removes the text card.
	// Args: []
	PlacardOff

	// PsychicProfile shows a character profile card.
	// Args: [stringId]
	PsychicProfile

	// PsychicProfileOff removes the profile card.
	// Args: []
	PsychicProfileOff

	// SetProtagState sets the protagonist state.
	// Args: [state]
	SetProtagState

	// ResumeBgdAnim resumes a background animation.
	// Args: [animId, cycles]
	ResumeBgdAnim

	// ThrowActor makes an actor fall to a target.
	// Args: [actorId, x, y, unused, actionCycle, flags]
	ThrowActor

	// WaitWalk blocks until an actor stops moving, if it is moving.
	// Args: [actorId]
	WaitWalk

	// ScriptSceneID returns the current scene number.
	// Args: []
	ScriptSceneID

	// ChangeActorScene moves an actor to another scene.
	// Args: [actorId, sceneNumber]
	ChangeActorScene

	// ScriptClimb makes an actor climb to a height.
	// Args: [actorId, z, frameSequence, flags]
	ScriptClimb

	// SetDoorState sets a door's state.
	// Args: [doorNumber, state]
	SetDoorState

	// SetActorZ sets an actor's or object's height.
	// Args: [objectId, z]
	SetActorZ

	// ScriptText shows free-floating text.
	// Args: [stringId, flags, color, x, y]
	ScriptText

	// GetActorX returns an actor's x in screen units.
	// Args: [actorId]
	GetActorX

	// GetActorY returns an actor's y in screen units.
	// Args: [actorId]
	GetActorY

	// EraseDelta restores the scene background.
	// Args: []
	EraseDelta

	// PlayMusic plays a song. ITE takes one argument, IHNM two.
	// Args: [song] or [song, loop]
	PlayMusic

	// PickClimbOutPos picks a random climb-out position.
	// Args: []
	PickClimbOutPos

	// TossRif makes the protagonist fall into the nearest chasm.
	// Args: []
	TossRif

	// ShowControls is a no-op in every release.
	// Args: []
	ShowControls

	// ShowMap switches to the map panel.
	// Args: []
	ShowMap

	// PuzzleWon returns 1 if the puzzle is solved.
	// Args: []
	PuzzleWon

	// EnableEscape enables or disables cinematic skipping.
	// Args: [enable]
	EnableEscape

	// PlaySound plays a sound effect.
	// Args: [fx]
	PlaySound

	// PlayLoopedSound plays a looping sound effect.
	// Args: [fx]
	PlayLoopedSound

	// GetDeltaFrame returns a background animation's current frame.
	// Args: [animId]
	GetDeltaFrame

	// ShowProtect shows the copy protection panel and blocks.
	// Args: []
	ShowProtect

	// ProtectResult returns the copy protection answer.
	// Args: [expected]
	ProtectResult

	// Rand returns a random number in [0, n).
	// Args: [n]
	Rand

	// FadeMusic fades the music out.
	// Args: []
	FadeMusic

	// PlayVoice plays a voice sample.
	// Args: [voice]
	PlayVoice

	// SetChapterPoints records ethics points for the current chapter.
	// Args: [ethics, barometer]
	SetChapterPoints

	// SetPortraitBgColor sets the portrait background color.
	// Args: [red, green, blue]
	SetPortraitBgColor

	// ScriptStartCutAway plays a cutaway animation.
	// Args: [cutaway, unused, fade]
	ScriptStartCutAway

	// ReturnFromCutAway returns from a cutaway and blocks until woken.
	// Args: []
	ReturnFromCutAway

	// EndCutAway ends a cutaway.
	// Args: []
	EndCutAway

	// GetMouseClicks returns the mouse click count.
	// Args: []
	GetMouseClicks

	// ResetMouseClicks resets the mouse click count.
	// Args: []
	ResetMouseClicks

	// WaitFrames blocks the thread for a number of frames.
	// Args: [frames]
	WaitFrames

	// ScriptFade fades a palette range between brightness levels.
	// Args: [firstEntry, lastEntry, startBrightness, endBrightness]
	ScriptFade

	// ScriptStartVideo starts a video.
	// Args: [video, fade]
	ScriptStartVideo

	// ScriptReturnFromVideo returns from a video.
	// Args: []
	ScriptReturnFromVideo

	// ScriptEndVideo ends a video.
	// Args: []
	ScriptEndVideo

	// ShowDemoHelpBg shows the demo help background.
	// Args: []
	ShowDemoHelpBg

	// AddDemoHelpTextLine adds a line to the demo help page.
	// Args: [stringId]
	AddDemoHelpTextLine

	// ShowDemoHelpPage shows the demo help page.
	// Args: []
	ShowDemoHelpPage

	// VstopFX stops sound effects.
	// Args: []
	VstopFX

	// VstopLoopedFX stops looped sound effects.
	// Args: []
	VstopLoopedFX

	// DemoSetInteractive toggles demo interactivity.
	// Args: [interactive]
	DemoSetInteractive

	// DemoIsInteractive returns 0.
	// Args: []
	DemoIsInteractive

	// VsetTrack changes scene and chapter.
	// Args: [chapter, sceneNumber, entrance]
	VsetTrack

	// GetPoints returns ethics points.
	// Args: [index]
	GetPoints

	// SetGlobalFlag sets a global flag.
	// Args: [flag]
	SetGlobalFlag

	// ClearGlobalFlag clears a global flag.
	// Args: [flag]
	ClearGlobalFlag

	// TestGlobalFlag returns 1 if a global flag is set.
	// Args: [flag]
	TestGlobalFlag

	// SetPoints sets ethics points.
	// Args: [index, points]
	SetPoints

	// SetSpeechBox sets the scripted speech box.
	// Args: [left, top, right, bottom]
	SetSpeechBox

	// DebugShowData shows a breakpoint number on the status line.
	// Args: [value]
	DebugShowData

	// WaitFramesEsc returns the escape frame counter.
	// Args: []
	WaitFramesEsc

	// QueueMusic queues a song to start after a short delay.
	// Args: [song, loop]
	QueueMusic

	// DisableAbortSpeeches toggles speech aborting.
	// Args: [disable]
	DisableAbortSpeeches

	numKinds
)

var kindNames = [numKinds]string{
	Null: "sfNull", PutString: "sfPutString", Wait: "sfWait", TakeObject: "sfTakeObject",
	IsCarried: "sfIsCarried", StatusBar: "sfStatusBar", MainMode: "sfMainMode",
	ScriptWalkTo: "sfScriptWalkTo", ScriptDoAction: "sfScriptDoAction",
	SetActorFacing: "sfSetActorFacing", StartBgdAnim: "sfStartBgdAnim",
	StopBgdAnim: "sfStopBgdAnim", LockUser: "sfLockUser", PreDialog: "sfPreDialog",
	KillActorThreads: "sfKillActorThreads", FaceTowards: "sfFaceTowards",
	SetFollower: "sfSetFollower", ScriptGotoScene: "sfScriptGotoScene",
	SetObjImage: "sfSetObjImage", SetObjName: "sfSetObjName", GetObjImage: "sfGetObjImage",
	GetNumber: "sfGetNumber", ScriptOpenDoor: "sfScriptOpenDoor",
	ScriptCloseDoor: "sfScriptCloseDoor", SetBgdAnimSpeed: "sfSetBgdAnimSpeed",
	CycleColors: "sfCycleColors", DoCenterActor: "sfDoCenterActor",
	StartBgdAnimSpeed: "sfStartBgdAnimSpeed", ScriptWalkToAsync: "sfScriptWalkToAsync",
	EnableZone: "sfEnableZone", SetActorState: "sfSetActorState",
	ScriptMoveTo: "sfScriptMoveTo", SceneEq: "sfSceneEq", DropObject: "sfDropObject",
	FinishBgdAnim: "sfFinishBgdAnim", SwapActors: "sfSwapActors",
	SimulSpeech: "sfSimulSpeech", ScriptWalk: "sfScriptWalk", CycleFrames: "sfCycleFrames",
	SetFrame: "sfSetFrame", SetPortrait: "sfSetPortrait",
	SetProtagPortrait: "sfSetProtagPortrait", ChainBgdAnim: "sfChainBgdAnim",
	ScriptSpecialWalk: "sfScriptSpecialWalk", PlaceActor: "sfPlaceActor",
	CheckUserInterrupt: "sfCheckUserInterrupt", ScriptWalkRelative: "sfScriptWalkRelative",
	ScriptMoveRelative: "sfScriptMoveRelative", SimulSpeech2: "sfSimulSpeech2",
	Placard: "sfPlacard", PlacardOff: "sfPlacardOff", PsychicProfile: "sfPsychicProfile",
	PsychicProfileOff: "sfPsychicProfileOff", SetProtagState: "sfSetProtagState",
	ResumeBgdAnim: "sfResumeBgdAnim", ThrowActor: "sfThrowActor", WaitWalk: "sfWaitWalk",
	ScriptSceneID: "sfScriptSceneID", ChangeActorScene: "sfChangeActorScene",
	ScriptClimb: "sfScriptClimb", SetDoorState: "sfSetDoorState", SetActorZ: "sfSetActorZ",
	ScriptText: "sfScriptText", GetActorX: "sfGetActorX", GetActorY: "sfGetActorY",
	EraseDelta: "sfEraseDelta", PlayMusic: "sfPlayMusic", PickClimbOutPos: "sfPickClimbOutPos",
	TossRif: "sfTossRif", ShowControls: "sfShowControls", ShowMap: "sfShowMap",
	PuzzleWon: "sfPuzzleWon", EnableEscape: "sfEnableEscape", PlaySound: "sfPlaySound",
	PlayLoopedSound: "sfPlayLoopedSound", GetDeltaFrame: "sfGetDeltaFrame",
	ShowProtect: "sfShowProtect", ProtectResult: "sfProtectResult", Rand: "sfRand",
	FadeMusic: "sfFadeMusic", PlayVoice: "sfPlayVoice", SetChapterPoints: "sfSetChapterPoints",
	SetPortraitBgColor: "sfSetPortraitBgColor", ScriptStartCutAway: "sfScriptStartCutAway",
	ReturnFromCutAway: "sfReturnFromCutAway", EndCutAway: "sfEndCutAway",
	GetMouseClicks: "sfGetMouseClicks", ResetMouseClicks: "sfResetMouseClicks",
	WaitFrames: "sfWaitFrames", ScriptFade: "sfScriptFade", ScriptStartVideo: "sfScriptStartVideo",
	ScriptReturnFromVideo: "sfScriptReturnFromVideo", ScriptEndVideo: "sfScriptEndVideo",
	ShowDemoHelpBg: "sfShowDemoHelpBg", AddDemoHelpTextLine: "sfAddDemoHelpTextLine",
	ShowDemoHelpPage: "sfShowDemoHelpPage", VstopFX: "sfVstopFX", VstopLoopedFX: "sfVstopLoopedFX",
	DemoSetInteractive: "sfDemoSetInteractive", DemoIsInteractive: "sfDemoIsInteractive",
	VsetTrack: "sfVsetTrack", GetPoints: "sfGetPoints", SetGlobalFlag: "sfSetGlobalFlag",
	ClearGlobalFlag: "sfClearGlobalFlag", TestGlobalFlag: "sfTestGlobalFlag",
	SetPoints: "sfSetPoints", SetSpeechBox: "sfSetSpeechBox", DebugShowData: "sfDebugShowData",
	WaitFramesEsc: "sfWaitFramesEsc", QueueMusic: "sfQueueMusic",
	DisableAbortSpeeches: "sfDisableAbortSpeeches",
}

// String returns the native function name.
func (k Kind) String() string {
	if k < numKinds && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Valid reports whether k is a defined kind.
func (k Kind) Valid() bool {
	return k < numKinds
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Title identifies a game whose scripts use a particular opcode layout.
type Title string

const (
	ITE  Title = "ite"  // Inherit the Earth
	IHNM Title = "ihnm" // I Have No Mouth and I Must Scream
)

// ParseTitle parses a title name case-insensitively.
func ParseTitle(s string) (Title, error) {
	switch t := Title(strings.ToLower(strings.TrimSpace(s))); t {
	case ITE, IHNM:
		return t, nil
	default:
		return "", fmt.Errorf("unknown title %q (want %s or %s)", s, ITE, IHNM)
	}
}
