package opcode

// iteLayout maps Inherit the Earth opcode numbers to kinds.
var iteLayout = []Kind{
	PutString, Wait, TakeObject, IsCarried, StatusBar, MainMode,
	ScriptWalkTo, ScriptDoAction, SetActorFacing, StartBgdAnim, StopBgdAnim,
	LockUser, PreDialog, KillActorThreads, FaceTowards, SetFollower,
	ScriptGotoScene, SetObjImage, SetObjName, GetObjImage, GetNumber,
	ScriptOpenDoor, ScriptCloseDoor, SetBgdAnimSpeed, CycleColors,
	DoCenterActor, StartBgdAnimSpeed, ScriptWalkToAsync, EnableZone,
	SetActorState, ScriptMoveTo, SceneEq, DropObject, FinishBgdAnim,
	SwapActors, SimulSpeech, ScriptWalk, CycleFrames, SetFrame, SetPortrait,
	SetProtagPortrait, ChainBgdAnim, ScriptSpecialWalk, PlaceActor,
	CheckUserInterrupt, ScriptWalkRelative, ScriptMoveRelative, SimulSpeech2,
	Placard, PlacardOff, SetProtagState, ResumeBgdAnim, ThrowActor, WaitWalk,
	ScriptSceneID, ChangeActorScene, ScriptClimb, SetDoorState, SetActorZ,
	ScriptText, GetActorX, GetActorY, EraseDelta, PlayMusic, PickClimbOutPos,
	TossRif, ShowControls, ShowMap, PuzzleWon, EnableEscape, PlaySound,
	PlayLoopedSound, GetDeltaFrame, ShowProtect, ProtectResult, Rand,
	FadeMusic, PlayVoice,
}

// ihnmLayout maps I Have No Mouth opcode numbers to kinds. Opcodes the game
// never calls are bound to Null.
var ihnmLayout = []Kind{
	Null, Wait, TakeObject, IsCarried, StatusBar, MainMode,
	ScriptWalkTo, ScriptDoAction, SetActorFacing, StartBgdAnim, StopBgdAnim,
	LockUser, PreDialog, KillActorThreads, FaceTowards, SetFollower,
	ScriptGotoScene, SetObjImage, SetObjName, GetObjImage, GetNumber,
	ScriptOpenDoor, ScriptCloseDoor, SetBgdAnimSpeed, CycleColors,
	DoCenterActor, StartBgdAnimSpeed, ScriptWalkToAsync, EnableZone,
	SetActorState, ScriptMoveTo, SceneEq, DropObject, FinishBgdAnim,
	SwapActors, SimulSpeech, ScriptWalk, CycleFrames, SetFrame, SetPortrait,
	SetProtagPortrait, ChainBgdAnim, ScriptSpecialWalk, PlaceActor,
	CheckUserInterrupt, ScriptWalkRelative, ScriptMoveRelative, SimulSpeech2,
	PsychicProfile, PsychicProfileOff, SetProtagState, ResumeBgdAnim,
	ThrowActor, WaitWalk, ScriptSceneID, ChangeActorScene, ScriptClimb,
	SetDoorState, SetActorZ, ScriptText, GetActorX, GetActorY, EraseDelta,
	PlayMusic, Null, EnableEscape, PlaySound, PlayLoopedSound, GetDeltaFrame,
	Null, Null, Rand, FadeMusic, Null, SetChapterPoints, SetPortraitBgColor,
	ScriptStartCutAway, ReturnFromCutAway, EndCutAway, GetMouseClicks,
	ResetMouseClicks, WaitFrames, ScriptFade, ScriptStartVideo,
	ScriptReturnFromVideo, ScriptEndVideo, SetActorZ, ShowDemoHelpBg,
	AddDemoHelpTextLine, ShowDemoHelpPage, VstopFX, VstopLoopedFX,
	DemoSetInteractive, DemoIsInteractive, VsetTrack, GetPoints,
	SetGlobalFlag, ClearGlobalFlag, TestGlobalFlag, SetPoints, SetSpeechBox,
	DebugShowData, WaitFramesEsc, QueueMusic, DisableAbortSpeeches,
}

// Layout returns the opcode table for a title. Index i is the kind invoked
// by CALL_NATIVE with opcode i. The returned slice is a copy.
func Layout(t Title) []Kind {
	var src []Kind
	switch t {
	case ITE:
		src = iteLayout
	case IHNM:
		src = ihnmLayout
	default:
		return nil
	}
	out := make([]Kind, len(src))
	copy(out, src)
	return out
}

// Opcode returns the first opcode number bound to k in a title's layout.
func Opcode(t Title, k Kind) (uint16, bool) {
	for i, kk := range Layout(t) {
		if kk == k {
			return uint16(i), true
		}
	}
	return 0, false
}

// Variadic marks kinds whose argument count depends on the call site.
const Variadic = -1

var argCounts = map[Kind]int{
	Null: Variadic, PutString: 1, Wait: 1, TakeObject: 1, IsCarried: 1, StatusBar: 1,
	MainMode: 0, ScriptWalkTo: 3, ScriptDoAction: 4, SetActorFacing: 2,
	StartBgdAnim: 2, StopBgdAnim: 1, LockUser: 1, PreDialog: 0, KillActorThreads: 1,
	FaceTowards: 2, SetFollower: 2, ScriptGotoScene: 2, SetObjImage: 2, SetObjName: 2,
	GetObjImage: 1, GetNumber: 0, ScriptOpenDoor: 1, ScriptCloseDoor: 1,
	SetBgdAnimSpeed: 2, CycleColors: Variadic, DoCenterActor: 1, StartBgdAnimSpeed: 3,
	ScriptWalkToAsync: 3, EnableZone: 2, SetActorState: 2, ScriptMoveTo: 3, SceneEq: 1,
	DropObject: 4, FinishBgdAnim: 1, SwapActors: 2, SimulSpeech: Variadic, ScriptWalk: 4,
	CycleFrames: 4, SetFrame: 3, SetPortrait: 1, SetProtagPortrait: 1, ChainBgdAnim: 4,
	ScriptSpecialWalk: 4, PlaceActor: 6, CheckUserInterrupt: 0, ScriptWalkRelative: 5,
	ScriptMoveRelative: 5, SimulSpeech2: Variadic, Placard: 1, PlacardOff: 0,
	PsychicProfile: 1, PsychicProfileOff: 0, SetProtagState: 1, ResumeBgdAnim: 2,
	ThrowActor: 6, WaitWalk: 1, ScriptSceneID: 0, ChangeActorScene: 2, ScriptClimb: 4,
	SetDoorState: 2, SetActorZ: 2, ScriptText: 5, GetActorX: 1, GetActorY: 1,
	EraseDelta: 0, PlayMusic: Variadic, PickClimbOutPos: 0, TossRif: 0, ShowControls: 0,
	ShowMap: 0, PuzzleWon: 0, EnableEscape: 1, PlaySound: 1, PlayLoopedSound: 1,
	GetDeltaFrame: 1, ShowProtect: 0, ProtectResult: 1, Rand: 1, FadeMusic: 0,
	PlayVoice: 1, SetChapterPoints: 2, SetPortraitBgColor: 3, ScriptStartCutAway: 3,
	ReturnFromCutAway: 0, EndCutAway: 0, GetMouseClicks: 0, ResetMouseClicks: 0,
	WaitFrames: 1, ScriptFade: 4, ScriptStartVideo: 2, ScriptReturnFromVideo: 0,
	ScriptEndVideo: 0, ShowDemoHelpBg: 0, AddDemoHelpTextLine: 1, ShowDemoHelpPage: 0,
	VstopFX: 0, VstopLoopedFX: 0, DemoSetInteractive: 1, DemoIsInteractive: 0,
	VsetTrack: 3, GetPoints: 1, SetGlobalFlag: 1, ClearGlobalFlag: 1, TestGlobalFlag: 1,
	SetPoints: 2, SetSpeechBox: 4, DebugShowData: 1, WaitFramesEsc: 0, QueueMusic: 2,
	DisableAbortSpeeches: 1,
}

// Args returns the declared argument count of k, or Variadic.
func (k Kind) Args() int {
	if n, ok := argCounts[k]; ok {
		return n
	}
	return Variadic
}
