package engine

import (
	"github.com/grayfoxier/scummvm/pkg/events"
	"github.com/grayfoxier/scummvm/pkg/opcode"
)

// Animation, music, sound and palette natives.

// repeatSpeedTicks is the default frame time of a background animation.
const repeatSpeedTicks = 13

// musicVolume is the volume music is restored to before a song starts.
const musicVolume = 255

// ITE music resources start at iteSongBase; scripts address songs from 0.
const (
	iteSongBase = 9
	iteSongLast = 34
)

// voiceBase is added to the voice number of PlayVoice.
const voiceBase = 3712

const (
	queueMusicMillis = 500
	fadeMusicMillis  = 1000
)

func (e *Engine) ticksToMs(ticks int) int {
	return ticks * 1000 / e.tickRate
}

func (e *Engine) checkAnim(c *call, id int) bool {
	if !e.anims.Has(id) {
		e.log.Warn("invalid animation id", "anim", id, "thread", c.t.ID)
		return false
	}
	return true
}

func (e *Engine) sfStartBgdAnim(c *call) error {
	id := c.int()
	cycles := c.int()
	if e.checkAnim(c, id) {
		e.anims.SetCycles(id, cycles)
		e.anims.SetFrameTime(id, e.ticksToMs(repeatSpeedTicks))
		e.anims.Play(id)
	}
	return nil
}

func (e *Engine) sfStartBgdAnimSpeed(c *call) error {
	id := c.int()
	cycles := c.int()
	speed := c.int()
	if e.checkAnim(c, id) {
		e.anims.SetCycles(id, cycles)
		e.anims.SetFrameTime(id, e.ticksToMs(speed))
		e.anims.Play(id)
	}
	return nil
}

func (e *Engine) sfStopBgdAnim(c *call) error {
	if id := c.int(); e.checkAnim(c, id) {
		e.anims.Stop(id)
	}
	return nil
}

func (e *Engine) sfSetBgdAnimSpeed(c *call) error {
	id := c.int()
	speed := c.int()
	if e.checkAnim(c, id) {
		e.anims.SetFrameTime(id, e.ticksToMs(speed))
	}
	return nil
}

func (e *Engine) sfFinishBgdAnim(c *call) error {
	if id := c.int(); e.checkAnim(c, id) {
		e.anims.Finish(id)
	}
	return nil
}

func (e *Engine) sfResumeBgdAnim(c *call) error {
	id := c.int()
	cycles := c.int()
	if e.checkAnim(c, id) {
		e.anims.Resume(id, cycles)
	}
	return nil
}

// sfChainBgdAnim makes anim play when from finishes. A non-negative speed
// also resets anim's cycles and frame time.
func (e *Engine) sfChainBgdAnim(c *call) error {
	from := c.int()
	id := c.int()
	cycles := c.int()
	speed := c.int()
	if !e.checkAnim(c, from) || !e.checkAnim(c, id) {
		return nil
	}
	if speed >= 0 {
		e.anims.SetCycles(id, cycles)
		e.anims.Stop(id)
		e.anims.SetFrameTime(id, e.ticksToMs(speed))
	}
	e.anims.Link(from, id)
	return nil
}

func (e *Engine) sfGetDeltaFrame(c *call) error {
	c.ret(int32(e.anims.CurrentFrame(int(uint16(c.int32())))))
	return nil
}

func (e *Engine) sfPlayMusic(c *call) error {
	if e.titleIs(opcode.ITE) {
		song := c.int() + iteSongBase
		if song < iteSongBase || song > iteSongLast {
			e.music.Stop()
			return nil
		}
		e.music.SetVolume(musicVolume, 1)
		e.playMusic(song-iteSongBase, true)
		return nil
	}

	song := c.int()
	loop := c.bool()
	if song < 0 {
		e.music.Stop()
		return nil
	}
	if song >= e.music.Songs() {
		e.log.Warn("wrong song number", "song", song, "songs", e.music.Songs())
		return nil
	}
	e.music.SetVolume(musicVolume, 1)
	e.playMusic(song, loop)
	e.rememberMusic(song, loop)
	return nil
}

func (e *Engine) playMusic(song int, loop bool) {
	if err := e.music.Play(song, loop); err != nil {
		e.log.Warn("music playback failed", "song", song, "error", err)
	}
}

// rememberMusic records the current track for saved games, except right
// after chapter points changed.
func (e *Engine) rememberMusic(song int, loop bool) {
	if e.globals.ChapterPointsChanged {
		e.globals.ChapterPointsChanged = false
		return
	}
	e.globals.MusicTrack = song
	e.globals.MusicLoop = 0
	if loop {
		e.globals.MusicLoop = 1
	}
}

func (e *Engine) sfQueueMusic(c *call) error {
	song := c.int()
	loop := c.bool()
	if song < 0 {
		e.music.Stop()
		return nil
	}
	if song >= e.music.Songs() {
		e.log.Warn("wrong song number", "song", song, "songs", e.music.Songs())
		return nil
	}
	e.music.SetVolume(musicVolume, 1)
	var loopParam int32
	if loop {
		loopParam = 1
	}
	e.events.Queue(events.Record{
		Kind:     events.Oneshot,
		Category: events.Music,
		Op:       events.Play,
		Time:     e.msToTicks(queueMusicMillis),
		Params:   [events.NumParams]int32{int32(song), loopParam},
	})
	e.rememberMusic(song, loop)
	return nil
}

func (e *Engine) sfFadeMusic(c *call) error {
	e.music.SetVolume(0, int(e.msToTicks(fadeMusicMillis)))
	return nil
}

// MusicTrack returns the last track started by a script and whether it
// loops, or -1 when none was.
func (e *Engine) MusicTrack() (song int, loop bool) {
	return e.globals.MusicTrack, e.globals.MusicLoop != 0
}

func (e *Engine) sfPlaySound(c *call) error {
	e.playSound(c.int(), false)
	return nil
}

func (e *Engine) sfPlayLoopedSound(c *call) error {
	e.playSound(c.int(), true)
	return nil
}

func (e *Engine) playSound(fx int, loop bool) {
	if fx < 0 || fx >= e.sounds.Effects() {
		e.sounds.Stop()
		return
	}
	if err := e.sounds.Play(fx, loop); err != nil {
		e.log.Warn("sound playback failed", "fx", fx, "error", err)
	}
}

func (e *Engine) sfVstopFX(c *call) error {
	e.sounds.Stop()
	return nil
}

func (e *Engine) sfPlayVoice(c *call) error {
	n := c.int()
	if n <= 0 {
		e.sounds.Stop()
		return nil
	}
	if err := e.sounds.PlayVoice(n + voiceBase); err != nil {
		e.log.Warn("voice playback failed", "voice", n+voiceBase, "error", err)
	}
	return nil
}

// sfScriptFade fades palette entries first..last from one brightness to
// another.
func (e *Engine) sfScriptFade(c *call) error {
	first := c.int32()
	last := c.int32()
	from := c.int32()
	to := c.int32()
	e.events.Queue(events.Record{
		Kind:     events.Immediate,
		Category: events.Palette,
		Op:       events.PalFade,
		Duration: e.fadeTicks(),
		Params:   [events.NumParams]int32{from, to, first, last - first + 1},
	})
	return nil
}
