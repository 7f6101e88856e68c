package engine

import "fmt"

// recMusic records music calls.
type recMusic struct {
	songs  int
	played []string
	volume int
	stops  int
}

func (m *recMusic) Songs() int { return m.songs }

func (m *recMusic) Play(song int, loop bool) error {
	if song < 0 || song >= m.songs {
		return fmt.Errorf("song %d out of range", song)
	}
	m.played = append(m.played, fmt.Sprintf("%d/%t", song, loop))
	return nil
}

func (m *recMusic) Stop() { m.stops++ }

func (m *recMusic) SetVolume(volume, frames int) { m.volume = volume }

// recSounds records sound calls.
type recSounds struct {
	effects int
	played  []string
	stops   int
}

func (s *recSounds) Effects() int { return s.effects }

func (s *recSounds) Play(fx int, loop bool) error {
	s.played = append(s.played, fmt.Sprintf("fx%d/%t", fx, loop))
	return nil
}

func (s *recSounds) PlayVoice(id int) error {
	s.played = append(s.played, fmt.Sprintf("voice%d", id))
	return nil
}

func (s *recSounds) Stop() { s.stops++ }

// mapStrings serves strings of every module from one map.
type mapStrings map[int]string

func (m mapStrings) String(module, id int) (string, bool) {
	s, ok := m[id]
	return s, ok
}
