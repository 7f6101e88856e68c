package app

import (
	"io/fs"
	"path/filepath"

	"github.com/grayfoxier/scummvm/pkg/config"
	"github.com/grayfoxier/scummvm/pkg/fileutil"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the name of the SoundFont within FileSystem
	Path string
	// FileSystem holds the SoundFont
	FileSystem fileutil.FileSystem
	// IsEmbedded indicates whether the SoundFont is embedded
	IsEmbedded bool
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for a SoundFont file in the following order:
//  1. The file named in the music section of the configuration
//  2. Embedded soundfonts directory
//  3. Game directory
//  4. Current directory
//
// It returns nil when none is found.
func findSoundFont(assets fs.FS, cfg *config.Config) *SoundFontLocation {
	game := fileutil.NewRealFS(cfg.Dir)
	if name := cfg.Music.SoundFont; name != "" {
		fsys, rel := fileutil.FileSystem(game), name
		if filepath.IsAbs(name) {
			fsys, rel = fileutil.NewRealFS(filepath.Dir(name)), filepath.Base(name)
		}
		if fsys.Exists(rel) {
			return &SoundFontLocation{Path: rel, FileSystem: fsys}
		}
	}

	if assets != nil {
		if embedded, err := fileutil.NewEmbedFS(assets, "soundfonts"); err == nil && embedded.Exists(DefaultSoundFontName) {
			return &SoundFontLocation{Path: DefaultSoundFontName, FileSystem: embedded, IsEmbedded: true}
		}
	}

	if game.Exists(DefaultSoundFontName) {
		return &SoundFontLocation{Path: DefaultSoundFontName, FileSystem: game}
	}

	if cwd := fileutil.NewRealFS("."); cwd.Exists(DefaultSoundFontName) {
		return &SoundFontLocation{Path: DefaultSoundFontName, FileSystem: cwd}
	}
	return nil
}
