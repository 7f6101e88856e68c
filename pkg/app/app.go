// Package app は設定の読み込みからセッションの実行までを組み立てる
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/grayfoxier/scummvm/pkg/audio"
	"github.com/grayfoxier/scummvm/pkg/cli"
	"github.com/grayfoxier/scummvm/pkg/config"
	"github.com/grayfoxier/scummvm/pkg/display"
	"github.com/grayfoxier/scummvm/pkg/engine"
	"github.com/grayfoxier/scummvm/pkg/fileutil"
	"github.com/grayfoxier/scummvm/pkg/logger"
	"github.com/grayfoxier/scummvm/pkg/script"
	"github.com/grayfoxier/scummvm/pkg/vm"
	"github.com/grayfoxier/scummvm/pkg/window"
	"github.com/grayfoxier/scummvm/pkg/world"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	opts   *cli.Options
	cfg    *config.Config
	log    *slog.Logger
	assets fs.FS // 埋め込みアセット（nil可）
}

// New Applicationを作成
func New(assets fs.FS) *Application {
	return &Application{assets: assets}
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	opts, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.opts = opts
	if opts.ShowHelp {
		cli.PrintHelp(os.Stdout)
		return nil
	}

	if err := logger.InitLogger(opts.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	if err := app.loadConfig(); err != nil {
		return err
	}

	s, err := app.newSession()
	if err != nil {
		return err
	}
	app.log.Info("session started", "title", app.cfg.Title, "session", s.engine.Session().String())

	if app.cfg.Run.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = window.RunHeadless(ctx, s, app.log)
	} else {
		err = window.Run(s, window.Options{
			Title:    "sagavm - " + app.cfg.Title,
			Scale:    app.cfg.Display.Scale,
			TickRate: app.cfg.TickRate,
		}, app.log)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("session failed at tick %d: %w", s.engine.Ticks(), err)
	}
	app.log.Info("Application terminated normally", "ticks", s.engine.Ticks())
	return nil
}

// loadConfig 設定ファイルを読み込み、コマンドラインの指定で上書きする
func (app *Application) loadConfig() error {
	path := app.opts.GamePath
	if path == "" {
		path = "."
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if app.opts.Title != "" {
		cfg.Title = app.opts.Title
	}
	if app.opts.Headless {
		cfg.Run.Headless = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	app.cfg = cfg
	app.log.Info("config loaded", "dir", cfg.Dir, "title", cfg.Title, "modules", len(cfg.Script.Modules))
	return nil
}

// newSession スクリプトと周辺状態を読み込んでエンジンを作成し、
// エントリーポイントのスレッドを起動する
func (app *Application) newSession() (*session, error) {
	cfg := app.cfg
	title, err := cfg.TitleID()
	if err != nil {
		return nil, err
	}

	loader := script.NewLoader(cfg.Dir)
	modules, err := loader.LoadModules(cfg.Script.Modules)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	strs, err := loadStrings(loader, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load strings: %w", err)
	}

	w := newWorld(cfg)
	d := display.New(display.WithLogger(app.log), display.WithSize(cfg.Display.Width, cfg.Display.Height))

	opts := []engine.Option{
		engine.WithLogger(app.log),
		engine.WithTickRate(cfg.TickRate),
		engine.WithLimits(cfg.Limits.StackDepth, cfg.Limits.FrameDepth, cfg.Limits.StepsPerTick),
		engine.WithMaxTicks(int64(cfg.Run.MaxTicks)),
		engine.WithTimeout(app.opts.Timeout),
		engine.WithExitWhenIdle(cfg.Run.ExitWhenIdle),
		engine.WithWorld(w),
		engine.WithDisplay(d),
		engine.WithStrings(strs),
	}
	if cfg.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Seed))
	}

	var music *audio.Music
	if !cfg.Run.Headless && !app.opts.Mute {
		var sounds *audio.Sounds
		music, sounds = app.newAudio()
		if music != nil {
			opts = append(opts, engine.WithMusic(music))
		}
		opts = append(opts, engine.WithSounds(sounds))
	}

	e, err := engine.New(title, modules, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if _, err := e.Spawn(cfg.Script.Module, cfg.Script.Entry, nil, vm.NoActor); err != nil {
		return nil, fmt.Errorf("failed to start entry point: %w", err)
	}

	return &session{
		engine:    e,
		world:     w,
		display:   d,
		music:     music,
		msPerTick: 1000 / cfg.TickRate,
	}, nil
}

// newAudio 音楽と効果音を準備する
// SoundFontが見つからない場合、音楽は無音になる
func (app *Application) newAudio() (*audio.Music, *audio.Sounds) {
	cfg := app.cfg
	ctx := audio.Context()
	game := fileutil.NewRealFS(cfg.Dir)

	effects := make([]audio.Effect, len(cfg.Sound.Effects))
	for i, fx := range cfg.Sound.Effects {
		effects[i] = audio.Effect{File: fx.File, Volume: fx.Volume}
	}
	sounds := audio.NewSounds(ctx, game, effects, cfg.Sound.Voices, app.log)

	if len(cfg.Music.Songs) == 0 {
		return nil, sounds
	}
	sf := findSoundFont(app.assets, cfg)
	if sf == nil {
		app.log.Warn("SoundFont not found, music disabled", "name", DefaultSoundFontName)
		return nil, sounds
	}
	music, err := audio.NewMusic(ctx, fileutil.Layered{sf.FileSystem, game}, sf.Path, cfg.Music.Songs, app.log)
	if err != nil {
		app.log.Warn("music disabled", "error", err)
		return nil, sounds
	}
	app.log.Info("SoundFont loaded", "path", sf.Path, "embedded", sf.IsEmbedded)
	return music, sounds
}

// loadStrings モジュールごとの文字列テーブルを読み込む
func loadStrings(loader *script.Loader, cfg *config.Config) (script.Bank, error) {
	enc, err := script.ParseEncoding(cfg.Script.Encoding)
	if err != nil {
		return nil, err
	}
	bank := make(script.Bank, len(cfg.Script.Modules))
	for i, name := range cfg.Script.Strings {
		if name == "" {
			continue
		}
		if bank[i], err = loader.LoadStrings(name, enc); err != nil {
			return nil, err
		}
	}
	return bank, nil
}

// newWorld 設定に書かれた俳優・物体・シーン・アニメーションでワールドを作る
func newWorld(cfg *config.Config) *world.World {
	w := world.New()
	for _, s := range cfg.Scenes {
		scene := &world.Scene{Number: s.Number, Module: s.Module, Chapter: s.Chapter, Height: s.Height}
		for _, p := range s.Entrances {
			scene.Entrances = append(scene.Entrances, world.Location{X: p[0], Y: p[1]})
		}
		w.AddScene(scene)
	}
	for _, a := range cfg.Actors {
		actor := &world.Actor{
			Name:        a.Name,
			Scene:       a.Scene,
			Location:    world.Location{X: a.X, Y: a.Y},
			ScriptEntry: a.ScriptEntry,
		}
		actor.Set(world.FlagProtagonist, a.Protagonist)
		w.AddActor(actor)
	}
	for _, o := range cfg.Objects {
		w.AddObject(&world.Object{
			Name:        o.Name,
			Scene:       o.Scene,
			Location:    world.Location{X: o.X, Y: o.Y},
			Sprite:      o.Sprite,
			ScriptEntry: o.ScriptEntry,
		})
	}
	for _, a := range cfg.Anims {
		w.Animations().Add(a.ID, a.Frames)
	}
	return w
}
