// Package window は Ebitengine 上でセッションを駆動する
package window

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/grayfoxier/scummvm/pkg/engine"
)

var (
	// 終了表示の文字色（黄色）
	noticeColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

// Session は1ティックずつ進めるゲームセッション
type Session interface {
	// Step は1ティック進める。正常終了時は engine.ErrTerminated を返す
	Step() error
	// Frame は現在の画面を返す
	Frame() *image.RGBA
	// Size は論理画面サイズを返す
	Size() (width, height int)

	// 入力
	Click()
	SkipSpeeches()
	InputActive() bool
	InputRune(r rune)
	SubmitInput()
	AbortInput()
	// Replies は選択待ちの返答の数を返す
	Replies() int
	// ChooseReply は i 番目の返答を選ぶ
	ChooseReply(i int) error
}

// replyKeys は返答を選ぶキー（1番目から順に）
var replyKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// input は1フレーム分の入力を読み出す
type input interface {
	keyJustPressed(k ebiten.Key) bool
	clicked() bool
	appendChars(buf []rune) []rune
}

// ebitenInput は Ebitengine から入力を読む
type ebitenInput struct{}

func (ebitenInput) keyJustPressed(k ebiten.Key) bool { return inpututil.IsKeyJustPressed(k) }

func (ebitenInput) clicked() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

func (ebitenInput) appendChars(buf []rune) []rune { return ebiten.AppendInputChars(buf) }

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	session  Session
	log      *slog.Logger
	in       input
	chars    []rune
	finished bool  // セッションが終了した
	err      error // セッションのエラー
	canvas   *ebiten.Image
}

// NewGame Gameを作成
func NewGame(s Session, log *slog.Logger) *Game {
	if log == nil {
		log = slog.Default()
	}
	return &Game{session: s, log: log, in: ebitenInput{}}
}

// Err はセッションを止めたエラーを返す
func (g *Game) Err() error { return g.err }

// Finished はセッションが終了したかを返す
func (g *Game) Finished() bool { return g.finished }

// Update 1ティック分の入力を処理してセッションを進める
// セッション終了後もウィンドウは開いたまま、Escキーで閉じる
func (g *Game) Update() error {
	if g.finished {
		if g.in.keyJustPressed(ebiten.KeyEscape) {
			return ebiten.Termination
		}
		return nil
	}

	if quit := g.processInput(); quit {
		g.log.Info("session closed by user")
		return ebiten.Termination
	}

	if err := g.session.Step(); err != nil {
		g.finished = true
		if !errors.Is(err, engine.ErrTerminated) {
			g.err = err
			g.log.Error("session stopped", "error", err)
			return err
		}
		g.log.Info("session finished")
	}
	return nil
}

// processInput キーボードとマウスの入力をセッションに伝える
// 終了要求があれば true を返す
func (g *Game) processInput() bool {
	s := g.session
	if s.InputActive() {
		switch {
		case g.in.keyJustPressed(ebiten.KeyEscape):
			s.AbortInput()
		case g.in.keyJustPressed(ebiten.KeyEnter):
			s.SubmitInput()
		case g.in.keyJustPressed(ebiten.KeyBackspace):
			s.InputRune('\b')
		default:
			g.chars = g.in.appendChars(g.chars[:0])
			for _, r := range g.chars {
				s.InputRune(r)
			}
		}
		return false
	}

	if g.in.keyJustPressed(ebiten.KeyEscape) {
		return true
	}
	// 会話中は数字キーで返答を選ぶ
	if n := s.Replies(); n > 0 {
		for i, k := range replyKeys[:min(n, len(replyKeys))] {
			if g.in.keyJustPressed(k) {
				if err := s.ChooseReply(i); err != nil {
					g.log.Warn("reply rejected", "reply", i, "error", err)
				}
				break
			}
		}
	}
	if g.in.keyJustPressed(ebiten.KeySpace) || g.in.keyJustPressed(ebiten.KeyPeriod) {
		s.SkipSpeeches()
	}
	if g.in.clicked() {
		s.Click()
	}
	return false
}

// Draw 画面描画（Ebitengineが毎フレーム呼び出す）
func (g *Game) Draw(screen *ebiten.Image) {
	frame := g.session.Frame()
	if frame != nil {
		if g.canvas == nil || g.canvas.Bounds().Size() != frame.Rect.Size() {
			g.canvas = ebiten.NewImage(frame.Rect.Dx(), frame.Rect.Dy())
		}
		g.canvas.WritePixels(frame.Pix)
		screen.DrawImage(g.canvas, nil)
	}
	if g.finished {
		op := &text.DrawOptions{}
		op.GeoM.Translate(4, 4)
		op.ColorScale.ScaleWithColor(noticeColor)
		text.Draw(screen, "finished - press ESC", defaultFace, op)
	}
}

// Layout 論理画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.session.Size()
}

// Options はウィンドウの設定
type Options struct {
	Title    string
	Scale    int
	TickRate int
}

// Run GUIモードでセッションを実行する
// セッションがエラーで止まった場合はそのエラーを返す
func Run(s Session, opts Options, log *slog.Logger) error {
	game := NewGame(s, log)

	w, h := s.Size()
	scale := max(opts.Scale, 1)
	ebiten.SetWindowSize(w*scale, h*scale)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if opts.TickRate > 0 {
		ebiten.SetTPS(opts.TickRate)
	}

	if err := ebiten.RunGame(game); err != nil {
		return fmt.Errorf("failed to run game: %w", err)
	}
	return game.Err()
}

// RunHeadless ウィンドウなしでセッションが終わるまで実行する
// ティックは待ち時間なしで進む
func RunHeadless(ctx context.Context, s Session, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	for {
		if err := ctx.Err(); err != nil {
			log.Info("headless run cancelled")
			return err
		}
		if err := s.Step(); err != nil {
			if errors.Is(err, engine.ErrTerminated) {
				log.Info("session finished")
				return nil
			}
			return err
		}
	}
}
