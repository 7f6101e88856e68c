// Package cli は sagavm のコマンドライン引数を解析する
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Options はコマンドライン引数から解析された設定を保持する
type Options struct {
	GamePath string        // ゲームディレクトリ、または sagavm.toml のパス
	Title    string        // タイトルの上書き（ite, ihnm）。空なら設定ファイルに従う
	Timeout  time.Duration // タイムアウト時間（0は無制限）
	LogLevel string        // ログレベル（debug, info, warn, error）
	Headless bool          // ヘッドレスモード
	Mute     bool          // 音声を出力しない
	ShowHelp bool          // ヘルプ表示フラグ
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-headless": true, "--headless": true,
	"-mute": true, "--mute": true,
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// ParseArgs コマンドライン引数を解析してOptionsを返す
// コマンドラインフラグは環境変数より優先される
func ParseArgs(args []string) (*Options, error) {
	fs := flag.NewFlagSet("sagavm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &Options{}
	var timeoutSec int
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&opts.LogLevel, "log-level", "", "ログレベル")
	fs.StringVar(&opts.LogLevel, "l", "", "ログレベル（短縮形）")
	fs.StringVar(&opts.Title, "title", "", "タイトル（ite, ihnm）")
	fs.BoolVar(&opts.Headless, "headless", false, "ヘッドレスモード")
	fs.BoolVar(&opts.Mute, "mute", false, "ミュート")
	fs.BoolVar(&opts.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&opts.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %s", strings.Join(fs.Args(), " "))
	}
	if fs.NArg() == 1 {
		opts.GamePath = fs.Arg(0)
	}

	applyEnv(opts, &timeoutSec)

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	opts.Timeout = time.Duration(timeoutSec) * time.Second

	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}
	if !isValidLogLevel(opts.LogLevel) {
		return nil, fmt.Errorf("invalid log level: %s (must be %s)", opts.LogLevel, strings.Join(validLogLevels, ", "))
	}
	return opts, nil
}

// applyEnv 未指定の項目を環境変数で補う
func applyEnv(opts *Options, timeoutSec *int) {
	if opts.GamePath == "" {
		opts.GamePath = os.Getenv("SAGAVM_GAME")
	}
	if !opts.Headless {
		if v := os.Getenv("HEADLESS"); v != "" {
			opts.Headless = v == "1" || strings.EqualFold(v, "true")
		}
	}
	if *timeoutSec == 0 {
		if v := os.Getenv("TIMEOUT"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*timeoutSec = n
			}
		}
	}
	if opts.LogLevel == "" {
		opts.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	}
}

func isValidLogLevel(level string) bool {
	for _, l := range validLogLevels {
		if l == level {
			return true
		}
	}
	return false
}

// reorderArgs フラグを前に、位置引数を後ろに並べ替える
// "--" 以降はすべて位置引数として扱う
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			positional = append(positional, args[i+1:]...)
			return append(append(flags, "--"), positional...)
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			flags = append(flags, arg)
			// "-t 5" の形式では次の引数を値として扱う
			if !strings.Contains(arg, "=") && !boolFlags[arg] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		default:
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `sagavm - SAGA script runtime

Usage:
  sagavm [options] [game-path]

Arguments:
  game-path     ゲームディレクトリ、または sagavm.toml のパス（省略時はカレントディレクトリ）

Options:
  -t, --timeout <seconds>     指定秒数（ゲーム時間）後に終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --title <ite|ihnm>          設定ファイルのタイトルを上書き
  --headless                  ヘッドレスモード（GUIなし）
  --mute                      音声を出力しない
  -h, --help                  このヘルプを表示

Environment Variables:
  SAGAVM_GAME=<path>          ゲームのパス
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル

Examples:
  sagavm games/ite                       ディレクトリ内の sagavm.toml を使用
  sagavm --headless --timeout 10 games/ite
  sagavm --title ihnm games/ihnm/demo.toml
`)
}
