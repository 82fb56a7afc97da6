package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
)

// ログ出力形式
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	return New(w, "info", FormatJSON)
}

// New は指定されたレベルと形式のslog.Loggerを生成する。
// formatが"console"の場合はclogによる人間向けの出力、それ以外はJSONを出力する。
func New(w io.Writer, level, format string) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	if strings.EqualFold(format, FormatConsole) {
		return slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(ParseLevel(level)),
			clog.WithTimeFmt("15:04:05"),
			clog.WithSource(false),
			clog.WithAttrHook(clog.GoerrHook),
		))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// ParseLevel は文字列のログレベルをslog.Levelに変換する。
// 不明な値はInfoとして扱う。
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	Configure(w, "info", FormatJSON)
}

// Configure は設定値に従ったロガーをグローバルロガーとして設定する。
func Configure(w io.Writer, level, format string) {
	slog.SetDefault(New(w, level, format))
}
