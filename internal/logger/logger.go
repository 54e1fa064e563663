// Package logger はJSON構造化ログのセットアップを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// ログレベルは環境変数LOG_LEVEL（debug/info/warn/error）で指定でき、
// 未設定または不正な値の場合はinfoになる。
func Setup(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerが指定された場合はそのwriterに出力する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	logger := Setup(w)
	slog.SetDefault(logger)
}

// levelFromEnv は環境変数LOG_LEVELからログレベルを解決する。
func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
