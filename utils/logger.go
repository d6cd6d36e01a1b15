package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// Logger はツール全体で使う構造化ロガーです
var Logger zerolog.Logger

// init関数はパッケージがインポートされたときに自動的に実行されます
func init() {
	Logger = NewLogger(os.Stderr)
}

// NewLogger は出力先に応じたロガーを作成します。
// LOG_FORMAT=json の場合はJSON、それ以外はコンソール向けの形式で出力します
func NewLogger(w io.Writer) zerolog.Logger {
	if os.Getenv("LOG_FORMAT") != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.DateTime,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetOutput はログの出力先を差し替えます (テスト用)
func SetOutput(w io.Writer) {
	Logger = Logger.Output(w)
}

// LogDebug はデバッグレベルのメッセージをログに記録します
func LogDebug(format string, v ...interface{}) {
	Logger.Debug().Msgf(format, v...)
}

// LogInfo は情報レベルのメッセージをログに記録します
func LogInfo(format string, v ...interface{}) {
	Logger.Info().Msgf(format, v...)
}

// LogWarn は警告レベルのメッセージをログに記録します
func LogWarn(format string, v ...interface{}) {
	Logger.Warn().Msgf(format, v...)
}

// LogError はエラーレベルのメッセージをログに記録します
func LogError(format string, v ...interface{}) {
	Logger.Error().Msgf(format, v...)
}

// TrackTime は関数の実行時間を計測して出力するユーティリティです
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	Logger.Info().Dur("elapsed", elapsed).Msgf("%s 完了時間: %s", name, elapsed)
}

var (
	okColor  = color.New(color.FgGreen)
	nokColor = color.New(color.FgRed)
)

// Result は処理結果を OK / NOK の文字列で返します
func Result(ok bool) string {
	if ok {
		return okColor.Sprint("OK")
	}
	return nokColor.Sprint("NOK")
}

// Percentage は進捗率を右寄せ3桁の文字列で返します
func Percentage(counter, total int) string {
	if total <= 0 {
		return fmt.Sprintf("%3d", 0)
	}
	return fmt.Sprintf("%3d", counter*100/total)
}

// Progress は "PPP% [n|total]" 形式の進捗プレフィックスを返します
func Progress(counter, total int) string {
	return fmt.Sprintf("%s%% [%d|%d]", Percentage(counter, total), counter, total)
}

// SetVerbose はデバッグレベルのログを有効にします
func SetVerbose(verbose bool) {
	if verbose {
		Logger = Logger.Level(zerolog.DebugLevel)
	}
}
