package cmd

import (
	"fmt"
	"io"

	"golang.org/x/exp/slog"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

func Logger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}

// FileLogger logs to a rotating file at the given path; rotated backups are
// kept next to it.
func FileLogger(path string, lvl slog.Level) log.Logger {
	return Logger(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    100, // MiB
		MaxBackups: 3,
	}, lvl)
}

// HexU32 to lazy-format integer attributes for logging
type HexU32 uint32

func (v HexU32) String() string {
	return fmt.Sprintf("%08x", uint32(v))
}

func (v HexU32) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}
