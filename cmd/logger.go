package cmd

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// newLogger builds the console logger handed to the remote package. Levels
// are colored only when w is a terminal; verbose enables V(1) output.
func newLogger(w io.Writer, verbose bool) logr.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zapr.NewLogger(zap.New(core))
}
