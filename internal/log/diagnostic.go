package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DiagnosticFile is the rotated diagnostic log inside .podium/.
const DiagnosticFile = "podium.log"

// NewDiagnostic returns a JSON zap logger writing to .podium/podium.log
// inside dir, rotated by size. verbose enables debug entries.
func NewDiagnostic(dir string, verbose bool) (*zap.Logger, error) {
	stateDir := filepath.Join(dir, ".podium")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create .podium directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(stateDir, DiagnosticFile),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(rotator),
		level,
	)
	return zap.New(core, zap.AddCaller()), nil
}
