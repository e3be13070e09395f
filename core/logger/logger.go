package logger

import (
	"io"

	"github.com/google/uuid"
	"github.com/josephlewis42/jsh/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SessionKey is the field that ties together the entries of one shell run.
const SessionKey = "session"

// New opens the operator log named by the configuration. If logging is
// disabled it returns a no-op logger. The returned function flushes and
// closes the log.
func New(cfg *config.Configuration) (*zap.Logger, func() error, error) {
	fd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, nil, err
	}
	if fd == nil {
		return zap.NewNop(), func() error { return nil }, nil
	}

	log, err := NewWriter(fd, cfg.Log.Level)
	if err != nil {
		fd.Close()
		return nil, nil, err
	}

	return log, func() error {
		log.Sync()
		return fd.Close()
	}, nil
}

// NewWriter creates a session logger writing JSON lines at or above level to
// w.
func NewWriter(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core).With(zap.String(SessionKey, uuid.NewString())), nil
}
