package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
	megabyte                    = 1 << 20
)

// RSyncWrite is a rotable and concurent safe file-based logs writer.
// It is aimed to be used by Zap core routine. So it must implements
// the zap.WriteSyncer interface. The rotation happens based on the
// file size, once it reaches the max defined value.
type RSyncWrite struct {
	clock Clocker
	sync.Mutex
	file   *os.File
	folder string
	max    int
	size   int64
	isProd bool
}

func NewRSyncWriter(config *Config, clock Clocker) *RSyncWrite {
	return &RSyncWrite{
		clock:  clock,
		folder: config.LogFolder,
		max:    config.LogMaxSize,
		isProd: config.IsProduction,
	}
}

// Close closes the current log file.
func (rsw *RSyncWrite) Close() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	err := rsw.file.Close()
	rsw.file = nil
	return err
}

func (rsw *RSyncWrite) Sync() error {
	rsw.Lock()
	defer rsw.Unlock()
	if rsw.file == nil {
		return nil
	}
	return rsw.file.Sync()
}

// Write implements the io.Writer interface with file rotation once max size is reached.
func (rsw *RSyncWrite) Write(p []byte) (n int, err error) {
	rsw.Lock()
	defer rsw.Unlock()
	pLen := int64(len(p))
	limit := int64(rsw.max) * megabyte
	if pLen > limit {
		return 0, fmt.Errorf("logging: log size %d exceeds max file size %d", pLen, limit)
	}
	if pLen+rsw.size > limit || rsw.file == nil {
		if rsw.file != nil {
			if err := rsw.file.Close(); err != nil {
				return 0, err
			}
		}

		path := CreateLogFilePath(rsw.folder, rsw.isProd, rsw.clock.Now())
		file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return 0, err
		}
		rsw.file = file
		rsw.size = 0
	}
	n, err = rsw.file.Write(p)
	rsw.size += int64(n)
	return n, err
}

// SyncWrite implements zap.SyncWriter. This is a small hack to avoid usual
// `Handle is invalid` error when calling Sync() on logger using os.stdout.
type SyncWrite struct {
	out *os.File
}

func (sw *SyncWrite) Sync() error {
	return nil
}

func (sw *SyncWrite) Write(p []byte) (n int, err error) {
	return sw.out.Write(p)
}

func encoderConfig(isProd bool) zapcore.EncoderConfig {
	zapConfig := zap.NewDevelopmentEncoderConfig()
	if isProd {
		zapConfig = zap.NewProductionEncoderConfig()
	}
	zapConfig.TimeKey = "ts"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "lvl"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "skt"
	return zapConfig
}

// SetupLogging is a helper function that initializes the logging module.
// In production all logs are saved to the rotated files. In development
// the same logs are printed to standard output as well. It only adds
// stacktrace to fatal level logs. All logs come with commit & tag value.
// The custom clock provides timestamp in UTC for production environment
// and timestamp in Local timezone in development setup.
func SetupLogging(config *Config, w zapcore.WriteSyncer, clock TickerClocker) (*zap.Logger, func() error) {
	zapConfig := encoderConfig(config.IsProduction)
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(zapConfig), w, config.LogLevel),
	}
	if !config.IsProduction {
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), zapcore.Lock(&SyncWrite{os.Stdout}), config.LogLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock))
	logger = logger.With(zap.String("app.commit", config.GitCommit), zap.String("app.tag", config.GitTag), zap.String("app.built", config.BuildTime))

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}

	return logger, flusher
}

// GetLoggerFromContext retrieves previously set logger from the context and returns it.
// If the logger can't be retrieved it will return the initial logger of the App.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return api.logger
}

// CreateLogFilePath returns the path of a new log file.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	envKey := "dev"
	if isProd {
		envKey = "prod"
	}
	suffix := fmt.Sprintf("catalog.%04d%02d%02d.%02d%02d%02d.%09d.%s.log",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), envKey)
	return filepath.Join(folder, suffix)
}
