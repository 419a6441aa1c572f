package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Dir   string
	Debug bool
}

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

func discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

// Setup sends logs to <Dir>/manga-uploader.log as JSON lines. The terminal
// belongs to the UI, so nothing is written to stdout or stderr.
func Setup(cfg Config) (func() error, error) {
	dir := filepath.Clean(cfg.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		setDiscard()
		return nil, errors.Wrap(err, "create log directory")
	}

	path := filepath.Join(dir, "manga-uploader.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		setDiscard()
		return nil, errors.Wrap(err, "open log file")
	}

	l := log.New()
	l.SetOutput(f)
	l.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	l.SetLevel(log.InfoLevel)
	if cfg.Debug {
		l.SetLevel(log.DebugLevel)
		l.SetReportCaller(true)
	}

	mu.Lock()
	global = l
	logFile = f
	logPath = path
	mu.Unlock()

	l.WithFields(log.Fields{"path": path, "debug": cfg.Debug}).Info("logger initialized")

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()

		var cerr error
		if logFile != nil {
			cerr = logFile.Close()
		}
		logFile = nil
		logPath = ""
		global = discard()
		return cerr
	}
	return cleanup, nil
}

func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// For returns an entry tagged with the component name.
func For(component string) *log.Entry {
	return L().WithField("component", component)
}

func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func setDiscard() {
	mu.Lock()
	defer mu.Unlock()
	global = discard()
	logFile = nil
	logPath = ""
}
