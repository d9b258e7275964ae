package pass

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"durian/internal/compilation"
)

// fileLog writes JSON log lines for one pass. The file is created on the
// first write so passes that log nothing leave nothing behind.
type fileLog struct {
	fs   afero.Fs
	path string

	mu     sync.Mutex
	file   afero.File
	bw     *bufio.Writer
	logger *logrus.Logger
	failed bool
}

func logPath(dir, generator string, comp *compilation.Compilation, id uuid.UUID) string {
	if generator == "" {
		generator = "pass"
	}
	pkg := "unknown"
	if comp != nil && comp.PkgPath != "" {
		pkg = strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(comp.PkgPath)
	}
	return filepath.Join(dir, generator, fmt.Sprintf("%s-%s.log", pkg, id.String()[:8]))
}

func (l *fileLog) open(fallback logrus.FieldLogger) bool {
	if l.logger != nil {
		return true
	}
	if l.failed {
		return false
	}
	if err := l.fs.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.fail(fallback, err)
		return false
	}
	f, err := l.fs.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		l.fail(fallback, err)
		return false
	}
	l.file = f
	l.bw = bufio.NewWriter(f)
	l.logger = &logrus.Logger{
		Out:       l.bw,
		Formatter: &logrus.JSONFormatter{DisableHTMLEscape: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.DebugLevel,
	}
	return true
}

func (l *fileLog) fail(fallback logrus.FieldLogger, err error) {
	l.failed = true
	fallback.WithError(err).WithField("path", l.path).Warn("cannot open generator log")
}

func (l *fileLog) write(fallback logrus.FieldLogger, kind, text string, fields logrus.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.open(fallback) {
		return
	}
	l.logger.WithFields(fields).WithField("kind", kind).Info(text)
}

func (l *fileLog) close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.bw.Flush()
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file, l.bw, l.logger = nil, nil, nil
	return err
}
