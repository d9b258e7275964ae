package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Tracer receives trace events. Implementations are safe for concurrent
// use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	// Enabled reports Level() > LevelOff.
	Enabled() bool
}

type Config struct {
	Level Level
	// Format defaults to NDJSON for *.json and *.ndjson outputs and to
	// text otherwise.
	Format Format
	// Output wins over OutputPath. OutputPath "-" or "" is stderr.
	Output     io.Writer
	OutputPath string
	// Fs opens OutputPath. The OS filesystem when nil.
	Fs afero.Fs
}

// New returns a stream tracer for cfg, or Nop when the level is off.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".json") {
			format = FormatNDJSON
		}
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	return NewStreamTracer(w, cfg.Level, format), nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	f, err := fs.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}
