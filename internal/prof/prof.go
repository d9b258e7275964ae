// Package prof wires the runtime profilers to files.
package prof

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spf13/afero"
)

// Config names the output files. Empty paths disable a profiler.
type Config struct {
	CPU   string
	Mem   string
	Trace string
}

func (c Config) Enabled() bool {
	return c.CPU != "" || c.Mem != "" || c.Trace != ""
}

// Session holds the profilers started by Start.
type Session struct {
	fs      afero.Fs
	cfg     Config
	cpu     afero.File
	trace   afero.File
	stopped bool
}

// Start enables the profilers named in cfg. On error nothing is left
// running.
func Start(fs afero.Fs, cfg Config) (*Session, error) {
	s := &Session{fs: fs, cfg: cfg}
	if cfg.CPU != "" {
		f, err := fs.Create(cfg.CPU)
		if err != nil {
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cpu profile: %w", err)
		}
		s.cpu = f
	}
	if cfg.Trace != "" {
		f, err := fs.Create(cfg.Trace)
		if err == nil {
			if err = trace.Start(f); err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("runtime trace: %w", err)
		}
		s.trace = f
	}
	return s, nil
}

func (s *Session) stopCPU() error {
	if s.cpu == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpu.Close()
	s.cpu = nil
	return err
}

// Stop ends the CPU profile and runtime trace and writes the heap profile.
// Calling it again is a no-op.
func (s *Session) Stop() error {
	if s == nil || s.stopped {
		return nil
	}
	s.stopped = true
	var errs []error
	if s.trace != nil {
		trace.Stop()
		errs = append(errs, s.trace.Close())
		s.trace = nil
	}
	errs = append(errs, s.stopCPU())
	if s.cfg.Mem != "" {
		errs = append(errs, s.writeMem())
	}
	return errors.Join(errs...)
}

func (s *Session) writeMem() (err error) {
	f, err := s.fs.Create(s.cfg.Mem)
	if err != nil {
		return fmt.Errorf("heap profile: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	runtime.GC()
	return pprof.WriteHeapProfile(f)
}
