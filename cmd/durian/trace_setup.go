package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"durian/internal/prof"
	"durian/internal/trace"
)

// setupTracing attaches the configured tracer to ctx. The returned stop
// function flushes and closes it. At level error the events are recorded
// in memory and only written when the command fails.
func setupTracing(ctx context.Context, cmd *cobra.Command, s *settings) (context.Context, func(error), error) {
	level, err := trace.ParseLevel(s.cfg.Trace.Level.String)
	if err != nil {
		return ctx, nil, err
	}
	if level == trace.LevelOff {
		return trace.WithTracer(ctx, trace.Nop), func(error) {}, nil
	}
	interval, err := cmd.Flags().GetDuration("trace-heartbeat")
	if err != nil {
		return ctx, nil, err
	}
	cfg := trace.Config{Level: level, OutputPath: s.cfg.Trace.Output.String}

	if level == trace.LevelError {
		rec := trace.NewRecorder(0, trace.LevelDebug)
		stopBeat := trace.StartHeartbeat(rec, interval)
		return trace.WithTracer(ctx, rec), func(runErr error) {
			stopBeat()
			if runErr == nil || errors.Is(runErr, errDiagnostics) {
				return
			}
			cfg.Level = trace.LevelDebug
			out, err := trace.New(cfg)
			if err != nil {
				s.logger.WithError(err).Warn("trace dump failed")
				return
			}
			rec.Replay(out)
			closeTracer(s, out)
		}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return ctx, nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	stopBeat := trace.StartHeartbeat(tracer, interval)
	return trace.WithTracer(ctx, tracer), func(error) {
		stopBeat()
		closeTracer(s, tracer)
	}, nil
}

func closeTracer(s *settings, t trace.Tracer) {
	if err := t.Close(); err != nil {
		s.logger.WithError(err).Warn("trace close failed")
	}
}

// setupProfiling starts the profilers requested on the command line.
func setupProfiling(cmd *cobra.Command, s *settings) (func(), error) {
	var cfg prof.Config
	var err error
	if cfg.CPU, err = cmd.Flags().GetString("cpu-profile"); err != nil {
		return nil, err
	}
	if cfg.Mem, err = cmd.Flags().GetString("mem-profile"); err != nil {
		return nil, err
	}
	if cfg.Trace, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return func() {}, nil
	}
	session, err := prof.Start(afero.NewOsFs(), cfg)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			s.logger.WithError(err).Warn("profiling")
		}
	}, nil
}
