// Package trace records what the generator driver is doing: package loads,
// generator passes and single candidates. It is the tool for finding slow
// generators and hangs.
//
//	durian generate --trace=- --trace-level=detail ./...
//
// Tracers travel through a context. Start nests a span under whatever span
// the context already carries:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Start(ctx, trace.ScopeGenerator, "getter")
//	defer span.End("")
//
// A StreamTracer writes events as they happen. A Recorder keeps the most
// recent ones in memory for a dump after a failure. A heartbeat shows the
// process is alive while a long pass runs.
package trace
