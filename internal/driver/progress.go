package driver

import "time"

// Stage describes a phase of a run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageGenerate Stage = "generate"
	StageWrite    Stage = "write"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	// StatusCached means the package was replayed from the disk cache.
	StatusCached Status = "cached"
	StatusDone   Status = "done"
	StatusError  Status = "error"
)

// Event reports progress for a package, or for the whole run when Package
// is empty.
type Event struct {
	Package string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Events for different packages may
// arrive from different goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to ProgressSink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink ProgressSink, pkg string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Package: pkg, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
