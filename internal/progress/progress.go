// Package progress carries advisory progress events from a running download
// to whoever is watching it. Losing an event is never a correctness problem
// for the download itself, so delivery is best-effort and never blocks the
// publishing side.
package progress

// Stage identifies a phase of a download run.
type Stage string

const (
	StageInfo        Stage = "info"
	StageDownloading Stage = "downloading"
	StageMerging     Stage = "merging"
	StageRemuxing    Stage = "remuxing"
	StageComplete    Stage = "complete"
)

// Event is a point-in-time progress report.
type Event struct {
	Stage   Stage
	Current int
	Total   int
	Message string
}

// Sink accepts progress events. Implementations must not block the caller.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// Nop discards all events.
var Nop Sink = SinkFunc(func(Event) {})
