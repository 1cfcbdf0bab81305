package entity

import (
	"main/internal/capture"
	"main/internal/schema"
)

// Recorder appends every message it observes to a capture log. It never
// emits. Write failures are sticky and surface through Err after the run.
type Recorder struct {
	id     string
	writer *capture.Writer
	err    error
}

// NewRecorder builds a recorder entity over an open capture writer.
func NewRecorder(id string, writer *capture.Writer) *Recorder {
	return &Recorder{id: id, writer: writer}
}

// ID implements sim.Entity.
func (r *Recorder) ID() string { return r.id }

// OnMessage implements sim.Entity.
func (r *Recorder) OnMessage(msg schema.Message) []schema.Message {
	if r.err != nil {
		return nil
	}
	r.err = r.writer.Append(msg)
	return nil
}

// Err reports the first capture write failure, if any.
func (r *Recorder) Err() error { return r.err }
