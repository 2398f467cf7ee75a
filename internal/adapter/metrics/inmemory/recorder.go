package inmemory

import (
	"sync"

	"guildhall/internal/domain/guild"
)

type Snapshot struct {
	TickTotal       uint64            `json:"tick_total"`
	CommandTotal    uint64            `json:"command_total"`
	CommandRejected uint64            `json:"command_rejected"`
	Conflicts       uint64            `json:"conflicts"`
	Failures        uint64            `json:"failures"`
	ByEventType     map[string]uint64 `json:"by_event_type"`
	ByCommandType   map[string]uint64 `json:"by_command_type"`
}

type Recorder struct {
	mu        sync.Mutex
	ticks     uint64
	commands  uint64
	rejected  uint64
	conflicts uint64
	failures  uint64
	byEvent   map[string]uint64
	byCommand map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byEvent:   map[string]uint64{},
		byCommand: map[string]uint64{},
	}
}

func (r *Recorder) RecordTick(events []guild.OutcomeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
	for _, e := range events {
		r.byEvent[e.Type]++
	}
}

func (r *Recorder) RecordCommand(commandType string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands++
	r.byCommand[commandType]++
	if !ok {
		r.rejected++
	}
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		TickTotal:       r.ticks,
		CommandTotal:    r.commands,
		CommandRejected: r.rejected,
		Conflicts:       r.conflicts,
		Failures:        r.failures,
		ByEventType:     make(map[string]uint64, len(r.byEvent)),
		ByCommandType:   make(map[string]uint64, len(r.byCommand)),
	}
	for k, v := range r.byEvent {
		out.ByEventType[k] = v
	}
	for k, v := range r.byCommand {
		out.ByCommandType[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
