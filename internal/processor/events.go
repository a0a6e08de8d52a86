package processor

import "sync"

// Event is one of LogLine, Progress or Done.
type Event interface {
	event()
}

type LogLine struct {
	Text string
}

type Progress struct {
	Completed int
	Total     int
}

// Done is always the last event of a run.
type Done struct {
	Stats Stats
}

func (LogLine) event()  {}
func (Progress) event() {}
func (Done) event()     {}

// ProgressSink receives run output. Runner calls it from a single goroutine.
type ProgressSink interface {
	OnLog(text string)
	OnProgress(completed, total int)
	OnComplete(stats Stats)
}

// EventQueue is an unbounded FIFO between the run goroutine and a consumer
// that polls it. The producer side implements ProgressSink; the consumer
// side never blocks.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *EventQueue) OnLog(text string)               { q.push(LogLine{Text: text}) }
func (q *EventQueue) OnProgress(completed, total int) { q.push(Progress{Completed: completed, Total: total}) }
func (q *EventQueue) OnComplete(stats Stats)          { q.push(Done{Stats: stats}) }

// Drain removes and returns everything queued so far, oldest first. It
// returns nil when the queue is empty.
func (q *EventQueue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}

// DrainTo delivers all queued events to sink in order and reports whether
// the Done event was among them.
func (q *EventQueue) DrainTo(sink ProgressSink) bool {
	done := false
	for _, ev := range q.Drain() {
		if Deliver(ev, sink) {
			done = true
		}
	}
	return done
}

// Deliver hands one event to sink and reports whether it was Done.
func Deliver(ev Event, sink ProgressSink) bool {
	switch e := ev.(type) {
	case LogLine:
		sink.OnLog(e.Text)
	case Progress:
		sink.OnProgress(e.Completed, e.Total)
	case Done:
		sink.OnComplete(e.Stats)
		return true
	}
	return false
}
