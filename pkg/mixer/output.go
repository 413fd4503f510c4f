// ABOUTME: The downstream sink's end_date accumulator and handoff point
// ABOUTME: Guarded by its own lock, acquired after the input-FIFO lock, never before it
package mixer

import (
	"sync"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/clock"
)

// Sink is the downstream consumer a finished output block is handed
// to (device play-out, a network re-streamer, ...). Play must not
// block indefinitely; the mixer core calls it once per emitted block.
type Sink interface {
	Play(buf *audio.Buffer) error
}

// OutputFIFO tracks the PTS of the next sample slot the output device
// expects (end_date) and forwards finished blocks to a Sink. It is the
// second of the two nested locks the mixer core acquires each tick,
// always after the input-FIFO lock and always released before
// per-input scanning resumes.
type OutputFIFO struct {
	mu      sync.Mutex
	endDate *clock.Date
	sink    Sink
	played  []*audio.Buffer
}

// NewOutputFIFO creates an OutputFIFO for the given output sample rate,
// forwarding finished blocks to sink. sink may be nil for tests that
// only care about admission behavior.
func NewOutputFIFO(rate uint32, sink Sink) *OutputFIFO {
	return &OutputFIFO{
		endDate: clock.NewDate(rate),
		sink:    sink,
	}
}

// Lock acquires the output-FIFO lock.
func (o *OutputFIFO) Lock() { o.mu.Lock() }

// Unlock releases the output-FIFO lock.
func (o *OutputFIFO) Unlock() { o.mu.Unlock() }

// EndDate returns the date accumulator. Callers must hold the output
// lock for the duration of any read or mutation.
func (o *OutputFIFO) EndDate() *clock.Date { return o.endDate }

// Clear drains any blocks not yet consumed and resets end_date to
// zero. Callers must hold the output lock.
func (o *OutputFIFO) Clear() {
	o.played = nil
	o.endDate.Set(0)
}

// Play hands a finished block to the sink and records it for
// inspection (tests, metrics). Play does not require the output lock —
// per spec, the handoff happens after the input-FIFO lock has already
// been released and is not itself part of the two-level lock ordering.
func (o *OutputFIFO) Play(buf *audio.Buffer) error {
	o.mu.Lock()
	o.played = append(o.played, buf)
	o.mu.Unlock()

	if o.sink == nil {
		return nil
	}
	return o.sink.Play(buf)
}

// Played returns a copy of every block handed to Play since the FIFO
// was created or last cleared, for tests to assert on ordering and PTS
// continuity.
func (o *OutputFIFO) Played() []*audio.Buffer {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*audio.Buffer, len(o.played))
	copy(out, o.played)
	return out
}
