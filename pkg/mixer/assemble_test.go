// ABOUTME: White-box tests of the admission scan and cursor reconciliation helpers
package mixer

import (
	"testing"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/clock"
)

func newTestDevice(format audio.Format, rec Instrumentation) *Device {
	return NewDevice(Config{
		Format:            format,
		NbSamplesPerBlock: 1024,
		Inputs:            0,
		Now:               clock.NewManual(0),
		Instrumentation:   rec,
	})
}

func TestAdmitContiguousSufficientHead(t *testing.T) {
	d := newTestDevice(linear1024(), &countingInstrumentation{})
	in := NewInputState()
	in.Queue.Push(&audio.Buffer{PTS: 0, Length: 30000})

	if !d.admitContiguous(in, 21333) {
		t.Fatal("expected head alone to satisfy coverage")
	}
	if in.Queue.Len() != 1 {
		t.Errorf("admission must not pop on success, len=%d", in.Queue.Len())
	}
}

func TestAdmitContiguousChainsContiguousBuffers(t *testing.T) {
	d := newTestDevice(linear1024(), &countingInstrumentation{})
	in := NewInputState()
	in.Queue.Push(&audio.Buffer{PTS: 0, Length: 10000})     // End 10000
	in.Queue.Push(&audio.Buffer{PTS: 10000, Length: 20000}) // End 30000, contiguous

	if !d.admitContiguous(in, 21333) {
		t.Fatal("expected the two contiguous buffers to cover the interval")
	}
	if in.Queue.Len() != 2 {
		t.Errorf("chaining to sufficiency must not drop anything, len=%d", in.Queue.Len())
	}
}

// TestAdmitContiguousDropsBeforeGap covers the hole-detection branch:
// a buffer that doesn't by itself reach end_date, followed by a
// non-contiguous successor, is dropped so the scan can restart from
// what remains.
func TestAdmitContiguousDropsBeforeGap(t *testing.T) {
	rec := &countingInstrumentation{}
	d := newTestDevice(linear1024(), rec)
	in := NewInputState()
	in.Queue.Push(&audio.Buffer{PTS: 21333, Length: 10000}) // End 31333, short of end_date
	in.Queue.Push(&audio.Buffer{PTS: 35000, Length: 5000})  // gap: expected pts 31333, got 35000

	ok := d.admitContiguous(in, 42666)
	if ok {
		t.Fatal("expected admission to fail: remaining data can't cover end_date after the drop")
	}
	if in.Queue.Len() != 1 {
		t.Fatalf("expected the pre-gap buffer dropped, len=%d", in.Queue.Len())
	}
	if front, _ := in.Queue.Front(); front.PTS != 35000 {
		t.Errorf("expected the post-gap buffer to survive, got pts=%d", front.PTS)
	}
	if rec.gapDrops != 1 {
		t.Errorf("expected 1 gap drop, got %d", rec.gapDrops)
	}
}

func TestAdmitContiguousEmptyQueueFails(t *testing.T) {
	d := newTestDevice(linear1024(), &countingInstrumentation{})
	in := NewInputState()
	if d.admitContiguous(in, 21333) {
		t.Fatal("expected failure on an empty queue")
	}
}

func TestReconcileCursorWithinToleranceLeavesCursorAlone(t *testing.T) {
	format := audio.Format{BytesPerFrame: 4, FrameLength: 1, Rate: 48000, Linear: true}
	d := newTestDevice(format, &countingInstrumentation{})

	head := &audio.Buffer{PTS: 100000, Payload: make([]byte, 8192)}
	in := NewInputState()
	in.Queue.Push(head)
	in.SetBegin(6142) // close to the ideal 6144 computed below, within +-4 bytes

	reset := d.reconcileCursor(in, head, 132000)
	if reset {
		t.Fatal("expected no reset for a cursor within tolerance")
	}
	begin, _ := in.Begin()
	if begin != 6142 {
		t.Errorf("expected cursor left untouched at 6142, got %d", begin)
	}
}

func TestReconcileCursorOutOfToleranceCorrectsForward(t *testing.T) {
	format := audio.Format{BytesPerFrame: 4, FrameLength: 1, Rate: 48000, Linear: true}
	rec := &countingInstrumentation{}
	d := newTestDevice(format, rec)

	head := &audio.Buffer{PTS: 100000, Payload: make([]byte, 8192)}
	in := NewInputState()
	in.Queue.Push(head)
	// begin left unset: the mixer is only just starting to read this input.

	reset := d.reconcileCursor(in, head, 110666)
	if reset {
		t.Fatal("did not expect a hard reset for a forward (non-negative) correction")
	}
	begin, hasBegin := in.Begin()
	if !hasBegin {
		t.Fatal("expected a cursor to be set")
	}
	// (110666-100000)*4*48000/1/1e6 truncates to 2047, rounded down to
	// the nearest multiple of 4.
	if begin != 2044 {
		t.Errorf("expected cursor corrected to 2044, got %d", begin)
	}
	if rec.cursorDrifts != 1 {
		t.Errorf("expected 1 cursor drift recorded, got %d", rec.cursorDrifts)
	}
}

// TestReconcileCursorNegativeOffsetRequestsHardReset covers the branch
// where the ideal offset lands before the head buffer even starts:
// the caller must clear the output clock and lose one tick rather
// than seek to a negative byte offset.
func TestReconcileCursorNegativeOffsetRequestsHardReset(t *testing.T) {
	format := audio.Format{BytesPerFrame: 4, FrameLength: 1, Rate: 48000, Linear: true}
	d := newTestDevice(format, &countingInstrumentation{})

	head := &audio.Buffer{PTS: 100000, Payload: make([]byte, 8192)}
	in := NewInputState()
	in.Queue.Push(head)

	reset := d.reconcileCursor(in, head, 50000) // start_date before head.PTS
	if !reset {
		t.Fatal("expected a hard reset request for a negative ideal offset")
	}
}

func TestPastPacketDropWithinTicksScanning(t *testing.T) {
	format := linear1024()
	now := clock.NewManual(0)
	rec := &countingInstrumentation{}
	d := NewDevice(Config{
		Format:            format,
		NbSamplesPerBlock: 1024,
		Inputs:            1,
		Gain:              1.0,
		Now:               now,
		Instrumentation:   rec,
	})
	attachLocked(t, d)

	d.Inputs().Lock()
	in := d.Inputs().At(0)
	// The head buffer ends well before the already-pinned start_date
	// and must be dropped as a past packet; the buffer behind it
	// starts so far ahead of start_date that cursor reconciliation
	// then forces a clock reset in the same tick. Both recovery paths
	// fire and the tick still ends in NotReady.
	in.Queue.Push(&audio.Buffer{PTS: 0, Length: 1000, NumSamples: 1, Payload: fullBlockPayload(1, 1)})
	in.Queue.Push(&audio.Buffer{PTS: 200000, Length: 25000, NumSamples: 1024, Payload: fullBlockPayload(1024, 1)})
	d.Inputs().Unlock()

	d.Output().Lock()
	d.Output().EndDate().Set(150000)
	d.Output().Unlock()

	d.Lock()
	result := d.assembleOne()
	d.Unlock()

	if result != NotReady {
		t.Fatalf("expected NotReady, got %v", result)
	}
	if rec.pastDrops != 1 {
		t.Errorf("expected the stale head buffer dropped as a past packet, got %d", rec.pastDrops)
	}
	if in.Queue.Len() != 1 {
		t.Errorf("expected only the far-future buffer left queued, len=%d", in.Queue.Len())
	}
}
