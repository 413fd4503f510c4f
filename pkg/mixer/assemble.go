// ABOUTME: The per-tick alignment and admission-control algorithm (spec §4.2)
// ABOUTME: Ported from VLC's aout_output/mixer.c MixBuffer, generalized to the Device/Kernel contract
package mixer

import "github.com/wavefold/mixcore/pkg/audio"

// Result is the outcome of one assembleOne call.
type Result int

const (
	// NotReady means no output block could be produced this tick.
	NotReady Result = iota
	// Ready means one output block was produced and handed to the Sink.
	Ready
)

// pastPacketToleranceUS and the +-BytesPerFrame cursor window in
// reconcileCursor absorb integer division rounding on buffer.Length
// derivation. Both are load-bearing:
// removing either causes buffers that are exactly on the boundary to
// be spuriously dropped or the cursor to be spuriously "corrected"
// every tick. See spec §9.
const pastPacketToleranceUS = 1

// assembleOne implements spec §4.2 steps A-I. Precondition: caller
// holds the mixer lock (Device itself).
func (d *Device) assembleOne() Result {
	d.instr.Tick()

	// Step A: unbound fast-path.
	if !d.attached {
		d.inputs.Lock()
		for i := 0; i < d.inputs.Len(); i++ {
			in := d.inputs.At(i)
			if in.Error {
				continue
			}
			in.Queue.Clear()
			in.ResetBegin()
		}
		d.inputs.Unlock()
		return NotReady
	}

	// Step B: lock and read the output clock.
	d.inputs.Lock()
	d.output.Lock()
	startDate := d.output.EndDate().Get()

	// Step C: late-output reset.
	if startDate != 0 && startDate < d.now.Now() {
		logf("output PTS is out of range (%d us late), clearing out", d.now.Now()-startDate)
		d.output.Clear()
		startDate = 0
		d.instr.LateReset()
	}
	d.output.Unlock()

	// Step D: start-date discovery, only when it isn't already pinned.
	if startDate == 0 {
		nbInputs := d.inputs.Len()
		i := 0
		for ; i < nbInputs; i++ {
			in := d.inputs.At(i)
			if in.IsInvalid() {
				continue
			}

			for {
				buf, ok := in.Queue.Front()
				if !ok || buf.PTS >= d.now.Now() {
					break
				}
				logf("input PTS is out of range (%d us late), trashing", d.now.Now()-buf.PTS)
				in.Queue.Pop()
				in.ResetBegin()
				d.instr.StaleDrop()
			}

			buf, ok := in.Queue.Front()
			if !ok {
				break
			}
			if startDate < buf.PTS {
				startDate = buf.PTS
			}
		}
		if i < nbInputs {
			// Interrupted before the end: an input has nothing usable.
			d.inputs.Unlock()
			return NotReady
		}

		d.output.Lock()
		d.output.EndDate().Set(startDate)
		d.output.Unlock()
	}

	// Step E: compute end_date.
	d.output.Lock()
	endDate := d.output.EndDate().Increment(d.nbSamplesPerBlock)
	d.output.Unlock()

	// Step F: per-input admission, pruning and cursor reconciliation.
	nbInputs := d.inputs.Len()
	firstValidInput := 0
	interrupted := false
	hardReset := false

	for i := 0; i < nbInputs; i++ {
		in := d.inputs.At(i)

		if in.IsInvalid() {
			if firstValidInput == i {
				firstValidInput++
			}
			continue
		}

		if _, ok := in.Queue.Front(); !ok {
			interrupted = true
			break
		}

		// Past-packet drop: buffers that end strictly before start_date.
		for {
			buf, ok := in.Queue.Front()
			if !ok || buf.End() >= startDate-pastPacketToleranceUS {
				break
			}
			logf("the mixer got a packet in the past (%d us)", startDate-buf.End())
			in.Queue.Pop()
			in.ResetBegin()
			d.instr.PastDrop()
		}
		if _, ok := in.Queue.Front(); !ok {
			interrupted = true
			break
		}

		// Sufficiency + contiguity: find a prefix covering [start,end).
		if !d.admitContiguous(in, endDate) {
			interrupted = true
			break
		}

		head, ok := in.Queue.Front()
		if !ok {
			interrupted = true
			break
		}

		// Linear cursor reconciliation.
		if d.format.Linear {
			if reset := d.reconcileCursor(in, head, startDate); reset {
				d.output.Lock()
				d.output.Clear()
				d.output.Unlock()
				interrupted = true
				hardReset = true
				break
			}
		}
	}

	// Step G: global feasibility. A failed tick must not leave the
	// output clock advanced past data that never arrived: roll the
	// accumulator back to start_date so the next tick retries the
	// same interval, unless the cursor-drift branch already forced a
	// hard reset to zero above.
	if interrupted || firstValidInput == nbInputs {
		if !hardReset {
			d.output.Lock()
			d.output.EndDate().Set(startDate)
			d.output.Unlock()
		}
		d.inputs.Unlock()
		return NotReady
	}

	// Step H: destination buffer.
	out := d.selectDestination(firstValidInput)
	if out == nil {
		d.inputs.Unlock()
		return NotReady
	}
	out.PTS = startDate
	out.Length = endDate - startDate

	if err := d.kernel.Mix(d.inputs.All(), d.gain, out); err != nil {
		logf("kernel mix failed: %v", err)
		d.inputs.Unlock()
		return NotReady
	}

	// Step I: handoff.
	d.inputs.Unlock()
	if err := d.output.Play(out); err != nil {
		logf("output play failed: %v", err)
	}
	d.instr.BlockEmitted()
	return Ready
}

// admitContiguous scans forward from the head, dropping any run of
// buffers preceding a gap and restarting, until it finds a prefix
// whose coverage reaches endDate or the queue is exhausted.
func (d *Device) admitContiguous(in *InputState, endDate int64) bool {
	for {
		head, ok := in.Queue.Front()
		if !ok {
			return false
		}
		if head.End() >= endDate {
			return true
		}

		prevEnd := head.End()
		gapAt := -1
		for idx := 1; ; idx++ {
			next, ok := in.Queue.At(idx)
			if !ok {
				break
			}
			if prevEnd != next.PTS {
				gapAt = idx
				break
			}
			if next.End() >= endDate {
				return true
			}
			prevEnd = next.End()
		}

		if gapAt < 0 {
			// Ran off the end of the queue without covering endDate.
			return false
		}

		logf("buffer hole, dropping packets")
		in.Queue.DropFront(gapAt)
		in.ResetBegin()
		d.instr.GapDrop()
		// restart the scan against the post-drop head
	}
}

// reconcileCursor recomputes the ideal in-head byte offset for a
// linear-PCM input and corrects the cursor if it has drifted beyond
// tolerance. It returns true if the correction requires an output
// clock reset (the ideal offset landed before the head buffer even
// starts).
func (d *Device) reconcileCursor(in *InputState, head *audio.Buffer, startDate int64) bool {
	bpf := int64(d.format.BytesPerFrame)
	iBuffer := (startDate - head.PTS) * bpf * int64(d.format.Rate) / int64(d.format.FrameLength) / 1_000_000

	if _, hasBegin := in.Begin(); !hasBegin {
		in.SetBegin(0)
	}
	cursorBytes, _ := in.Begin()

	if iBuffer+bpf > int64(cursorBytes) && iBuffer < bpf+int64(cursorBytes) {
		return false
	}

	logf("mixer start isn't output start (%d bytes)", iBuffer-int64(cursorBytes))
	d.instr.CursorDrift()

	iBuffer = iBuffer / bpf * bpf
	if iBuffer < 0 {
		return true
	}
	in.SetBegin(int(iBuffer))
	return false
}

// selectDestination implements Step H: allocate a fresh block if the
// kernel wants one, otherwise reuse first valid input's head buffer.
func (d *Device) selectDestination(firstValidInput int) *audio.Buffer {
	if d.allocatesOutput {
		nbytes := d.format.BytesPerBlock(d.nbSamplesPerBlock)
		return &audio.Buffer{Payload: make([]byte, nbytes), NumSamples: d.nbSamplesPerBlock}
	}

	in := d.inputs.At(firstValidInput)
	buf, ok := in.Queue.Front()
	if !ok {
		return nil
	}
	return buf
}
