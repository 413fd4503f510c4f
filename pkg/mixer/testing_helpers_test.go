// ABOUTME: Shared test fixtures for the mixer package's test files
package mixer

import "github.com/wavefold/mixcore/pkg/audio"

// countingInstrumentation records how many times each counter fired,
// for tests that need to assert on the exact edge-case path taken.
type countingInstrumentation struct {
	ticks, blocks                   int
	staleDrops, pastDrops, gapDrops int
	lateResets, cursorDrifts        int
}

func (c *countingInstrumentation) Tick()         { c.ticks++ }
func (c *countingInstrumentation) BlockEmitted() { c.blocks++ }
func (c *countingInstrumentation) StaleDrop()    { c.staleDrops++ }
func (c *countingInstrumentation) PastDrop()     { c.pastDrops++ }
func (c *countingInstrumentation) GapDrop()      { c.gapDrops++ }
func (c *countingInstrumentation) LateReset()    { c.lateResets++ }
func (c *countingInstrumentation) CursorDrift()  { c.cursorDrifts++ }

// linear1024 builds a Format matching a mono 16-bit stream at 48kHz,
// the shape LinearPCMKernel actually consumes.
func linear1024() audio.Format {
	return audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
}

func fullBlockPayload(nbSamples int, value int16) []byte {
	samples := make([]int16, nbSamples)
	for i := range samples {
		samples[i] = value
	}
	return pcm16(samples...)
}
