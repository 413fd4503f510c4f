// ABOUTME: Reference pass-through kernel for compressed/non-linear formats
// ABOUTME: Mixes in place: the destination buffer is the single valid input's own head buffer
package mixer

import "github.com/wavefold/mixcore/pkg/audio"

// PassthroughKernel handles a compressed stream where sub-frame byte
// math is meaningless: it never allocates, and it never sums, since
// summing encoded streams isn't defined. It exists to demonstrate the
// AllocatesOutput() == false path, where the destination buffer is the
// first valid input's own head buffer.
type PassthroughKernel struct {
	format audio.Format
}

// NewPassthroughKernel creates a pass-through kernel for the given
// (non-linear) format.
func NewPassthroughKernel(format audio.Format) *PassthroughKernel {
	return &PassthroughKernel{format: format}
}

// AllocatesOutput always returns false for PassthroughKernel.
func (k *PassthroughKernel) AllocatesOutput() bool { return false }

// Mix pops the destination buffer (already the head buffer the core
// selected as out) off its owning input's queue, since it has now been
// handed off to the output. Every other valid input's data is left
// untouched — compressed streams cannot be summed, only one plays.
func (k *PassthroughKernel) Mix(inputs []*InputState, gain float32, out *audio.Buffer) error {
	for _, in := range inputs {
		if in.IsInvalid() {
			continue
		}
		if buf, ok := in.Queue.Front(); ok && buf == out {
			in.Queue.Pop()
			in.ResetBegin()
			return nil
		}
	}
	return nil
}
