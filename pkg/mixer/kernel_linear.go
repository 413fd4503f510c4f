// ABOUTME: Reference linear-PCM mixing kernel: sums 16-bit samples across valid inputs
package mixer

import (
	"encoding/binary"

	"github.com/wavefold/mixcore/pkg/audio"
)

// LinearPCMKernel sums little-endian 16-bit PCM samples from every
// valid input into a fresh output buffer, applying a single scalar
// gain to the mixed result and clipping to the int16 range. It always
// has the core allocate a fresh destination buffer: in-place mixing only makes
// sense for a single pass-through stream, which is what
// PassthroughKernel is for.
type LinearPCMKernel struct {
	format audio.Format
}

// NewLinearPCMKernel creates a kernel for the given (linear) format.
func NewLinearPCMKernel(format audio.Format) *LinearPCMKernel {
	return &LinearPCMKernel{format: format}
}

// AllocatesOutput always returns true for LinearPCMKernel.
func (k *LinearPCMKernel) AllocatesOutput() bool { return true }

// Mix sums each valid input's samples, in cursor order, walking across
// buffer boundaries and popping fully-consumed buffers as it goes.
func (k *LinearPCMKernel) Mix(inputs []*InputState, gain float32, out *audio.Buffer) error {
	nSamples := len(out.Payload) / 2
	acc := make([]int32, nSamples)

	for _, in := range inputs {
		if in.IsInvalid() {
			continue
		}

		pos := 0
		for pos < nSamples {
			buf, ok := in.Queue.Front()
			if !ok {
				break
			}

			begin, hasBegin := in.Begin()
			if !hasBegin {
				begin = 0
			}

			availBytes := len(buf.Payload) - begin
			if availBytes <= 0 {
				in.Queue.Pop()
				in.ResetBegin()
				continue
			}
			availSamples := availBytes / 2
			if availSamples == 0 {
				// Odd trailing byte in a malformed buffer; drop it
				// rather than reading a torn sample.
				in.Queue.Pop()
				in.ResetBegin()
				continue
			}

			take := nSamples - pos
			if take > availSamples {
				take = availSamples
			}

			for i := 0; i < take; i++ {
				s := int16(binary.LittleEndian.Uint16(buf.Payload[begin+i*2:]))
				acc[pos+i] += int32(s)
			}

			begin += take * 2
			pos += take

			if begin >= len(buf.Payload) {
				in.Queue.Pop()
				in.ResetBegin()
			} else {
				in.SetBegin(begin)
			}
		}
	}

	for i, sum := range acc {
		v := float32(sum) * gain
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(out.Payload[i*2:], uint16(int16(v)))
	}

	return nil
}
