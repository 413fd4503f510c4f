// ABOUTME: Immutable per-mixer audio format description
// ABOUTME: Drives byte-cursor math for linear PCM inputs
package audio

// Format describes the fixed configuration of a mixer: how many bytes
// make up one frame, how many samples make up one frame, the sample
// rate, and whether the payload is linear PCM (sub-frame byte math is
// meaningful) or a pass-through compressed stream (only frame
// boundaries matter).
type Format struct {
	BytesPerFrame uint32
	FrameLength   uint32
	Rate          uint32
	Linear        bool
}

// BytesPerBlock returns the byte size of an output block holding
// nbSamples samples at this format.
func (f Format) BytesPerBlock(nbSamples uint32) uint32 {
	return nbSamples * f.BytesPerFrame / f.FrameLength
}
