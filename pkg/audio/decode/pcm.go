// ABOUTME: PCM audio decoder
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM to interleaved LE16 PCM
package decode

import (
	"encoding/binary"

	"github.com/wavefold/mixcore/pkg/audio"
)

// pcm16Decoder passes 16-bit LE PCM through unchanged: it is already
// the wire format the mixer's LinearPCMKernel wants.
type pcm16Decoder struct{}

// NewPCM16 returns a decoder for already-16-bit LE PCM frames.
func NewPCM16() Decoder { return pcm16Decoder{} }

func (pcm16Decoder) Decode(data []byte) ([]byte, error) {
	return data, nil
}

func (pcm16Decoder) Close() error { return nil }

// pcm24Decoder narrows 24-bit LE PCM down to 16-bit LE PCM.
type pcm24Decoder struct{}

// NewPCM24 returns a decoder for 24-bit LE PCM frames.
func NewPCM24() Decoder { return pcm24Decoder{} }

func (pcm24Decoder) Decode(data []byte) ([]byte, error) {
	n := len(data) / 3
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
		sample24 := audio.SampleFrom24Bit(b)
		sample16 := audio.SampleToInt16(sample24)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample16))
	}
	return out, nil
}

func (pcm24Decoder) Close() error { return nil }
