// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus frames to interleaved LE16 PCM
package decode

import (
	"encoding/binary"
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder decodes Opus frames.
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
}

// NewOpus creates a decoder bound to a fixed sample rate and channel count.
func NewOpus(sampleRate, channels int) (Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("decode: opus decoder: %w", err)
	}
	return &OpusDecoder{decoder: dec, channels: channels}, nil
}

// Decode converts one Opus frame to interleaved LE16 PCM bytes.
func (d *OpusDecoder) Decode(data []byte) ([]byte, error) {
	pcm := make([]int16, 5760*d.channels) // max frame size at 48kHz
	n, err := d.decoder.Decode(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("decode: opus decode: %w", err)
	}

	samples := n * d.channels
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(pcm[i]))
	}
	return out, nil
}

// Close releases decoder resources.
func (d *OpusDecoder) Close() error {
	return nil
}
