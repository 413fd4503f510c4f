// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for all audio decoders feeding mixer inputs
package decode

import "fmt"

// Decoder turns one encoded frame into little-endian 16-bit PCM, the
// wire format LinearPCMKernel consumes directly. A Decoder is not
// safe for concurrent use; each producer owns one.
type Decoder interface {
	// Decode converts one encoded frame to interleaved LE16 PCM bytes.
	Decode(data []byte) ([]byte, error)

	// Close releases decoder resources.
	Close() error
}

// New resolves a Decoder for the given codec name against a source
// sample rate and channel count.
func New(codec string, sampleRate, channels int) (Decoder, error) {
	switch codec {
	case "opus":
		return NewOpus(sampleRate, channels)
	case "pcm16":
		return NewPCM16(), nil
	case "pcm24":
		return NewPCM24(), nil
	default:
		return nil, fmt.Errorf("decode: unsupported codec %q", codec)
	}
}
