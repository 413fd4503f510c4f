// ABOUTME: A single timestamped unit of queued PCM
// ABOUTME: Owns its payload; freeing it releases the payload
package audio

// Buffer is a unit of queued PCM. PTS and Length are microseconds;
// Length must equal NumSamples * 1e6 / rate within +-1us of rounding.
type Buffer struct {
	PTS        int64
	Length     int64
	NumSamples uint32
	Payload    []byte
}

// End returns the presentation time immediately after this buffer,
// i.e. PTS + Length.
func (b *Buffer) End() int64 {
	return b.PTS + b.Length
}
