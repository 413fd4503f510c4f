// ABOUTME: oto-backed mixer.Sink implementation
// ABOUTME: Streams finished output blocks to the local audio device through a persistent player
package devicesink

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/wavefold/mixcore/pkg/audio"
)

// OtoSink implements mixer.Sink by writing finished blocks into a
// persistent oto.Player fed through an io.Pipe, the way the source
// player kept one long-lived player open rather than spinning up a
// new one per buffer.
type OtoSink struct {
	mu     sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter

	volume int
	muted  bool
}

// NewOtoSink opens the local audio device at the given rate and
// channel count, 16-bit signed little-endian, and starts a persistent
// player reading from an internal pipe.
func NewOtoSink(sampleRate, channels int) (*OtoSink, error) {
	options := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("devicesink: oto context: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	return &OtoSink{
		ctx:    ctx,
		player: player,
		pw:     pw,
		volume: 100,
	}, nil
}

// Play implements mixer.Sink: applies the device's own volume/mute on
// top of whatever gain the mixer already baked into the block, and
// streams the result to the open player.
func (s *OtoSink) Play(buf *audio.Buffer) error {
	s.mu.Lock()
	volume, muted := s.volume, s.muted
	s.mu.Unlock()

	payload := applyVolume(buf.Payload, volume, muted)
	_, err := s.pw.Write(payload)
	if err != nil {
		return fmt.Errorf("devicesink: write: %w", err)
	}
	return nil
}

// SetVolume sets device volume, 0-100.
func (s *OtoSink) SetVolume(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// GetVolume returns the current device volume.
func (s *OtoSink) GetVolume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetMuted sets the device mute flag.
func (s *OtoSink) SetMuted(m bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = m
}

// IsMuted reports the device mute flag.
func (s *OtoSink) IsMuted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// Close shuts the pipe down, ending the player's read loop.
func (s *OtoSink) Close() error {
	return s.pw.Close()
}

// applyVolume scales interleaved LE16 PCM by a device volume/mute
// multiplier, clipping to the int16 range.
func applyVolume(payload []byte, volume int, muted bool) []byte {
	mult := getVolumeMultiplier(volume, muted)
	if mult == 1.0 {
		return payload
	}

	out := make([]byte, len(payload))
	for i := 0; i+1 < len(payload); i += 2 {
		s := int16(binary.LittleEndian.Uint16(payload[i:]))
		v := float64(s) * mult
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(v)))
	}
	return out
}

func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted || volume <= 0 {
		return 0
	}
	if volume >= 100 {
		return 1.0
	}
	return float64(volume) / 100.0
}
