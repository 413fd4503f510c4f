// ABOUTME: Tests for the chunk-decoding and enqueue path, independent of any live socket
package wsproducer

import (
	"encoding/binary"
	"testing"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/mixer"
)

func pcm16Bytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func newTestProducer(t *testing.T, format audio.Format, sourceRate int) (*Producer, *mixer.InputBank, *mixer.InputState) {
	t.Helper()
	bank := mixer.NewInputBank(1)
	input := bank.At(0)

	p, err := New(Config{
		Codec:      "pcm16",
		SourceRate: sourceRate,
		Channels:   1,
		Format:     format,
	}, bank, input)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, bank, input
}

func TestHandleChunkEnqueuesBufferWithComputedLength(t *testing.T) {
	format := audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
	p, _, input := newTestProducer(t, format, 48000)

	pcm := pcm16Bytes(100, 200, 300, 400) // 4 frames at mono 16-bit

	if err := p.handleChunk(1000, pcm); err != nil {
		t.Fatalf("handleChunk: %v", err)
	}

	if input.Queue.Len() != 1 {
		t.Fatalf("expected 1 buffer queued, got %d", input.Queue.Len())
	}
	buf, _ := input.Queue.Front()
	if buf.PTS != 1000 {
		t.Errorf("expected PTS 1000, got %d", buf.PTS)
	}
	wantLength := int64(4) * 1_000_000 / 48000
	if buf.Length != wantLength {
		t.Errorf("expected length %d, got %d", wantLength, buf.Length)
	}
	if buf.NumSamples != 4 {
		t.Errorf("expected 4 frames, got %d", buf.NumSamples)
	}
	if len(buf.Payload) != len(pcm) {
		t.Errorf("expected payload passed through unchanged, got %d bytes", len(buf.Payload))
	}
}

func TestHandleChunkResamplesWhenRatesDiffer(t *testing.T) {
	format := audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
	p, _, input := newTestProducer(t, format, 24000)

	if p.resamp == nil {
		t.Fatal("expected a resampler to be constructed for mismatched rates")
	}

	pcm := pcm16Bytes(0, 1000, 2000, 3000)
	if err := p.handleChunk(0, pcm); err != nil {
		t.Fatalf("handleChunk: %v", err)
	}

	if input.Queue.Len() != 1 {
		t.Fatalf("expected 1 buffer queued, got %d", input.Queue.Len())
	}
	buf, _ := input.Queue.Front()
	if len(buf.Payload) <= len(pcm) {
		t.Errorf("expected upsampled payload to grow, got %d bytes from %d input bytes", len(buf.Payload), len(pcm))
	}
}

func TestHandleChunkSkippedWhenInputErrored(t *testing.T) {
	format := audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
	p, _, input := newTestProducer(t, format, 48000)
	input.Error = true

	pcm := pcm16Bytes(1, 2)
	if err := p.handleChunk(0, pcm); err != nil {
		t.Fatalf("handleChunk: %v", err)
	}
	if input.Queue.Len() != 0 {
		t.Errorf("expected nothing enqueued for an errored input, len=%d", input.Queue.Len())
	}
}

func TestCloseMarksInputErrored(t *testing.T) {
	format := audio.Format{BytesPerFrame: 2, FrameLength: 1, Rate: 48000, Linear: true}
	p, _, input := newTestProducer(t, format, 48000)
	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()

	p.Close()

	if !input.Error {
		t.Fatal("expected the bound input marked errored after Close")
	}
	if p.IsConnected() {
		t.Fatal("expected producer to report disconnected after Close")
	}
}
