// ABOUTME: Tests for the pure volume-scaling helpers (no live audio device required)
package devicesink

import (
	"encoding/binary"
	"testing"
)

func le16(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestApplyVolumeFullVolumePassesThrough(t *testing.T) {
	in := le16(1000, -1000)
	out := applyVolume(in, 100, false)
	if int16(binary.LittleEndian.Uint16(out)) != 1000 {
		t.Errorf("expected sample unchanged at full volume")
	}
}

func TestApplyVolumeMutedZeroesOutput(t *testing.T) {
	in := le16(1000, -1000)
	out := applyVolume(in, 100, true)
	for i := 0; i < len(out); i += 2 {
		if s := int16(binary.LittleEndian.Uint16(out[i:])); s != 0 {
			t.Errorf("expected muted sample 0, got %d", s)
		}
	}
}

func TestApplyVolumeHalfScalesDown(t *testing.T) {
	in := le16(1000)
	out := applyVolume(in, 50, false)
	got := int16(binary.LittleEndian.Uint16(out))
	if got != 500 {
		t.Errorf("expected 500 at 50%% volume, got %d", got)
	}
}

func TestApplyVolumeClipsAtIntSixteenRange(t *testing.T) {
	in := le16(32767)
	out := applyVolume(in, 100, false)
	got := int16(binary.LittleEndian.Uint16(out))
	if got != 32767 {
		t.Errorf("expected no overflow at full volume, got %d", got)
	}
}

func TestGetVolumeMultiplierBounds(t *testing.T) {
	if getVolumeMultiplier(0, false) != 0 {
		t.Error("expected 0 multiplier at 0 volume")
	}
	if getVolumeMultiplier(100, false) != 1.0 {
		t.Error("expected 1.0 multiplier at 100 volume")
	}
	if getVolumeMultiplier(50, true) != 0 {
		t.Error("expected 0 multiplier when muted regardless of volume")
	}
}
