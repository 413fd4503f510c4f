// ABOUTME: Tests for the linear-interpolation resampler
package resample

import "testing"

func TestResampleUpsamplesMonoStream(t *testing.T) {
	r := New(24000, 48000, 1)
	input := []int32{0, 1000, 2000, 3000}
	output := make([]int32, 8)

	n := r.Resample(input, output)
	if n == 0 {
		t.Fatal("expected some output samples")
	}
	if output[0] != 0 {
		t.Errorf("expected first output sample to match first input sample, got %d", output[0])
	}
}

func TestResampleDownsamplesMonoStream(t *testing.T) {
	r := New(48000, 24000, 1)
	input := make([]int32, 8)
	for i := range input {
		input[i] = int32(i * 100)
	}
	output := make([]int32, 4)

	n := r.Resample(input, output)
	if n == 0 {
		t.Fatal("expected some output samples")
	}
}

func TestResampleIdentityRatioPassesThroughApproximately(t *testing.T) {
	r := New(48000, 48000, 2)
	input := []int32{10, 20, 30, 40, 50, 60}
	output := make([]int32, 6)

	n := r.Resample(input, output)
	if n != 4 {
		// last input frame can't be interpolated past without more data
		t.Fatalf("expected 4 samples emitted at unity ratio, got %d", n)
	}
	if output[0] != 10 || output[1] != 20 {
		t.Errorf("expected first frame to pass through unchanged, got %v", output[:2])
	}
}

func TestOutputAndInputSamplesNeededAreConsistentAtUnityRatio(t *testing.T) {
	r := New(48000, 48000, 2)
	if got := r.OutputSamplesNeeded(100); got != 100 {
		t.Errorf("expected 100 output samples at unity ratio, got %d", got)
	}
	if got := r.InputSamplesNeeded(100); got != 100 {
		t.Errorf("expected 100 input samples at unity ratio, got %d", got)
	}
}
