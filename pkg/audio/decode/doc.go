// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface and implementations for Opus and PCM
// Package decode turns encoded producer frames into little-endian
// 16-bit PCM ready to enqueue on a mixer input.
//
// Supports: Opus (via gopkg.in/hraban/opus.v2), 16-bit and 24-bit PCM.
//
// Example:
//
//	decoder, err := decode.New("opus", 48000, 2)
//	pcm, err := decoder.Decode(frame)
package decode
