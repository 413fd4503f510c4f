// ABOUTME: The audio output mixer core: temporal alignment and admission control
// ABOUTME: Combines per-input buffer queues into one output-sized block per tick
// Package mixer implements the scheduling and alignment engine that
// repeatedly assembles one output-sized audio block from N independent,
// time-stamped input streams and hands it to a downstream Sink.
//
// The hard part is admission control, not sample math: choosing a
// common start presentation time across all live inputs, validating
// buffer-chain continuity over the target interval, pruning stale or
// non-contiguous data, reconciling each input's byte cursor with the
// chosen start time, and driving a pluggable Kernel — all under a
// single caller-held lock.
//
// Sample combination itself (format-specific mixing, resampling,
// dither) is delegated to a Kernel resolved at Attach time; this
// package ships two reference kernels (linear PCM summation and a
// pass-through for compressed streams) but expects real deployments to
// register their own.
package mixer
