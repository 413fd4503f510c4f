// ABOUTME: The pluggable mixing kernel contract and a small format-keyed registry
// ABOUTME: Format-keyed alternative to a codec-keyed decoder registry
package mixer

import (
	"fmt"
	"sync"

	"github.com/wavefold/mixcore/pkg/audio"
)

// Kernel is the pluggable mixing kernel the core drives once per tick.
// Everything format-specific — sample combination, resampling, dither —
// lives here, outside the core's scope.
type Kernel interface {
	// AllocatesOutput is static per kernel instance: true means the
	// core allocates a fresh destination buffer before calling Mix;
	// false means Mix is handed the first valid input's own head
	// buffer as the destination.
	AllocatesOutput() bool

	// Mix reads every input where !IsInvalid, starting at its begin
	// cursor, applies gain, writes into out, and advances (or fully
	// consumes) each input's queue and cursor in line with what it
	// read. Mix must not block and must not fail under normal
	// operation; format mismatches are configuration errors that
	// should have been caught when the kernel was resolved.
	Mix(inputs []*InputState, gain float32, out *audio.Buffer) error
}

// ResolveFunc constructs a Kernel for a given format and initial gain.
type ResolveFunc func(format audio.Format, gain float32) (Kernel, error)

// Resolver resolves a Kernel for a mixer format, the way the host's
// plug-in resolver does in the source system. There is no dynamic
// module loading here — just a small registry keyed on format, per
// the design note on capability-based resolution.
type Resolver interface {
	Resolve(format audio.Format, gain float32) (Kernel, error)
}

// Registry is the default Resolver: linear PCM formats and
// pass-through (compressed) formats each get their own resolve
// function, keyed on Format.Linear rather than a codec string, since
// that is the only axis the mixer's Format actually carries.
type Registry struct {
	mu          sync.RWMutex
	linear      ResolveFunc
	passthrough ResolveFunc
	named       map[string]ResolveFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{named: make(map[string]ResolveFunc)}
}

// RegisterLinear installs the resolve function used for linear PCM formats.
func (r *Registry) RegisterLinear(fn ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.linear = fn
}

// RegisterPassthrough installs the resolve function used for
// non-linear (compressed) formats.
func (r *Registry) RegisterPassthrough(fn ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passthrough = fn
}

// Register installs a resolve function under an arbitrary name, for
// callers that want to look kernels up out-of-band (e.g. a caching
// resolver wrapping this registry).
func (r *Registry) Register(name string, fn ResolveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = fn
}

// Named resolves a previously registered named resolve function.
func (r *Registry) Named(name string, format audio.Format, gain float32) (Kernel, error) {
	r.mu.RLock()
	fn, ok := r.named[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("mixer: no kernel registered under name %q", name)
	}
	return fn(format, gain)
}

// Resolve implements Resolver, picking linear vs. pass-through by
// format.Linear.
func (r *Registry) Resolve(format audio.Format, gain float32) (Kernel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if format.Linear {
		if r.linear == nil {
			return nil, fmt.Errorf("mixer: no linear kernel registered")
		}
		return r.linear(format, gain)
	}
	if r.passthrough == nil {
		return nil, fmt.Errorf("mixer: no pass-through kernel registered")
	}
	return r.passthrough(format, gain)
}

// DefaultRegistry returns a Registry pre-populated with the two
// reference kernels this module ships.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterLinear(func(format audio.Format, gain float32) (Kernel, error) {
		return NewLinearPCMKernel(format), nil
	})
	r.RegisterPassthrough(func(format audio.Format, gain float32) (Kernel, error) {
		return NewPassthroughKernel(format), nil
	})
	return r
}
