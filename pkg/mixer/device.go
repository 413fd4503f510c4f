// ABOUTME: The explicit mixer context: format, inputs, output, kernel binding, gain
// ABOUTME: Replaces the source's ambient aout_instance_t global with a struct passed by reference
package mixer

import (
	"sync"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/clock"
)

// Instrumentation receives per-tick counters. Implementations must be
// safe to call under the mixer lock; nil is a valid, no-op value via
// the noop implementation Device falls back to.
type Instrumentation interface {
	Tick()
	BlockEmitted()
	StaleDrop()
	PastDrop()
	GapDrop()
	LateReset()
	CursorDrift()
}

type noopInstrumentation struct{}

func (noopInstrumentation) Tick()         {}
func (noopInstrumentation) BlockEmitted() {}
func (noopInstrumentation) StaleDrop()    {}
func (noopInstrumentation) PastDrop()     {}
func (noopInstrumentation) GapDrop()      {}
func (noopInstrumentation) LateReset()    {}
func (noopInstrumentation) CursorDrift()  {}

// runSoftCap bounds how many blocks a single Run call will emit. The
// source loops until NotReady with no upper bound; this cap is a
// documented deviation (spec design notes, second open question) added
// only because a real scheduler shares this goroutine with other work
// and must not be starved by an unbounded backlog of ready inputs.
const runSoftCap = 32

// Config configures a Device at construction time.
type Config struct {
	// Format is the mixer's fixed output format.
	Format audio.Format
	// Gain is the initial multiplier (the "gain"/"multiplier" of spec §4.1).
	Gain float32
	// NbSamplesPerBlock is the output device's block size in samples.
	NbSamplesPerBlock uint32
	// Resolver resolves a Kernel for Format/Gain at Attach time. If
	// nil, DefaultRegistry() is used.
	Resolver Resolver
	// Now supplies the wall clock. If nil, clock.NewSystem() is used.
	Now clock.Source
	// Inputs is the number of inputs this device mixes.
	Inputs int
	// Sink receives finished output blocks. May be nil (tests).
	Sink Sink
	// Instrumentation receives per-tick counters. May be nil.
	Instrumentation Instrumentation
}

// Device is the explicit mixer context (design note: "the ambient aout
// container should be rearchitected as an explicit context struct").
// It embeds the mixer lock itself: callers must hold Device.Lock()
// across every call to Attach, Detach, SetGain and Run, per spec §5.
type Device struct {
	sync.Mutex

	format            audio.Format
	nbSamplesPerBlock uint32
	resolver          Resolver
	now               clock.Source
	instr             Instrumentation

	inputs *InputBank
	output *OutputFIFO

	gain            float32
	kernel          Kernel
	allocatesOutput bool
	attached        bool
}

// NewDevice constructs a Device. It does not attach a kernel; call
// Attach (with the mixer lock and input-FIFO lock held) to bind one.
func NewDevice(cfg Config) *Device {
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = DefaultRegistry()
	}
	now := cfg.Now
	if now == nil {
		now = clock.NewSystem()
	}
	instr := cfg.Instrumentation
	if instr == nil {
		instr = noopInstrumentation{}
	}

	return &Device{
		format:            cfg.Format,
		nbSamplesPerBlock: cfg.NbSamplesPerBlock,
		resolver:          resolver,
		now:               now,
		instr:             instr,
		inputs:            NewInputBank(cfg.Inputs),
		output:            NewOutputFIFO(cfg.Format.Rate, cfg.Sink),
		gain:              cfg.Gain,
	}
}

// Inputs returns the input bank so producers can lock it and enqueue.
func (d *Device) Inputs() *InputBank { return d.inputs }

// Output returns the output FIFO, mainly for tests and metrics.
func (d *Device) Output() *OutputFIFO { return d.output }

// Attached reports whether a kernel is currently bound.
func (d *Device) Attached() bool { return d.attached }

// Gain returns the currently configured gain.
func (d *Device) Gain() float32 { return d.gain }

// Attach resolves and binds a Kernel for the device's format and
// gain. Precondition: caller holds the mixer lock (Device itself) and
// the input-FIFO lock (Device.Inputs()). Attaching twice without an
// intervening Detach returns ErrAlreadyAttached.
func (d *Device) Attach() error {
	if d.attached {
		return ErrAlreadyAttached
	}

	kernel, err := d.resolver.Resolve(d.format, d.gain)
	if err != nil {
		logf("no suitable audio mixer: %v", err)
		return ErrNoKernel
	}

	d.kernel = kernel
	d.allocatesOutput = kernel.AllocatesOutput()
	d.attached = true
	return nil
}

// Detach unbinds the kernel. Idempotent: detaching an already-detached
// device is a no-op. Does not touch input FIFOs. Precondition: caller
// holds the mixer lock.
func (d *Device) Detach() {
	if !d.attached {
		return
	}
	d.kernel = nil
	d.allocatesOutput = false
	d.attached = false
}

// SetGain updates the authoritative gain, and — if a kernel is
// currently attached — the value that will be passed into its next
// Mix call. No validation; callers clamp. Precondition: caller holds
// the mixer lock.
func (d *Device) SetGain(gain float32) {
	d.gain = gain
}

// Run repeatedly calls assembleOne until it reports NotReady, or until
// runSoftCap blocks have been produced in this call (see the comment
// on runSoftCap). Precondition: caller holds the mixer lock.
func (d *Device) Run() {
	for i := 0; i < runSoftCap; i++ {
		if d.assembleOne() != Ready {
			return
		}
	}
}
