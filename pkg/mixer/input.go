// ABOUTME: Per-input queue, byte cursor and producer-controlled flags
// ABOUTME: begin is a non-owning cursor, valid only while its head buffer stays queued
package mixer

// InputState wraps one producer's BufferQueue with the bookkeeping the
// mixer core needs to admit and align it: a byte cursor into the head
// buffer's payload, and the producer-controlled Error/Paused flags.
type InputState struct {
	Queue *BufferQueue

	// Error is set by the producer to signal permanent withdrawal.
	// The mixer treats the input as invalid until reset externally.
	Error bool
	// Paused is set by the producer to signal a temporary pause.
	Paused bool

	begin    int
	hasBegin bool
}

// NewInputState creates an input with an empty queue.
func NewInputState() *InputState {
	return &InputState{Queue: NewBufferQueue()}
}

// IsInvalid reports whether this input should be excluded from
// admission and mixing for the current tick.
func (in *InputState) IsInvalid() bool {
	return in.Error || in.Paused
}

// Begin returns the current byte cursor into the head buffer's
// payload, and whether it has been set at all.
func (in *InputState) Begin() (int, bool) {
	return in.begin, in.hasBegin
}

// SetBegin sets the byte cursor.
func (in *InputState) SetBegin(offset int) {
	in.begin = offset
	in.hasBegin = true
}

// ResetBegin clears the cursor. Must be called whenever the head
// buffer it pointed into is dropped or popped, since the cursor is
// non-owning and becomes meaningless once its buffer is gone.
func (in *InputState) ResetBegin() {
	in.begin = 0
	in.hasBegin = false
}
