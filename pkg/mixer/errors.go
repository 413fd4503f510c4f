// ABOUTME: Sentinel errors for the mixer core
package mixer

import "errors"

var (
	// ErrNoKernel is returned by Attach when no kernel can be
	// resolved for the configured format. The mixer remains unbound.
	ErrNoKernel = errors.New("mixer: no suitable audio mixer kernel")

	// ErrAlreadyAttached is returned by Attach when a kernel is
	// already bound; attaching twice without an intervening Detach is
	// a programming error.
	ErrAlreadyAttached = errors.New("mixer: already attached")
)
