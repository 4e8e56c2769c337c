package listener

import "context"

// Interface drives the capture pipeline: frames in, triggers out.
type Interface interface {
	// Run listens until ctx is canceled, the runtime ceiling is
	// reached, the source ends on its own, or, in once mode, the first
	// trigger has been handled.
	Run(ctx context.Context) error
}
