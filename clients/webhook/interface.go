package webhook

import (
	"context"

	"assistant-voice-trigger/wake_word"
)

// Notifier forwards recognized triggers to an external consumer.
type Notifier interface {
	Notify(ctx context.Context, trigger wake_word.Trigger) error
}
