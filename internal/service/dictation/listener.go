// Package dictation wraps the host's speech recognizer in a
// cancellable subscription. States move idle -> listening -> idle only
// by explicit toggle or teardown, and a listening period produces at
// most one transcript.
package dictation

import (
	"context"
	"errors"
	"sync"
)

type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
)

// Recognizer is the host-supplied speech backend. Listen blocks until
// one transcript is available, the recognizer fails, or ctx is
// cancelled.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

type Listener struct {
	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	recognizer Recognizer

	onTranscript func(string)
	onError      func(error)
}

func NewListener(recognizer Recognizer, onTranscript func(string), onError func(error)) *Listener {
	return &Listener{
		state:        StateIdle,
		recognizer:   recognizer,
		onTranscript: onTranscript,
		onError:      onError,
	}
}

func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start begins one listening period. Starting while already listening
// is a no-op.
func (l *Listener) Start() {
	l.mu.Lock()
	if l.state == StateListening {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.state = StateListening
	l.mu.Unlock()

	go l.listen(ctx)
}

func (l *Listener) listen(ctx context.Context) {
	text, err := l.recognizer.Listen(ctx)

	l.mu.Lock()
	l.state = StateIdle
	l.cancel = nil
	l.mu.Unlock()

	if err != nil {
		// Cancellation is the Stop path, not an error worth reporting.
		if !errors.Is(err, context.Canceled) && l.onError != nil {
			l.onError(err)
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	if l.onTranscript != nil {
		l.onTranscript(text)
	}
}

// Stop cancels the current listening period, if any. The transcript
// callback will not fire for a stopped period.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
