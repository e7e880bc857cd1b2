// Package mail renders and delivers outbound messages. Every mail kind
// collapses into a (template, variable map) pair; the senders below are thin
// factories over the template engine.
package mail

import (
	"context"
	"sync"
)

type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message. Implementations do not retry; queueing
// and retries belong to the caller.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder is a Sender that captures messages, for tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
