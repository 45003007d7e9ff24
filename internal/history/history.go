// Package history holds the conversation transcript shared by the CLI and the HTTP server.
package history

import (
	"sync"

	"github.com/m2tx/toolchat/internal/model"
)

// History is an append-only, ordered message log. It is safe for concurrent use;
// appended messages are never modified, reordered or dropped.
type History struct {
	mu   sync.RWMutex
	msgs []model.Message
}

func New(initial ...model.Message) *History {
	h := &History{}
	h.msgs = append(h.msgs, initial...)
	return h
}

// Append adds msgs at the end of the transcript as one atomic step.
func (h *History) Append(msgs ...model.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, msgs...)
}

// Snapshot returns a copy of the transcript at the time of the call.
func (h *History) Snapshot() []model.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.msgs)
}
