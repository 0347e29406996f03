package models

import "sort"

// MessageMerger reconciles messages arriving from the push channel and the
// pull endpoint. Messages are keyed by ID, so the same message seen on both
// paths is kept once, and the list stays in (created_at, id) order.
// Optimistic echoes of the reader's own sends are held by client token until
// the confirmed copy replaces them.
type MessageMerger struct {
	seen     map[int64]struct{}
	messages []MessageView

	pending      map[string]int
	pendingOrder []string
	echoes       []MessageView
}

// NewMessageMerger returns an empty merger.
func NewMessageMerger() *MessageMerger {
	return &MessageMerger{seen: make(map[int64]struct{}), pending: make(map[string]int)}
}

// AddPending shows msg as an unconfirmed echo under token. Re-adding a token
// replaces its echo in place.
func (m *MessageMerger) AddPending(token string, msg MessageView) {
	if i, ok := m.pending[token]; ok {
		m.echoes[i] = msg
		return
	}
	m.pending[token] = len(m.echoes)
	m.pendingOrder = append(m.pendingOrder, token)
	m.echoes = append(m.echoes, msg)
}

// Confirm drops the echo held under token and merges the confirmed copy. If
// push or pull already delivered it, the message is not added twice. It
// reports whether token had a pending echo.
func (m *MessageMerger) Confirm(token string, confirmed MessageView) bool {
	_, ok := m.pending[token]
	if ok {
		m.dropPending(token)
	}
	m.Merge(confirmed)
	return ok
}

// Discard drops the echo held under token, e.g. after a failed send.
func (m *MessageMerger) Discard(token string) bool {
	if _, ok := m.pending[token]; !ok {
		return false
	}
	m.dropPending(token)
	return true
}

func (m *MessageMerger) dropPending(token string) {
	i := m.pending[token]
	delete(m.pending, token)
	m.pendingOrder = append(m.pendingOrder[:i], m.pendingOrder[i+1:]...)
	m.echoes = append(m.echoes[:i], m.echoes[i+1:]...)
	for j := i; j < len(m.pendingOrder); j++ {
		m.pending[m.pendingOrder[j]] = j
	}
}

// Merge adds msgs and returns the ones that were not already known.
func (m *MessageMerger) Merge(msgs ...MessageView) []MessageView {
	added := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		if _, ok := m.seen[msg.ID]; ok {
			continue
		}
		m.seen[msg.ID] = struct{}{}
		added = append(added, msg)

		i := sort.Search(len(m.messages), func(i int) bool {
			return less(msg.Message, m.messages[i].Message)
		})
		m.messages = append(m.messages, MessageView{})
		copy(m.messages[i+1:], m.messages[i:])
		m.messages[i] = msg
	}
	return added
}

// Messages returns the merged messages in canonical order followed by any
// pending echoes in the order they were sent.
func (m *MessageMerger) Messages() []MessageView {
	out := make([]MessageView, 0, len(m.messages)+len(m.echoes))
	out = append(out, m.messages...)
	return append(out, m.echoes...)
}

// Cursor returns the pull cursor for the next poll, or nil before the first
// confirmed message. Pending echoes never move the cursor.
func (m *MessageMerger) Cursor() *MessageCursor {
	if len(m.messages) == 0 {
		return nil
	}
	last := m.messages[len(m.messages)-1]
	return &MessageCursor{After: last.CreatedAt, AfterID: last.ID}
}

func less(a, b Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
