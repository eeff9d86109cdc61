package mqtt

import "go.uber.org/zap"

// message is a formatted publish waiting for the broker.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog keeps the newest messages published while the broker is down.
// Once full, each new message evicts the oldest. The caller holds the
// publisher's lock.
type backlog struct {
	msgs    []message
	start   int // oldest message
	size    int
	dropped int // evictions since the last take
	log     *zap.SugaredLogger
}

func newBacklog(limit int, log *zap.SugaredLogger) *backlog {
	return &backlog{msgs: make([]message, limit), log: log}
}

func (b *backlog) add(m message) {
	limit := len(b.msgs)
	if b.size < limit {
		b.msgs[(b.start+b.size)%limit] = m
		b.size++
		return
	}
	if b.dropped == 0 {
		b.log.Warnw("mqtt backlog full, dropping oldest", "limit", limit)
	}
	b.dropped++
	b.msgs[b.start] = m
	b.start = (b.start + 1) % limit
}

// take empties the backlog and returns its messages oldest first.
func (b *backlog) take() []message {
	if b.size == 0 {
		return nil
	}
	out := make([]message, b.size)
	for i := range out {
		out[i] = b.msgs[(b.start+i)%len(b.msgs)]
	}
	if b.dropped > 0 {
		b.log.Infow("mqtt backlog lost messages while offline", "dropped", b.dropped)
	}
	b.start, b.size, b.dropped = 0, 0, 0
	return out
}

func (b *backlog) len() int {
	return b.size
}
