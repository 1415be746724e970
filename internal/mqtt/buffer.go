package mqtt

import "log"

// queuedMsg is a serialized message waiting for the broker.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox holds messages published while disconnected. When full the oldest
// message is dropped. Not safe for concurrent use.
type outbox struct {
	msgs    []queuedMsg
	start   int
	n       int
	dropped int
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]queuedMsg, capacity)}
}

func (o *outbox) add(m queuedMsg) {
	c := len(o.msgs)
	if o.n < c {
		o.msgs[(o.start+o.n)%c] = m
		o.n++
		return
	}
	if o.dropped == 0 {
		log.Printf("mqtt: outbox full (%d messages), dropping oldest", c)
	}
	o.dropped++
	o.msgs[o.start] = m
	o.start = (o.start + 1) % c
}

// take removes and returns every queued message, oldest first, and the number
// dropped since the last take.
func (o *outbox) take() ([]queuedMsg, int) {
	dropped := o.dropped
	o.dropped = 0
	if o.n == 0 {
		return nil, dropped
	}
	c := len(o.msgs)
	out := make([]queuedMsg, o.n)
	for i := range out {
		out[i] = o.msgs[(o.start+i)%c]
		o.msgs[(o.start+i)%c] = queuedMsg{}
	}
	o.start, o.n = 0, 0
	return out, dropped
}

func (o *outbox) size() int { return o.n }
