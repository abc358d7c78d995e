package traffic

import (
	"slices"
	"time"

	"swiftgo/pkg/simobject"
)

// Send id tracing defaults
const (
	MaxSendIDTraces = 10000
	AutoTraceOffset = 10 * time.Second
)

// SendIDTrace links a send id to the object and operation that caused it.
type SendIDTrace struct {
	SendID  uint32            `json:"send_id"`
	Object  *simobject.Object `json:"-"`
	Comment string            `json:"comment"`
	At      time.Time         `json:"at"`
}

// SendIDTraces is a bounded ring of traces. Iteration is most recent first
// and the oldest entry is evicted when the ring is full.
type SendIDTraces struct {
	buf   []SendIDTrace
	head  int // next write position
	count int

	permanent bool
	autoUntil time.Time
}

// NewSendIDTraces creates a ring holding up to capacity traces.
func NewSendIDTraces(capacity int) *SendIDTraces {
	if capacity <= 0 {
		capacity = MaxSendIDTraces
	}
	return &SendIDTraces{buf: make([]SendIDTrace, capacity)}
}

// Record stores a trace. The object is cloned so later changes do not leak in.
func (t *SendIDTraces) Record(sendID uint32, obj *simobject.Object, comment string, now time.Time) {
	tr := SendIDTrace{SendID: sendID, Comment: comment, At: now}
	if obj != nil {
		tr.Object = obj.Clone()
	} else {
		tr.Object = &simobject.Object{}
	}
	t.buf[t.head] = tr
	t.head = (t.head + 1) % len(t.buf)
	if t.count < len(t.buf) {
		t.count++
	}
}

// Find returns the most recent trace for sendID.
func (t *SendIDTraces) Find(sendID uint32) (SendIDTrace, bool) {
	found := SendIDTrace{}
	ok := false
	t.each(func(tr SendIDTrace) bool {
		if tr.SendID == sendID {
			found, ok = tr, true
			return false
		}
		return true
	})
	return found, ok
}

// All returns the traces, most recent first.
func (t *SendIDTraces) All() []SendIDTrace {
	out := make([]SendIDTrace, 0, t.count)
	t.each(func(tr SendIDTrace) bool {
		out = append(out, tr)
		return true
	})
	return out
}

// Leading returns up to n traces ending with the most recent one for sendID,
// oldest first.
func (t *SendIDTraces) Leading(sendID uint32, n int) []SendIDTrace {
	var out []SendIDTrace
	t.each(func(tr SendIDTrace) bool {
		if len(out) == 0 && tr.SendID != sendID {
			return true
		}
		out = append(out, tr)
		return len(out) < n
	})
	slices.Reverse(out)
	return out
}

func (t *SendIDTraces) each(fn func(SendIDTrace) bool) {
	for i := 0; i < t.count; i++ {
		idx := (t.head - 1 - i + len(t.buf)) % len(t.buf)
		if !fn(t.buf[idx]) {
			return
		}
	}
}

// Len returns the number of stored traces.
func (t *SendIDTraces) Len() int { return t.count }

// Capacity returns the ring size.
func (t *SendIDTraces) Capacity() int { return len(t.buf) }

// Clear drops all traces, e.g. on disconnect when send ids restart.
func (t *SendIDTraces) Clear() {
	clear(t.buf)
	t.head, t.count = 0, 0
}

// SetPermanent switches diagnostic tracing on or off.
func (t *SendIDTraces) SetPermanent(on bool) { t.permanent = on }

// AutoEnable turns tracing on until now+AutoTraceOffset.
func (t *SendIDTraces) AutoEnable(now time.Time) {
	t.autoUntil = now.Add(AutoTraceOffset)
}

// Active reports whether calls should be traced at now.
func (t *SendIDTraces) Active(now time.Time) bool {
	return t.permanent || now.Before(t.autoUntil)
}

// Permanent reports whether diagnostic tracing is on.
func (t *SendIDTraces) Permanent() bool { return t.permanent }

// AutoUntil is the end of the automatic tracing window.
func (t *SendIDTraces) AutoUntil() time.Time { return t.autoUntil }
