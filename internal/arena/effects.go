package arena

import (
	"container/heap"
	"time"
)

// effectFunc applies a deferred change. It returns false when its target
// no longer exists, in which case nothing happened.
type effectFunc func(ar *Arena) bool

// pendingEffect is a (deadline, effect) entry. Entries are never coalesced:
// a second collision schedules a second effect.
type pendingEffect struct {
	deadline time.Duration
	seq      int // tie-break: earlier schedule fires first
	key      string
	apply    effectFunc
	index    int // heap index
}

type effectQueue []*pendingEffect

func (q effectQueue) Len() int { return len(q) }
func (q effectQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}
	return q[i].seq < q[j].seq
}
func (q effectQueue) Swap(i, j int)        { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *effectQueue) Push(x interface{}) { e := x.(*pendingEffect); e.index = len(*q); *q = append(*q, e) }
func (q *effectQueue) Pop() interface{} {
	old := *q
	e := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return e
}

// schedule queues fn to run once simulated time reaches now+delay.
func (ar *Arena) schedule(delay time.Duration, key string, fn effectFunc) {
	ar.effectSeq++
	heap.Push(&ar.effects, &pendingEffect{
		deadline: ar.now + delay,
		seq:      ar.effectSeq,
		key:      key,
		apply:    fn,
	})
}

// drainEffects fires every effect whose deadline has passed.
func (ar *Arena) drainEffects() {
	for ar.effects.Len() > 0 && ar.effects[0].deadline <= ar.now {
		e := heap.Pop(&ar.effects).(*pendingEffect)
		if e.apply(ar) {
			ar.record("--", "effect", e.key, "", 0)
		} else {
			ar.record("--", "effect", e.key, "target gone", 0)
		}
	}
}

// PendingEffects returns how many deferred effects are queued.
func (ar *Arena) PendingEffects() int { return ar.effects.Len() }
