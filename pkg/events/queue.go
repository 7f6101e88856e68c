// Package events implements the deferred event queue that sequences
// time-extended side effects across ticks. Records are kept in an arena and
// addressed by handles; a chain is a linked sequence of records executed in
// link order.
package events

import (
	"errors"
	"fmt"
	"log/slog"
)

// NumParams is the number of generic parameter slots of a record.
const NumParams = 6

// Record describes one deferred effect. Every field is set by the caller;
// chained records inherit nothing from their predecessor.
type Record struct {
	Kind     Kind
	Category Category
	Op       Op
	// Time delays a chain head after it is queued.
	Time int64
	// Duration delays a chained record after its predecessor fires. For
	// timed effects such as fades it is also the effect length.
	Duration int64
	Params   [NumParams]int32
	// Tag is the wake tag of a ThreadWake record or the text of a
	// SetStatus record.
	Tag string
	// Data carries an opaque payload for the executor. It is not saved.
	Data any `cbor:"-"`
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %s/%s", r.Kind, r.Category, r.Op)
}

// Handle addresses a record in the queue. The low 32 bits hold the arena
// slot and the high bits the slot's generation, so a handle to a retired
// record never matches the record that later reuses its slot. The zero
// Handle is invalid.
type Handle int64

// maxGen keeps handles positive.
const maxGen = 1<<31 - 1

func makeHandle(slot int, gen uint32) Handle {
	return Handle(int64(gen)<<32 | int64(uint32(slot)))
}

func (h Handle) slot() int   { return int(uint32(h)) }
func (h Handle) gen() uint32 { return uint32(uint64(h) >> 32) }

// ErrInvalidHandle is returned when chaining to a handle that does not
// address a pending record.
var ErrInvalidHandle = errors.New("events: invalid handle")

// Executor performs the effect described by a record.
type Executor interface {
	Execute(rec *Record) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(rec *Record) error

// Execute calls f(rec).
func (f ExecutorFunc) Execute(rec *Record) error {
	return f(rec)
}

// Fataler is implemented by executor errors that must abort the drain.
type Fataler interface {
	IsFatal() bool
}

type node struct {
	rec       Record
	scheduled int64
	next      int // slot of the successor, 0 at the chain end
	gen       uint32
	live      bool
}

// Queue holds pending event chains. It is not safe for concurrent use.
type Queue struct {
	clock func() int64
	log   *slog.Logger

	nodes []node // slot 0 is unused so the zero Handle stays invalid
	free  []int
	heads []int
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.log = l
		}
	}
}

// New creates a queue. clock returns the current tick and is read when a
// chain head is queued.
func New(clock func() int64, opts ...Option) *Queue {
	q := &Queue{
		clock: clock,
		log:   slog.Default(),
		nodes: make([]node, 1, 64),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Queue) alloc(rec Record) int {
	if k := len(q.free); k > 0 {
		i := q.free[k-1]
		q.free = q.free[:k-1]
		q.nodes[i] = node{rec: rec, gen: q.nodes[i].gen, live: true}
		return i
	}
	q.nodes = append(q.nodes, node{rec: rec, gen: 1, live: true})
	return len(q.nodes) - 1
}

func (q *Queue) release(i int) {
	gen := (q.nodes[i].gen + 1) & maxGen
	if gen == 0 {
		gen = 1
	}
	q.nodes[i] = node{gen: gen}
	q.free = append(q.free, i)
}

func (q *Queue) handle(i int) Handle {
	return makeHandle(i, q.nodes[i].gen)
}

// lookup returns the slot addressed by h, or false when h is zero, out of
// range or refers to a retired record.
func (q *Queue) lookup(h Handle) (int, bool) {
	i := h.slot()
	if h <= 0 || i <= 0 || i >= len(q.nodes) {
		return 0, false
	}
	n := &q.nodes[i]
	return i, n.live && n.gen == h.gen()
}

// Queue adds rec as the head of a new chain, scheduled rec.Time ticks from
// now.
func (q *Queue) Queue(rec Record) Handle {
	i := q.alloc(rec)
	q.nodes[i].scheduled = q.clock() + rec.Time
	q.heads = append(q.heads, i)
	return q.handle(i)
}

// Chain links rec after the last record of the chain containing h and
// returns the new record's handle. Passing the handle returned by the
// previous Queue or Chain call builds a chain in call order. Handles of
// records that already ran are rejected with ErrInvalidHandle.
func (q *Queue) Chain(h Handle, rec Record) (Handle, error) {
	tail, ok := q.lookup(h)
	if !ok {
		return 0, fmt.Errorf("%w: %#x", ErrInvalidHandle, int64(h))
	}
	for q.nodes[tail].next != 0 {
		tail = q.nodes[tail].next
	}
	i := q.alloc(rec)
	q.nodes[tail].next = i
	return q.handle(i), nil
}

// Drain fires every due record. It is called once per tick after all
// threads have stepped. Immediate records run in the pass that reaches them;
// a Oneshot record runs once tick reaches its schedule. After a record runs,
// its successor is armed at tick plus the successor's Duration; Immediate
// successors run in the same pass. Chains queued by the executor wait for
// the next drain.
//
// Executor errors that report IsFatal stop the drain and are returned. Other
// errors are logged and the chain continues.
func (q *Queue) Drain(tick int64, exec Executor) error {
	heads := q.heads
	q.heads = nil
	kept := make([]int, 0, len(heads))

	for i, h := range heads {
		next, err := q.run(h, tick, exec)
		if err != nil {
			// Keep the unprocessed chains for inspection and restore.
			rest := append(kept, heads[i+1:]...)
			q.heads = append(rest, q.heads...)
			return err
		}
		if next != 0 {
			kept = append(kept, next)
		}
	}
	q.heads = append(kept, q.heads...)
	return nil
}

// run executes the chain starting at slot h as far as tick allows and
// returns the slot of its new pending head, or 0 when the chain is finished.
func (q *Queue) run(h int, tick int64, exec Executor) (int, error) {
	cur := h
	for {
		n := &q.nodes[cur]
		if n.rec.Kind == Oneshot && tick < n.scheduled {
			return cur, nil
		}
		rec := n.rec
		if err := exec.Execute(&rec); err != nil {
			var f Fataler
			if errors.As(err, &f) && f.IsFatal() {
				return 0, fmt.Errorf("event %s: %w", &rec, err)
			}
			q.log.Warn("event failed", "event", rec.String(), "error", err)
		}

		next := q.nodes[cur].next
		q.release(cur)
		if next == 0 {
			return 0, nil
		}
		nn := &q.nodes[next]
		nn.scheduled = tick + nn.rec.Duration
		if nn.rec.Kind != Immediate {
			return next, nil
		}
		cur = next
	}
}

// Len returns the number of pending chains.
func (q *Queue) Len() int {
	return len(q.heads)
}

// Empty reports whether nothing is pending.
func (q *Queue) Empty() bool {
	return len(q.heads) == 0
}

// Clear drops every pending chain. Handles issued before the call stay
// invalid afterwards.
func (q *Queue) Clear() {
	for _, h := range q.heads {
		for i := h; i != 0; {
			next := q.nodes[i].next
			q.release(i)
			i = next
		}
	}
	q.heads = q.heads[:0]
}

// Node is the saved form of a pending record. Chain holds the position of
// the chain in queue order and Index the record's position within it.
type Node struct {
	Chain     int    `cbor:"1,keyasint"`
	Index     int    `cbor:"2,keyasint"`
	Record    Record `cbor:"3,keyasint"`
	Scheduled int64  `cbor:"4,keyasint"`
}

// Pending enumerates every pending record, chain by chain in queue order and
// link by link within a chain.
func (q *Queue) Pending() []Node {
	var out []Node
	for ci, h := range q.heads {
		for i, cur := 0, h; cur != 0; i, cur = i+1, q.nodes[cur].next {
			n := q.nodes[cur]
			out = append(out, Node{Chain: ci, Index: i, Record: n.rec, Scheduled: n.scheduled})
		}
	}
	return out
}

// validateNodes checks that nodes list whole chains in the order Pending
// produces them.
func validateNodes(nodes []Node) error {
	prevChain, prevIndex := -1, -1
	for _, n := range nodes {
		switch {
		case n.Chain == prevChain:
			if n.Index != prevIndex+1 {
				return fmt.Errorf("events: chain %d index %d follows %d", n.Chain, n.Index, prevIndex)
			}
		case n.Chain < prevChain:
			return fmt.Errorf("events: chain %d listed after chain %d", n.Chain, prevChain)
		case n.Index != 0:
			return fmt.Errorf("events: chain %d starts at index %d", n.Chain, n.Index)
		}
		prevChain, prevIndex = n.Chain, n.Index
	}
	return nil
}

// Restore replaces the queue contents with nodes produced by Pending. The
// queue is left untouched when nodes are malformed.
func (q *Queue) Restore(nodes []Node) error {
	if err := validateNodes(nodes); err != nil {
		return err
	}
	q.Clear()
	var tail int
	prevChain := -1
	for _, n := range nodes {
		i := q.alloc(n.Record)
		q.nodes[i].scheduled = n.Scheduled
		if n.Chain != prevChain {
			q.heads = append(q.heads, i)
			prevChain = n.Chain
		} else {
			q.nodes[tail].next = i
		}
		tail = i
	}
	return nil
}
