package events

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// recorder is an Executor that logs each fired record as "tick:param0".
type recorder struct {
	tick  *int64
	fired []string
	hook  func(rec *Record) error
}

func (r *recorder) Execute(rec *Record) error {
	r.fired = append(r.fired, fmt.Sprintf("%d:%d", *r.tick, rec.Params[0]))
	if r.hook != nil {
		return r.hook(rec)
	}
	return nil
}

type fixture struct {
	tick int64
	q    *Queue
	rec  *recorder
}

func newFixture() *fixture {
	f := &fixture{}
	f.q = New(func() int64 { return f.tick }, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	f.rec = &recorder{tick: &f.tick}
	return f
}

func (f *fixture) drainTo(tb testing.TB, last int64) {
	tb.Helper()
	for f.tick < last {
		f.tick++
		if err := f.q.Drain(f.tick, f.rec); err != nil {
			tb.Fatalf("Drain(%d): %v", f.tick, err)
		}
	}
}

func oneshot(id int32, time, duration int64) Record {
	return Record{Kind: Oneshot, Category: Graphics, Op: Show, Time: time, Duration: duration, Params: [NumParams]int32{id}}
}

func immediate(id int32) Record {
	return Record{Kind: Immediate, Category: Palette, Op: PalFade, Params: [NumParams]int32{id}}
}

func TestQueue_OneshotWaitsForSchedule(t *testing.T) {
	f := newFixture()
	f.q.Queue(oneshot(1, 3, 0))
	f.drainTo(t, 2)
	if len(f.rec.fired) != 0 {
		t.Fatalf("fired early: %v", f.rec.fired)
	}
	f.drainTo(t, 3)
	if diff := cmp.Diff([]string{"3:1"}, f.rec.fired); diff != "" {
		t.Errorf("fired mismatch (-want +got):\n%s", diff)
	}
	if !f.q.Empty() {
		t.Error("retired chain should leave the queue empty")
	}
}

func TestQueue_ImmediateFastChain(t *testing.T) {
	f := newFixture()
	h := f.q.Queue(immediate(1))
	h, _ = f.q.Chain(h, immediate(2))
	h, _ = f.q.Chain(h, immediate(3))
	f.q.Chain(h, oneshot(4, 0, 2))

	f.drainTo(t, 1)
	if diff := cmp.Diff([]string{"1:1", "1:2", "1:3"}, f.rec.fired); diff != "" {
		t.Errorf("fast chain mismatch (-want +got):\n%s", diff)
	}
	f.drainTo(t, 3)
	if diff := cmp.Diff([]string{"1:1", "1:2", "1:3", "3:4"}, f.rec.fired); diff != "" {
		t.Errorf("oneshot after fast chain mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_ZeroDurationOneshotFiresNextDrain(t *testing.T) {
	f := newFixture()
	h := f.q.Queue(oneshot(1, 0, 0))
	f.q.Chain(h, oneshot(2, 0, 0))

	f.drainTo(t, 1)
	if diff := cmp.Diff([]string{"1:1"}, f.rec.fired); diff != "" {
		t.Errorf("first drain mismatch (-want +got):\n%s", diff)
	}
	f.drainTo(t, 2)
	if diff := cmp.Diff([]string{"1:1", "2:2"}, f.rec.fired); diff != "" {
		t.Errorf("second drain mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_QueuedDuringDrainWaits(t *testing.T) {
	f := newFixture()
	f.rec.hook = func(rec *Record) error {
		if rec.Params[0] == 1 {
			f.q.Queue(immediate(2))
		}
		return nil
	}
	f.q.Queue(immediate(1))

	f.drainTo(t, 1)
	if diff := cmp.Diff([]string{"1:1"}, f.rec.fired); diff != "" {
		t.Errorf("first drain mismatch (-want +got):\n%s", diff)
	}
	f.drainTo(t, 2)
	if diff := cmp.Diff([]string{"1:1", "2:2"}, f.rec.fired); diff != "" {
		t.Errorf("second drain mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_ChainInvalidHandle(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		h    Handle
	}{
		{"zero", 0},
		{"negative", -1},
		{"never allocated", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.q.Chain(tt.h, immediate(1)); !errors.Is(err, ErrInvalidHandle) {
				t.Errorf("Chain(%d) error = %v, want ErrInvalidHandle", tt.h, err)
			}
		})
	}

	h := f.q.Queue(immediate(1))
	f.drainTo(t, 1)
	if _, err := f.q.Chain(h, immediate(2)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Chain on retired handle error = %v, want ErrInvalidHandle", err)
	}

	// The retired slot is reused by an unrelated chain.
	other := f.q.Queue(oneshot(3, 1, 0))
	if other == h {
		t.Fatalf("reused slot returned the retired handle %#x", int64(h))
	}
	if _, err := f.q.Chain(h, immediate(4)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Chain on retired handle after reuse error = %v, want ErrInvalidHandle", err)
	}
	if got := len(f.q.Pending()); got != 1 {
		t.Errorf("pending records = %d, want 1", got)
	}
	f.drainTo(t, 3)
	if diff := cmp.Diff([]string{"1:1", "2:3"}, f.rec.fired); diff != "" {
		t.Errorf("fired mismatch (-want +got):\n%s", diff)
	}
}

type fatalErr struct{}

func (fatalErr) Error() string { return "corrupt" }
func (fatalErr) IsFatal() bool { return true }

func TestQueue_ExecutorErrors(t *testing.T) {
	f := newFixture()
	f.rec.hook = func(rec *Record) error {
		switch rec.Params[0] {
		case 1:
			return errors.New("missing resource")
		case 3:
			return fatalErr{}
		}
		return nil
	}
	h := f.q.Queue(immediate(1))
	f.q.Chain(h, immediate(2))
	f.q.Queue(immediate(3))
	f.q.Queue(immediate(4))

	f.tick = 1
	err := f.q.Drain(1, f.rec)
	var fe fatalErr
	if !errors.As(err, &fe) {
		t.Fatalf("Drain error = %v, want fatal", err)
	}
	if diff := cmp.Diff([]string{"1:1", "1:2", "1:3"}, f.rec.fired); diff != "" {
		t.Errorf("fired mismatch (-want +got):\n%s", diff)
	}
	if f.q.Len() != 1 {
		t.Errorf("Len = %d, want 1 (the unprocessed chain)", f.q.Len())
	}
}

func TestQueue_PendingAndRestore(t *testing.T) {
	f := newFixture()
	h := f.q.Queue(oneshot(1, 5, 0))
	h, _ = f.q.Chain(h, immediate(2))
	f.q.Chain(h, oneshot(3, 0, 4))
	f.q.Queue(Record{Kind: Oneshot, Category: Script, Op: ThreadWake, Time: 2, Tag: "placard", Data: "dropped"})

	nodes := f.q.Pending()
	want := []Node{
		{Chain: 0, Index: 0, Record: oneshot(1, 5, 0), Scheduled: 5},
		{Chain: 0, Index: 1, Record: immediate(2)},
		{Chain: 0, Index: 2, Record: oneshot(3, 0, 4)},
		{Chain: 1, Index: 0, Record: Record{Kind: Oneshot, Category: Script, Op: ThreadWake, Time: 2, Tag: "placard"}, Scheduled: 2},
	}
	if diff := cmp.Diff(want, nodes, cmpopts.IgnoreFields(Record{}, "Data")); diff != "" {
		t.Errorf("Pending mismatch (-want +got):\n%s", diff)
	}

	g := newFixture()
	if err := g.q.Restore(nodes); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(nodes, g.q.Pending()); diff != "" {
		t.Errorf("restored queue mismatch (-want +got):\n%s", diff)
	}
	g.drainTo(t, 10)
	if diff := cmp.Diff([]string{"2:0", "5:1", "5:2", "9:3"}, g.rec.fired); diff != "" {
		t.Errorf("restored firing mismatch (-want +got):\n%s", diff)
	}

}

func TestQueue_RestoreRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
	}{
		{"chain not starting at zero", []Node{{Chain: 0, Index: 1}}},
		{"gap within chain", []Node{{Chain: 0, Index: 0}, {Chain: 0, Index: 2}}},
		{"chains out of order", []Node{{Chain: 1, Index: 0}, {Chain: 0, Index: 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			h := f.q.Queue(oneshot(1, 2, 0))
			before := f.q.Pending()
			if err := f.q.Restore(tt.nodes); err == nil {
				t.Fatal("expected error")
			}
			if diff := cmp.Diff(before, f.q.Pending()); diff != "" {
				t.Errorf("queue changed by failed Restore (-want +got):\n%s", diff)
			}
			if _, err := f.q.Chain(h, immediate(2)); err != nil {
				t.Errorf("handle invalidated by failed Restore: %v", err)
			}
		})
	}
}

func TestQueue_Clear(t *testing.T) {
	f := newFixture()
	h := f.q.Queue(oneshot(1, 1, 0))
	f.q.Clear()
	if !f.q.Empty() {
		t.Fatal("Clear should empty the queue")
	}
	if _, err := f.q.Chain(h, immediate(2)); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Chain after Clear error = %v, want ErrInvalidHandle", err)
	}
	f.drainTo(t, 3)
	if len(f.rec.fired) != 0 {
		t.Errorf("cleared records fired: %v", f.rec.fired)
	}
}

// A chain with strictly increasing durations fires in link order no matter
// which unrelated chains are queued alongside it.
func TestPropertyChainOrdering(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("links fire in chain order", prop.ForAll(
		func(n int, noise []int64) bool {
			f := newFixture()
			for i, d := range noise {
				f.q.Queue(oneshot(int32(1000+i), d, 0))
			}
			h := f.q.Queue(oneshot(0, 0, 0))
			for i := 1; i < n; i++ {
				h, _ = f.q.Chain(h, oneshot(int32(i), 0, int64(i)))
			}

			var total int64 = 1
			for i := 1; i < n; i++ {
				total += int64(i)
			}
			for _, d := range noise {
				total = max(total, d+1)
			}
			for f.tick < total+1 {
				f.tick++
				if f.q.Drain(f.tick, f.rec) != nil {
					return false
				}
			}

			next := int32(0)
			lastTick := int64(-1)
			for _, s := range f.rec.fired {
				var tick int64
				var id int32
				fmt.Sscanf(s, "%d:%d", &tick, &id)
				if id >= 1000 {
					continue
				}
				if id != next || tick <= lastTick {
					return false
				}
				next++
				lastTick = tick
			}
			return int(next) == n && f.q.Empty()
		},
		gen.IntRange(1, 8),
		gen.SliceOf(gen.Int64Range(0, 20)),
	))

	properties.TestingRun(t)
}
